package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/taskboard/internal/auth"
	"github.com/Joseda-hg/taskboard/internal/model"
	"github.com/Joseda-hg/taskboard/internal/task"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	boardTemplate     = template.Must(template.ParseFS(templateFS, "templates/board.tmpl"))
	dashboardTemplate = template.Must(template.ParseFS(templateFS, "templates/dashboard.tmpl"))
)

type Server struct {
	repo    *task.Repository
	session *auth.Context
}

func NewServer(repo *task.Repository, session *auth.Context) *Server {
	return &Server{repo: repo, session: session}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.boardHandler)
	mux.HandleFunc("/dashboard", s.dashboardHandler)
	mux.HandleFunc("/api/tasks", s.apiTasksHandler)
	mux.HandleFunc("/api/tasks/", s.apiTaskHandler)
	mux.HandleFunc("/api/summary", s.apiSummaryHandler)
	return mux
}

type taskRow struct {
	ID       string
	Name     string
	Priority string
	Deadline string
	Stage    int
}

type column struct {
	Stage int
	Label string
	Tasks []taskRow
}

func (s *Server) boardHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	userID, ok := s.requireUser(w)
	if !ok {
		return
	}

	columns := make([]column, 0, model.StageCount)
	for stage := 0; stage < model.StageCount; stage++ {
		tasks := s.repo.FilterByStage(userID, model.Stage(stage))
		columns = append(columns, column{
			Stage: stage,
			Label: model.Stage(stage).String(),
			Tasks: buildTaskRows(tasks),
		})
	}

	data := struct {
		UserName string
		Columns  []column
	}{UserName: s.userName(), Columns: columns}

	if err := boardTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w)
	if !ok {
		return
	}

	counts := s.repo.CountsByStage(userID)
	total := 0
	stages := make([]struct {
		Label string
		Count int
	}, 0, model.StageCount)
	for stage, count := range counts {
		total += count
		stages = append(stages, struct {
			Label string
			Count int
		}{Label: model.Stage(stage).String(), Count: count})
	}

	data := struct {
		UserName string
		Total    int
		Stages   []struct {
			Label string
			Count int
		}
		Upcoming []taskRow
	}{
		UserName: s.userName(),
		Total:    total,
		Stages:   stages,
		Upcoming: buildTaskRows(s.repo.UpcomingDeadlines(userID, 0)),
	}

	if err := dashboardTemplate.Execute(w, data); err != nil {
		writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) apiTasksHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		if value := strings.TrimSpace(r.URL.Query().Get("stage")); value != "" {
			// Unlike the move target, a read filter does not clamp: an
			// out-of-range stage would silently alias the Done column.
			stage, err := strconv.Atoi(value)
			if err != nil || stage < 0 || stage >= model.StageCount {
				writeError(w, http.StatusBadRequest, fmt.Errorf("invalid stage"))
				return
			}
			writeJSON(w, s.repo.FilterByStage(userID, model.Stage(stage)))
			return
		}
		writeJSON(w, s.repo.ListForUser(userID))
	case http.MethodPost:
		var payload struct {
			Name     string `json:"name"`
			Priority string `json:"priority"`
			Deadline string `json:"deadline"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body"))
			return
		}

		input := task.TaskInput{Name: payload.Name, Priority: payload.Priority, UserID: userID}
		if strings.TrimSpace(payload.Deadline) != "" {
			deadline, err := time.Parse(model.DateLayout, strings.TrimSpace(payload.Deadline))
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("invalid deadline"))
				return
			}
			input.Deadline = &deadline
		}

		created, err := s.repo.Create(input)
		if err != nil {
			var verr *task.ValidationError
			if errors.As(err, &verr) {
				writeError(w, http.StatusBadRequest, verr)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) apiTaskHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireUser(w); !ok {
		return
	}

	id, action, err := parseTaskPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		found, ok := s.repo.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("task not found"))
			return
		}
		writeJSON(w, found)
	case action == "" && (r.Method == http.MethodPatch || r.Method == http.MethodPut):
		var payload struct {
			Name     *string `json:"name"`
			Priority *string `json:"priority"`
			Deadline *string `json:"deadline"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body"))
			return
		}

		input := task.UpdateInput{Name: payload.Name, Priority: payload.Priority}
		if payload.Deadline != nil {
			deadline, err := time.Parse(model.DateLayout, strings.TrimSpace(*payload.Deadline))
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Errorf("invalid deadline"))
				return
			}
			input.Deadline = &deadline
		}

		if err := s.repo.Update(id, input); err != nil {
			var verr *task.ValidationError
			if errors.As(err, &verr) {
				writeError(w, http.StatusBadRequest, verr)
				return
			}
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case action == "" && r.Method == http.MethodDelete:
		s.repo.Delete(id)
		w.WriteHeader(http.StatusNoContent)
	case action == "move" && r.Method == http.MethodPost:
		var payload struct {
			Stage int `json:"stage"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body"))
			return
		}
		s.repo.MoveToStage(id, payload.Stage)
		w.WriteHeader(http.StatusNoContent)
	case action == "forward" && r.Method == http.MethodPost:
		s.repo.MoveForward(id)
		w.WriteHeader(http.StatusNoContent)
	case action == "back" && r.Method == http.MethodPost:
		s.repo.MoveBack(id)
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) apiSummaryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w)
	if !ok {
		return
	}

	counts := s.repo.CountsByStage(userID)
	total := 0
	for _, count := range counts {
		total += count
	}

	payload := struct {
		Total    int                   `json:"total"`
		ByStage  [model.StageCount]int `json:"byStage"`
		Upcoming []model.Task          `json:"upcoming"`
	}{
		Total:    total,
		ByStage:  counts,
		Upcoming: s.repo.UpcomingDeadlines(userID, 0),
	}
	writeJSON(w, payload)
}

// requireUser resolves the process session. Per-task authorization is not
// enforced beyond this; the engine trusts the caller-supplied identity.
func (s *Server) requireUser(w http.ResponseWriter) (string, bool) {
	if !s.session.IsAuthenticated() {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("please login"))
		return "", false
	}
	return s.session.CurrentUserID(), true
}

func (s *Server) userName() string {
	user := s.session.User()
	if user == nil {
		return ""
	}
	if user.Name != "" {
		return user.Name
	}
	return user.Username
}

func buildTaskRows(tasks []model.Task) []taskRow {
	rows := make([]taskRow, 0, len(tasks))
	for _, t := range tasks {
		deadline := ""
		if t.Deadline != nil {
			deadline = t.Deadline.Format(model.DateLayout)
		}
		rows = append(rows, taskRow{
			ID:       t.ID,
			Name:     t.Name,
			Priority: string(t.Priority),
			Deadline: deadline,
			Stage:    int(t.Stage),
		})
	}
	return rows
}

func parseTaskPath(path string) (id, action string, err error) {
	value := strings.TrimPrefix(path, "/api/tasks/")
	value = strings.Trim(value, "/")
	if value == "" {
		return "", "", fmt.Errorf("missing id")
	}

	parts := strings.SplitN(value, "/", 2)
	id = parts[0]
	if len(parts) == 2 {
		action = parts[1]
	}
	switch action {
	case "", "move", "forward", "back":
		return id, action, nil
	default:
		return "", "", fmt.Errorf("invalid path")
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
