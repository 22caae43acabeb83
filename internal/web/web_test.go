package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/taskboard/internal/auth"
	"github.com/Joseda-hg/taskboard/internal/model"
	"github.com/Joseda-hg/taskboard/internal/task"
)

type stubStore struct{}

func (stubStore) Load(ctx context.Context) ([]model.Task, error)     { return nil, nil }
func (stubStore) Save(ctx context.Context, tasks []model.Task) error { return nil }

// authedContext builds a validated session against a one-user directory.
func authedContext(t *testing.T, userID, username string) *auth.Context {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/sessions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[{"id":"s1","userId":%q,"token":"tok"}]`, userID)
	})
	mux.HandleFunc("/users/"+userID, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":%q,"name":"Casey Lane","username":%q,"email":"casey@example.com"}`, userID, username)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	session := auth.NewContext(auth.NewDirectory(server.URL), auth.Credentials{Token: "tok"})
	if err := session.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !session.IsAuthenticated() {
		t.Fatalf("expected authenticated test session")
	}
	return session
}

func newTestServer(t *testing.T) (*Server, *task.Repository) {
	t.Helper()
	repo := task.NewRepository(stubStore{})
	t.Cleanup(func() { repo.Close() })
	return NewServer(repo, authedContext(t, "u1", "casey")), repo
}

func TestHandlersRequireLogin(t *testing.T) {
	repo := task.NewRepository(stubStore{})
	defer repo.Close()
	session := auth.NewContext(auth.NewDirectory("http://127.0.0.1:0"), auth.Credentials{})
	handler := NewServer(repo, session).Handler()

	for _, path := range []string{"/", "/dashboard", "/api/tasks", "/api/tasks/x", "/api/summary"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, rec.Code)
		}
	}
}

func TestTaskAPILifecycle(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	body := `{"name":"Ship it","priority":"high","deadline":"2024-06-01"}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created task: %v", err)
	}
	if created.ID == "" || created.Stage != model.StageBacklog {
		t.Fatalf("unexpected created task: %+v", created)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost,
		"/api/tasks/"+created.ID+"/move", bytes.NewReader([]byte(`{"stage":2}`))))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for move, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks?stage=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var inStage []model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &inStage); err != nil {
		t.Fatalf("decode stage list: %v", err)
	}
	if len(inStage) != 1 || inStage[0].ID != created.ID {
		t.Fatalf("expected the moved task in stage 2, got %+v", inStage)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tasks/"+created.ID+"/forward", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for forward, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/"+created.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var fetched model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode fetched task: %v", err)
	}
	if fetched.Stage != model.StageDone {
		t.Fatalf("expected Done after move+forward, got %v", fetched.Stage)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/tasks/"+created.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for delete, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/"+created.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	cases := []string{
		`{"name":"","priority":"high","deadline":"2024-06-01"}`,
		`{"name":"x","priority":"urgent","deadline":"2024-06-01"}`,
		`{"name":"x","priority":"high"}`,
		`{"name":"x","priority":"high","deadline":"junk"}`,
		`{not json`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rec.Code)
		}
	}
}

func TestStageFilterRejectsOutOfRange(t *testing.T) {
	server, repo := newTestServer(t)
	handler := server.Handler()

	created, err := repo.Create(task.TaskInput{
		Name: "Done deal", Priority: "high", Deadline: dateOn(t, "2024-06-01"), UserID: "u1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.MoveToStage(created.ID, int(model.StageDone))

	for _, value := range []string{"99", "-1", "abc"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks?stage="+value, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for stage=%s, got %d", value, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks?stage=3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for stage=3, got %d", rec.Code)
	}
	var inStage []model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &inStage); err != nil {
		t.Fatalf("decode stage list: %v", err)
	}
	if len(inStage) != 1 || inStage[0].ID != created.ID {
		t.Fatalf("expected the done task for stage=3, got %+v", inStage)
	}
}

func TestPartialUpdate(t *testing.T) {
	server, repo := newTestServer(t)
	handler := server.Handler()

	created, err := repo.Create(task.TaskInput{
		Name: "Before", Priority: "medium", Deadline: dateOn(t, "2024-06-01"), UserID: "u1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch,
		"/api/tasks/"+created.ID, strings.NewReader(`{"name":"After"}`)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	updated, _ := repo.Get(created.ID)
	if updated.Name != "After" || updated.Priority != model.PriorityMedium {
		t.Fatalf("unexpected task after patch: %+v", updated)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	server, repo := newTestServer(t)
	handler := server.Handler()

	created, err := repo.Create(task.TaskInput{
		Name: "Count me", Priority: "high", Deadline: dateOn(t, "2024-06-01"), UserID: "u1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.MoveForward(created.ID)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var summary struct {
		Total    int          `json:"total"`
		ByStage  []int        `json:"byStage"`
		Upcoming []model.Task `json:"upcoming"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Total != 1 {
		t.Fatalf("expected total 1, got %d", summary.Total)
	}
	if len(summary.ByStage) != model.StageCount || summary.ByStage[int(model.StageToDo)] != 1 {
		t.Fatalf("unexpected stage counts: %v", summary.ByStage)
	}
	if len(summary.Upcoming) != 1 || summary.Upcoming[0].ID != created.ID {
		t.Fatalf("unexpected upcoming list: %+v", summary.Upcoming)
	}
}

func TestBoardAndDashboardRender(t *testing.T) {
	server, repo := newTestServer(t)
	handler := server.Handler()

	if _, err := repo.Create(task.TaskInput{
		Name: "Visible task", Priority: "low", Deadline: dateOn(t, "2024-06-01"), UserID: "u1",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, path := range []string{"/", "/dashboard"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Visible task") {
			t.Fatalf("expected rendered task on %s", path)
		}
	}
}

func dateOn(t *testing.T, value string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(model.DateLayout, value)
	if err != nil {
		t.Fatalf("parse date %q: %v", value, err)
	}
	return &parsed
}
