package task

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/Joseda-hg/taskboard/internal/model"
	"github.com/google/uuid"
)

// Store is the durability boundary the repository mirrors itself through.
type Store interface {
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
}

// Repository holds the authoritative in-memory task collection. Insertion
// order is preserved and is the default display order. Every mutation is
// atomic under the mutex (the web server and the TUI both mutate), and every
// mutation schedules a best-effort snapshot save; a slow or failing store
// never blocks or fails an in-memory operation.
type Repository struct {
	mu     sync.Mutex
	tasks  []model.Task
	closed bool

	store Store
	saves chan []model.Task
	done  chan struct{}
}

type TaskInput struct {
	Name     string
	Priority string
	Deadline *time.Time
	UserID   string
}

// UpdateInput applies only its non-nil fields.
type UpdateInput struct {
	Name     *string
	Priority *string
	Deadline *time.Time
}

func NewRepository(store Store) *Repository {
	r := &Repository{
		store: store,
		saves: make(chan []model.Task, 1),
		done:  make(chan struct{}),
	}

	tasks, err := store.Load(context.Background())
	if err != nil {
		log.Printf("task snapshot load failed, starting empty: %v", err)
		tasks = nil
	}
	r.tasks = tasks

	go r.saver()
	return r
}

// Close flushes any pending snapshot save. Mutations that race Close (the
// web server may still be serving while the TUI shuts down) stay in memory
// only; they are never persisted and never panic.
func (r *Repository) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.saves)
	<-r.done
	return nil
}

func (r *Repository) Create(input TaskInput) (model.Task, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return model.Task{}, validationErr("name", "must not be empty")
	}
	if strings.TrimSpace(input.Priority) == "" {
		return model.Task{}, validationErr("priority", "is required")
	}
	priority, err := model.ParsePriority(input.Priority)
	if err != nil {
		return model.Task{}, validationErr("priority", "must be high, medium or low")
	}
	if input.Deadline == nil {
		return model.Task{}, validationErr("deadline", "is required")
	}
	deadline := *input.Deadline

	created := model.Task{
		ID:       uuid.NewString(),
		Name:     name,
		Priority: priority,
		Deadline: &deadline,
		Stage:    model.StageBacklog,
		UserID:   strings.TrimSpace(input.UserID),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, created)
	r.scheduleSave()
	return created.Clone(), nil
}

func (r *Repository) Update(id string, input UpdateInput) error {
	var name *string
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return validationErr("name", "must not be empty")
		}
		name = &trimmed
	}

	var priority *model.Priority
	if input.Priority != nil {
		parsed, err := model.ParsePriority(*input.Priority)
		if err != nil {
			return validationErr("priority", "must be high, medium or low")
		}
		priority = &parsed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.indexOf(id)
	if index < 0 {
		// Find-or-skip: a vanished id is not an error here or in any
		// other mutator.
		return nil
	}

	if name != nil {
		r.tasks[index].Name = *name
	}
	if priority != nil {
		r.tasks[index].Priority = *priority
	}
	if input.Deadline != nil {
		deadline := *input.Deadline
		r.tasks[index].Deadline = &deadline
	}
	r.scheduleSave()
	return nil
}

func (r *Repository) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.indexOf(id)
	if index < 0 {
		return
	}
	r.tasks = append(r.tasks[:index], r.tasks[index+1:]...)
	r.scheduleSave()
}

func (r *Repository) MoveBack(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.indexOf(id)
	if index < 0 || r.tasks[index].Stage <= model.StageBacklog {
		return
	}
	r.tasks[index].Stage--
	r.scheduleSave()
}

func (r *Repository) MoveForward(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.indexOf(id)
	if index < 0 || r.tasks[index].Stage >= model.StageDone {
		return
	}
	r.tasks[index].Stage++
	r.scheduleSave()
}

// MoveToStage jumps a task to an arbitrary stage; this is the drag-and-drop
// target. Out-of-range values are clamped into [0,3].
func (r *Repository) MoveToStage(id string, stage int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.indexOf(id)
	if index < 0 {
		return
	}
	clamped := model.ClampStage(stage)
	if r.tasks[index].Stage == clamped {
		return
	}
	r.tasks[index].Stage = clamped
	r.scheduleSave()
}

func (r *Repository) Get(id string) (model.Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	index := r.indexOf(id)
	if index < 0 {
		return model.Task{}, false
	}
	return r.tasks[index].Clone(), true
}

// List returns a copy of the whole collection in insertion order.
func (r *Repository) List() []model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		result = append(result, t.Clone())
	}
	return result
}

func (r *Repository) indexOf(id string) int {
	for i, t := range r.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// scheduleSave hands the saver a snapshot of the current collection,
// replacing any snapshot it has not picked up yet. Callers hold the mutex.
func (r *Repository) scheduleSave() {
	if r.closed {
		return
	}

	snapshot := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		snapshot = append(snapshot, t.Clone())
	}

	for {
		select {
		case r.saves <- snapshot:
			return
		default:
		}
		select {
		case <-r.saves:
		default:
		}
	}
}

func (r *Repository) saver() {
	defer close(r.done)
	for snapshot := range r.saves {
		if err := r.store.Save(context.Background(), snapshot); err != nil {
			log.Printf("task snapshot save failed: %v", err)
		}
	}
}
