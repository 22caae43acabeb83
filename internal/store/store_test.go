package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Joseda-hg/taskboard/internal/model"
)

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return NewStore(db), func() { db.Close() }
}

func TestLoadEmptyStore(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	tasks, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tasks != nil {
		t.Fatalf("expected nil tasks from an empty store, got %v", tasks)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	deadline := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	saved := []model.Task{
		{
			ID:       "t1",
			Name:     "Ship release",
			Priority: model.PriorityHigh,
			Deadline: &deadline,
			Stage:    model.StageOngoing,
			UserID:   "u1",
		},
		{
			ID:       "t2",
			Name:     "Water plants",
			Priority: model.PriorityLow,
			Stage:    model.StageBacklog,
			UserID:   "u1",
			Extra:    map[string]json.RawMessage{"color": json.RawMessage(`"green"`)},
		},
	}

	if err := store.Save(context.Background(), saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(loaded))
	}
	if loaded[0].ID != "t1" || loaded[1].ID != "t2" {
		t.Fatalf("expected insertion order to survive, got %q, %q", loaded[0].ID, loaded[1].ID)
	}
	if loaded[0].Stage != model.StageOngoing {
		t.Fatalf("expected stage %v, got %v", model.StageOngoing, loaded[0].Stage)
	}
	if loaded[0].Deadline == nil || !loaded[0].Deadline.Equal(deadline) {
		t.Fatalf("expected deadline %v, got %v", deadline, loaded[0].Deadline)
	}
	if loaded[1].Deadline != nil {
		t.Fatalf("expected nil deadline, got %v", loaded[1].Deadline)
	}
	if string(loaded[1].Extra["color"]) != `"green"` {
		t.Fatalf("expected unknown field to survive, got %s", loaded[1].Extra["color"])
	}
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	first := []model.Task{{ID: "t1", Name: "Old", Priority: model.PriorityMedium, UserID: "u1"}}
	if err := store.Save(context.Background(), first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := store.Save(context.Background(), nil); err != nil {
		t.Fatalf("save empty: %v", err)
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty snapshot, got %d tasks", len(loaded))
	}
}

func TestLoadCorruptSnapshot(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	_, err := store.DB.Exec(
		"INSERT INTO snapshots (key, value) VALUES (?, ?)", "tasks", "{not json")
	if err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	if _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected decode error for corrupt snapshot")
	}
}
