package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Joseda-hg/taskboard/internal/model"
)

// rootKey names the single persisted record. Only the task collection is
// whitelisted for persistence; auth and session state never reach the store.
const rootKey = "tasks"

// Store mirrors the in-memory task collection to SQLite as one serialized
// snapshot per save. Callers treat both directions as best-effort: a load
// error means "start empty", a save error is logged and life goes on.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Load(ctx context.Context) ([]model.Task, error) {
	var value string
	err := s.DB.QueryRowContext(ctx, "SELECT value FROM snapshots WHERE key = ?", rootKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var tasks []model.Task
	if err := json.Unmarshal([]byte(value), &tasks); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return tasks, nil
}

func (s *Store) Save(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}

	payload, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		rootKey, string(payload))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
