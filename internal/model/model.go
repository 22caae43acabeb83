package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for deadlines, a calendar date without a
// time component.
const DateLayout = "2006-01-02"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority validates a user-supplied priority value.
func ParsePriority(value string) (Priority, error) {
	switch p := Priority(strings.TrimSpace(strings.ToLower(value))); p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return p, nil
	default:
		return "", fmt.Errorf("invalid priority %q", value)
	}
}

// Stage is a workflow position. Valid stages are the four values below;
// anything else is clamped into range at construction and decode time.
type Stage int

const (
	StageBacklog Stage = iota
	StageToDo
	StageOngoing
	StageDone

	StageCount = 4
)

var stageLabels = [StageCount]string{"Backlog", "To Do", "Ongoing", "Done"}

func ClampStage(value int) Stage {
	if value < 0 {
		return StageBacklog
	}
	if value >= StageCount {
		return StageDone
	}
	return Stage(value)
}

func (s Stage) String() string {
	if s < 0 || s >= StageCount {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageLabels[s]
}

type Task struct {
	ID       string
	Name     string
	Priority Priority
	Deadline *time.Time
	Stage    Stage
	UserID   string

	// Extra holds persisted fields this version does not know about, so
	// snapshots written by a newer version round-trip losslessly.
	Extra map[string]json.RawMessage
}

// Clone returns an independent copy of the task.
func (t Task) Clone() Task {
	clone := t
	if t.Deadline != nil {
		deadline := *t.Deadline
		clone.Deadline = &deadline
	}
	if t.Extra != nil {
		clone.Extra = make(map[string]json.RawMessage, len(t.Extra))
		for key, value := range t.Extra {
			clone.Extra[key] = value
		}
	}
	return clone
}

func (t Task) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(t.Extra)+6)
	for key, value := range t.Extra {
		fields[key] = value
	}

	set := func(key string, value any) error {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal task %s: %w", key, err)
		}
		fields[key] = raw
		return nil
	}

	if err := set("id", t.ID); err != nil {
		return nil, err
	}
	if err := set("name", t.Name); err != nil {
		return nil, err
	}
	if err := set("priority", string(t.Priority)); err != nil {
		return nil, err
	}
	if err := set("stage", int(t.Stage)); err != nil {
		return nil, err
	}

	var deadline *string
	if t.Deadline != nil {
		formatted := t.Deadline.Format(DateLayout)
		deadline = &formatted
	}
	if err := set("deadline", deadline); err != nil {
		return nil, err
	}

	// Unassigned tasks carry a null userId on the wire, matching legacy
	// records.
	var userID *string
	if t.UserID != "" {
		userID = &t.UserID
	}
	if err := set("userId", userID); err != nil {
		return nil, err
	}

	return json.Marshal(fields)
}

func (t *Task) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	take := func(key string) (json.RawMessage, bool) {
		raw, ok := fields[key]
		if ok {
			delete(fields, key)
		}
		return raw, ok
	}

	if raw, ok := take("id"); ok {
		if err := json.Unmarshal(raw, &t.ID); err != nil {
			return fmt.Errorf("decode task id: %w", err)
		}
	}
	if raw, ok := take("name"); ok {
		if err := json.Unmarshal(raw, &t.Name); err != nil {
			return fmt.Errorf("decode task name: %w", err)
		}
	}

	if raw, ok := take("priority"); ok {
		var value *string
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("decode task priority: %w", err)
		}
		if value != nil {
			// Legacy snapshots may hold values outside the enum;
			// loads tolerate them, mutation validation does not.
			t.Priority = Priority(strings.TrimSpace(strings.ToLower(*value)))
		}
	}

	if raw, ok := take("deadline"); ok {
		var value *string
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("decode task deadline: %w", err)
		}
		if value != nil && strings.TrimSpace(*value) != "" {
			parsed, err := time.Parse(DateLayout, strings.TrimSpace(*value))
			if err != nil {
				return fmt.Errorf("decode task deadline: %w", err)
			}
			t.Deadline = &parsed
		}
	}

	if raw, ok := take("stage"); ok {
		var value int
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("decode task stage: %w", err)
		}
		t.Stage = ClampStage(value)
	}

	if raw, ok := take("userId"); ok {
		var value *string
		if err := json.Unmarshal(raw, &value); err != nil {
			return fmt.Errorf("decode task userId: %w", err)
		}
		if value != nil {
			t.UserID = *value
		}
	}

	if len(fields) > 0 {
		t.Extra = fields
	}
	return nil
}
