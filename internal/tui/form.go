package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/taskboard/internal/model"
	"github.com/Joseda-hg/taskboard/internal/task"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldName = iota
	fieldPriority
	fieldDeadline
)

const priorityLabel = "Priority (space/←→)"

var priorityCycle = []string{
	string(model.PriorityHigh),
	string(model.PriorityMedium),
	string(model.PriorityLow),
}

func buildFormFields(t *model.Task) []formField {
	fields := []formField{
		{Label: "Name"},
		{Label: priorityLabel},
		{Label: "Deadline (YYYY-MM-DD)"},
	}

	if t == nil {
		fields[fieldPriority].Value = string(model.PriorityMedium)
		return fields
	}

	fields[fieldName].Value = t.Name
	fields[fieldPriority].Value = string(t.Priority)
	if t.Deadline != nil {
		fields[fieldDeadline].Value = t.Deadline.Format(model.DateLayout)
	}

	return fields
}

func parseFormFields(fields []formField) (task.TaskInput, error) {
	deadline, err := parseDeadline(fields[fieldDeadline].Value)
	if err != nil {
		return task.TaskInput{}, err
	}

	return task.TaskInput{
		Name:     strings.TrimSpace(fields[fieldName].Value),
		Priority: strings.TrimSpace(fields[fieldPriority].Value),
		Deadline: deadline,
	}, nil
}

func updateInputFrom(input task.TaskInput) task.UpdateInput {
	name := input.Name
	priority := input.Priority
	return task.UpdateInput{
		Name:     &name,
		Priority: &priority,
		Deadline: input.Deadline,
	}
}

func parseDeadline(value string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := time.Parse(model.DateLayout, trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid deadline")
	}
	return &parsed, nil
}

func isPriorityField(label string) bool {
	return label == priorityLabel
}

func nextPriority(current string) string {
	for i, value := range priorityCycle {
		if value == current {
			return priorityCycle[(i+1)%len(priorityCycle)]
		}
	}
	return priorityCycle[0]
}

func prevPriority(current string) string {
	for i, value := range priorityCycle {
		if value == current {
			return priorityCycle[(i+len(priorityCycle)-1)%len(priorityCycle)]
		}
	}
	return priorityCycle[0]
}

func formatTaskSummary(t model.Task) string {
	summary := t.Name
	if t.Deadline != nil {
		summary += " (" + t.Deadline.Format(model.DateLayout) + ")"
	}
	switch t.Priority {
	case model.PriorityHigh:
		summary = "! " + summary
	case model.PriorityLow:
		summary = ". " + summary
	default:
		summary = "- " + summary
	}
	return summary
}
