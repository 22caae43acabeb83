package task

import (
	"sort"

	"github.com/Joseda-hg/taskboard/internal/model"
)

// DefaultUpcomingLimit caps UpcomingDeadlines when the caller passes no
// positive limit.
const DefaultUpcomingLimit = 8

// ListForUser returns the user's tasks in insertion order. Tasks owned by
// anyone else, including legacy unassigned tasks, are never included.
func (r *Repository) ListForUser(userID string) []model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if t.UserID == userID && userID != "" {
			result = append(result, t.Clone())
		}
	}
	return result
}

func (r *Repository) CountsByStage(userID string) [model.StageCount]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var counts [model.StageCount]int
	for _, t := range r.tasks {
		if t.UserID != userID || userID == "" {
			continue
		}
		counts[model.ClampStage(int(t.Stage))]++
	}
	return counts
}

// UpcomingDeadlines returns the user's dated tasks, soonest first. Ties keep
// insertion order.
func (r *Repository) UpcomingDeadlines(userID string, limit int) []model.Task {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}

	r.mu.Lock()
	dated := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if t.UserID != userID || userID == "" || t.Deadline == nil {
			continue
		}
		dated = append(dated, t.Clone())
	}
	r.mu.Unlock()

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].Deadline.Before(*dated[j].Deadline)
	})
	if len(dated) > limit {
		dated = dated[:limit]
	}
	return dated
}

// FilterByStage is the per-column board view.
func (r *Repository) FilterByStage(userID string, stage model.Stage) []model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if t.UserID == userID && userID != "" && t.Stage == stage {
			result = append(result, t.Clone())
		}
	}
	return result
}
