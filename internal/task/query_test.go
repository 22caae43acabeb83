package task

import (
	"fmt"
	"testing"

	"github.com/Joseda-hg/taskboard/internal/model"
)

func TestListForUserOwnershipBoundary(t *testing.T) {
	repo, _ := newTestRepo(t)

	mustCreate(t, repo, "Mine", "u1", "2024-06-01")
	mustCreate(t, repo, "Also mine", "u1", "2024-06-02")
	mustCreate(t, repo, "Theirs", "u2", "2024-06-03")

	mine := repo.ListForUser("u1")
	if len(mine) != 2 {
		t.Fatalf("expected 2 tasks for u1, got %d", len(mine))
	}
	if mine[0].Name != "Mine" || mine[1].Name != "Also mine" {
		t.Fatalf("expected insertion order, got %q, %q", mine[0].Name, mine[1].Name)
	}

	if theirs := repo.ListForUser("u2"); len(theirs) != 1 {
		t.Fatalf("expected 1 task for u2, got %d", len(theirs))
	}
	if anonymous := repo.ListForUser(""); len(anonymous) != 0 {
		t.Fatalf("expected no tasks for the empty user id, got %d", len(anonymous))
	}
}

func TestCountsByStage(t *testing.T) {
	repo, _ := newTestRepo(t)

	a := mustCreate(t, repo, "A", "u1", "2024-06-01")
	b := mustCreate(t, repo, "B", "u1", "2024-06-02")
	mustCreate(t, repo, "C", "u1", "2024-06-03")
	mustCreate(t, repo, "Other", "u2", "2024-06-04")

	repo.MoveForward(a.ID)
	repo.MoveToStage(b.ID, int(model.StageDone))

	counts := repo.CountsByStage("u1")
	want := [model.StageCount]int{1, 1, 0, 1}
	if counts != want {
		t.Fatalf("expected counts %v, got %v", want, counts)
	}

	if empty := repo.CountsByStage("nobody"); empty != ([model.StageCount]int{}) {
		t.Fatalf("expected zero counts for unknown user, got %v", empty)
	}
}

func TestUpcomingDeadlinesSortsAndLimits(t *testing.T) {
	repo, _ := newTestRepo(t)

	mustCreate(t, repo, "Later", "u1", "2024-06-20")
	mustCreate(t, repo, "Soonest", "u1", "2024-06-01")
	mustCreate(t, repo, "Middle", "u1", "2024-06-10")
	mustCreate(t, repo, "Not mine", "u2", "2024-05-01")

	upcoming := repo.UpcomingDeadlines("u1", 2)
	if len(upcoming) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(upcoming))
	}
	if upcoming[0].Name != "Soonest" || upcoming[1].Name != "Middle" {
		t.Fatalf("expected soonest-first order, got %q, %q", upcoming[0].Name, upcoming[1].Name)
	}
}

func TestUpcomingDeadlinesDefaultLimit(t *testing.T) {
	repo, _ := newTestRepo(t)

	for i := 1; i <= 12; i++ {
		mustCreate(t, repo, fmt.Sprintf("Task %d", i), "u1", fmt.Sprintf("2024-06-%02d", i))
	}

	upcoming := repo.UpcomingDeadlines("u1", 0)
	if len(upcoming) != DefaultUpcomingLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultUpcomingLimit, len(upcoming))
	}
	if upcoming[0].Name != "Task 1" {
		t.Fatalf("expected the soonest task first, got %q", upcoming[0].Name)
	}
}

func TestUpcomingDeadlinesTiesKeepInsertionOrder(t *testing.T) {
	repo, _ := newTestRepo(t)

	mustCreate(t, repo, "First in", "u1", "2024-06-05")
	mustCreate(t, repo, "Second in", "u1", "2024-06-05")
	mustCreate(t, repo, "Third in", "u1", "2024-06-05")

	upcoming := repo.UpcomingDeadlines("u1", 0)
	if len(upcoming) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(upcoming))
	}
	for i, want := range []string{"First in", "Second in", "Third in"} {
		if upcoming[i].Name != want {
			t.Fatalf("expected stable tie order, got %q at %d", upcoming[i].Name, i)
		}
	}
}

func TestFilterByStage(t *testing.T) {
	repo, _ := newTestRepo(t)

	a := mustCreate(t, repo, "Backlogged", "u1", "2024-06-01")
	b := mustCreate(t, repo, "Working", "u1", "2024-06-02")
	mustCreate(t, repo, "Someone else", "u2", "2024-06-03")

	repo.MoveToStage(b.ID, int(model.StageOngoing))

	backlog := repo.FilterByStage("u1", model.StageBacklog)
	if len(backlog) != 1 || backlog[0].ID != a.ID {
		t.Fatalf("expected only the backlogged task, got %+v", backlog)
	}

	ongoing := repo.FilterByStage("u1", model.StageOngoing)
	if len(ongoing) != 1 || ongoing[0].ID != b.ID {
		t.Fatalf("expected only the ongoing task, got %+v", ongoing)
	}

	if done := repo.FilterByStage("u1", model.StageDone); len(done) != 0 {
		t.Fatalf("expected no done tasks, got %d", len(done))
	}
}

func TestQueriesReturnCopies(t *testing.T) {
	repo, _ := newTestRepo(t)
	created := mustCreate(t, repo, "Guarded", "u1", "2024-06-01")

	listed := repo.ListForUser("u1")
	listed[0].Name = "Tampered"
	*listed[0].Deadline = listed[0].Deadline.AddDate(1, 0, 0)

	got, _ := repo.Get(created.ID)
	if got.Name != "Guarded" {
		t.Fatalf("query result aliases repository state: %q", got.Name)
	}
	if !got.Deadline.Equal(*created.Deadline) {
		t.Fatalf("query result aliases repository deadline: %v", got.Deadline)
	}
}
