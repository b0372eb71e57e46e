package backlog

import (
	"testing"
	"time"
)

func newTaskService(t *testing.T) *TaskService {
	t.Helper()
	return NewTaskService(newTestStore(t))
}

func TestTaskCreateAndGetRoundTrip(t *testing.T) {
	svc := newTaskService(t)

	hours := 4.5
	due := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	created, err := svc.Create(CreateTaskParams{
		Title:          "Write migration",
		Description:    "Schema v2",
		StoryID:        "STORY-1",
		Assignee:       "dana",
		EstimatedHours: &hours,
		DueDate:        &due,
		Tags:           []string{"db"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != TaskTodo || created.Priority != PriorityMedium {
		t.Errorf("defaults = %s/%s, want todo/medium", created.Status, created.Priority)
	}

	got, err := svc.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Title != created.Title || got.Assignee != "dana" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.EstimatedHours == nil || *got.EstimatedHours != 4.5 {
		t.Errorf("estimated_hours = %v, want 4.5", got.EstimatedHours)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("due_date = %v, want %v", got.DueDate, due)
	}
}

func TestTaskCreateRejectsNegativeHours(t *testing.T) {
	svc := newTaskService(t)

	bad := -1.0
	if _, err := svc.Create(CreateTaskParams{Title: "t", Description: "d", EstimatedHours: &bad}); err == nil {
		t.Error("Create with negative hours succeeded, want error")
	}
}

func TestTaskUpdatePartialFields(t *testing.T) {
	svc := newTaskService(t)

	task, _ := svc.Create(CreateTaskParams{Title: "t", Description: "d", Assignee: "sam"})

	actual := 2.0
	status := TaskInProgress
	updated, err := svc.Update(task.ID, TaskUpdate{Status: &status, ActualHours: &actual})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Status != TaskInProgress {
		t.Errorf("status = %s, want in_progress", updated.Status)
	}
	if updated.ActualHours == nil || *updated.ActualHours != 2.0 {
		t.Errorf("actual_hours = %v, want 2.0", updated.ActualHours)
	}
	if updated.Assignee != "sam" {
		t.Errorf("assignee changed unexpectedly: %q", updated.Assignee)
	}

	negative := -0.5
	if _, err := svc.Update(task.ID, TaskUpdate{ActualHours: &negative}); err == nil {
		t.Error("Update with negative actual hours succeeded, want error")
	}
}

func TestTaskUpdateMissingReturnsNil(t *testing.T) {
	svc := newTaskService(t)

	status := TaskDone
	updated, err := svc.Update("TASK-NOPE", TaskUpdate{Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated != nil {
		t.Errorf("Update of missing task = %+v, want nil", updated)
	}
}

func TestTaskDependencyCycleDetection(t *testing.T) {
	svc := newTaskService(t)

	a, err := svc.Create(CreateTaskParams{Title: "a", Description: "d"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := svc.Create(CreateTaskParams{Title: "b", Description: "d", Dependencies: []string{a.ID}})
	if err != nil {
		t.Fatalf("Create with dependency: %v", err)
	}
	c, err := svc.Create(CreateTaskParams{Title: "c", Description: "d", Dependencies: []string{b.ID}})
	if err != nil {
		t.Fatalf("Create with chained dependency: %v", err)
	}

	// a → c closes a cycle (c → b → a).
	if _, err := svc.Update(a.ID, TaskUpdate{Dependencies: []string{c.ID}}); err == nil {
		t.Error("Update closing a dependency cycle succeeded, want error")
	}
	// Self-dependency is rejected outright.
	if _, err := svc.Update(a.ID, TaskUpdate{Dependencies: []string{a.ID}}); err == nil {
		t.Error("Update with self-dependency succeeded, want error")
	}
	// A diamond (no cycle) is fine.
	if _, err := svc.Update(c.ID, TaskUpdate{Dependencies: []string{a.ID, b.ID}}); err != nil {
		t.Errorf("Update with diamond dependencies failed: %v", err)
	}
}

func TestTaskListFilters(t *testing.T) {
	svc := newTaskService(t)

	mk := func(p CreateTaskParams) *Task {
		t.Helper()
		task, err := svc.Create(p)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return task
	}
	open := mk(CreateTaskParams{Title: "open", Description: "d", StoryID: "STORY-1", Assignee: "kim", Priority: PriorityHigh})
	mk(CreateTaskParams{Title: "done", Description: "d", StoryID: "STORY-1", Status: TaskDone})
	mk(CreateTaskParams{Title: "cancelled", Description: "d", Status: TaskCancelled})
	mk(CreateTaskParams{Title: "other story", Description: "d", StoryID: "STORY-2"})

	storyID := "STORY-1"
	got, err := svc.List(TaskFilter{StoryID: &storyID, IncludeCompleted: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("story filter returned %d tasks, want 2", len(got))
	}

	got, err = svc.List(TaskFilter{StoryID: &storyID, IncludeCompleted: false})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != open.ID {
		t.Errorf("excluding completed = %+v, want only %s", got, open.ID)
	}

	assignee := "kim"
	priority := PriorityHigh
	got, err = svc.List(TaskFilter{Assignee: &assignee, Priority: &priority, IncludeCompleted: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != open.ID {
		t.Errorf("assignee+priority filter = %+v, want only %s", got, open.ID)
	}
}

func TestTaskDeleteMissingReturnsFalse(t *testing.T) {
	svc := newTaskService(t)

	deleted, err := svc.Delete("TASK-NOPE")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted {
		t.Error("Delete of missing task = true, want false")
	}
}
