package backlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// newTestStore creates a FileStore rooted in a temp dir.
func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(t.TempDir())
}

func TestFileStoreStoryRoundTrip(t *testing.T) {
	fs := newTestStore(t)

	created := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	points := 8
	story := &Story{
		ID:          "STORY-AB12",
		Title:       "Login form",
		Description: "As a user I want to log in",
		Priority:    PriorityHigh,
		Status:      StoryInProgress,
		Points:      &points,
		SprintID:    "SPRINT-0001",
		EpicID:      "EPIC-0001",
		Tags:        []string{"auth", "frontend"},
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if err := fs.SaveStory(story); err != nil {
		t.Fatalf("SaveStory: %v", err)
	}

	got, err := fs.GetStory("STORY-AB12")
	if err != nil {
		t.Fatalf("GetStory: %v", err)
	}
	if got == nil {
		t.Fatal("GetStory returned nil for saved story")
	}
	if got.Title != story.Title || got.Description != story.Description {
		t.Errorf("text fields did not round-trip: %+v", got)
	}
	if got.Priority != PriorityHigh || got.Status != StoryInProgress {
		t.Errorf("enums did not round-trip: priority=%s status=%s", got.Priority, got.Status)
	}
	if got.Points == nil || *got.Points != 8 {
		t.Errorf("points did not round-trip: %v", got.Points)
	}
	if got.SprintID != "SPRINT-0001" || got.EpicID != "EPIC-0001" {
		t.Errorf("references did not round-trip: sprint=%s epic=%s", got.SprintID, got.EpicID)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "auth" || got.Tags[1] != "frontend" {
		t.Errorf("tags did not round-trip: %v", got.Tags)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at did not round-trip: %v", got.CreatedAt)
	}
}

func TestFileStoreSprintDatesRoundTrip(t *testing.T) {
	fs := newTestStore(t)

	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	sprint := &Sprint{
		ID:        "SPRINT-CD34",
		Name:      "Sprint 7",
		Goal:      "Ship auth",
		StartDate: &start,
		EndDate:   &end,
		Status:    SprintActive,
		StoryIDs:  []string{"STORY-1", "STORY-2"},
		CreatedAt: start,
		UpdatedAt: start,
	}
	if err := fs.SaveSprint(sprint); err != nil {
		t.Fatalf("SaveSprint: %v", err)
	}

	got, err := fs.GetSprint("SPRINT-CD34")
	if err != nil {
		t.Fatalf("GetSprint: %v", err)
	}
	if got == nil {
		t.Fatal("GetSprint returned nil for saved sprint")
	}
	if got.StartDate == nil || !got.StartDate.Equal(start) {
		t.Errorf("start_date did not round-trip: %v", got.StartDate)
	}
	if got.EndDate == nil || !got.EndDate.Equal(end) {
		t.Errorf("end_date did not round-trip: %v", got.EndDate)
	}
	if len(got.StoryIDs) != 2 {
		t.Errorf("story_ids did not round-trip: %v", got.StoryIDs)
	}
}

func TestFileStoreGetMissingReturnsNil(t *testing.T) {
	fs := newTestStore(t)

	story, err := fs.GetStory("STORY-NOPE")
	if err != nil {
		t.Fatalf("GetStory: %v", err)
	}
	if story != nil {
		t.Errorf("GetStory for missing ID = %+v, want nil", story)
	}
}

func TestFileStoreDelete(t *testing.T) {
	fs := newTestStore(t)

	task := &Task{ID: "TASK-EF56", Title: "Wire CI", Status: TaskTodo, Priority: PriorityMedium}
	if err := fs.SaveTask(task); err != nil {
		t.Fatalf("SaveTask: %v", err)
	}

	deleted, err := fs.DeleteTask("TASK-EF56")
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if !deleted {
		t.Error("DeleteTask for existing task = false, want true")
	}

	deleted, err = fs.DeleteTask("TASK-EF56")
	if err != nil {
		t.Fatalf("DeleteTask (second): %v", err)
	}
	if deleted {
		t.Error("DeleteTask for missing task = true, want false")
	}
}

func TestFileStoreListSkipsUnreadable(t *testing.T) {
	fs := newTestStore(t)

	if err := fs.SaveEpic(&Epic{ID: "EPIC-1111", Title: "Payments", Status: EpicPlanning}); err != nil {
		t.Fatalf("SaveEpic: %v", err)
	}
	// A corrupt file in the kind directory must not break listing.
	bad := filepath.Join(fs.DataDir(), EpicsDir, "EPIC-BAD0.yaml")
	if err := os.WriteFile(bad, []byte(":\t{not yaml"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}
	// Non-YAML entries are ignored outright.
	stray := filepath.Join(fs.DataDir(), EpicsDir, "notes.txt")
	if err := os.WriteFile(stray, []byte("hi"), 0o644); err != nil {
		t.Fatalf("writing stray file: %v", err)
	}

	epics, err := fs.ListEpics()
	if err != nil {
		t.Fatalf("ListEpics: %v", err)
	}
	if len(epics) != 1 || epics[0].ID != "EPIC-1111" {
		t.Errorf("ListEpics = %+v, want the single good epic", epics)
	}
}

func TestFileStoreListEmptyKind(t *testing.T) {
	fs := newTestStore(t)

	sprints, err := fs.ListSprints()
	if err != nil {
		t.Fatalf("ListSprints: %v", err)
	}
	if len(sprints) != 0 {
		t.Errorf("ListSprints on empty store = %+v, want empty", sprints)
	}
}
