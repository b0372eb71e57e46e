package backlog

import (
	"testing"
	"time"
)

func newEpicService(t *testing.T) (*EpicService, *StoryService) {
	t.Helper()
	fs := newTestStore(t)
	return NewEpicService(fs), NewStoryService(fs)
}

func TestEpicCreateAndGetRoundTrip(t *testing.T) {
	epics, _ := newEpicService(t)

	created, err := epics.Create(CreateEpicParams{
		Title:       "Checkout revamp",
		Description: "Rebuild the checkout flow",
		Tags:        []string{"payments"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Status != EpicPlanning {
		t.Errorf("default status = %s, want planning", created.Status)
	}

	got, err := epics.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Title != created.Title || got.Status != created.Status {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestEpicCreateRejectsBadStatus(t *testing.T) {
	epics, _ := newEpicService(t)

	if _, err := epics.Create(CreateEpicParams{Title: "t", Description: "d", Status: EpicStatus("someday")}); err == nil {
		t.Error("Create with invalid status succeeded, want error")
	}
}

func TestEpicAddStorySetsBothSides(t *testing.T) {
	epics, stories := newEpicService(t)

	epic, _ := epics.Create(CreateEpicParams{Title: "e", Description: "d"})
	story, _ := stories.Create(CreateStoryParams{Title: "s", Description: "d"})

	updated, err := epics.AddStory(epic.ID, story.ID)
	if err != nil {
		t.Fatalf("AddStory: %v", err)
	}
	if len(updated.StoryIDs) != 1 || updated.StoryIDs[0] != story.ID {
		t.Errorf("epic story IDs = %v, want [%s]", updated.StoryIDs, story.ID)
	}

	linked, _ := stories.Get(story.ID)
	if linked.EpicID != epic.ID {
		t.Errorf("story epic_id = %q, want %s", linked.EpicID, epic.ID)
	}

	// Idempotent on the epic side.
	updated, err = epics.AddStory(epic.ID, story.ID)
	if err != nil {
		t.Fatalf("AddStory (second): %v", err)
	}
	if len(updated.StoryIDs) != 1 {
		t.Errorf("story IDs after double add = %v, want one entry", updated.StoryIDs)
	}
}

func TestEpicAddStoryMissingStoryStillLinksEpicSide(t *testing.T) {
	epics, _ := newEpicService(t)

	epic, _ := epics.Create(CreateEpicParams{Title: "e", Description: "d"})
	updated, err := epics.AddStory(epic.ID, "STORY-GHOST")
	if err != nil {
		t.Fatalf("AddStory: %v", err)
	}
	if len(updated.StoryIDs) != 1 {
		t.Errorf("story IDs = %v, want the ghost ID recorded", updated.StoryIDs)
	}
}

func TestEpicAddStoryMissingEpic(t *testing.T) {
	epics, _ := newEpicService(t)

	got, err := epics.AddStory("EPIC-NOPE", "STORY-1")
	if err != nil || got != nil {
		t.Errorf("AddStory on missing epic = (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestEpicRemoveStoryClearsBothSides(t *testing.T) {
	epics, stories := newEpicService(t)

	epic, _ := epics.Create(CreateEpicParams{Title: "e", Description: "d"})
	story, _ := stories.Create(CreateStoryParams{Title: "s", Description: "d"})
	epics.AddStory(epic.ID, story.ID)

	updated, err := epics.RemoveStory(epic.ID, story.ID)
	if err != nil {
		t.Fatalf("RemoveStory: %v", err)
	}
	if len(updated.StoryIDs) != 0 {
		t.Errorf("epic story IDs = %v, want empty", updated.StoryIDs)
	}

	unlinked, _ := stories.Get(story.ID)
	if unlinked.EpicID != "" {
		t.Errorf("story epic_id = %q after unlink, want empty", unlinked.EpicID)
	}
}

func TestEpicRemoveStoryKeepsForeignReference(t *testing.T) {
	epics, stories := newEpicService(t)

	epic, _ := epics.Create(CreateEpicParams{Title: "e", Description: "d"})
	other, _ := epics.Create(CreateEpicParams{Title: "other", Description: "d"})
	story, _ := stories.Create(CreateStoryParams{Title: "s", Description: "d", EpicID: other.ID})

	// The story is listed on epic but points at other; unlinking from
	// epic must not clear the foreign reference.
	epic, _ = epics.Update(epic.ID, EpicUpdate{StoryIDs: []string{story.ID}})
	if _, err := epics.RemoveStory(epic.ID, story.ID); err != nil {
		t.Fatalf("RemoveStory: %v", err)
	}

	got, _ := stories.Get(story.ID)
	if got.EpicID != other.ID {
		t.Errorf("story epic_id = %q, want %s untouched", got.EpicID, other.ID)
	}
}

func TestEpicDeleteClearsStoryReferences(t *testing.T) {
	epics, stories := newEpicService(t)

	epic, _ := epics.Create(CreateEpicParams{Title: "e", Description: "d"})
	s1, _ := stories.Create(CreateStoryParams{Title: "s1", Description: "d"})
	s2, _ := stories.Create(CreateStoryParams{Title: "s2", Description: "d"})
	epics.AddStory(epic.ID, s1.ID)
	epics.AddStory(epic.ID, s2.ID)
	// A story that points at the epic without being listed gets
	// cleaned up too.
	stray, _ := stories.Create(CreateStoryParams{Title: "stray", Description: "d", EpicID: epic.ID})

	deleted, err := epics.Delete(epic.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Fatal("Delete = false, want true")
	}

	for _, id := range []string{s1.ID, s2.ID, stray.ID} {
		story, _ := stories.Get(id)
		if story.EpicID != "" {
			t.Errorf("story %s epic_id = %q after epic delete, want empty", id, story.EpicID)
		}
	}
	if gone, _ := epics.Get(epic.ID); gone != nil {
		t.Errorf("epic still present after delete: %+v", gone)
	}
}

func TestEpicDeleteKeepsForeignStoryReferences(t *testing.T) {
	epics, stories := newEpicService(t)

	// e1's list carries a stale entry for a story that belongs to e2.
	e2, _ := epics.Create(CreateEpicParams{Title: "e2", Description: "d"})
	story, err := stories.Create(CreateStoryParams{Title: "s", Description: "d", EpicID: e2.ID})
	if err != nil {
		t.Fatalf("Create story: %v", err)
	}
	e1, _ := epics.Create(CreateEpicParams{Title: "e1", Description: "d", StoryIDs: []string{story.ID}})

	deleted, err := epics.Delete(e1.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !deleted {
		t.Fatal("Delete = false, want true")
	}

	got, _ := stories.Get(story.ID)
	if got.EpicID != e2.ID {
		t.Errorf("story epic_id = %q after deleting e1, want %q preserved", got.EpicID, e2.ID)
	}
}

func TestEpicDeleteMissingReturnsFalse(t *testing.T) {
	epics, _ := newEpicService(t)

	deleted, err := epics.Delete("EPIC-NOPE")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted {
		t.Error("Delete of missing epic = true, want false")
	}
}

func TestEpicListStatusFilterAndSummaryView(t *testing.T) {
	epics, _ := newEpicService(t)

	epics.Create(CreateEpicParams{Title: "a", Description: "d", StoryIDs: []string{"STORY-1"}})
	active, _ := epics.Create(CreateEpicParams{Title: "b", Description: "d", Status: EpicInProgress})

	status := EpicInProgress
	got, err := epics.List(EpicFilter{Status: &status})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != active.ID {
		t.Errorf("status filter = %+v, want only %s", got, active.ID)
	}

	all, _ := epics.List(EpicFilter{})
	for _, e := range all {
		if len(e.StoryIDs) != 0 {
			t.Errorf("summary view kept story IDs on %s: %v", e.ID, e.StoryIDs)
		}
	}
}

func TestProductBacklogOrdering(t *testing.T) {
	epics, stories := newEpicService(t)

	day := func(d int) time.Time { return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC) }
	mk := func(title string, priority Priority, created time.Time) *Story {
		t.Helper()
		restore := timeNow
		timeNow = func() time.Time { return created }
		defer func() { timeNow = restore }()
		story, err := stories.Create(CreateStoryParams{Title: title, Description: "d", Priority: priority})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		return story
	}

	low := mk("low", PriorityLow, day(1))
	oldCritical := mk("old critical", PriorityCritical, day(2))
	high := mk("high", PriorityHigh, day(3))
	newCritical := mk("new critical", PriorityCritical, day(4))

	got, err := epics.ProductBacklog(BacklogFilter{})
	if err != nil {
		t.Fatalf("ProductBacklog: %v", err)
	}
	wantOrder := []string{newCritical.ID, oldCritical.ID, high.ID, low.ID}
	if len(got) != len(wantOrder) {
		t.Fatalf("backlog has %d stories, want %d", len(got), len(wantOrder))
	}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Errorf("backlog[%d] = %s (%s), want %s", i, got[i].ID, got[i].Title, want)
		}
	}
}

func TestProductBacklogExcludesSprintStoriesAndFilters(t *testing.T) {
	epics, stories := newEpicService(t)

	stories.Create(CreateStoryParams{Title: "assigned", Description: "d", SprintID: "SPRINT-1"})
	tagged, _ := stories.Create(CreateStoryParams{Title: "tagged", Description: "d", Tags: []string{"Backend", "api"}})
	stories.Create(CreateStoryParams{Title: "untagged", Description: "d"})
	done, _ := stories.Create(CreateStoryParams{Title: "done", Description: "d", Status: StoryDone, Tags: []string{"backend"}})

	// Tag match is any-of and case-insensitive; done stories are
	// hidden unless asked for.
	got, err := epics.ProductBacklog(BacklogFilter{Tags: []string{"BACKEND", "missing"}})
	if err != nil {
		t.Fatalf("ProductBacklog: %v", err)
	}
	if len(got) != 1 || got[0].ID != tagged.ID {
		t.Fatalf("tag filter = %+v, want only %s", got, tagged.ID)
	}

	got, err = epics.ProductBacklog(BacklogFilter{Tags: []string{"backend"}, IncludeDone: true})
	if err != nil {
		t.Fatalf("ProductBacklog: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("IncludeDone tag filter returned %d stories, want 2", len(got))
	}

	// An explicit status filter overrides the done-hiding default.
	doneStatus := StoryDone
	got, err = epics.ProductBacklog(BacklogFilter{Status: &doneStatus})
	if err != nil {
		t.Fatalf("ProductBacklog: %v", err)
	}
	if len(got) != 1 || got[0].ID != done.ID {
		t.Errorf("done status filter = %+v, want only %s", got, done.ID)
	}

	status := StoryTodo
	got, err = epics.ProductBacklog(BacklogFilter{Status: &status, Tags: []string{"backend"}})
	if err != nil {
		t.Fatalf("ProductBacklog: %v", err)
	}
	if len(got) != 1 || got[0].ID != tagged.ID {
		t.Errorf("status+tag filter = %+v, want only %s", got, tagged.ID)
	}
}
