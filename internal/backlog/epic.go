package backlog

import (
	"fmt"
	"sort"
	"strings"
)

// EpicService manages epics with file-based persistence. It owns the
// Epic↔Story cross-reference: linking and unlinking write both sides,
// and deleting an epic clears the back-reference on every owned story
// before the record goes away.
//
// The two writes of a link are independent — there is no transaction
// spanning them, so a crash between the epic save and the story save
// can leave the sides briefly inconsistent (single-writer assumption,
// see the package doc).
type EpicService struct {
	store Store
}

// NewEpicService creates an EpicService backed by the given store.
func NewEpicService(store Store) *EpicService {
	return &EpicService{store: store}
}

// CreateEpicParams holds input for creating an epic. A zero-valued
// Status defaults to planning.
type CreateEpicParams struct {
	Title       string
	Description string
	Status      EpicStatus
	StoryIDs    []string
	Tags        []string
}

// Create validates the params, generates a unique ID, and persists a
// new epic.
func (s *EpicService) Create(p CreateEpicParams) (*Epic, error) {
	if p.Status == "" {
		p.Status = EpicPlanning
	}
	if err := ValidateEpicStatus(p.Status); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	now := timeNow()
	epic := &Epic{
		ID:          id,
		Title:       p.Title,
		Description: p.Description,
		Status:      p.Status,
		StoryIDs:    append([]string{}, p.StoryIDs...),
		Tags:        append([]string{}, p.Tags...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.SaveEpic(epic); err != nil {
		return nil, fmt.Errorf("saving epic: %w", err)
	}
	return epic, nil
}

// Get retrieves an epic by ID. Returns (nil, nil) if absent.
func (s *EpicService) Get(id string) (*Epic, error) {
	return s.store.GetEpic(id)
}

// EpicUpdate holds partial update fields for an epic.
type EpicUpdate struct {
	Title       *string
	Description *string
	Status      *EpicStatus
	StoryIDs    []string
	Tags        []string
}

// Update applies the supplied fields to an existing epic and persists
// the replacement. Returns (nil, nil) if the epic does not exist.
func (s *EpicService) Update(id string, u EpicUpdate) (*Epic, error) {
	epic, err := s.store.GetEpic(id)
	if err != nil {
		return nil, err
	}
	if epic == nil {
		return nil, nil
	}

	if u.Status != nil {
		if err := ValidateEpicStatus(*u.Status); err != nil {
			return nil, err
		}
		epic.Status = *u.Status
	}
	if u.Title != nil {
		epic.Title = *u.Title
	}
	if u.Description != nil {
		epic.Description = *u.Description
	}
	if u.StoryIDs != nil {
		epic.StoryIDs = append([]string{}, u.StoryIDs...)
	}
	if u.Tags != nil {
		epic.Tags = append([]string{}, u.Tags...)
	}
	epic.UpdatedAt = timeNow()

	if err := s.store.SaveEpic(epic); err != nil {
		return nil, fmt.Errorf("saving epic: %w", err)
	}
	return epic, nil
}

// Delete removes an epic after clearing the epic back-reference on
// every story that points at it — including stories the epic's own
// list has lost track of. Stories whose epic_id points at a different
// epic are left alone, even when a stale entry for them lingers in
// this epic's list. Returns false if the epic did not exist.
func (s *EpicService) Delete(id string) (bool, error) {
	epic, err := s.store.GetEpic(id)
	if err != nil {
		return false, err
	}
	if epic == nil {
		return false, nil
	}

	stories, err := s.store.ListStories()
	if err != nil {
		return false, err
	}
	for _, story := range stories {
		if story.EpicID != id {
			continue
		}
		story.EpicID = ""
		story.UpdatedAt = timeNow()
		if err := s.store.SaveStory(&story); err != nil {
			return false, fmt.Errorf("clearing epic reference on story %s: %w", story.ID, err)
		}
	}

	return s.store.DeleteEpic(id)
}

// EpicFilter holds listing options. When IncludeStoryIDs is false the
// returned records carry an empty story list (summary view).
type EpicFilter struct {
	Status          *EpicStatus
	IncludeStoryIDs bool
}

// List returns epics matching the filter, newest first.
func (s *EpicService) List(f EpicFilter) ([]Epic, error) {
	epics, err := s.store.ListEpics()
	if err != nil {
		return nil, err
	}

	filtered := make([]Epic, 0, len(epics))
	for _, epic := range epics {
		if f.Status != nil && epic.Status != *f.Status {
			continue
		}
		if !f.IncludeStoryIDs {
			epic.StoryIDs = []string{}
		}
		filtered = append(filtered, epic)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	return filtered, nil
}

// AddStory links a story to an epic: the story ID joins the epic's
// list (idempotent) and the story's epic_id is set to the epic. The
// story side is best-effort — a missing story does not fail the link.
// Returns (nil, nil) if the epic does not exist.
func (s *EpicService) AddStory(epicID, storyID string) (*Epic, error) {
	epic, err := s.store.GetEpic(epicID)
	if err != nil {
		return nil, err
	}
	if epic == nil {
		return nil, nil
	}

	found := false
	for _, id := range epic.StoryIDs {
		if id == storyID {
			found = true
			break
		}
	}
	if !found {
		epic.StoryIDs = append(epic.StoryIDs, storyID)
		epic.UpdatedAt = timeNow()
		if err := s.store.SaveEpic(epic); err != nil {
			return nil, fmt.Errorf("saving epic: %w", err)
		}
	}

	story, err := s.store.GetStory(storyID)
	if err != nil {
		return nil, err
	}
	if story != nil && story.EpicID != epicID {
		story.EpicID = epicID
		story.UpdatedAt = timeNow()
		if err := s.store.SaveStory(story); err != nil {
			return nil, fmt.Errorf("setting epic reference on story %s: %w", storyID, err)
		}
	}

	return epic, nil
}

// RemoveStory unlinks a story from an epic: the story ID leaves the
// epic's list and the story's epic_id is cleared if it still points
// at this epic. Returns (nil, nil) if the epic does not exist.
func (s *EpicService) RemoveStory(epicID, storyID string) (*Epic, error) {
	epic, err := s.store.GetEpic(epicID)
	if err != nil {
		return nil, err
	}
	if epic == nil {
		return nil, nil
	}

	storyIDs := make([]string, 0, len(epic.StoryIDs))
	removed := false
	for _, id := range epic.StoryIDs {
		if id == storyID {
			removed = true
			continue
		}
		storyIDs = append(storyIDs, id)
	}
	if removed {
		epic.StoryIDs = storyIDs
		epic.UpdatedAt = timeNow()
		if err := s.store.SaveEpic(epic); err != nil {
			return nil, fmt.Errorf("saving epic: %w", err)
		}
	}

	story, err := s.store.GetStory(storyID)
	if err != nil {
		return nil, err
	}
	if story != nil && story.EpicID == epicID {
		story.EpicID = ""
		story.UpdatedAt = timeNow()
		if err := s.store.SaveStory(story); err != nil {
			return nil, fmt.Errorf("clearing epic reference on story %s: %w", storyID, err)
		}
	}

	return epic, nil
}

// BacklogFilter holds conjunctive filters for the product backlog
// view. Tags match any-of, case-insensitively. Done stories are
// hidden unless IncludeDone is set or Status explicitly asks for
// them.
type BacklogFilter struct {
	Status      *StoryStatus
	Priority    *Priority
	Tags        []string
	IncludeDone bool
}

// ProductBacklog returns the stories not assigned to any sprint,
// filtered and sorted for planning: priority descending (critical
// first), then newest first within equal priority.
func (s *EpicService) ProductBacklog(f BacklogFilter) ([]Story, error) {
	stories, err := s.store.ListStories()
	if err != nil {
		return nil, err
	}

	wantTags := make([]string, 0, len(f.Tags))
	for _, tag := range f.Tags {
		wantTags = append(wantTags, strings.ToLower(strings.TrimSpace(tag)))
	}

	backlog := make([]Story, 0, len(stories))
	for _, story := range stories {
		if story.SprintID != "" {
			continue
		}
		if f.Status != nil && story.Status != *f.Status {
			continue
		}
		if f.Status == nil && !f.IncludeDone && story.Status == StoryDone {
			continue
		}
		if f.Priority != nil && story.Priority != *f.Priority {
			continue
		}
		if len(wantTags) > 0 && !hasAnyTag(story.Tags, wantTags) {
			continue
		}
		backlog = append(backlog, story)
	}

	sort.SliceStable(backlog, func(i, j int) bool {
		ri, rj := priorityRank[backlog[i].Priority], priorityRank[backlog[j].Priority]
		if ri != rj {
			return ri > rj
		}
		return backlog[i].CreatedAt.After(backlog[j].CreatedAt)
	})
	return backlog, nil
}

// hasAnyTag reports whether any of the lowercased wanted tags appears
// in the story's tags (case-insensitive).
func hasAnyTag(storyTags, wantTags []string) bool {
	for _, have := range storyTags {
		have = strings.ToLower(have)
		for _, want := range wantTags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// newID generates an epic ID, retrying on the unlikely collision.
func (s *EpicService) newID() (string, error) {
	for range idRetries {
		id, err := newArtifactID(epicIDPrefix)
		if err != nil {
			return "", err
		}
		existing, err := s.store.GetEpic(id)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique epic ID after %d attempts", idRetries)
}
