package backlog

import "fmt"

// idRetries bounds the collision-retry loop for generated IDs. The
// suffix space is 65536 values per kind, so more than a couple of
// retries means something is wrong with the random source.
const idRetries = 5

// StoryService manages user stories with file-based persistence.
type StoryService struct {
	store Store
}

// NewStoryService creates a StoryService backed by the given store.
func NewStoryService(store Store) *StoryService {
	return &StoryService{store: store}
}

// CreateStoryParams holds input for creating a story. Zero-valued
// Priority and Status default to medium/todo.
type CreateStoryParams struct {
	Title       string
	Description string
	Priority    Priority
	Status      StoryStatus
	Points      *int
	SprintID    string
	EpicID      string
	Tags        []string
}

// Create validates the params, generates a unique ID, and persists a
// new story.
func (s *StoryService) Create(p CreateStoryParams) (*Story, error) {
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}
	if p.Status == "" {
		p.Status = StoryTodo
	}
	if err := ValidatePriority(p.Priority); err != nil {
		return nil, err
	}
	if err := ValidateStoryStatus(p.Status); err != nil {
		return nil, err
	}
	if p.Points != nil {
		if err := ValidatePoints(*p.Points); err != nil {
			return nil, err
		}
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	now := timeNow()
	story := &Story{
		ID:          id,
		Title:       p.Title,
		Description: p.Description,
		Priority:    p.Priority,
		Status:      p.Status,
		Points:      p.Points,
		SprintID:    p.SprintID,
		EpicID:      p.EpicID,
		Tags:        append([]string{}, p.Tags...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.SaveStory(story); err != nil {
		return nil, fmt.Errorf("saving story: %w", err)
	}
	return story, nil
}

// Get retrieves a story by ID. Returns (nil, nil) if absent.
func (s *StoryService) Get(id string) (*Story, error) {
	return s.store.GetStory(id)
}

// StoryUpdate holds partial update fields for a story. Nil pointers
// mean "leave unchanged"; a non-nil empty SprintID/EpicID clears the
// back-reference.
type StoryUpdate struct {
	Title       *string
	Description *string
	Priority    *Priority
	Status      *StoryStatus
	Points      *int
	SprintID    *string
	EpicID      *string
	Tags        []string
}

// Update applies the supplied fields to an existing story and persists
// the replacement. Returns (nil, nil) if the story does not exist.
func (s *StoryService) Update(id string, u StoryUpdate) (*Story, error) {
	story, err := s.store.GetStory(id)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, nil
	}

	if u.Priority != nil {
		if err := ValidatePriority(*u.Priority); err != nil {
			return nil, err
		}
		story.Priority = *u.Priority
	}
	if u.Status != nil {
		if err := ValidateStoryStatus(*u.Status); err != nil {
			return nil, err
		}
		story.Status = *u.Status
	}
	if u.Points != nil {
		if err := ValidatePoints(*u.Points); err != nil {
			return nil, err
		}
		story.Points = u.Points
	}
	if u.Title != nil {
		story.Title = *u.Title
	}
	if u.Description != nil {
		story.Description = *u.Description
	}
	if u.SprintID != nil {
		story.SprintID = *u.SprintID
	}
	if u.EpicID != nil {
		story.EpicID = *u.EpicID
	}
	if u.Tags != nil {
		story.Tags = append([]string{}, u.Tags...)
	}
	story.UpdatedAt = timeNow()

	if err := s.store.SaveStory(story); err != nil {
		return nil, fmt.Errorf("saving story: %w", err)
	}
	return story, nil
}

// Delete removes a story by ID. Returns false if it did not exist.
func (s *StoryService) Delete(id string) (bool, error) {
	return s.store.DeleteStory(id)
}

// StoryFilter holds conjunctive listing filters. When SprintID is set
// it takes precedence over Unassigned.
type StoryFilter struct {
	Status   *StoryStatus
	Priority *Priority
	SprintID *string
	// Unassigned selects stories with no sprint assignment. Used by
	// backlog views.
	Unassigned bool
}

// List returns stories matching every supplied filter.
func (s *StoryService) List(f StoryFilter) ([]Story, error) {
	stories, err := s.store.ListStories()
	if err != nil {
		return nil, err
	}

	filtered := make([]Story, 0, len(stories))
	for _, story := range stories {
		if f.Status != nil && story.Status != *f.Status {
			continue
		}
		if f.Priority != nil && story.Priority != *f.Priority {
			continue
		}
		if f.SprintID != nil {
			if story.SprintID != *f.SprintID {
				continue
			}
		} else if f.Unassigned && story.SprintID != "" {
			continue
		}
		filtered = append(filtered, story)
	}
	return filtered, nil
}

// newID generates a story ID, retrying on the unlikely collision with
// an existing record.
func (s *StoryService) newID() (string, error) {
	for range idRetries {
		id, err := newArtifactID(storyIDPrefix)
		if err != nil {
			return "", err
		}
		existing, err := s.store.GetStory(id)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique story ID after %d attempts", idRetries)
}
