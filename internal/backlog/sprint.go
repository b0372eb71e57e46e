package backlog

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// errDateOrder is returned when a sprint would end before it starts.
var errDateOrder = errors.New("end date must be after start date")

// SprintService manages sprints with file-based persistence. It
// reads stories for the derived views (burndown) and writes the
// story side of sprint assignments so both halves of the
// cross-reference stay in step.
type SprintService struct {
	store Store
}

// NewSprintService creates a SprintService backed by the given store.
func NewSprintService(store Store) *SprintService {
	return &SprintService{store: store}
}

// CreateSprintParams holds input for creating a sprint. A zero-valued
// Status defaults to planning.
type CreateSprintParams struct {
	Name      string
	Goal      string
	StartDate *time.Time
	EndDate   *time.Time
	Status    SprintStatus
	StoryIDs  []string
	Tags      []string
}

// Create validates the params, generates a unique ID, and persists a
// new sprint.
func (s *SprintService) Create(p CreateSprintParams) (*Sprint, error) {
	if p.Status == "" {
		p.Status = SprintPlanning
	}
	if err := ValidateSprintStatus(p.Status); err != nil {
		return nil, err
	}
	if err := validateSprintDates(p.StartDate, p.EndDate); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}

	now := timeNow()
	sprint := &Sprint{
		ID:        id,
		Name:      p.Name,
		Goal:      p.Goal,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Status:    p.Status,
		StoryIDs:  append([]string{}, p.StoryIDs...),
		Tags:      append([]string{}, p.Tags...),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.SaveSprint(sprint); err != nil {
		return nil, fmt.Errorf("saving sprint: %w", err)
	}
	return sprint, nil
}

// Get retrieves a sprint by ID. Returns (nil, nil) if absent.
func (s *SprintService) Get(id string) (*Sprint, error) {
	return s.store.GetSprint(id)
}

// SprintUpdate holds partial update fields for a sprint. Nil pointers
// mean "leave unchanged"; a non-nil empty Goal clears the goal.
type SprintUpdate struct {
	Name      *string
	Goal      *string
	StartDate *time.Time
	EndDate   *time.Time
	Status    *SprintStatus
	StoryIDs  []string
	Tags      []string
}

// Update applies the supplied fields to an existing sprint and
// persists the replacement. Date ordering is validated against the
// merged record, so updating only end_date still checks the stored
// start_date. Returns (nil, nil) if the sprint does not exist.
func (s *SprintService) Update(id string, u SprintUpdate) (*Sprint, error) {
	sprint, err := s.store.GetSprint(id)
	if err != nil {
		return nil, err
	}
	if sprint == nil {
		return nil, nil
	}

	if u.Status != nil {
		if err := ValidateSprintStatus(*u.Status); err != nil {
			return nil, err
		}
	}

	start := sprint.StartDate
	end := sprint.EndDate
	if u.StartDate != nil {
		start = u.StartDate
	}
	if u.EndDate != nil {
		end = u.EndDate
	}
	if err := validateSprintDates(start, end); err != nil {
		return nil, err
	}

	if u.Name != nil {
		sprint.Name = *u.Name
	}
	if u.Goal != nil {
		sprint.Goal = *u.Goal
	}
	sprint.StartDate = start
	sprint.EndDate = end
	if u.Status != nil {
		sprint.Status = *u.Status
	}
	if u.StoryIDs != nil {
		sprint.StoryIDs = append([]string{}, u.StoryIDs...)
	}
	if u.Tags != nil {
		sprint.Tags = append([]string{}, u.Tags...)
	}
	sprint.UpdatedAt = timeNow()

	if err := s.store.SaveSprint(sprint); err != nil {
		return nil, fmt.Errorf("saving sprint: %w", err)
	}
	return sprint, nil
}

// Delete removes a sprint by ID. Returns false if it did not exist.
// Stories assigned to the sprint keep their sprint_id — the reference
// is cleaned up lazily by callers, matching the permissive integrity
// model of the rest of the system.
func (s *SprintService) Delete(id string) (bool, error) {
	return s.store.DeleteSprint(id)
}

// SprintFilter holds listing options. When IncludeStoryIDs is false
// the returned records carry an empty story list (summary view) —
// display shaping, not a storage filter.
type SprintFilter struct {
	Status          *SprintStatus
	IncludeStoryIDs bool
}

// List returns sprints matching the filter, newest first.
func (s *SprintService) List(f SprintFilter) ([]Sprint, error) {
	sprints, err := s.store.ListSprints()
	if err != nil {
		return nil, err
	}

	filtered := make([]Sprint, 0, len(sprints))
	for _, sprint := range sprints {
		if f.Status != nil && sprint.Status != *f.Status {
			continue
		}
		if !f.IncludeStoryIDs {
			sprint.StoryIDs = []string{}
		}
		filtered = append(filtered, sprint)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})
	return filtered, nil
}

// Active returns the first active sprint by List ordering, with story
// IDs included, or (nil, nil) if no sprint is active. Nothing enforces
// a single active sprint — if several are active this returns the
// newest one.
func (s *SprintService) Active() (*Sprint, error) {
	status := SprintActive
	active, err := s.List(SprintFilter{Status: &status, IncludeStoryIDs: true})
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, nil
	}
	return &active[0], nil
}

// AddStory assigns a story to a sprint: the story ID joins the
// sprint's list (idempotent) and the story's sprint_id is set to the
// sprint. The story side is best-effort — a missing story does not
// fail the assignment. Returns (nil, nil) if the sprint does not
// exist.
func (s *SprintService) AddStory(sprintID, storyID string) (*Sprint, error) {
	sprint, err := s.store.GetSprint(sprintID)
	if err != nil {
		return nil, err
	}
	if sprint == nil {
		return nil, nil
	}

	found := false
	for _, id := range sprint.StoryIDs {
		if id == storyID {
			found = true
			break
		}
	}
	if !found {
		sprint.StoryIDs = append(sprint.StoryIDs, storyID)
		sprint.UpdatedAt = timeNow()
		if err := s.store.SaveSprint(sprint); err != nil {
			return nil, fmt.Errorf("saving sprint: %w", err)
		}
	}

	story, err := s.store.GetStory(storyID)
	if err != nil {
		return nil, err
	}
	if story != nil && story.SprintID != sprintID {
		story.SprintID = sprintID
		story.UpdatedAt = timeNow()
		if err := s.store.SaveStory(story); err != nil {
			return nil, fmt.Errorf("setting sprint reference on story %s: %w", storyID, err)
		}
	}

	return sprint, nil
}

// RemoveStory unassigns a story from a sprint: the story ID leaves
// the sprint's list and the story's sprint_id is cleared if it still
// points at this sprint. Idempotent: removing an absent ID is a
// no-op. Returns (nil, nil) if the sprint does not exist.
func (s *SprintService) RemoveStory(sprintID, storyID string) (*Sprint, error) {
	sprint, err := s.store.GetSprint(sprintID)
	if err != nil {
		return nil, err
	}
	if sprint == nil {
		return nil, nil
	}

	storyIDs := make([]string, 0, len(sprint.StoryIDs))
	removed := false
	for _, id := range sprint.StoryIDs {
		if id == storyID {
			removed = true
			continue
		}
		storyIDs = append(storyIDs, id)
	}
	if removed {
		sprint.StoryIDs = storyIDs
		sprint.UpdatedAt = timeNow()
		if err := s.store.SaveSprint(sprint); err != nil {
			return nil, fmt.Errorf("saving sprint: %w", err)
		}
	}

	story, err := s.store.GetStory(storyID)
	if err != nil {
		return nil, err
	}
	if story != nil && story.SprintID == sprintID {
		story.SprintID = ""
		story.UpdatedAt = timeNow()
		if err := s.store.SaveStory(story); err != nil {
			return nil, fmt.Errorf("clearing sprint reference on story %s: %w", storyID, err)
		}
	}

	return sprint, nil
}

// Start transitions a sprint to active, setting the start date
// (default now). Returns (nil, nil) if the sprint does not exist.
func (s *SprintService) Start(sprintID string, startDate *time.Time) (*Sprint, error) {
	if startDate == nil {
		now := timeNow()
		startDate = &now
	}
	status := SprintActive
	return s.Update(sprintID, SprintUpdate{Status: &status, StartDate: startDate})
}

// Complete transitions a sprint to completed, setting the end date
// (default now). Returns (nil, nil) if the sprint does not exist.
func (s *SprintService) Complete(sprintID string, endDate *time.Time) (*Sprint, error) {
	if endDate == nil {
		now := timeNow()
		endDate = &now
	}
	status := SprintCompleted
	return s.Update(sprintID, SprintUpdate{Status: &status, EndDate: endDate})
}

// Cancel transitions a sprint to cancelled. Returns (nil, nil) if the
// sprint does not exist.
func (s *SprintService) Cancel(sprintID string) (*Sprint, error) {
	status := SprintCancelled
	return s.Update(sprintID, SprintUpdate{Status: &status})
}

// Duration returns end_date - start_date, or (nil, nil) unless the
// sprint exists and has both dates set.
func (s *SprintService) Duration(sprintID string) (*time.Duration, error) {
	sprint, err := s.store.GetSprint(sprintID)
	if err != nil {
		return nil, err
	}
	if sprint == nil || sprint.StartDate == nil || sprint.EndDate == nil {
		return nil, nil
	}
	d := sprint.EndDate.Sub(*sprint.StartDate)
	return &d, nil
}

// SprintProgress is the derived progress view of a sprint. The time
// fields are only populated when both sprint dates are set; exactly
// one of the Days* fields is present, matching where "now" falls
// relative to the sprint window.
type SprintProgress struct {
	SprintID            string       `json:"sprint_id"`
	Name                string       `json:"name"`
	Status              SprintStatus `json:"status"`
	StoryCount          int          `json:"story_count"`
	Goal                string       `json:"goal,omitempty"`
	StartDate           *time.Time   `json:"start_date,omitempty"`
	EndDate             *time.Time   `json:"end_date,omitempty"`
	TimeProgressPercent *float64     `json:"time_progress_percent,omitempty"`
	DaysUntilStart      *int         `json:"days_until_start,omitempty"`
	DaysRemaining       *int         `json:"days_remaining,omitempty"`
	DaysOverdue         *int         `json:"days_overdue,omitempty"`
}

// Progress computes the progress view for a sprint. Returns (nil, nil)
// if the sprint does not exist.
func (s *SprintService) Progress(sprintID string) (*SprintProgress, error) {
	sprint, err := s.store.GetSprint(sprintID)
	if err != nil {
		return nil, err
	}
	if sprint == nil {
		return nil, nil
	}

	progress := &SprintProgress{
		SprintID:   sprint.ID,
		Name:       sprint.Name,
		Status:     sprint.Status,
		StoryCount: len(sprint.StoryIDs),
		Goal:       sprint.Goal,
		StartDate:  sprint.StartDate,
		EndDate:    sprint.EndDate,
	}

	if sprint.StartDate == nil || sprint.EndDate == nil {
		return progress, nil
	}

	now := timeNow()
	start, end := *sprint.StartDate, *sprint.EndDate
	switch {
	case now.Before(start):
		progress.TimeProgressPercent = ptr(0.0)
		progress.DaysUntilStart = ptr(int(start.Sub(now).Hours() / 24))
	case now.After(end):
		progress.TimeProgressPercent = ptr(100.0)
		progress.DaysOverdue = ptr(int(now.Sub(end).Hours() / 24))
	default:
		elapsed := now.Sub(start).Seconds()
		total := end.Sub(start).Seconds()
		progress.TimeProgressPercent = ptr(elapsed / total * 100)
		progress.DaysRemaining = ptr(int(end.Sub(now).Hours() / 24))
	}
	return progress, nil
}

// BurndownPoint is one day on a burndown chart.
type BurndownPoint struct {
	Date            string  `json:"date"` // YYYY-MM-DD
	RemainingPoints int     `json:"remaining_points"`
	IdealPoints     float64 `json:"ideal_points"`
}

// BurndownData is the day-by-day remaining-points series for a sprint,
// paired with an ideal linear burn from total points to zero.
type BurndownData struct {
	SprintID           string          `json:"sprint_id"`
	SprintName         string          `json:"sprint_name"`
	TotalPoints        int             `json:"total_points"`
	SprintDurationDays int             `json:"sprint_duration_days"`
	IdealBurnPerDay    float64         `json:"ideal_burn_per_day"`
	Burndown           []BurndownPoint `json:"burndown"`
}

// Burndown computes burndown data for a sprint. For each calendar day
// from start to end inclusive, remaining points are the sprint's total
// assigned points minus the points of done stories last touched on or
// before that day (UpdatedAt stands in for a completion timestamp).
// Returns (nil, nil) if the sprint does not exist or has no date range.
func (s *SprintService) Burndown(sprintID string) (*BurndownData, error) {
	sprint, err := s.store.GetSprint(sprintID)
	if err != nil {
		return nil, err
	}
	if sprint == nil || sprint.StartDate == nil || sprint.EndDate == nil {
		return nil, nil
	}

	totalPoints := 0
	type doneStory struct {
		points int
		doneOn time.Time
	}
	var done []doneStory
	for _, storyID := range sprint.StoryIDs {
		story, err := s.store.GetStory(storyID)
		if err != nil {
			return nil, err
		}
		if story == nil || story.Points == nil {
			continue
		}
		totalPoints += *story.Points
		if story.Status == StoryDone {
			done = append(done, doneStory{points: *story.Points, doneOn: dateOnly(story.UpdatedAt)})
		}
	}

	start := dateOnly(*sprint.StartDate)
	end := dateOnly(*sprint.EndDate)
	durationDays := int(end.Sub(start).Hours() / 24)
	if durationDays < 1 {
		durationDays = 1
	}
	idealBurn := float64(totalPoints) / float64(durationDays)

	points := make([]BurndownPoint, 0, durationDays+1)
	for day := 0; day <= durationDays; day++ {
		date := start.AddDate(0, 0, day)
		burned := 0
		for _, ds := range done {
			if !ds.doneOn.After(date) {
				burned += ds.points
			}
		}
		points = append(points, BurndownPoint{
			Date:            date.Format("2006-01-02"),
			RemainingPoints: totalPoints - burned,
			IdealPoints:     float64(totalPoints) - idealBurn*float64(day),
		})
	}

	return &BurndownData{
		SprintID:           sprint.ID,
		SprintName:         sprint.Name,
		TotalPoints:        totalPoints,
		SprintDurationDays: durationDays,
		IdealBurnPerDay:    idealBurn,
		Burndown:           points,
	}, nil
}

// newID generates a sprint ID, retrying on the unlikely collision.
func (s *SprintService) newID() (string, error) {
	for range idRetries {
		id, err := newArtifactID(sprintIDPrefix)
		if err != nil {
			return "", err
		}
		existing, err := s.store.GetSprint(id)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique sprint ID after %d attempts", idRetries)
}

// validateSprintDates rejects a date range where the end does not
// strictly follow the start. Unset dates are always valid.
func validateSprintDates(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return errDateOrder
	}
	return nil
}

// dateOnly truncates a timestamp to midnight in its own location.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ptr returns a pointer to v. Keeps the optional-field literals short.
func ptr[T any](v T) *T {
	return &v
}
