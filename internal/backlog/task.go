package backlog

import (
	"fmt"
	"time"
)

// TaskService manages tasks with file-based persistence. Tasks may
// declare dependencies on other tasks; the service rejects dependency
// lists that would close a cycle.
type TaskService struct {
	store Store
}

// NewTaskService creates a TaskService backed by the given store.
func NewTaskService(store Store) *TaskService {
	return &TaskService{store: store}
}

// CreateTaskParams holds input for creating a task. Zero-valued
// Priority and Status default to medium/todo.
type CreateTaskParams struct {
	Title          string
	Description    string
	StoryID        string
	Status         TaskStatus
	Priority       Priority
	Assignee       string
	EstimatedHours *float64
	DueDate        *time.Time
	Dependencies   []string
	Tags           []string
}

// Create validates the params, generates a unique ID, and persists a
// new task.
func (s *TaskService) Create(p CreateTaskParams) (*Task, error) {
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}
	if p.Status == "" {
		p.Status = TaskTodo
	}
	if err := ValidatePriority(p.Priority); err != nil {
		return nil, err
	}
	if err := ValidateTaskStatus(p.Status); err != nil {
		return nil, err
	}
	if err := validateHours("estimated", p.EstimatedHours); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, err
	}
	if err := s.validateDependencies(id, p.Dependencies); err != nil {
		return nil, err
	}

	now := timeNow()
	task := &Task{
		ID:             id,
		Title:          p.Title,
		Description:    p.Description,
		StoryID:        p.StoryID,
		Status:         p.Status,
		Priority:       p.Priority,
		Assignee:       p.Assignee,
		EstimatedHours: p.EstimatedHours,
		DueDate:        p.DueDate,
		Dependencies:   append([]string{}, p.Dependencies...),
		Tags:           append([]string{}, p.Tags...),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.SaveTask(task); err != nil {
		return nil, fmt.Errorf("saving task: %w", err)
	}
	return task, nil
}

// Get retrieves a task by ID. Returns (nil, nil) if absent.
func (s *TaskService) Get(id string) (*Task, error) {
	return s.store.GetTask(id)
}

// TaskUpdate holds partial update fields for a task. Nil pointers mean
// "leave unchanged"; a non-nil empty Assignee/StoryID clears the field.
type TaskUpdate struct {
	Title          *string
	Description    *string
	StoryID        *string
	Status         *TaskStatus
	Priority       *Priority
	Assignee       *string
	EstimatedHours *float64
	ActualHours    *float64
	DueDate        *time.Time
	Dependencies   []string
	Tags           []string
}

// Update applies the supplied fields to an existing task and persists
// the replacement. Returns (nil, nil) if the task does not exist.
func (s *TaskService) Update(id string, u TaskUpdate) (*Task, error) {
	task, err := s.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, nil
	}

	if u.Status != nil {
		if err := ValidateTaskStatus(*u.Status); err != nil {
			return nil, err
		}
		task.Status = *u.Status
	}
	if u.Priority != nil {
		if err := ValidatePriority(*u.Priority); err != nil {
			return nil, err
		}
		task.Priority = *u.Priority
	}
	if u.EstimatedHours != nil {
		if err := validateHours("estimated", u.EstimatedHours); err != nil {
			return nil, err
		}
		task.EstimatedHours = u.EstimatedHours
	}
	if u.ActualHours != nil {
		if err := validateHours("actual", u.ActualHours); err != nil {
			return nil, err
		}
		task.ActualHours = u.ActualHours
	}
	if u.Dependencies != nil {
		if err := s.validateDependencies(id, u.Dependencies); err != nil {
			return nil, err
		}
		task.Dependencies = append([]string{}, u.Dependencies...)
	}
	if u.Title != nil {
		task.Title = *u.Title
	}
	if u.Description != nil {
		task.Description = *u.Description
	}
	if u.StoryID != nil {
		task.StoryID = *u.StoryID
	}
	if u.Assignee != nil {
		task.Assignee = *u.Assignee
	}
	if u.DueDate != nil {
		task.DueDate = u.DueDate
	}
	if u.Tags != nil {
		task.Tags = append([]string{}, u.Tags...)
	}
	task.UpdatedAt = timeNow()

	if err := s.store.SaveTask(task); err != nil {
		return nil, fmt.Errorf("saving task: %w", err)
	}
	return task, nil
}

// Delete removes a task by ID. Returns false if it did not exist.
// Other tasks' dependency lists are not rewritten — a dangling
// dependency reads as "already satisfied".
func (s *TaskService) Delete(id string) (bool, error) {
	return s.store.DeleteTask(id)
}

// TaskFilter holds conjunctive listing filters. IncludeCompleted
// defaults to true at the tool layer; when false, tasks in a terminal
// status (done, cancelled) are excluded.
type TaskFilter struct {
	StoryID          *string
	Status           *TaskStatus
	Priority         *Priority
	Assignee         *string
	IncludeCompleted bool
}

// List returns tasks matching every supplied filter.
func (s *TaskService) List(f TaskFilter) ([]Task, error) {
	tasks, err := s.store.ListTasks()
	if err != nil {
		return nil, err
	}

	filtered := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if f.StoryID != nil && task.StoryID != *f.StoryID {
			continue
		}
		if f.Status != nil && task.Status != *f.Status {
			continue
		}
		if f.Priority != nil && task.Priority != *f.Priority {
			continue
		}
		if f.Assignee != nil && task.Assignee != *f.Assignee {
			continue
		}
		if !f.IncludeCompleted && terminalTaskStatuses[task.Status] {
			continue
		}
		filtered = append(filtered, task)
	}
	return filtered, nil
}

// validateDependencies rejects a dependency list that closes a cycle
// through the stored task graph, self-dependency included. The walk
// treats taskID as if it already carried deps, then follows stored
// dependency edges looking for a path back to taskID.
func (s *TaskService) validateDependencies(taskID string, deps []string) error {
	if len(deps) == 0 {
		return nil
	}
	for _, dep := range deps {
		if dep == taskID {
			return fmt.Errorf("task %s cannot depend on itself", taskID)
		}
	}

	tasks, err := s.store.ListTasks()
	if err != nil {
		return err
	}
	edges := make(map[string][]string, len(tasks)+1)
	for _, t := range tasks {
		edges[t.ID] = t.Dependencies
	}
	edges[taskID] = deps

	// DFS from each new dependency; reaching taskID means the new
	// edges close a cycle.
	seen := map[string]bool{}
	var walk func(id string) bool
	walk = func(id string) bool {
		if id == taskID {
			return true
		}
		if seen[id] {
			return false
		}
		seen[id] = true
		for _, next := range edges[id] {
			if walk(next) {
				return true
			}
		}
		return false
	}
	for _, dep := range deps {
		if walk(dep) {
			return fmt.Errorf("dependency %s would create a cycle back to task %s", dep, taskID)
		}
	}
	return nil
}

// validateHours rejects negative hour values.
func validateHours(label string, hours *float64) error {
	if hours != nil && *hours < 0 {
		return fmt.Errorf("%s hours must be non-negative, got %v", label, *hours)
	}
	return nil
}

// newID generates a task ID, retrying on the unlikely collision.
func (s *TaskService) newID() (string, error) {
	for range idRetries {
		id, err := newArtifactID(taskIDPrefix)
		if err != nil {
			return "", err
		}
		existing, err := s.store.GetTask(id)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return id, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique task ID after %d attempts", idRetries)
}
