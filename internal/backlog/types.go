// Package backlog implements the agile artifact domain: epics, user
// stories, sprints, and tasks, with file-based persistence.
//
// The package follows a service-per-kind layout (StoryService,
// SprintService, EpicService, TaskService). Cross-references between
// artifacts (Epic↔Story, Sprint↔Story) are denormalized on both sides
// and kept consistent by the owning service operation — the storage
// layer knows nothing about relationships.
//
// Design principles:
// - SRP: types, store, and one service per file
// - DIP: Store is an interface; services and tools depend on the abstraction
// - OCP: new artifact kinds can be added without touching existing services
package backlog

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// --- Priority enum (stories and tasks) ---

// Priority ranks how urgent an artifact is.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// priorityRank orders priorities for backlog sorting (higher = first).
var priorityRank = map[Priority]int{
	PriorityLow:      1,
	PriorityMedium:   2,
	PriorityHigh:     3,
	PriorityCritical: 4,
}

// ValidatePriority returns an error if the priority is not recognized.
func ValidatePriority(p Priority) error {
	if priorityRank[p] == 0 {
		return fmt.Errorf("invalid priority %q: must be one of: low, medium, high, critical", p)
	}
	return nil
}

// --- Story status enum ---

// StoryStatus tracks a user story through its lifecycle.
type StoryStatus string

const (
	StoryTodo       StoryStatus = "todo"
	StoryInProgress StoryStatus = "in_progress"
	StoryDone       StoryStatus = "done"
	StoryBlocked    StoryStatus = "blocked"
	StoryCancelled  StoryStatus = "cancelled"
)

var validStoryStatuses = map[StoryStatus]bool{
	StoryTodo:       true,
	StoryInProgress: true,
	StoryDone:       true,
	StoryBlocked:    true,
	StoryCancelled:  true,
}

// ValidateStoryStatus returns an error if the status is not recognized.
func ValidateStoryStatus(s StoryStatus) error {
	if !validStoryStatuses[s] {
		return fmt.Errorf("invalid story status %q: must be one of: todo, in_progress, done, blocked, cancelled", s)
	}
	return nil
}

// --- Sprint status enum ---

// SprintStatus tracks a sprint through its lifecycle.
// The conventional sequence is planning → active → completed, with
// cancelled reachable from planning or active. The services do not
// enforce the sequence — callers own meaningful ordering.
type SprintStatus string

const (
	SprintPlanning  SprintStatus = "planning"
	SprintActive    SprintStatus = "active"
	SprintCompleted SprintStatus = "completed"
	SprintCancelled SprintStatus = "cancelled"
)

var validSprintStatuses = map[SprintStatus]bool{
	SprintPlanning:  true,
	SprintActive:    true,
	SprintCompleted: true,
	SprintCancelled: true,
}

// ValidateSprintStatus returns an error if the status is not recognized.
func ValidateSprintStatus(s SprintStatus) error {
	if !validSprintStatuses[s] {
		return fmt.Errorf("invalid sprint status %q: must be one of: planning, active, completed, cancelled", s)
	}
	return nil
}

// --- Epic status enum ---

// EpicStatus tracks an epic through its lifecycle.
type EpicStatus string

const (
	EpicPlanning   EpicStatus = "planning"
	EpicInProgress EpicStatus = "in_progress"
	EpicCompleted  EpicStatus = "completed"
	EpicOnHold     EpicStatus = "on_hold"
)

var validEpicStatuses = map[EpicStatus]bool{
	EpicPlanning:   true,
	EpicInProgress: true,
	EpicCompleted:  true,
	EpicOnHold:     true,
}

// ValidateEpicStatus returns an error if the status is not recognized.
func ValidateEpicStatus(s EpicStatus) error {
	if !validEpicStatuses[s] {
		return fmt.Errorf("invalid epic status %q: must be one of: planning, in_progress, completed, on_hold", s)
	}
	return nil
}

// --- Task status enum ---

// TaskStatus tracks a task through its lifecycle.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskBlocked    TaskStatus = "blocked"
	TaskCancelled  TaskStatus = "cancelled"
)

var validTaskStatuses = map[TaskStatus]bool{
	TaskTodo:       true,
	TaskInProgress: true,
	TaskDone:       true,
	TaskBlocked:    true,
	TaskCancelled:  true,
}

// ValidateTaskStatus returns an error if the status is not recognized.
func ValidateTaskStatus(s TaskStatus) error {
	if !validTaskStatuses[s] {
		return fmt.Errorf("invalid task status %q: must be one of: todo, in_progress, done, blocked, cancelled", s)
	}
	return nil
}

// terminalTaskStatuses are excluded from listings when completed
// tasks are filtered out.
var terminalTaskStatuses = map[TaskStatus]bool{
	TaskDone:      true,
	TaskCancelled: true,
}

// --- Story points ---

// validPoints is the allowed story-sizing set (Fibonacci-like).
var validPoints = map[int]bool{
	1: true, 2: true, 3: true, 5: true, 8: true, 13: true,
	21: true, 34: true, 55: true, 89: true, 134: true,
}

// ValidatePoints returns an error if points is not in the allowed set.
func ValidatePoints(points int) error {
	if !validPoints[points] {
		return fmt.Errorf("story points must be a Fibonacci number: [1 2 3 5 8 13 21 34 55 89 134], got %d", points)
	}
	return nil
}

// --- Core data structures ---

// Epic is a large body of work that owns a set of stories.
//
// Invariant (service-maintained): every ID in StoryIDs references an
// existing story whose EpicID equals this epic's ID.
type Epic struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description"`
	Status      EpicStatus `yaml:"status" json:"status"`
	StoryIDs    []string   `yaml:"story_ids" json:"story_ids"`
	Tags        []string   `yaml:"tags" json:"tags"`
	CreatedAt   time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `yaml:"updated_at" json:"updated_at"`
}

// Story is a user story. SprintID and EpicID are back-references;
// empty string means unassigned.
type Story struct {
	ID          string      `yaml:"id" json:"id"`
	Title       string      `yaml:"title" json:"title"`
	Description string      `yaml:"description" json:"description"`
	Priority    Priority    `yaml:"priority" json:"priority"`
	Status      StoryStatus `yaml:"status" json:"status"`
	Points      *int        `yaml:"points,omitempty" json:"points,omitempty"`
	SprintID    string      `yaml:"sprint_id,omitempty" json:"sprint_id,omitempty"`
	EpicID      string      `yaml:"epic_id,omitempty" json:"epic_id,omitempty"`
	Tags        []string    `yaml:"tags" json:"tags"`
	CreatedAt   time.Time   `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `yaml:"updated_at" json:"updated_at"`
}

// Sprint is a time-boxed iteration holding a set of stories.
//
// Invariant: if both dates are set, EndDate is strictly after StartDate.
type Sprint struct {
	ID        string       `yaml:"id" json:"id"`
	Name      string       `yaml:"name" json:"name"`
	Goal      string       `yaml:"goal,omitempty" json:"goal,omitempty"`
	StartDate *time.Time   `yaml:"start_date,omitempty" json:"start_date,omitempty"`
	EndDate   *time.Time   `yaml:"end_date,omitempty" json:"end_date,omitempty"`
	Status    SprintStatus `yaml:"status" json:"status"`
	StoryIDs  []string     `yaml:"story_ids" json:"story_ids"`
	Tags      []string     `yaml:"tags" json:"tags"`
	CreatedAt time.Time    `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time    `yaml:"updated_at" json:"updated_at"`
}

// Task is a unit of work, optionally attached to a parent story.
type Task struct {
	ID             string     `yaml:"id" json:"id"`
	Title          string     `yaml:"title" json:"title"`
	Description    string     `yaml:"description" json:"description"`
	StoryID        string     `yaml:"story_id,omitempty" json:"story_id,omitempty"`
	Status         TaskStatus `yaml:"status" json:"status"`
	Priority       Priority   `yaml:"priority" json:"priority"`
	Assignee       string     `yaml:"assignee,omitempty" json:"assignee,omitempty"`
	EstimatedHours *float64   `yaml:"estimated_hours,omitempty" json:"estimated_hours,omitempty"`
	ActualHours    *float64   `yaml:"actual_hours,omitempty" json:"actual_hours,omitempty"`
	DueDate        *time.Time `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	Dependencies   []string   `yaml:"dependencies" json:"dependencies"`
	Tags           []string   `yaml:"tags" json:"tags"`
	CreatedAt      time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `yaml:"updated_at" json:"updated_at"`
}

// --- ID generation ---

// ID prefixes per artifact kind.
const (
	epicIDPrefix   = "EPIC"
	storyIDPrefix  = "STORY"
	sprintIDPrefix = "SPRINT"
	taskIDPrefix   = "TASK"
)

// readRandom is a package-level var to allow test injection.
var readRandom = rand.Read

// newArtifactID generates an ID like "STORY-3FA2": a kind prefix plus
// a short random hex suffix. Collisions are probabilistically rare;
// callers still guard with a retry loop against the store.
func newArtifactID(prefix string) (string, error) {
	var buf [2]byte
	if _, err := readRandom(buf[:]); err != nil {
		return "", fmt.Errorf("generating artifact ID: %w", err)
	}
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(hex.EncodeToString(buf[:]))), nil
}
