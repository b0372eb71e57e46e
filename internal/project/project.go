// Package project tracks the active project directory and owns the
// lifecycle of the per-project service set.
//
// A project is any directory; its agile artifacts live under an
// .agile/ subdirectory created on first use. The server starts with
// no project bound — tools error with guidance until set_project has
// been called (or the directory was given on the command line).
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avelarde/agile-mcp/internal/backlog"
)

// DataDirName is the subdirectory of a project where artifacts live.
const DataDirName = ".agile"

// configFile is the project marker written alongside the artifact dirs.
const configFile = "project.json"

// ErrNoProject is returned when a tool runs before a project
// directory has been bound.
var ErrNoProject = errors.New(
	"no project directory is set — call the 'set_project' tool with an absolute path first")

// Config is the persisted project marker (.agile/project.json).
type Config struct {
	Name          string `json:"name"`
	InitializedAt string `json:"initialized_at"`
}

// Services bundles the per-project domain services, all sharing one
// file store. Rebuilt whenever the active project changes.
type Services struct {
	Store   *backlog.FileStore
	Stories *backlog.StoryService
	Sprints *backlog.SprintService
	Epics   *backlog.EpicService
	Tasks   *backlog.TaskService
}

// Manager holds the active project binding. Not safe for concurrent
// use — the MCP stdio transport serializes calls.
type Manager struct {
	path     string
	services *Services
}

// NewManager creates an unbound Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Set binds the manager to a project directory, creating the .agile
// layout and the project marker if they do not exist yet, and
// rebuilding the service set.
func (m *Manager) Set(path string) error {
	if path == "" {
		return errors.New("project path must not be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving project path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("project directory %q does not exist", abs)
		}
		return fmt.Errorf("checking project path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("project path %q is not a directory", abs)
	}

	dataDir := filepath.Join(abs, DataDirName)
	if err := initLayout(dataDir, filepath.Base(abs)); err != nil {
		return err
	}

	store := backlog.NewFileStore(dataDir)
	m.path = abs
	m.services = &Services{
		Store:   store,
		Stories: backlog.NewStoryService(store),
		Sprints: backlog.NewSprintService(store),
		Epics:   backlog.NewEpicService(store),
		Tasks:   backlog.NewTaskService(store),
	}
	return nil
}

// Path returns the active project directory, or "" if none is bound.
func (m *Manager) Path() string {
	return m.path
}

// Services returns the active service set, or ErrNoProject if no
// project is bound.
func (m *Manager) Services() (*Services, error) {
	if m.services == nil {
		return nil, ErrNoProject
	}
	return m.services, nil
}

// initLayout creates the artifact directories and the project marker.
// Existing markers are left untouched so InitializedAt survives
// rebinding.
func initLayout(dataDir, name string) error {
	for _, kind := range []string{backlog.EpicsDir, backlog.StoriesDir, backlog.SprintsDir, backlog.TasksDir} {
		if err := os.MkdirAll(filepath.Join(dataDir, kind), 0o755); err != nil {
			return fmt.Errorf("creating %s directory: %w", kind, err)
		}
	}

	marker := filepath.Join(dataDir, configFile)
	if _, err := os.Stat(marker); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking project marker: %w", err)
	}

	cfg := Config{
		Name:          name,
		InitializedAt: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling project marker: %w", err)
	}
	return os.WriteFile(marker, data, 0o644)
}
