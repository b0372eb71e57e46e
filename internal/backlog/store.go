package backlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Subdirectories under the project data dir, one per artifact kind.
const (
	EpicsDir   = "epics"
	StoriesDir = "stories"
	SprintsDir = "sprints"
	TasksDir   = "tasks"
)

// Store defines the persistence interface for agile artifacts.
// Abstracted for testability (DIP). Get returns (nil, nil) when the
// ID does not exist — absence is not an error at this layer.
// Delete reports whether the artifact existed.
type Store interface {
	GetEpic(id string) (*Epic, error)
	SaveEpic(epic *Epic) error
	DeleteEpic(id string) (bool, error)
	ListEpics() ([]Epic, error)

	GetStory(id string) (*Story, error)
	SaveStory(story *Story) error
	DeleteStory(id string) (bool, error)
	ListStories() ([]Story, error)

	GetSprint(id string) (*Sprint, error)
	SaveSprint(sprint *Sprint) error
	DeleteSprint(id string) (bool, error)
	ListSprints() ([]Sprint, error)

	GetTask(id string) (*Task, error)
	SaveTask(task *Task) error
	DeleteTask(id string) (bool, error)
	ListTasks() ([]Task, error)
}

// FileStore implements Store on the local filesystem: one YAML
// document per artifact, one directory per kind, all under the
// project's data directory (typically <project>/.agile).
//
// Single-writer by assumption — no locking spans the read-modify-write
// sequences the services perform.
type FileStore struct {
	dataDir string
}

// NewFileStore creates a filesystem-backed artifact store rooted at dataDir.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{dataDir: dataDir}
}

// DataDir returns the root directory this store writes under.
func (fs *FileStore) DataDir() string {
	return fs.dataDir
}

// artifactPath returns the path of a single artifact file.
func (fs *FileStore) artifactPath(kind, id string) string {
	return filepath.Join(fs.dataDir, kind, id+".yaml")
}

// --- Epics ---

func (fs *FileStore) GetEpic(id string) (*Epic, error) {
	var epic Epic
	ok, err := fs.read(EpicsDir, id, &epic)
	if err != nil || !ok {
		return nil, err
	}
	return &epic, nil
}

func (fs *FileStore) SaveEpic(epic *Epic) error {
	return fs.write(EpicsDir, epic.ID, epic)
}

func (fs *FileStore) DeleteEpic(id string) (bool, error) {
	return fs.remove(EpicsDir, id)
}

func (fs *FileStore) ListEpics() ([]Epic, error) {
	ids, err := fs.listIDs(EpicsDir)
	if err != nil {
		return nil, err
	}
	epics := make([]Epic, 0, len(ids))
	for _, id := range ids {
		epic, err := fs.GetEpic(id)
		if err != nil || epic == nil {
			continue // skip unreadable records
		}
		epics = append(epics, *epic)
	}
	return epics, nil
}

// --- Stories ---

func (fs *FileStore) GetStory(id string) (*Story, error) {
	var story Story
	ok, err := fs.read(StoriesDir, id, &story)
	if err != nil || !ok {
		return nil, err
	}
	return &story, nil
}

func (fs *FileStore) SaveStory(story *Story) error {
	return fs.write(StoriesDir, story.ID, story)
}

func (fs *FileStore) DeleteStory(id string) (bool, error) {
	return fs.remove(StoriesDir, id)
}

func (fs *FileStore) ListStories() ([]Story, error) {
	ids, err := fs.listIDs(StoriesDir)
	if err != nil {
		return nil, err
	}
	stories := make([]Story, 0, len(ids))
	for _, id := range ids {
		story, err := fs.GetStory(id)
		if err != nil || story == nil {
			continue
		}
		stories = append(stories, *story)
	}
	return stories, nil
}

// --- Sprints ---

func (fs *FileStore) GetSprint(id string) (*Sprint, error) {
	var sprint Sprint
	ok, err := fs.read(SprintsDir, id, &sprint)
	if err != nil || !ok {
		return nil, err
	}
	return &sprint, nil
}

func (fs *FileStore) SaveSprint(sprint *Sprint) error {
	return fs.write(SprintsDir, sprint.ID, sprint)
}

func (fs *FileStore) DeleteSprint(id string) (bool, error) {
	return fs.remove(SprintsDir, id)
}

func (fs *FileStore) ListSprints() ([]Sprint, error) {
	ids, err := fs.listIDs(SprintsDir)
	if err != nil {
		return nil, err
	}
	sprints := make([]Sprint, 0, len(ids))
	for _, id := range ids {
		sprint, err := fs.GetSprint(id)
		if err != nil || sprint == nil {
			continue
		}
		sprints = append(sprints, *sprint)
	}
	return sprints, nil
}

// --- Tasks ---

func (fs *FileStore) GetTask(id string) (*Task, error) {
	var task Task
	ok, err := fs.read(TasksDir, id, &task)
	if err != nil || !ok {
		return nil, err
	}
	return &task, nil
}

func (fs *FileStore) SaveTask(task *Task) error {
	return fs.write(TasksDir, task.ID, task)
}

func (fs *FileStore) DeleteTask(id string) (bool, error) {
	return fs.remove(TasksDir, id)
}

func (fs *FileStore) ListTasks() ([]Task, error) {
	ids, err := fs.listIDs(TasksDir)
	if err != nil {
		return nil, err
	}
	tasks := make([]Task, 0, len(ids))
	for _, id := range ids {
		task, err := fs.GetTask(id)
		if err != nil || task == nil {
			continue
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

// --- Shared file mechanics ---

// read unmarshals an artifact file into out. Returns (false, nil) if
// the file does not exist.
func (fs *FileStore) read(kind, id string, out any) (bool, error) {
	data, err := os.ReadFile(fs.artifactPath(kind, id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s %q: %w", kind, id, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("parsing %s %q: %w", kind, id, err)
	}
	return true, nil
}

// write marshals an artifact and replaces its file, creating the kind
// directory as needed.
func (fs *FileStore) write(kind, id string, in any) error {
	dir := filepath.Join(fs.dataDir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s directory: %w", kind, err)
	}
	data, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling %s %q: %w", kind, id, err)
	}
	return os.WriteFile(fs.artifactPath(kind, id), data, 0o644)
}

// remove deletes an artifact file. Returns false if it did not exist.
func (fs *FileStore) remove(kind, id string) (bool, error) {
	err := os.Remove(fs.artifactPath(kind, id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("deleting %s %q: %w", kind, id, err)
	}
	return true, nil
}

// listIDs returns artifact IDs found under a kind directory.
// A missing directory means an empty collection, not an error.
func (fs *FileStore) listIDs(kind string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(fs.dataDir, kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s directory: %w", kind, err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".yaml"))
	}
	return ids, nil
}
