package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/avelarde/agile-mcp/internal/backlog"
	"github.com/avelarde/agile-mcp/internal/project"
	"github.com/mark3labs/mcp-go/mcp"
)

// newTestManager returns a manager bound to a fresh temp project.
func newTestManager(t *testing.T) *project.Manager {
	t.Helper()
	m := project.NewManager()
	if err := m.Set(t.TempDir()); err != nil {
		t.Fatalf("binding test project: %v", err)
	}
	return m
}

// newRequest builds a CallToolRequest with the given arguments.
func newRequest(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// mustCreateStory creates a story through the domain service,
// failing the test on error.
func mustCreateStory(t *testing.T, manager *project.Manager, title string) *backlog.Story {
	t.Helper()
	svc, err := manager.Services()
	if err != nil {
		t.Fatalf("Services failed: %v", err)
	}
	story, err := svc.Stories.Create(backlog.CreateStoryParams{Title: title})
	if err != nil {
		t.Fatalf("creating fixture story: %v", err)
	}
	return story
}

// mustCreateSprint creates a sprint through the domain service,
// failing the test on error.
func mustCreateSprint(t *testing.T, manager *project.Manager, name string) *backlog.Sprint {
	t.Helper()
	svc, err := manager.Services()
	if err != nil {
		t.Fatalf("Services failed: %v", err)
	}
	sprint, err := svc.Sprints.Create(backlog.CreateSprintParams{Name: name})
	if err != nil {
		t.Fatalf("creating fixture sprint: %v", err)
	}
	return sprint
}

// mustCreateEpic creates an epic through the domain service, failing
// the test on error.
func mustCreateEpic(t *testing.T, manager *project.Manager, title string) *backlog.Epic {
	t.Helper()
	svc, err := manager.Services()
	if err != nil {
		t.Fatalf("Services failed: %v", err)
	}
	epic, err := svc.Epics.Create(backlog.CreateEpicParams{Title: title})
	if err != nil {
		t.Fatalf("creating fixture epic: %v", err)
	}
	return epic
}

// storyListAll is a filter matching every story.
func storyListAll() backlog.StoryFilter {
	return backlog.StoryFilter{}
}

// isErrorResult reports whether the result carries the error flag.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- SetProjectTool / GetProjectTool ---

func TestSetProjectTool_Handle_Success(t *testing.T) {
	manager := project.NewManager()
	tool := NewSetProjectTool(manager)
	dir := t.TempDir()

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"path": dir,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if manager.Path() == "" {
		t.Error("manager should be bound after set_project")
	}
	if !strings.Contains(getResultText(result), dir) {
		t.Error("result should echo the project directory")
	}
}

func TestSetProjectTool_Handle_MissingDirectory(t *testing.T) {
	tool := NewSetProjectTool(project.NewManager())

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"path": "/nonexistent/project/dir",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("expected error result for a missing directory")
	}
}

func TestSetProjectTool_Handle_MissingPath(t *testing.T) {
	tool := NewSetProjectTool(project.NewManager())

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("expected error result when path is missing")
	}
}

func TestGetProjectTool_Handle(t *testing.T) {
	manager := project.NewManager()
	tool := NewGetProjectTool(manager)

	result, err := tool.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("expected error result before a project is bound")
	}

	dir := t.TempDir()
	if err := manager.Set(dir); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	result, err = tool.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}
	if !strings.Contains(getResultText(result), dir) {
		t.Error("result should contain the bound directory")
	}
}

func TestToolsRequireProject(t *testing.T) {
	manager := project.NewManager()

	result, err := NewCreateStoryTool(manager).Handle(context.Background(), newRequest(map[string]interface{}{
		"title": "orphan",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result without a bound project")
	}
	if !strings.Contains(getResultText(result), "set_project") {
		t.Error("error should point the caller at set_project")
	}
}
