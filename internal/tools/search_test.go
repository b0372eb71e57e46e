package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/avelarde/agile-mcp/internal/backlog"
	"github.com/avelarde/agile-mcp/internal/search"
)

func newTestIndex(t *testing.T) *search.Index {
	t.Helper()
	ix, err := search.New()
	if err != nil {
		t.Fatalf("opening search index: %v", err)
	}
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestSearchArtifactsTool_Handle_FindsAcrossKinds(t *testing.T) {
	manager := newTestManager(t)
	svc, _ := manager.Services()

	story := mustCreateStory(t, manager, "OAuth login flow")
	if _, err := svc.Tasks.Create(backlog.CreateTaskParams{
		Title:       "Renew certificates",
		Description: "The oauth callback host cert expires in April",
	}); err != nil {
		t.Fatalf("creating fixture task: %v", err)
	}
	mustCreateEpic(t, manager, "Billing")

	tool := NewSearchArtifactsTool(manager, newTestIndex(t))
	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"query": "oauth",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	text := getResultText(result)
	if !strings.Contains(text, "Found 2 matches") {
		t.Errorf("expected two matches, got: %s", strings.SplitN(text, "\n", 2)[0])
	}
	if !strings.Contains(text, story.ID) {
		t.Error("results should include the matching story")
	}
}

func TestSearchArtifactsTool_Handle_KindFilter(t *testing.T) {
	manager := newTestManager(t)
	svc, _ := manager.Services()

	mustCreateStory(t, manager, "OAuth login flow")
	task, err := svc.Tasks.Create(backlog.CreateTaskParams{Title: "OAuth token refresh"})
	if err != nil {
		t.Fatalf("creating fixture task: %v", err)
	}

	tool := NewSearchArtifactsTool(manager, newTestIndex(t))
	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{
		"query": "oauth",
		"kind":  "task",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	text := getResultText(result)
	if !strings.Contains(text, task.ID) {
		t.Error("results should include the task")
	}
	if strings.Contains(text, "STORY-") {
		t.Error("kind filter should exclude stories")
	}
}

func TestSearchArtifactsTool_Handle_MissingQuery(t *testing.T) {
	tool := NewSearchArtifactsTool(newTestManager(t), newTestIndex(t))

	result, err := tool.Handle(context.Background(), newRequest(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("expected error result when query is missing")
	}
}
