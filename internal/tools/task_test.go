package tools

import (
	"context"
	"strings"
	"testing"
)

func TestCreateTaskTool_Handle_Success(t *testing.T) {
	manager := newTestManager(t)
	story := mustCreateStory(t, manager, "Login page")

	result, err := NewCreateTaskTool(manager).Handle(context.Background(), newRequest(map[string]interface{}{
		"title":           "Wire login form",
		"story_id":        story.ID,
		"assignee":        "dana",
		"estimated_hours": float64(6),
		"due_date":        "2025-04-01",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	text := getResultText(result)
	if !strings.Contains(text, "Created task TASK-") {
		t.Error("result should announce the new task ID")
	}
	if !strings.Contains(text, `"assignee": "dana"`) {
		t.Error("result payload should carry the assignee")
	}
}

func TestCreateTaskTool_Handle_NegativeHours(t *testing.T) {
	result, err := NewCreateTaskTool(newTestManager(t)).Handle(context.Background(), newRequest(map[string]interface{}{
		"title":           "Bad estimate",
		"estimated_hours": float64(-2),
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("expected error result for negative estimated hours")
	}
}

func TestUpdateTaskTool_Handle_DependencyCycle(t *testing.T) {
	manager := newTestManager(t)
	create := NewCreateTaskTool(manager)

	resA, err := create.Handle(context.Background(), newRequest(map[string]interface{}{"title": "a"}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	idA := extractID(t, getResultText(resA), "TASK-")

	resB, err := create.Handle(context.Background(), newRequest(map[string]interface{}{
		"title":        "b",
		"dependencies": idA,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	idB := extractID(t, getResultText(resB), "TASK-")

	// a depending on b closes the loop.
	result, err := NewUpdateTaskTool(manager).Handle(context.Background(), newRequest(map[string]interface{}{
		"task_id":      idA,
		"dependencies": idB,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result for a dependency cycle")
	}
	if !strings.Contains(getResultText(result), "cycle") {
		t.Error("error should mention the cycle")
	}
}

func TestListTasksTool_Handle_IncludeCompletedDefault(t *testing.T) {
	manager := newTestManager(t)
	create := NewCreateTaskTool(manager)

	resOpen, err := create.Handle(context.Background(), newRequest(map[string]interface{}{"title": "open"}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	openID := extractID(t, getResultText(resOpen), "TASK-")

	resDone, err := create.Handle(context.Background(), newRequest(map[string]interface{}{
		"title":  "finished",
		"status": "done",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	doneID := extractID(t, getResultText(resDone), "TASK-")

	list := NewListTasksTool(manager)
	result, err := list.Handle(context.Background(), newRequest(nil))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, openID) || !strings.Contains(text, doneID) {
		t.Error("default listing should include done tasks")
	}

	result, err = list.Handle(context.Background(), newRequest(map[string]interface{}{
		"include_completed": false,
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text = getResultText(result)
	if !strings.Contains(text, openID) || strings.Contains(text, doneID) {
		t.Error("include_completed=false should hide done tasks")
	}
}

func TestDeleteTaskTool_Handle_NotFound(t *testing.T) {
	result, err := NewDeleteTaskTool(newTestManager(t)).Handle(context.Background(), newRequest(map[string]interface{}{
		"task_id": "TASK-0000",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if !isErrorResult(result) {
		t.Error("expected error result for an unknown task")
	}
}
