package tools

import (
	"context"
	"fmt"

	"github.com/avelarde/agile-mcp/internal/backlog"
	"github.com/avelarde/agile-mcp/internal/project"
	"github.com/mark3labs/mcp-go/mcp"
)

// CreateTaskTool creates a new task, optionally attached to a story.
type CreateTaskTool struct {
	manager *project.Manager
}

// NewCreateTaskTool creates a CreateTaskTool with the given manager.
func NewCreateTaskTool(manager *project.Manager) *CreateTaskTool {
	return &CreateTaskTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("create_task",
		mcp.WithDescription("Create a new task, optionally attached to a story."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short task title"),
		),
		mcp.WithString("description",
			mcp.Description("Longer task description"),
		),
		mcp.WithString("story_id",
			mcp.Description("Story this task belongs to"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status (default todo)"),
			mcp.Enum("todo", "in_progress", "blocked", "done", "cancelled"),
		),
		mcp.WithString("priority",
			mcp.Description("Task priority (default medium)"),
			mcp.Enum("low", "medium", "high", "critical"),
		),
		mcp.WithString("assignee",
			mcp.Description("Who the task is assigned to"),
		),
		mcp.WithNumber("estimated_hours",
			mcp.Description("Estimated effort in hours"),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date (YYYY-MM-DD)"),
		),
		mcp.WithString("dependencies",
			mcp.Description("Comma-separated task IDs this task depends on"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
	)
}

// Handle processes the create_task tool call.
func (t *CreateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	params := backlog.CreateTaskParams{
		Title:        title,
		Description:  req.GetString("description", ""),
		StoryID:      req.GetString("story_id", ""),
		Status:       backlog.TaskStatus(req.GetString("status", "")),
		Priority:     backlog.Priority(req.GetString("priority", "")),
		Assignee:     req.GetString("assignee", ""),
		Dependencies: splitCSV(req.GetString("dependencies", "")),
		Tags:         splitCSV(req.GetString("tags", "")),
	}
	if v, ok := floatArg(req, "estimated_hours"); ok {
		params.EstimatedHours = &v
	}
	if v, ok := stringArg(req, "due_date"); ok && v != "" {
		d, err := parseDate("due_date", v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		params.DueDate = &d
	}

	task, err := svc.Tasks.Create(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(fmt.Sprintf("Created task %s: %s", task.ID, task.Title), task)
}

// GetTaskTool retrieves a single task by ID.
type GetTaskTool struct {
	manager *project.Manager
}

// NewGetTaskTool creates a GetTaskTool with the given manager.
func NewGetTaskTool(manager *project.Manager) *GetTaskTool {
	return &GetTaskTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *GetTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("get_task",
		mcp.WithDescription("Get a task by its ID."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task ID, e.g. TASK-1A2B"),
		),
	)
}

// Handle processes the get_task tool call.
func (t *GetTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("task_id", "")
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	task, err := svc.Tasks.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	if task == nil {
		return mcp.NewToolResultError(fmt.Sprintf("task %s not found", id)), nil
	}
	return jsonResult(fmt.Sprintf("Task %s: %s", task.ID, task.Title), task)
}

// UpdateTaskTool applies a partial update to a task. Dependency
// changes are re-checked for cycles against the stored task graph.
type UpdateTaskTool struct {
	manager *project.Manager
}

// NewUpdateTaskTool creates an UpdateTaskTool with the given manager.
func NewUpdateTaskTool(manager *project.Manager) *UpdateTaskTool {
	return &UpdateTaskTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("update_task",
		mcp.WithDescription(
			"Update fields of an existing task. Omitted fields are left "+
				"unchanged; an empty story_id detaches the task.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task ID, e.g. TASK-1A2B"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("story_id",
			mcp.Description("New story attachment; empty string to detach"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum("todo", "in_progress", "blocked", "done", "cancelled"),
		),
		mcp.WithString("priority",
			mcp.Description("New priority"),
			mcp.Enum("low", "medium", "high", "critical"),
		),
		mcp.WithString("assignee",
			mcp.Description("New assignee; empty string to unassign"),
		),
		mcp.WithNumber("estimated_hours",
			mcp.Description("New estimated effort in hours"),
		),
		mcp.WithNumber("actual_hours",
			mcp.Description("Actual effort spent in hours"),
		),
		mcp.WithString("due_date",
			mcp.Description("New due date (YYYY-MM-DD)"),
		),
		mcp.WithString("dependencies",
			mcp.Description("Comma-separated task IDs, replacing the existing set"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags, replacing the existing set"),
		),
	)
}

// Handle processes the update_task tool call.
func (t *UpdateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("task_id", "")
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	var u backlog.TaskUpdate
	if v, ok := stringArg(req, "title"); ok {
		u.Title = &v
	}
	if v, ok := stringArg(req, "description"); ok {
		u.Description = &v
	}
	if v, ok := stringArg(req, "story_id"); ok {
		u.StoryID = &v
	}
	if v, ok := stringArg(req, "status"); ok {
		st := backlog.TaskStatus(v)
		u.Status = &st
	}
	if v, ok := stringArg(req, "priority"); ok {
		p := backlog.Priority(v)
		u.Priority = &p
	}
	if v, ok := stringArg(req, "assignee"); ok {
		u.Assignee = &v
	}
	if v, ok := floatArg(req, "estimated_hours"); ok {
		u.EstimatedHours = &v
	}
	if v, ok := floatArg(req, "actual_hours"); ok {
		u.ActualHours = &v
	}
	if v, ok := stringArg(req, "due_date"); ok && v != "" {
		d, err := parseDate("due_date", v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		u.DueDate = &d
	}
	if v, ok := stringArg(req, "dependencies"); ok {
		u.Dependencies = splitCSV(v)
	}
	if v, ok := stringArg(req, "tags"); ok {
		u.Tags = splitCSV(v)
	}

	task, err := svc.Tasks.Update(id, u)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if task == nil {
		return mcp.NewToolResultError(fmt.Sprintf("task %s not found", id)), nil
	}
	return jsonResult(fmt.Sprintf("Updated task %s", task.ID), task)
}

// ListTasksTool lists tasks with optional filters. Done and cancelled
// tasks are included unless include_completed is set to false.
type ListTasksTool struct {
	manager *project.Manager
}

// NewListTasksTool creates a ListTasksTool with the given manager.
func NewListTasksTool(manager *project.Manager) *ListTasksTool {
	return &ListTasksTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription(
			"List tasks, optionally filtered by story, status, priority or "+
				"assignee. Done and cancelled tasks are included unless "+
				"include_completed is set to false.",
		),
		mcp.WithString("story_id",
			mcp.Description("Only tasks attached to this story"),
		),
		mcp.WithString("status",
			mcp.Description("Only tasks with this status"),
			mcp.Enum("todo", "in_progress", "blocked", "done", "cancelled"),
		),
		mcp.WithString("priority",
			mcp.Description("Only tasks with this priority"),
			mcp.Enum("low", "medium", "high", "critical"),
		),
		mcp.WithString("assignee",
			mcp.Description("Only tasks assigned to this person"),
		),
		mcp.WithBoolean("include_completed",
			mcp.Description("Include done and cancelled tasks (default true)"),
		),
	)
}

// Handle processes the list_tasks tool call.
func (t *ListTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var f backlog.TaskFilter
	if v, ok := stringArg(req, "story_id"); ok {
		f.StoryID = &v
	}
	if v, ok := stringArg(req, "status"); ok {
		st := backlog.TaskStatus(v)
		if err := backlog.ValidateTaskStatus(st); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Status = &st
	}
	if v, ok := stringArg(req, "priority"); ok {
		p := backlog.Priority(v)
		if err := backlog.ValidatePriority(p); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Priority = &p
	}
	if v, ok := stringArg(req, "assignee"); ok {
		f.Assignee = &v
	}
	f.IncludeCompleted = boolArg(req, "include_completed", true)

	tasks, err := svc.Tasks.List(f)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return jsonResult(fmt.Sprintf("Found %d tasks", len(tasks)), tasks)
}

// DeleteTaskTool removes a task permanently.
type DeleteTaskTool struct {
	manager *project.Manager
}

// NewDeleteTaskTool creates a DeleteTaskTool with the given manager.
func NewDeleteTaskTool(manager *project.Manager) *DeleteTaskTool {
	return &DeleteTaskTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task permanently. Tasks depending on it treat the dependency as satisfied."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task ID, e.g. TASK-1A2B"),
		),
	)
}

// Handle processes the delete_task tool call.
func (t *DeleteTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("task_id", "")
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	deleted, err := svc.Tasks.Delete(id)
	if err != nil {
		return nil, fmt.Errorf("deleting task: %w", err)
	}
	if !deleted {
		return mcp.NewToolResultError(fmt.Sprintf("task %s not found", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted task %s", id)), nil
}
