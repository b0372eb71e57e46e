package tools

import (
	"context"
	"fmt"

	"github.com/avelarde/agile-mcp/internal/backlog"
	"github.com/avelarde/agile-mcp/internal/project"
	"github.com/mark3labs/mcp-go/mcp"
)

// CreateStoryTool creates a new user story in the active project.
type CreateStoryTool struct {
	manager *project.Manager
}

// NewCreateStoryTool creates a CreateStoryTool with the given manager.
func NewCreateStoryTool(manager *project.Manager) *CreateStoryTool {
	return &CreateStoryTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateStoryTool) Definition() mcp.Tool {
	return mcp.NewTool("create_story",
		mcp.WithDescription("Create a new user story in the product backlog."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short story title"),
		),
		mcp.WithString("description",
			mcp.Description("Longer story description"),
		),
		mcp.WithString("priority",
			mcp.Description("Story priority (default medium)"),
			mcp.Enum("low", "medium", "high", "critical"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status (default todo)"),
			mcp.Enum("todo", "in_progress", "done", "blocked", "cancelled"),
		),
		mcp.WithNumber("points",
			mcp.Description("Story points, a Fibonacci value: 1, 2, 3, 5, 8, 13, 21, 34, 55, 89 or 134"),
		),
		mcp.WithString("sprint_id",
			mcp.Description("Sprint to assign the story to"),
		),
		mcp.WithString("epic_id",
			mcp.Description("Epic the story belongs to"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
	)
}

// Handle processes the create_story tool call.
func (t *CreateStoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	params := backlog.CreateStoryParams{
		Title:       title,
		Description: req.GetString("description", ""),
		Priority:    backlog.Priority(req.GetString("priority", "")),
		Status:      backlog.StoryStatus(req.GetString("status", "")),
		SprintID:    req.GetString("sprint_id", ""),
		EpicID:      req.GetString("epic_id", ""),
		Tags:        splitCSV(req.GetString("tags", "")),
	}
	if points, ok := intArg(req, "points"); ok {
		params.Points = &points
	}

	story, err := svc.Stories.Create(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(fmt.Sprintf("Created story %s: %s", story.ID, story.Title), story)
}

// GetStoryTool retrieves a single story by ID.
type GetStoryTool struct {
	manager *project.Manager
}

// NewGetStoryTool creates a GetStoryTool with the given manager.
func NewGetStoryTool(manager *project.Manager) *GetStoryTool {
	return &GetStoryTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *GetStoryTool) Definition() mcp.Tool {
	return mcp.NewTool("get_story",
		mcp.WithDescription("Get a user story by its ID."),
		mcp.WithString("story_id",
			mcp.Required(),
			mcp.Description("Story ID, e.g. STORY-1A2B"),
		),
	)
}

// Handle processes the get_story tool call.
func (t *GetStoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("story_id", "")
	if id == "" {
		return mcp.NewToolResultError("'story_id' is required"), nil
	}

	story, err := svc.Stories.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting story: %w", err)
	}
	if story == nil {
		return mcp.NewToolResultError(fmt.Sprintf("story %s not found", id)), nil
	}
	return jsonResult(fmt.Sprintf("Story %s: %s", story.ID, story.Title), story)
}

// UpdateStoryTool applies a partial update to a story. Only the
// supplied arguments change; passing an empty sprint_id or epic_id
// clears that assignment.
type UpdateStoryTool struct {
	manager *project.Manager
}

// NewUpdateStoryTool creates an UpdateStoryTool with the given manager.
func NewUpdateStoryTool(manager *project.Manager) *UpdateStoryTool {
	return &UpdateStoryTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateStoryTool) Definition() mcp.Tool {
	return mcp.NewTool("update_story",
		mcp.WithDescription(
			"Update fields of an existing story. Omitted fields are left "+
				"unchanged; an empty sprint_id or epic_id clears the assignment.",
		),
		mcp.WithString("story_id",
			mcp.Required(),
			mcp.Description("Story ID, e.g. STORY-1A2B"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("priority",
			mcp.Description("New priority"),
			mcp.Enum("low", "medium", "high", "critical"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum("todo", "in_progress", "done", "blocked", "cancelled"),
		),
		mcp.WithNumber("points",
			mcp.Description("New story points (Fibonacci value)"),
		),
		mcp.WithString("sprint_id",
			mcp.Description("New sprint assignment; empty string to clear"),
		),
		mcp.WithString("epic_id",
			mcp.Description("New epic assignment; empty string to clear"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags, replacing the existing set"),
		),
	)
}

// Handle processes the update_story tool call.
func (t *UpdateStoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("story_id", "")
	if id == "" {
		return mcp.NewToolResultError("'story_id' is required"), nil
	}

	var u backlog.StoryUpdate
	if v, ok := stringArg(req, "title"); ok {
		u.Title = &v
	}
	if v, ok := stringArg(req, "description"); ok {
		u.Description = &v
	}
	if v, ok := stringArg(req, "priority"); ok {
		p := backlog.Priority(v)
		u.Priority = &p
	}
	if v, ok := stringArg(req, "status"); ok {
		st := backlog.StoryStatus(v)
		u.Status = &st
	}
	if v, ok := intArg(req, "points"); ok {
		u.Points = &v
	}
	if v, ok := stringArg(req, "sprint_id"); ok {
		u.SprintID = &v
	}
	if v, ok := stringArg(req, "epic_id"); ok {
		u.EpicID = &v
	}
	if v, ok := stringArg(req, "tags"); ok {
		u.Tags = splitCSV(v)
	}

	story, err := svc.Stories.Update(id, u)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if story == nil {
		return mcp.NewToolResultError(fmt.Sprintf("story %s not found", id)), nil
	}
	return jsonResult(fmt.Sprintf("Updated story %s", story.ID), story)
}

// ListStoriesTool lists stories with optional filters.
type ListStoriesTool struct {
	manager *project.Manager
}

// NewListStoriesTool creates a ListStoriesTool with the given manager.
func NewListStoriesTool(manager *project.Manager) *ListStoriesTool {
	return &ListStoriesTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *ListStoriesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_stories",
		mcp.WithDescription(
			"List stories, optionally filtered by status, priority or sprint. "+
				"Filters combine; sprint_id takes precedence over unassigned.",
		),
		mcp.WithString("status",
			mcp.Description("Only stories with this status"),
			mcp.Enum("todo", "in_progress", "done", "blocked", "cancelled"),
		),
		mcp.WithString("priority",
			mcp.Description("Only stories with this priority"),
			mcp.Enum("low", "medium", "high", "critical"),
		),
		mcp.WithString("sprint_id",
			mcp.Description("Only stories assigned to this sprint"),
		),
		mcp.WithBoolean("unassigned",
			mcp.Description("Only stories not assigned to any sprint"),
		),
	)
}

// Handle processes the list_stories tool call.
func (t *ListStoriesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var f backlog.StoryFilter
	if v, ok := stringArg(req, "status"); ok {
		st := backlog.StoryStatus(v)
		if err := backlog.ValidateStoryStatus(st); err != nil {
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
	if v, ok := stringArg(req, "sprint_id"); ok {
		f.SprintID = &v
	}
	f.Unassigned = boolArg(req, "unassigned", false)

	stories, err := svc.Stories.List(f)
	if err != nil {
		return nil, fmt.Errorf("listing stories: %w", err)
	}
	return jsonResult(fmt.Sprintf("Found %d stories", len(stories)), stories)
}

// DeleteStoryTool removes a story permanently.
type DeleteStoryTool struct {
	manager *project.Manager
}

// NewDeleteStoryTool creates a DeleteStoryTool with the given manager.
func NewDeleteStoryTool(manager *project.Manager) *DeleteStoryTool {
	return &DeleteStoryTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteStoryTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_story",
		mcp.WithDescription("Delete a story permanently."),
		mcp.WithString("story_id",
			mcp.Required(),
			mcp.Description("Story ID, e.g. STORY-1A2B"),
		),
	)
}

// Handle processes the delete_story tool call.
func (t *DeleteStoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("story_id", "")
	if id == "" {
		return mcp.NewToolResultError("'story_id' is required"), nil
	}

	deleted, err := svc.Stories.Delete(id)
	if err != nil {
		return nil, fmt.Errorf("deleting story: %w", err)
	}
	if !deleted {
		return mcp.NewToolResultError(fmt.Sprintf("story %s not found", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted story %s", id)), nil
}
