package tools

import (
	"context"
	"fmt"

	"github.com/avelarde/agile-mcp/internal/backlog"
	"github.com/avelarde/agile-mcp/internal/project"
	"github.com/mark3labs/mcp-go/mcp"
)

// CreateEpicTool creates a new epic in the active project.
type CreateEpicTool struct {
	manager *project.Manager
}

// NewCreateEpicTool creates a CreateEpicTool with the given manager.
func NewCreateEpicTool(manager *project.Manager) *CreateEpicTool {
	return &CreateEpicTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateEpicTool) Definition() mcp.Tool {
	return mcp.NewTool("create_epic",
		mcp.WithDescription("Create a new epic grouping related stories."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short epic title"),
		),
		mcp.WithString("description",
			mcp.Description("Longer epic description"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status (default planning)"),
			mcp.Enum("planning", "in_progress", "completed", "on_hold"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
	)
}

// Handle processes the create_epic tool call.
func (t *CreateEpicTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	epic, err := svc.Epics.Create(backlog.CreateEpicParams{
		Title:       title,
		Description: req.GetString("description", ""),
		Status:      backlog.EpicStatus(req.GetString("status", "")),
		Tags:        splitCSV(req.GetString("tags", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(fmt.Sprintf("Created epic %s: %s", epic.ID, epic.Title), epic)
}

// GetEpicTool retrieves a single epic by ID.
type GetEpicTool struct {
	manager *project.Manager
}

// NewGetEpicTool creates a GetEpicTool with the given manager.
func NewGetEpicTool(manager *project.Manager) *GetEpicTool {
	return &GetEpicTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *GetEpicTool) Definition() mcp.Tool {
	return mcp.NewTool("get_epic",
		mcp.WithDescription("Get an epic by its ID, including its story memberships."),
		mcp.WithString("epic_id",
			mcp.Required(),
			mcp.Description("Epic ID, e.g. EPIC-1A2B"),
		),
	)
}

// Handle processes the get_epic tool call.
func (t *GetEpicTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("epic_id", "")
	if id == "" {
		return mcp.NewToolResultError("'epic_id' is required"), nil
	}

	epic, err := svc.Epics.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting epic: %w", err)
	}
	if epic == nil {
		return mcp.NewToolResultError(fmt.Sprintf("epic %s not found", id)), nil
	}
	return jsonResult(fmt.Sprintf("Epic %s: %s", epic.ID, epic.Title), epic)
}

// UpdateEpicTool applies a partial update to an epic.
type UpdateEpicTool struct {
	manager *project.Manager
}

// NewUpdateEpicTool creates an UpdateEpicTool with the given manager.
func NewUpdateEpicTool(manager *project.Manager) *UpdateEpicTool {
	return &UpdateEpicTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateEpicTool) Definition() mcp.Tool {
	return mcp.NewTool("update_epic",
		mcp.WithDescription("Update fields of an existing epic. Omitted fields are left unchanged."),
		mcp.WithString("epic_id",
			mcp.Required(),
			mcp.Description("Epic ID, e.g. EPIC-1A2B"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum("planning", "in_progress", "completed", "on_hold"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags, replacing the existing set"),
		),
	)
}

// Handle processes the update_epic tool call.
func (t *UpdateEpicTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("epic_id", "")
	if id == "" {
		return mcp.NewToolResultError("'epic_id' is required"), nil
	}

	var u backlog.EpicUpdate
	if v, ok := stringArg(req, "title"); ok {
		u.Title = &v
	}
	if v, ok := stringArg(req, "description"); ok {
		u.Description = &v
	}
	if v, ok := stringArg(req, "status"); ok {
		st := backlog.EpicStatus(v)
		u.Status = &st
	}
	if v, ok := stringArg(req, "tags"); ok {
		u.Tags = splitCSV(v)
	}

	epic, err := svc.Epics.Update(id, u)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if epic == nil {
		return mcp.NewToolResultError(fmt.Sprintf("epic %s not found", id)), nil
	}
	return jsonResult(fmt.Sprintf("Updated epic %s", epic.ID), epic)
}

// ListEpicsTool lists epics, newest first.
type ListEpicsTool struct {
	manager *project.Manager
}

// NewListEpicsTool creates a ListEpicsTool with the given manager.
func NewListEpicsTool(manager *project.Manager) *ListEpicsTool {
	return &ListEpicsTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *ListEpicsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_epics",
		mcp.WithDescription(
			"List epics, newest first. Story memberships are omitted unless "+
				"include_stories is set.",
		),
		mcp.WithString("status",
			mcp.Description("Only epics with this status"),
			mcp.Enum("planning", "in_progress", "completed", "on_hold"),
		),
		mcp.WithBoolean("include_stories",
			mcp.Description("Include story ID memberships in the listing"),
		),
	)
}

// Handle processes the list_epics tool call.
func (t *ListEpicsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var f backlog.EpicFilter
	if v, ok := stringArg(req, "status"); ok {
		st := backlog.EpicStatus(v)
		if err := backlog.ValidateEpicStatus(st); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Status = &st
	}
	f.IncludeStoryIDs = boolArg(req, "include_stories", false)

	epics, err := svc.Epics.List(f)
	if err != nil {
		return nil, fmt.Errorf("listing epics: %w", err)
	}
	return jsonResult(fmt.Sprintf("Found %d epics", len(epics)), epics)
}

// DeleteEpicTool removes an epic, clearing the epic reference on every
// story that pointed at it.
type DeleteEpicTool struct {
	manager *project.Manager
}

// NewDeleteEpicTool creates a DeleteEpicTool with the given manager.
func NewDeleteEpicTool(manager *project.Manager) *DeleteEpicTool {
	return &DeleteEpicTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteEpicTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_epic",
		mcp.WithDescription("Delete an epic permanently. Its stories survive with their epic reference cleared."),
		mcp.WithString("epic_id",
			mcp.Required(),
			mcp.Description("Epic ID, e.g. EPIC-1A2B"),
		),
	)
}

// Handle processes the delete_epic tool call.
func (t *DeleteEpicTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("epic_id", "")
	if id == "" {
		return mcp.NewToolResultError("'epic_id' is required"), nil
	}

	deleted, err := svc.Epics.Delete(id)
	if err != nil {
		return nil, fmt.Errorf("deleting epic: %w", err)
	}
	if !deleted {
		return mcp.NewToolResultError(fmt.Sprintf("epic %s not found", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted epic %s", id)), nil
}

// ManageEpicStoriesTool adds a story to or removes a story from an
// epic, keeping the story's epic reference in step.
type ManageEpicStoriesTool struct {
	manager *project.Manager
}

// NewManageEpicStoriesTool creates a ManageEpicStoriesTool with the
// given manager.
func NewManageEpicStoriesTool(manager *project.Manager) *ManageEpicStoriesTool {
	return &ManageEpicStoriesTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *ManageEpicStoriesTool) Definition() mcp.Tool {
	return mcp.NewTool("manage_epic_stories",
		mcp.WithDescription("Add a story to or remove a story from an epic."),
		mcp.WithString("epic_id",
			mcp.Required(),
			mcp.Description("Epic ID, e.g. EPIC-1A2B"),
		),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Whether to add or remove the story"),
			mcp.Enum("add", "remove"),
		),
		mcp.WithString("story_id",
			mcp.Required(),
			mcp.Description("Story ID, e.g. STORY-1A2B"),
		),
	)
}

// Handle processes the manage_epic_stories tool call.
func (t *ManageEpicStoriesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	epicID := req.GetString("epic_id", "")
	storyID := req.GetString("story_id", "")
	action := req.GetString("action", "")
	if epicID == "" || storyID == "" {
		return mcp.NewToolResultError("'epic_id' and 'story_id' are required"), nil
	}

	var epic *backlog.Epic
	switch action {
	case "add":
		epic, err = svc.Epics.AddStory(epicID, storyID)
	case "remove":
		epic, err = svc.Epics.RemoveStory(epicID, storyID)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid action %q: use 'add' or 'remove'", action)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if epic == nil {
		return mcp.NewToolResultError(fmt.Sprintf("epic %s not found", epicID)), nil
	}

	verb := "Added"
	prep := "to"
	if action == "remove" {
		verb, prep = "Removed", "from"
	}
	return jsonResult(fmt.Sprintf("%s story %s %s epic %s", verb, storyID, prep, epic.ID), epic)
}

// GetProductBacklogTool lists the unassigned stories in planning
// order: priority descending, then newest first.
type GetProductBacklogTool struct {
	manager *project.Manager
}

// NewGetProductBacklogTool creates a GetProductBacklogTool with the
// given manager.
func NewGetProductBacklogTool(manager *project.Manager) *GetProductBacklogTool {
	return &GetProductBacklogTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *GetProductBacklogTool) Definition() mcp.Tool {
	return mcp.NewTool("get_product_backlog",
		mcp.WithDescription(
			"Get the product backlog: stories not assigned to any sprint, "+
				"ordered by priority (critical first) then newest first.",
		),
		mcp.WithString("status",
			mcp.Description("Only stories with this status"),
			mcp.Enum("todo", "in_progress", "done", "blocked", "cancelled"),
		),
		mcp.WithString("priority",
			mcp.Description("Only stories with this priority"),
			mcp.Enum("low", "medium", "high", "critical"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags; stories matching any of them are included"),
		),
		mcp.WithBoolean("include_completed",
			mcp.Description("Include done stories (hidden by default)"),
		),
	)
}

// Handle processes the get_product_backlog tool call.
func (t *GetProductBacklogTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var f backlog.BacklogFilter
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
	f.Tags = splitCSV(req.GetString("tags", ""))
	f.IncludeDone = boolArg(req, "include_completed", false)

	stories, err := svc.Epics.ProductBacklog(f)
	if err != nil {
		return nil, fmt.Errorf("building product backlog: %w", err)
	}
	return jsonResult(fmt.Sprintf("Product backlog: %d stories", len(stories)), stories)
}
