package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/avelarde/agile-mcp/internal/backlog"
	"github.com/avelarde/agile-mcp/internal/project"
	"github.com/mark3labs/mcp-go/mcp"
)

// CreateSprintTool creates a new sprint in the active project.
type CreateSprintTool struct {
	manager *project.Manager
}

// NewCreateSprintTool creates a CreateSprintTool with the given manager.
func NewCreateSprintTool(manager *project.Manager) *CreateSprintTool {
	return &CreateSprintTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateSprintTool) Definition() mcp.Tool {
	return mcp.NewTool("create_sprint",
		mcp.WithDescription("Create a new sprint. Dates use YYYY-MM-DD; end_date must be after start_date."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Sprint name"),
		),
		mcp.WithString("goal",
			mcp.Description("Sprint goal"),
		),
		mcp.WithString("start_date",
			mcp.Description("Start date (YYYY-MM-DD)"),
		),
		mcp.WithString("end_date",
			mcp.Description("End date (YYYY-MM-DD)"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status (default planning)"),
			mcp.Enum("planning", "active", "completed", "cancelled"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags"),
		),
	)
}

// Handle processes the create_sprint tool call.
func (t *CreateSprintTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	params := backlog.CreateSprintParams{
		Name:   name,
		Goal:   req.GetString("goal", ""),
		Status: backlog.SprintStatus(req.GetString("status", "")),
		Tags:   splitCSV(req.GetString("tags", "")),
	}
	if v, ok := stringArg(req, "start_date"); ok && v != "" {
		d, err := parseDate("start_date", v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		params.StartDate = &d
	}
	if v, ok := stringArg(req, "end_date"); ok && v != "" {
		d, err := parseDate("end_date", v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		params.EndDate = &d
	}

	sprint, err := svc.Sprints.Create(params)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(fmt.Sprintf("Created sprint %s: %s", sprint.ID, sprint.Name), sprint)
}

// GetSprintTool retrieves a single sprint by ID.
type GetSprintTool struct {
	manager *project.Manager
}

// NewGetSprintTool creates a GetSprintTool with the given manager.
func NewGetSprintTool(manager *project.Manager) *GetSprintTool {
	return &GetSprintTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *GetSprintTool) Definition() mcp.Tool {
	return mcp.NewTool("get_sprint",
		mcp.WithDescription("Get a sprint by its ID, including its story assignments."),
		mcp.WithString("sprint_id",
			mcp.Required(),
			mcp.Description("Sprint ID, e.g. SPRINT-1A2B"),
		),
	)
}

// Handle processes the get_sprint tool call.
func (t *GetSprintTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("sprint_id", "")
	if id == "" {
		return mcp.NewToolResultError("'sprint_id' is required"), nil
	}

	sprint, err := svc.Sprints.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting sprint: %w", err)
	}
	if sprint == nil {
		return mcp.NewToolResultError(fmt.Sprintf("sprint %s not found", id)), nil
	}
	return jsonResult(fmt.Sprintf("Sprint %s: %s", sprint.ID, sprint.Name), sprint)
}

// UpdateSprintTool applies a partial update to a sprint. Date ordering
// is validated against the merged record, so changing only one date
// still checks against the stored other one.
type UpdateSprintTool struct {
	manager *project.Manager
}

// NewUpdateSprintTool creates an UpdateSprintTool with the given manager.
func NewUpdateSprintTool(manager *project.Manager) *UpdateSprintTool {
	return &UpdateSprintTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateSprintTool) Definition() mcp.Tool {
	return mcp.NewTool("update_sprint",
		mcp.WithDescription("Update fields of an existing sprint. Omitted fields are left unchanged."),
		mcp.WithString("sprint_id",
			mcp.Required(),
			mcp.Description("Sprint ID, e.g. SPRINT-1A2B"),
		),
		mcp.WithString("name",
			mcp.Description("New name"),
		),
		mcp.WithString("goal",
			mcp.Description("New goal"),
		),
		mcp.WithString("start_date",
			mcp.Description("New start date (YYYY-MM-DD)"),
		),
		mcp.WithString("end_date",
			mcp.Description("New end date (YYYY-MM-DD)"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum("planning", "active", "completed", "cancelled"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags, replacing the existing set"),
		),
	)
}

// Handle processes the update_sprint tool call.
func (t *UpdateSprintTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("sprint_id", "")
	if id == "" {
		return mcp.NewToolResultError("'sprint_id' is required"), nil
	}

	var u backlog.SprintUpdate
	if v, ok := stringArg(req, "name"); ok {
		u.Name = &v
	}
	if v, ok := stringArg(req, "goal"); ok {
		u.Goal = &v
	}
	if v, ok := stringArg(req, "start_date"); ok && v != "" {
		d, err := parseDate("start_date", v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		u.StartDate = &d
	}
	if v, ok := stringArg(req, "end_date"); ok && v != "" {
		d, err := parseDate("end_date", v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		u.EndDate = &d
	}
	if v, ok := stringArg(req, "status"); ok {
		st := backlog.SprintStatus(v)
		u.Status = &st
	}
	if v, ok := stringArg(req, "tags"); ok {
		u.Tags = splitCSV(v)
	}

	sprint, err := svc.Sprints.Update(id, u)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sprint == nil {
		return mcp.NewToolResultError(fmt.Sprintf("sprint %s not found", id)), nil
	}
	return jsonResult(fmt.Sprintf("Updated sprint %s", sprint.ID), sprint)
}

// ListSprintsTool lists sprints, newest first.
type ListSprintsTool struct {
	manager *project.Manager
}

// NewListSprintsTool creates a ListSprintsTool with the given manager.
func NewListSprintsTool(manager *project.Manager) *ListSprintsTool {
	return &ListSprintsTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *ListSprintsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_sprints",
		mcp.WithDescription(
			"List sprints, newest first. Story assignments are omitted "+
				"unless include_stories is set.",
		),
		mcp.WithString("status",
			mcp.Description("Only sprints with this status"),
			mcp.Enum("planning", "active", "completed", "cancelled"),
		),
		mcp.WithBoolean("include_stories",
			mcp.Description("Include story ID assignments in the listing"),
		),
	)
}

// Handle processes the list_sprints tool call.
func (t *ListSprintsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var f backlog.SprintFilter
	if v, ok := stringArg(req, "status"); ok {
		st := backlog.SprintStatus(v)
		if err := backlog.ValidateSprintStatus(st); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Status = &st
	}
	f.IncludeStoryIDs = boolArg(req, "include_stories", false)

	sprints, err := svc.Sprints.List(f)
	if err != nil {
		return nil, fmt.Errorf("listing sprints: %w", err)
	}
	return jsonResult(fmt.Sprintf("Found %d sprints", len(sprints)), sprints)
}

// ManageSprintStoriesTool adds a story to or removes a story from a
// sprint, keeping the story's sprint assignment in step.
type ManageSprintStoriesTool struct {
	manager *project.Manager
}

// NewManageSprintStoriesTool creates a ManageSprintStoriesTool with the
// given manager.
func NewManageSprintStoriesTool(manager *project.Manager) *ManageSprintStoriesTool {
	return &ManageSprintStoriesTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *ManageSprintStoriesTool) Definition() mcp.Tool {
	return mcp.NewTool("manage_sprint_stories",
		mcp.WithDescription("Add a story to or remove a story from a sprint."),
		mcp.WithString("sprint_id",
			mcp.Required(),
			mcp.Description("Sprint ID, e.g. SPRINT-1A2B"),
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

// Handle processes the manage_sprint_stories tool call.
func (t *ManageSprintStoriesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sprintID := req.GetString("sprint_id", "")
	storyID := req.GetString("story_id", "")
	action := req.GetString("action", "")
	if sprintID == "" || storyID == "" {
		return mcp.NewToolResultError("'sprint_id' and 'story_id' are required"), nil
	}

	var sprint *backlog.Sprint
	switch action {
	case "add":
		sprint, err = svc.Sprints.AddStory(sprintID, storyID)
	case "remove":
		sprint, err = svc.Sprints.RemoveStory(sprintID, storyID)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid action %q: use 'add' or 'remove'", action)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sprint == nil {
		return mcp.NewToolResultError(fmt.Sprintf("sprint %s not found", sprintID)), nil
	}

	verb := "Added"
	prep := "to"
	if action == "remove" {
		verb, prep = "Removed", "from"
	}
	return jsonResult(fmt.Sprintf("%s story %s %s sprint %s", verb, storyID, prep, sprint.ID), sprint)
}

// GetSprintProgressTool reports time progress through a sprint window.
type GetSprintProgressTool struct {
	manager *project.Manager
}

// NewGetSprintProgressTool creates a GetSprintProgressTool with the
// given manager.
func NewGetSprintProgressTool(manager *project.Manager) *GetSprintProgressTool {
	return &GetSprintProgressTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *GetSprintProgressTool) Definition() mcp.Tool {
	return mcp.NewTool("get_sprint_progress",
		mcp.WithDescription(
			"Get time progress through a sprint: percent elapsed plus days "+
				"until start, days remaining or days overdue.",
		),
		mcp.WithString("sprint_id",
			mcp.Required(),
			mcp.Description("Sprint ID, e.g. SPRINT-1A2B"),
		),
	)
}

// Handle processes the get_sprint_progress tool call.
func (t *GetSprintProgressTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("sprint_id", "")
	if id == "" {
		return mcp.NewToolResultError("'sprint_id' is required"), nil
	}

	progress, err := svc.Sprints.Progress(id)
	if err != nil {
		return nil, fmt.Errorf("computing sprint progress: %w", err)
	}
	if progress == nil {
		return mcp.NewToolResultError(fmt.Sprintf("sprint %s not found", id)), nil
	}
	return jsonResult(fmt.Sprintf("Progress for sprint %s", progress.SprintID), progress)
}

// GetActiveSprintTool finds the most recently created active sprint.
type GetActiveSprintTool struct {
	manager *project.Manager
}

// NewGetActiveSprintTool creates a GetActiveSprintTool with the given
// manager.
func NewGetActiveSprintTool(manager *project.Manager) *GetActiveSprintTool {
	return &GetActiveSprintTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *GetActiveSprintTool) Definition() mcp.Tool {
	return mcp.NewTool("get_active_sprint",
		mcp.WithDescription("Get the currently active sprint, if any (most recently created when several are active)."),
	)
}

// Handle processes the get_active_sprint tool call.
func (t *GetActiveSprintTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sprint, err := svc.Sprints.Active()
	if err != nil {
		return nil, fmt.Errorf("finding active sprint: %w", err)
	}
	if sprint == nil {
		return mcp.NewToolResultText("No active sprint"), nil
	}
	return jsonResult(fmt.Sprintf("Active sprint %s: %s", sprint.ID, sprint.Name), sprint)
}

// StartSprintTool transitions a sprint to active.
type StartSprintTool struct {
	manager *project.Manager
}

// NewStartSprintTool creates a StartSprintTool with the given manager.
func NewStartSprintTool(manager *project.Manager) *StartSprintTool {
	return &StartSprintTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *StartSprintTool) Definition() mcp.Tool {
	return mcp.NewTool("start_sprint",
		mcp.WithDescription("Start a sprint: set it active and stamp its start date (today unless given)."),
		mcp.WithString("sprint_id",
			mcp.Required(),
			mcp.Description("Sprint ID, e.g. SPRINT-1A2B"),
		),
		mcp.WithString("start_date",
			mcp.Description("Start date (YYYY-MM-DD, default today)"),
		),
	)
}

// Handle processes the start_sprint tool call.
func (t *StartSprintTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("sprint_id", "")
	if id == "" {
		return mcp.NewToolResultError("'sprint_id' is required"), nil
	}

	var start *time.Time
	if v, ok := stringArg(req, "start_date"); ok && v != "" {
		d, err := parseDate("start_date", v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		start = &d
	}

	sprint, err := svc.Sprints.Start(id, start)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sprint == nil {
		return mcp.NewToolResultError(fmt.Sprintf("sprint %s not found", id)), nil
	}
	return jsonResult(fmt.Sprintf("Started sprint %s", sprint.ID), sprint)
}

// CompleteSprintTool transitions a sprint to completed.
type CompleteSprintTool struct {
	manager *project.Manager
}

// NewCompleteSprintTool creates a CompleteSprintTool with the given
// manager.
func NewCompleteSprintTool(manager *project.Manager) *CompleteSprintTool {
	return &CompleteSprintTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *CompleteSprintTool) Definition() mcp.Tool {
	return mcp.NewTool("complete_sprint",
		mcp.WithDescription("Complete a sprint: set it completed and stamp its end date (today unless given)."),
		mcp.WithString("sprint_id",
			mcp.Required(),
			mcp.Description("Sprint ID, e.g. SPRINT-1A2B"),
		),
		mcp.WithString("end_date",
			mcp.Description("End date (YYYY-MM-DD, default today)"),
		),
	)
}

// Handle processes the complete_sprint tool call.
func (t *CompleteSprintTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("sprint_id", "")
	if id == "" {
		return mcp.NewToolResultError("'sprint_id' is required"), nil
	}

	var end *time.Time
	if v, ok := stringArg(req, "end_date"); ok && v != "" {
		d, err := parseDate("end_date", v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		end = &d
	}

	sprint, err := svc.Sprints.Complete(id, end)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sprint == nil {
		return mcp.NewToolResultError(fmt.Sprintf("sprint %s not found", id)), nil
	}
	return jsonResult(fmt.Sprintf("Completed sprint %s", sprint.ID), sprint)
}

// GetSprintBurndownTool computes per-day burndown data for a sprint.
type GetSprintBurndownTool struct {
	manager *project.Manager
}

// NewGetSprintBurndownTool creates a GetSprintBurndownTool with the
// given manager.
func NewGetSprintBurndownTool(manager *project.Manager) *GetSprintBurndownTool {
	return &GetSprintBurndownTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *GetSprintBurndownTool) Definition() mcp.Tool {
	return mcp.NewTool("get_sprint_burndown",
		mcp.WithDescription(
			"Get burndown data for a sprint: per-day remaining points "+
				"alongside the ideal linear burn. Requires both sprint dates.",
		),
		mcp.WithString("sprint_id",
			mcp.Required(),
			mcp.Description("Sprint ID, e.g. SPRINT-1A2B"),
		),
	)
}

// Handle processes the get_sprint_burndown tool call.
func (t *GetSprintBurndownTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id := req.GetString("sprint_id", "")
	if id == "" {
		return mcp.NewToolResultError("'sprint_id' is required"), nil
	}

	data, err := svc.Sprints.Burndown(id)
	if err != nil {
		return nil, fmt.Errorf("computing burndown: %w", err)
	}
	if data == nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"sprint %s not found or has no start/end dates set", id)), nil
	}
	return jsonResult(fmt.Sprintf("Burndown for sprint %s", data.SprintID), data)
}
