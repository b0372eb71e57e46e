package tools

import (
	"context"
	"fmt"

	"github.com/avelarde/agile-mcp/internal/project"
	"github.com/mark3labs/mcp-go/mcp"
)

// SetProjectTool binds the server to a project directory. Every other
// tool errors until this has been called (or the directory was given
// on the command line).
type SetProjectTool struct {
	manager *project.Manager
}

// NewSetProjectTool creates a SetProjectTool with the given manager.
func NewSetProjectTool(manager *project.Manager) *SetProjectTool {
	return &SetProjectTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *SetProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("set_project",
		mcp.WithDescription(
			"Set the active project directory. Creates the .agile/ artifact "+
				"layout inside it if needed. Usually this should be the current "+
				"project directory as an absolute path.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path to the project directory"),
		),
	)
}

// Handle processes the set_project tool call.
func (t *SetProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("'path' is required — the absolute project directory"), nil
	}

	if err := t.manager.Set(path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Project directory set to %s", t.manager.Path())), nil
}

// GetProjectTool reports the active project directory.
type GetProjectTool struct {
	manager *project.Manager
}

// NewGetProjectTool creates a GetProjectTool with the given manager.
func NewGetProjectTool(manager *project.Manager) *GetProjectTool {
	return &GetProjectTool{manager: manager}
}

// Definition returns the MCP tool definition for registration.
func (t *GetProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("get_project",
		mcp.WithDescription("Get the active project directory, if one is set."),
	)
}

// Handle processes the get_project tool call.
func (t *GetProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.manager.Path() == "" {
		return mcp.NewToolResultError("no project directory is set — call 'set_project' first"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Active project directory: %s", t.manager.Path())), nil
}
