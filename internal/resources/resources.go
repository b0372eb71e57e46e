// Package resources implements MCP resource handlers for agile data.
//
// Resources provide read-only data that the host can consume for
// context. They use URI-based addressing (agile://...) following MCP
// conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avelarde/agile-mcp/internal/backlog"
	"github.com/avelarde/agile-mcp/internal/project"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages agile resource endpoints.
type Handler struct {
	manager *project.Manager
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(manager *project.Manager) *Handler {
	return &Handler{manager: manager}
}

// BacklogResource returns the MCP resource definition for the product
// backlog.
func (h *Handler) BacklogResource() mcp.Resource {
	return mcp.NewResource(
		"agile://backlog",
		"Product Backlog",
		mcp.WithResourceDescription("Stories not assigned to any sprint, in planning order"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleBacklog returns the product backlog as JSON.
func (h *Handler) HandleBacklog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	svc, err := h.manager.Services()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	stories, err := svc.Epics.ProductBacklog(backlog.BacklogFilter{})
	if err != nil {
		return nil, fmt.Errorf("building product backlog: %w", err)
	}
	return jsonResource(req.Params.URI, stories)
}

// ActiveSprintResource returns the MCP resource definition for the
// active sprint.
func (h *Handler) ActiveSprintResource() mcp.Resource {
	return mcp.NewResource(
		"agile://sprint/active",
		"Active Sprint",
		mcp.WithResourceDescription("The currently active sprint with its story assignments and time progress"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleActiveSprint returns the active sprint and its progress as
// JSON.
func (h *Handler) HandleActiveSprint(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	svc, err := h.manager.Services()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	sprint, err := svc.Sprints.Active()
	if err != nil {
		return nil, fmt.Errorf("finding active sprint: %w", err)
	}
	if sprint == nil {
		return errorResource(req.Params.URI, "no active sprint"), nil
	}

	progress, err := svc.Sprints.Progress(sprint.ID)
	if err != nil {
		return nil, fmt.Errorf("computing sprint progress: %w", err)
	}

	payload := struct {
		Sprint   *backlog.Sprint         `json:"sprint"`
		Progress *backlog.SprintProgress `json:"progress"`
	}{Sprint: sprint, Progress: progress}

	return jsonResource(req.Params.URI, payload)
}

// jsonResource wraps a payload as a JSON resource.
func jsonResource(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
