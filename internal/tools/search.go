package tools

import (
	"context"
	"fmt"

	"github.com/avelarde/agile-mcp/internal/backlog"
	"github.com/avelarde/agile-mcp/internal/project"
	"github.com/avelarde/agile-mcp/internal/search"
	"github.com/mark3labs/mcp-go/mcp"
)

// SearchArtifactsTool runs a full-text query over every artifact in
// the active project. The index is rebuilt from the store on each
// call; the artifact counts involved make that cheap and it keeps the
// index from drifting out of step with the files.
type SearchArtifactsTool struct {
	manager *project.Manager
	index   *search.Index
}

// NewSearchArtifactsTool creates a SearchArtifactsTool with the given
// manager and index.
func NewSearchArtifactsTool(manager *project.Manager, index *search.Index) *SearchArtifactsTool {
	return &SearchArtifactsTool{manager: manager, index: index}
}

// Definition returns the MCP tool definition for registration.
func (t *SearchArtifactsTool) Definition() mcp.Tool {
	return mcp.NewTool("search_artifacts",
		mcp.WithDescription(
			"Full-text search across epics, stories, sprints and tasks. "+
				"Matches titles, descriptions and tags; all words must match.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Words to search for"),
		),
		mcp.WithString("kind",
			mcp.Description("Restrict results to one artifact kind"),
			mcp.Enum("epic", "story", "sprint", "task"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 20)"),
		),
	)
}

// Handle processes the search_artifacts tool call.
func (t *SearchArtifactsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	svc, err := t.manager.Services()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	kind := req.GetString("kind", "")
	limit, _ := intArg(req, "limit")

	entries, err := collectEntries(svc.Store)
	if err != nil {
		return nil, fmt.Errorf("reading artifacts: %w", err)
	}
	if err := t.index.Reindex(entries); err != nil {
		return nil, fmt.Errorf("rebuilding search index: %w", err)
	}

	results, err := t.index.Search(query, kind, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(fmt.Sprintf("Found %d matches for %q", len(results), query), results)
}

// collectEntries flattens every artifact kind into index entries.
func collectEntries(store backlog.Store) ([]search.Entry, error) {
	var entries []search.Entry

	epics, err := store.ListEpics()
	if err != nil {
		return nil, err
	}
	for _, e := range epics {
		entries = append(entries, search.Entry{
			ID: e.ID, Kind: "epic", Title: e.Title, Body: e.Description, Tags: e.Tags,
		})
	}

	stories, err := store.ListStories()
	if err != nil {
		return nil, err
	}
	for _, s := range stories {
		entries = append(entries, search.Entry{
			ID: s.ID, Kind: "story", Title: s.Title, Body: s.Description, Tags: s.Tags,
		})
	}

	sprints, err := store.ListSprints()
	if err != nil {
		return nil, err
	}
	for _, s := range sprints {
		entries = append(entries, search.Entry{
			ID: s.ID, Kind: "sprint", Title: s.Name, Body: s.Goal, Tags: s.Tags,
		})
	}

	tasks, err := store.ListTasks()
	if err != nil {
		return nil, err
	}
	for _, tk := range tasks {
		entries = append(entries, search.Entry{
			ID: tk.ID, Kind: "task", Title: tk.Title, Body: tk.Description, Tags: tk.Tags,
		})
	}

	return entries, nil
}
