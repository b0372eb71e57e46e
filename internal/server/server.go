// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/avelarde/agile-mcp/internal/project"
	"github.com/avelarde/agile-mcp/internal/prompts"
	"github.com/avelarde/agile-mcp/internal/resources"
	"github.com/avelarde/agile-mcp/internal/search"
	"github.com/avelarde/agile-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// initialPath optionally pre-binds a project directory so clients
// launched from a project root skip the set_project handshake; an
// empty string starts the server unbound.
//
// The returned cleanup function closes the search index's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if search init failed.
func New(initialPath string) (*server.MCPServer, func(), error) {
	// --- Create shared dependencies ---

	manager := project.NewManager()
	if initialPath != "" {
		if err := manager.Set(initialPath); err != nil {
			return nil, noop, fmt.Errorf("binding initial project: %w", err)
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"agile-mcp",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register project tools ---

	setProject := tools.NewSetProjectTool(manager)
	s.AddTool(setProject.Definition(), setProject.Handle)

	getProject := tools.NewGetProjectTool(manager)
	s.AddTool(getProject.Definition(), getProject.Handle)

	// --- Register story tools ---

	createStory := tools.NewCreateStoryTool(manager)
	s.AddTool(createStory.Definition(), createStory.Handle)

	getStory := tools.NewGetStoryTool(manager)
	s.AddTool(getStory.Definition(), getStory.Handle)

	updateStory := tools.NewUpdateStoryTool(manager)
	s.AddTool(updateStory.Definition(), updateStory.Handle)

	listStories := tools.NewListStoriesTool(manager)
	s.AddTool(listStories.Definition(), listStories.Handle)

	deleteStory := tools.NewDeleteStoryTool(manager)
	s.AddTool(deleteStory.Definition(), deleteStory.Handle)

	// --- Register sprint tools ---

	createSprint := tools.NewCreateSprintTool(manager)
	s.AddTool(createSprint.Definition(), createSprint.Handle)

	getSprint := tools.NewGetSprintTool(manager)
	s.AddTool(getSprint.Definition(), getSprint.Handle)

	updateSprint := tools.NewUpdateSprintTool(manager)
	s.AddTool(updateSprint.Definition(), updateSprint.Handle)

	listSprints := tools.NewListSprintsTool(manager)
	s.AddTool(listSprints.Definition(), listSprints.Handle)

	manageSprintStories := tools.NewManageSprintStoriesTool(manager)
	s.AddTool(manageSprintStories.Definition(), manageSprintStories.Handle)

	sprintProgress := tools.NewGetSprintProgressTool(manager)
	s.AddTool(sprintProgress.Definition(), sprintProgress.Handle)

	activeSprint := tools.NewGetActiveSprintTool(manager)
	s.AddTool(activeSprint.Definition(), activeSprint.Handle)

	startSprint := tools.NewStartSprintTool(manager)
	s.AddTool(startSprint.Definition(), startSprint.Handle)

	completeSprint := tools.NewCompleteSprintTool(manager)
	s.AddTool(completeSprint.Definition(), completeSprint.Handle)

	burndown := tools.NewGetSprintBurndownTool(manager)
	s.AddTool(burndown.Definition(), burndown.Handle)

	// --- Register epic tools ---

	createEpic := tools.NewCreateEpicTool(manager)
	s.AddTool(createEpic.Definition(), createEpic.Handle)

	getEpic := tools.NewGetEpicTool(manager)
	s.AddTool(getEpic.Definition(), getEpic.Handle)

	updateEpic := tools.NewUpdateEpicTool(manager)
	s.AddTool(updateEpic.Definition(), updateEpic.Handle)

	listEpics := tools.NewListEpicsTool(manager)
	s.AddTool(listEpics.Definition(), listEpics.Handle)

	deleteEpic := tools.NewDeleteEpicTool(manager)
	s.AddTool(deleteEpic.Definition(), deleteEpic.Handle)

	manageEpicStories := tools.NewManageEpicStoriesTool(manager)
	s.AddTool(manageEpicStories.Definition(), manageEpicStories.Handle)

	productBacklog := tools.NewGetProductBacklogTool(manager)
	s.AddTool(productBacklog.Definition(), productBacklog.Handle)

	// --- Register task tools ---

	createTask := tools.NewCreateTaskTool(manager)
	s.AddTool(createTask.Definition(), createTask.Handle)

	getTask := tools.NewGetTaskTool(manager)
	s.AddTool(getTask.Definition(), getTask.Handle)

	updateTask := tools.NewUpdateTaskTool(manager)
	s.AddTool(updateTask.Definition(), updateTask.Handle)

	listTasks := tools.NewListTasksTool(manager)
	s.AddTool(listTasks.Definition(), listTasks.Handle)

	deleteTask := tools.NewDeleteTaskTool(manager)
	s.AddTool(deleteTask.Definition(), deleteTask.Handle)

	// --- Register search (optional subsystem) ---
	//
	// Search uses an in-memory SQLite FTS5 index. If it cannot be
	// opened, the data tools keep working; we log a warning to stderr
	// and skip the search tool.

	cleanup := noop
	index, searchErr := search.New()
	if searchErr != nil {
		log.Printf("WARNING: search subsystem disabled: %v", searchErr)
	} else {
		cleanup = func() {
			if err := index.Close(); err != nil {
				log.Printf("WARNING: search index close: %v", err)
			}
		}
		searchTool := tools.NewSearchArtifactsTool(manager, index)
		s.AddTool(searchTool.Definition(), searchTool.Handle)
	}

	// --- Register prompts ---

	planning := prompts.NewPlanningPrompt()
	s.AddPrompt(planning.Definition(), planning.Handle)

	standup := prompts.NewStandupPrompt()
	s.AddPrompt(standup.Definition(), standup.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(manager)
	s.AddResource(resourceHandler.BacklogResource(), resourceHandler.HandleBacklog)
	s.AddResource(resourceHandler.ActiveSprintResource(), resourceHandler.HandleActiveSprint)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used as the default when search
// init fails.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// host how to use the agile tools together.
func serverInstructions() string {
	return `# Agile Project Management

This server manages agile artifacts — epics, stories, sprints and
tasks — as files under the project's .agile/ directory.

## Getting started

Call set_project with the absolute path of the project directory
before anything else (unless the server was launched with one). All
other tools error until a project is bound.

## Hierarchy

- Epics group related stories (manage_epic_stories keeps both sides
  of the link in step).
- Stories carry priority, Fibonacci story points (1, 2, 3, 5, 8, 13,
  21, 34, 55, 89, 134) and an optional sprint assignment.
- Sprints collect stories for a time window; end_date must be after
  start_date. Use start_sprint / complete_sprint for lifecycle
  transitions rather than raw status updates.
- Tasks break stories down; they carry assignee, hour estimates and
  dependencies on other tasks (cycles are rejected).

## Planning workflow

1. get_product_backlog — unassigned stories, highest priority first.
2. create_sprint, then manage_sprint_stories to fill it.
3. start_sprint when the team begins.
4. During the sprint: get_sprint_progress for time elapsed,
   get_sprint_burndown for points remaining vs. the ideal line.
5. complete_sprint at the end; unfinished stories return to the
   backlog when you clear their sprint assignment.

## Finding things

search_artifacts runs full-text search across every artifact kind.
Use the kind argument to narrow to epics, stories, sprints or tasks.

The sprint-planning and daily-standup prompts bundle these flows into
guided workflows.`
}
