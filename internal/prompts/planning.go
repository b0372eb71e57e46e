// Package prompts implements MCP prompt handlers for agile workflows.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// PlanningPrompt handles the sprint-planning MCP prompt. It guides the
// AI through reviewing the backlog and composing the next sprint.
type PlanningPrompt struct{}

// NewPlanningPrompt creates a PlanningPrompt.
func NewPlanningPrompt() *PlanningPrompt {
	return &PlanningPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *PlanningPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("sprint-planning",
		mcp.WithPromptDescription(
			"Plan the next sprint: review the product backlog, pick stories "+
				"that fit the team's capacity, and create the sprint.",
		),
		mcp.WithArgument("capacity",
			mcp.ArgumentDescription("Team capacity in story points for this sprint"),
		),
		mcp.WithArgument("duration",
			mcp.ArgumentDescription("Sprint length, e.g. '2 weeks'. Default: 2 weeks"),
		),
	)
}

// Handle processes the sprint-planning prompt request.
func (p *PlanningPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	capacity := "the team's usual velocity"
	duration := "2 weeks"
	if args := req.Params.Arguments; args != nil {
		if c, ok := args["capacity"]; ok && c != "" {
			capacity = c + " story points"
		}
		if d, ok := args["duration"]; ok && d != "" {
			duration = d
		}
	}

	text := fmt.Sprintf(`Let's plan the next sprint (%s, capacity %s).

Work through these steps with me:

1. Call get_product_backlog to see what's waiting, highest priority first.
2. Call get_active_sprint — if a sprint is still running, surface any
   unfinished stories as candidates to carry over.
3. Propose a set of stories whose points fit the capacity. Prefer
   higher priority; stories without points need estimating first
   (update_story with a Fibonacci value: 1, 2, 3, 5, 8, 13, 21...).
4. Once I approve the selection, create the sprint with create_sprint
   (name, goal, start and end dates %s apart), then assign each chosen
   story with manage_sprint_stories.
5. Finish with start_sprint and show me the sprint summary.

Ask before creating anything; I want to see the proposed selection first.`,
		duration, capacity, duration)

	return &mcp.GetPromptResult{
		Description: "Plan the next sprint from the product backlog",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}, nil
}

// StandupPrompt handles the daily-standup MCP prompt. It assembles a
// status picture of the active sprint.
type StandupPrompt struct{}

// NewStandupPrompt creates a StandupPrompt.
func NewStandupPrompt() *StandupPrompt {
	return &StandupPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StandupPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("standup",
		mcp.WithPromptDescription(
			"Run a daily standup: summarize the active sprint's progress, "+
				"what's in flight, and what's blocked.",
		),
	)
}

// Handle processes the daily-standup prompt request.
func (p *StandupPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	text := `Run today's standup for me:

1. Call get_active_sprint. If nothing is active, say so and stop.
2. Call get_sprint_progress for it — lead with percent elapsed and
   days remaining (or overdue).
3. Call list_stories with the sprint's ID and group them by status:
   done, in progress, blocked, still todo.
4. Call list_tasks for the in-progress stories and flag anything
   blocked or past its due date.
5. Close with get_sprint_burndown and say whether we're ahead of or
   behind the ideal line.

Keep it short — a standup, not a report.`

	return &mcp.GetPromptResult{
		Description: "Daily standup for the active sprint",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}, nil
}
