// agile-mcp: Agile Project Management MCP Server
//
// An MCP server that gives AI coding tools (Claude Code, OpenCode,
// Gemini CLI, Cursor, VS Code Copilot) structured agile project
// management: epics, stories, sprints and tasks stored as files in
// the project's .agile/ directory.
//
// Usage:
//
//	agile-mcp serve [project-dir]   # Start MCP server (stdio transport)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	agileserver "github.com/avelarde/agile-mcp/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		projectDir := ""
		if len(os.Args) > 2 {
			projectDir = os.Args[2]
		}
		if err := run(projectDir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("agile-mcp v%s\n", agileserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(projectDir string) error {
	s, cleanup, err := agileserver.New(projectDir)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `agile-mcp v%s — Agile Project Management MCP Server

Usage:
  agile-mcp serve [project-dir]   Start the MCP server on stdio,
                                  optionally pre-bound to a project
  agile-mcp version               Print the version
  agile-mcp help                  Show this help

Register with your MCP client, e.g. for Claude Code:

  claude mcp add agile -- agile-mcp serve

Artifacts are stored as YAML files under <project>/.agile/ so they
can be reviewed and versioned alongside the code.
`, agileserver.Version)
}
