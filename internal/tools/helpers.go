// Package tools implements the MCP tool handlers for the agile
// project service.
//
// Each tool is a struct with its dependencies injected (DIP) exposing
// Definition() for registration and Handle() for execution. Tools
// parse and validate primitive arguments, call a domain service, and
// shape the reply; they hold no business logic of their own.
//
// Error convention: domain validation failures and missing-ID
// conditions become error results (success=false envelope); Go errors
// are reserved for infrastructure failures (I/O, store corruption).
package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// dateLayout is the accepted wire format for date arguments.
const dateLayout = "2006-01-02"

// stringArg extracts a string argument, reporting whether the caller
// supplied it at all. Update tools use the presence flag to tell
// "leave unchanged" apart from "clear this field".
func stringArg(req mcp.CallToolRequest, key string) (string, bool) {
	v, ok := req.GetArguments()[key].(string)
	return v, ok
}

// intArg extracts an integer argument with a presence flag (JSON
// numbers arrive as float64).
func intArg(req mcp.CallToolRequest, key string) (int, bool) {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// floatArg extracts a float argument with a presence flag.
func floatArg(req mcp.CallToolRequest, key string) (float64, bool) {
	v, ok := req.GetArguments()[key].(float64)
	return v, ok
}

// boolArg extracts a boolean argument, returning defaultVal if the
// key is missing or not a boolean.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// splitCSV splits a comma-separated argument into trimmed, non-empty
// parts. Multi-value fields (tags, dependencies) arrive this way.
func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDate parses a YYYY-MM-DD argument.
func parseDate(key, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: use YYYY-MM-DD format", key, value)
	}
	return t, nil
}

// jsonResult marshals a payload under a one-line summary. Read-style
// tools reply this way so the client gets both a human-readable line
// and the full record.
func jsonResult(summary string, payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return mcp.NewToolResultText(summary + "\n\n" + string(data)), nil
}
