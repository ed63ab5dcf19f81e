// Package tools implements the MCP tool handlers that expose the content
// repository to agents.
//
// Each tool follows the same pattern:
// - A struct with dependencies (the workspace repository) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Tool handlers are thin: argument decoding, one repository call, result
// encoding. All versioning semantics live in internal/workspace.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/storage"
	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// idArg extracts a record id argument (JSON numbers arrive as float64).
func idArg(req mcp.CallToolRequest, key string) (int64, bool) {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

// objectArg extracts an object argument as attribute data.
func objectArg(req mcp.CallToolRequest, key string) (storage.Row, bool) {
	v, ok := req.GetArguments()[key].(map[string]any)
	if !ok {
		return nil, false
	}
	return rowFromJSON(v), true
}

// arrayArg extracts an array-of-objects argument.
func arrayArg(req mcp.CallToolRequest, key string) ([]storage.Row, bool) {
	raw, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]storage.Row, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		out = append(out, rowFromJSON(obj))
	}
	return out, true
}

// rowFromJSON converts decoded JSON values into storage values: integral
// float64s become int64 so integer columns store integers.
func rowFromJSON(obj map[string]any) storage.Row {
	row := make(storage.Row, len(obj))
	for k, v := range obj {
		if f, ok := v.(float64); ok && f == math.Trunc(f) {
			row[k] = int64(f)
			continue
		}
		row[k] = v
	}
	return row
}

// jsonResult marshals v into a tool text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// errorResult maps a repository error onto a tool result. Classified errors
// surface their stable kind and caller-safe message; anything else is
// logged in full and reported generically so storage details never leak.
func errorResult(log *zap.SugaredLogger, callID, toolName string, err error) (*mcp.CallToolResult, error) {
	var e *workspace.Error
	if errors.As(err, &e) {
		log.Debugw("tool call rejected", "call_id", callID, "tool", toolName, "kind", e.Kind, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("%s: %s", e.Kind, e.Msg)), nil
	}
	log.Errorw("tool call failed", "call_id", callID, "tool", toolName, "error", err)
	return mcp.NewToolResultError("internal error, see server log"), nil
}

// newCallID tags one tool invocation for log correlation.
func newCallID() string {
	return uuid.NewString()
}
