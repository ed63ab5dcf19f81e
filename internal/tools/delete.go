package tools

import (
	"context"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// DeleteTool handles the delete_record MCP tool. Published records are
// tombstoned in the workspace; the live row survives until the workspace
// is published through the regular editorial process.
type DeleteTool struct {
	repo      *workspace.Repository
	principal string
	log       *zap.SugaredLogger
}

// NewDeleteTool creates a DeleteTool bound to the acting principal.
func NewDeleteTool(repo *workspace.Repository, principal string, log *zap.SugaredLogger) *DeleteTool {
	return &DeleteTool{repo: repo, principal: principal, log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_record",
		mcp.WithDescription(
			"Delete a record. The record disappears from your reads "+
				"immediately; the live dataset is untouched.",
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection name, e.g. 'pages' or 'news'."),
		),
		mcp.WithNumber("uid",
			mcp.Required(),
			mcp.Description("The record's uid."),
		),
	)
}

// Handle processes the delete_record tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	callID := newCallID()

	collection := req.GetString("collection", "")
	if collection == "" {
		return mcp.NewToolResultError("'collection' is required"), nil
	}
	uid, ok := idArg(req, "uid")
	if !ok {
		return mcp.NewToolResultError("'uid' is required"), nil
	}

	if err := t.repo.Delete(ctx, t.principal, collection, uid); err != nil {
		return errorResult(t.log, callID, "delete_record", err)
	}
	return jsonResult(map[string]any{"ok": true})
}
