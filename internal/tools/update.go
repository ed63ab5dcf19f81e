package tools

import (
	"context"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// UpdateTool handles the update_record MCP tool. The patch is applied to a
// workspace copy; the live record is never mutated.
type UpdateTool struct {
	repo      *workspace.Repository
	principal string
	log       *zap.SugaredLogger
}

// NewUpdateTool creates an UpdateTool bound to the acting principal.
func NewUpdateTool(repo *workspace.Repository, principal string, log *zap.SugaredLogger) *UpdateTool {
	return &UpdateTool{repo: repo, principal: principal, log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("update_record",
		mcp.WithDescription(
			"Update attributes of an existing record. Changes stay in your "+
				"workspace; the record keeps its uid.",
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection name, e.g. 'pages' or 'news'."),
		),
		mcp.WithNumber("uid",
			mcp.Required(),
			mcp.Description("The record's uid."),
		),
		mcp.WithObject("data",
			mcp.Required(),
			mcp.Description("Attribute values to change."),
		),
	)
}

// Handle processes the update_record tool call.
func (t *UpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	callID := newCallID()

	collection := req.GetString("collection", "")
	if collection == "" {
		return mcp.NewToolResultError("'collection' is required"), nil
	}
	uid, ok := idArg(req, "uid")
	if !ok {
		return mcp.NewToolResultError("'uid' is required"), nil
	}
	patch, ok := objectArg(req, "data")
	if !ok {
		return mcp.NewToolResultError("'data' is required and must be an object"), nil
	}

	if err := t.repo.Update(ctx, t.principal, collection, uid, patch); err != nil {
		return errorResult(t.log, callID, "update_record", err)
	}
	return jsonResult(map[string]any{"uid": uid})
}
