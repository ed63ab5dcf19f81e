package tools

import (
	"context"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// EmbedTool handles the create_record_with_children MCP tool: create a
// parent record together with embedded child records in one atomic step.
type EmbedTool struct {
	repo      *workspace.Repository
	principal string
	log       *zap.SugaredLogger
}

// NewEmbedTool creates an EmbedTool bound to the acting principal.
func NewEmbedTool(repo *workspace.Repository, principal string, log *zap.SugaredLogger) *EmbedTool {
	return &EmbedTool{repo: repo, principal: principal, log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *EmbedTool) Definition() mcp.Tool {
	return mcp.NewTool("create_record_with_children",
		mcp.WithDescription(
			"Create a record together with embedded child records, e.g. a "+
				"news record with its links. All-or-nothing: if any child "+
				"fails, nothing is created. Children are linked to the parent "+
				"automatically; do not include the link field in child data.",
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Parent collection name, e.g. 'news'."),
		),
		mcp.WithObject("data",
			mcp.Required(),
			mcp.Description("Attribute values for the parent record."),
		),
		mcp.WithString("child_field",
			mcp.Required(),
			mcp.Description("Parent field embedding the children, e.g. 'links'."),
		),
		mcp.WithArray("children",
			mcp.Required(),
			mcp.Description("Attribute objects, one per child record."),
		),
	)
}

// Handle processes the create_record_with_children tool call.
func (t *EmbedTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	callID := newCallID()

	collection := req.GetString("collection", "")
	if collection == "" {
		return mcp.NewToolResultError("'collection' is required"), nil
	}
	data, ok := objectArg(req, "data")
	if !ok {
		return mcp.NewToolResultError("'data' is required and must be an object"), nil
	}
	childField := req.GetString("child_field", "")
	if childField == "" {
		return mcp.NewToolResultError("'child_field' is required"), nil
	}
	children, ok := arrayArg(req, "children")
	if !ok {
		return mcp.NewToolResultError("'children' is required and must be an array of objects"), nil
	}

	uid, err := t.repo.CreateWithChildren(ctx, t.principal, collection, data, childField, children)
	if err != nil {
		return errorResult(t.log, callID, "create_record_with_children", err)
	}
	return jsonResult(map[string]any{"uid": uid, "children": len(children)})
}
