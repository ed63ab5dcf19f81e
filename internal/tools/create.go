package tools

import (
	"context"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// CreateTool handles the create_record MCP tool. The record lands in the
// principal's workspace; the live dataset is untouched.
type CreateTool struct {
	repo      *workspace.Repository
	principal string
	log       *zap.SugaredLogger
}

// NewCreateTool creates a CreateTool bound to the acting principal.
func NewCreateTool(repo *workspace.Repository, principal string, log *zap.SugaredLogger) *CreateTool {
	return &CreateTool{repo: repo, principal: principal, log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("create_record",
		mcp.WithDescription(
			"Create a new record in a collection. The record is created in "+
				"your workspace and returns a stable uid you can read, update, "+
				"and delete with. Identity and version-control fields cannot "+
				"be set.",
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection name, e.g. 'pages' or 'news'."),
		),
		mcp.WithObject("data",
			mcp.Required(),
			mcp.Description("Attribute values for the new record."),
		),
	)
}

// Handle processes the create_record tool call.
func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	callID := newCallID()

	collection := req.GetString("collection", "")
	if collection == "" {
		return mcp.NewToolResultError("'collection' is required"), nil
	}
	data, ok := objectArg(req, "data")
	if !ok {
		return mcp.NewToolResultError("'data' is required and must be an object"), nil
	}

	uid, err := t.repo.Create(ctx, t.principal, collection, data)
	if err != nil {
		return errorResult(t.log, callID, "create_record", err)
	}
	return jsonResult(map[string]any{"uid": uid})
}
