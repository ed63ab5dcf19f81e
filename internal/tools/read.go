package tools

import (
	"context"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/workspace"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// ReadTool handles the read_records MCP tool: list a collection or fetch
// specific records, with workspace changes transparently overlaid.
type ReadTool struct {
	repo      *workspace.Repository
	principal string
	log       *zap.SugaredLogger
}

// NewReadTool creates a ReadTool bound to the acting principal.
func NewReadTool(repo *workspace.Repository, principal string, log *zap.SugaredLogger) *ReadTool {
	return &ReadTool{repo: repo, principal: principal, log: log}
}

// Definition returns the MCP tool definition for registration.
func (t *ReadTool) Definition() mcp.Tool {
	return mcp.NewTool("read_records",
		mcp.WithDescription(
			"Read records from a collection. Returns stable record uids and "+
				"readable attributes. Your pending workspace changes are included; "+
				"records you deleted are absent. Omit 'uid' and 'uids' to list "+
				"the whole collection.",
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection name, e.g. 'pages' or 'news'."),
		),
		mcp.WithNumber("uid",
			mcp.Description("Fetch a single record by its uid."),
		),
		mcp.WithArray("uids",
			mcp.Description("Fetch several records by uid."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of records to return (default: no limit)."),
		),
	)
}

// Handle processes the read_records tool call.
func (t *ReadTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	callID := newCallID()

	collection := req.GetString("collection", "")
	if collection == "" {
		return mcp.NewToolResultError("'collection' is required"), nil
	}

	var ids []int64
	if uid, ok := idArg(req, "uid"); ok {
		ids = append(ids, uid)
	}
	if raw, ok := req.GetArguments()["uids"].([]any); ok {
		for _, item := range raw {
			f, ok := item.(float64)
			if !ok {
				return mcp.NewToolResultError("'uids' must be an array of record uids"), nil
			}
			ids = append(ids, int64(f))
		}
	}
	limit := 0
	if n, ok := idArg(req, "limit"); ok {
		limit = int(n)
	}

	records, err := t.repo.Read(ctx, t.principal, collection, ids, limit)
	if err != nil {
		return errorResult(t.log, callID, "read_records", err)
	}

	// A point lookup that finds nothing is an error to the agent, not an
	// empty list.
	if len(ids) == 1 && len(records) == 0 {
		return mcp.NewToolResultError("not_found: record does not exist"), nil
	}
	return jsonResult(map[string]any{
		"collection": collection,
		"records":    records,
	})
}
