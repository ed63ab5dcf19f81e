package tools

import (
	"context"

	"github.com/hauptsacheNet/typo3-mcp-server-sub003/internal/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// SchemaTool handles the list_collections and get_collection_schema MCP
// tools so agents can discover what they are allowed to work with.
type SchemaTool struct {
	catalog *schema.Catalog
}

// NewSchemaTool creates a SchemaTool over the catalog.
func NewSchemaTool(catalog *schema.Catalog) *SchemaTool {
	return &SchemaTool{catalog: catalog}
}

// ListDefinition returns the list_collections tool definition.
func (t *SchemaTool) ListDefinition() mcp.Tool {
	return mcp.NewTool("list_collections",
		mcp.WithDescription("List the record collections this server exposes."),
	)
}

// HandleList processes the list_collections tool call.
func (t *SchemaTool) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{"collections": t.catalog.Names()})
}

// DescribeDefinition returns the get_collection_schema tool definition.
func (t *SchemaTool) DescribeDefinition() mcp.Tool {
	return mcp.NewTool("get_collection_schema",
		mcp.WithDescription(
			"Describe one collection: its attributes, their types, and which "+
				"field embeds child records.",
		),
		mcp.WithString("collection",
			mcp.Required(),
			mcp.Description("Collection name."),
		),
	)
}

// HandleDescribe processes the get_collection_schema tool call.
func (t *SchemaTool) HandleDescribe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("collection", "")
	if name == "" {
		return mcp.NewToolResultError("'collection' is required"), nil
	}
	col, ok := t.catalog.Lookup(name)
	if !ok {
		return mcp.NewToolResultError("unknown_collection: collection is not registered"), nil
	}

	attrs := make([]map[string]any, 0, len(col.Attributes))
	for _, a := range col.Attributes {
		entry := map[string]any{
			"name": a.Name,
			"type": a.Type.String(),
		}
		if a.Structural {
			entry["structural"] = true
		}
		if a.ChildCollection != "" {
			entry["child_collection"] = a.ChildCollection
		}
		attrs = append(attrs, entry)
	}
	return jsonResult(map[string]any{
		"collection": col.Name,
		"attributes": attrs,
		"writable":   col.WritableNames(),
	})
}
