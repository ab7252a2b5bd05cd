// Package mcp exposes the linkbase service as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/JonMunkholm/linkbase/internal/core"
)

// NewServer returns an MCP server with every linkbase tool registered.
func NewServer(svc *core.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"linkbase-mcp",
		version,
		server.WithToolCapabilities(true),
	)
	RegisterTools(s, svc)
	return s
}

// RegisterTools adds the table, catalog and time tools to s.
func RegisterTools(s *server.MCPServer, svc *core.Service) {
	s.AddTool(listFieldsTool(), listFieldsHandler(svc))
	s.AddTool(findFieldTool(), findFieldHandler(svc))
	s.AddTool(catalogTreeTool(), catalogTreeHandler(svc))
	s.AddTool(catalogChildrenTool(), catalogChildrenHandler(svc))
	s.AddTool(ingestLinksTool(svc), ingestLinksHandler(svc))
	s.AddTool(formatTimeTool(), formatTimeHandler(svc))
}

// --- list_fields ---

func listFieldsTool() mcp.Tool {
	return mcp.NewTool("list_fields",
		mcp.WithDescription("List the fields (columns) of the active table with their ids and types."),
	)
}

func listFieldsHandler(svc *core.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		fields, err := svc.Headers(ctx)
		if err != nil {
			return toolError(err)
		}
		return jsonResult(fields)
	}
}

// --- find_field ---

func findFieldTool() mcp.Tool {
	return mcp.NewTool("find_field",
		mcp.WithDescription("Look up one field of the active table by its exact name."),
		mcp.WithString("name",
			mcp.Description("Field name, matched exactly"),
			mcp.Required(),
		),
	)
}

func findFieldHandler(svc *core.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := req.GetString("name", "")
		if name == "" {
			return toolError(fmt.Errorf("%w: name is required", core.ErrInvalidInput))
		}
		field, err := svc.Field(ctx, name)
		if err != nil {
			return toolError(err)
		}
		return jsonResult(field)
	}
}

// --- catalog_tree ---

func catalogTreeTool() mcp.Tool {
	return mcp.NewTool("catalog_tree",
		mcp.WithDescription("Return the navigation catalog. Leaves without a url are marked disabled."),
	)
}

func catalogTreeHandler(svc *core.Service) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(svc.Catalog())
	}
}

// --- catalog_children ---

func catalogChildrenTool() mcp.Tool {
	return mcp.NewTool("catalog_children",
		mcp.WithDescription("Return the direct children of a catalog node."),
		mcp.WithString("id",
			mcp.Description("Catalog node id (e.g. 1.2)"),
			mcp.Required(),
		),
	)
}

func catalogChildrenHandler(svc *core.Service) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		children, err := svc.Children(req.GetString("id", ""))
		if err != nil {
			return toolError(err)
		}
		return jsonResult(children)
	}
}

// --- ingest_links ---

func ingestLinksTool(svc *core.Service) mcp.Tool {
	return mcp.NewTool("ingest_links",
		mcp.WithDescription(fmt.Sprintf(
			"Append (title, url) records to a table, writing the %q and %q fields. Records missing either value are skipped.",
			svc.TitleField(), svc.URLField())),
		mcp.WithString("table_id",
			mcp.Description("Target table id"),
			mcp.Required(),
		),
		mcp.WithString("records",
			mcp.Description(`JSON array of records, e.g. [{"title":"Go","url":"https://go.dev"}]`),
			mcp.Required(),
		),
	)
}

func ingestLinksHandler(svc *core.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var records []core.Record
		if err := json.Unmarshal([]byte(req.GetString("records", "")), &records); err != nil {
			return toolError(fmt.Errorf("%w: records must be a JSON array: %v", core.ErrInvalidInput, err))
		}
		report, err := svc.Ingest(ctx, req.GetString("table_id", ""), records)
		if err != nil {
			return toolError(err)
		}
		return jsonResult(report)
	}
}

// --- format_time ---

func formatTimeTool() mcp.Tool {
	return mcp.NewTool("format_time",
		mcp.WithDescription("Format a date value (ISO string, common date layouts or Unix milliseconds). Returns null when the value is not a date."),
		mcp.WithString("value",
			mcp.Description("Value to format"),
			mcp.Required(),
		),
		mcp.WithString("pattern",
			mcp.Description("Pattern with tokens like YYYY-MM-DD HH:mm:ss; [text] is literal. Defaults to the configured format."),
		),
	)
}

func formatTimeHandler(svc *core.Service) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		value := core.ValueFromText(req.GetString("value", ""))
		formatted, ok, err := svc.FormatTime(value, req.GetString("pattern", ""))
		if err != nil {
			return toolError(err)
		}
		if !ok {
			return mcp.NewToolResultText("null"), nil
		}
		return mcp.NewToolResultText(formatted), nil
	}
}

// --- helpers ---

func toolError(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(core.FormatUserError(err)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
