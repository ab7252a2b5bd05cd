package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/JonMunkholm/linkbase/internal/catalog"
	"github.com/JonMunkholm/linkbase/internal/core"
	"github.com/JonMunkholm/linkbase/internal/store"
	"github.com/JonMunkholm/linkbase/internal/store/memory"
)

func newTestService(t *testing.T) (*core.Service, string) {
	t.Helper()
	mem := memory.New()
	info, err := mem.CreateTable(context.Background(), store.LinkTable("links", "", ""))
	if err != nil {
		t.Fatal(err)
	}
	roots := []catalog.Node{
		{ID: "1", Name: "Docs", Children: []catalog.Node{
			{ID: "1.1", Name: "Go", URL: "https://go.dev"},
			{ID: "1.2", Name: "Draft"},
		}},
	}
	return core.NewService(mem, roots, core.ServiceConfig{TimeZone: time.UTC}), info.ID
}

func call(t *testing.T, h server.ToolHandlerFunc, args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args

	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text, res.IsError
	case *mcp.TextContent:
		return c.Text, res.IsError
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return "", false
}

func TestListAndFindFields(t *testing.T) {
	svc, _ := newTestService(t)

	text, isErr := call(t, listFieldsHandler(svc), nil)
	if isErr {
		t.Fatalf("list_fields error: %s", text)
	}
	var fields []core.FieldMeta
	if err := json.Unmarshal([]byte(text), &fields); err != nil || len(fields) != 2 {
		t.Fatalf("list_fields = %s (%v)", text, err)
	}

	text, isErr = call(t, findFieldHandler(svc), map[string]any{"name": core.DefaultURLField})
	if isErr || !strings.Contains(text, `"type": "url"`) {
		t.Errorf("find_field = %s", text)
	}

	text, isErr = call(t, findFieldHandler(svc), map[string]any{"name": "nope"})
	if !isErr || !strings.Contains(text, "TBL003") {
		t.Errorf("find_field(nope) = %s, isError=%v", text, isErr)
	}

	text, isErr = call(t, findFieldHandler(svc), map[string]any{})
	if !isErr || !strings.Contains(text, "VAL001") {
		t.Errorf("find_field() = %s", text)
	}
}

func TestCatalogTools(t *testing.T) {
	svc, _ := newTestService(t)

	text, _ := call(t, catalogTreeHandler(svc), nil)
	if !strings.Contains(text, `"disabled": true`) {
		t.Errorf("catalog_tree = %s", text)
	}

	text, isErr := call(t, catalogChildrenHandler(svc), map[string]any{"id": "1"})
	var kids []catalog.Node
	if isErr || json.Unmarshal([]byte(text), &kids) != nil || len(kids) != 2 {
		t.Errorf("catalog_children(1) = %s", text)
	}

	text, isErr = call(t, catalogChildrenHandler(svc), map[string]any{"id": "9"})
	if !isErr || !strings.Contains(text, "CAT001") {
		t.Errorf("catalog_children(9) = %s", text)
	}
}

func TestIngestLinks(t *testing.T) {
	svc, tableID := newTestService(t)

	text, isErr := call(t, ingestLinksHandler(svc), map[string]any{
		"table_id": tableID,
		"records":  `[{"title":"Go","url":"https://go.dev"},{"title":"","url":"https://x.example"}]`,
	})
	if isErr {
		t.Fatalf("ingest_links error: %s", text)
	}
	var report core.IngestReport
	if err := json.Unmarshal([]byte(text), &report); err != nil || report.Written != 1 || report.Dropped != 1 {
		t.Errorf("ingest_links = %s", text)
	}

	text, isErr = call(t, ingestLinksHandler(svc), map[string]any{"table_id": tableID, "records": "not json"})
	if !isErr || !strings.Contains(text, "VAL001") {
		t.Errorf("bad records = %s", text)
	}
}

func TestFormatTimeTool(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		args    map[string]any
		want    string
		wantErr bool
	}{
		{args: map[string]any{"value": "2024-03-05T10:20:30Z", "pattern": "YYYY/MM/DD"}, want: "2024/03/05"},
		{args: map[string]any{"value": "86400000", "pattern": "YYYY-MM-DD"}, want: "1970-01-02"},
		{args: map[string]any{"value": "someday"}, want: "null"},
		{args: map[string]any{"value": "2024-03-05", "pattern": "[YYYY"}, want: "VAL007", wantErr: true},
	}
	for _, tt := range tests {
		text, isErr := call(t, formatTimeHandler(svc), tt.args)
		if isErr != tt.wantErr || !strings.Contains(text, tt.want) {
			t.Errorf("format_time(%v) = %q (isError=%v), want %q", tt.args, text, isErr, tt.want)
		}
	}
}

func TestNewServer(t *testing.T) {
	svc, _ := newTestService(t)
	if s := NewServer(svc, "test"); s == nil {
		t.Fatal("NewServer returned nil")
	}
}
