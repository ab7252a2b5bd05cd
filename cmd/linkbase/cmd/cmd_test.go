package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/linkbase/internal/application"
	"github.com/JonMunkholm/linkbase/internal/catalog"
	"github.com/JonMunkholm/linkbase/internal/config"
	"github.com/JonMunkholm/linkbase/internal/core"
	"github.com/JonMunkholm/linkbase/internal/store"
	"github.com/JonMunkholm/linkbase/internal/store/memory"
)

func newTestApp(t *testing.T) string {
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
	app = &application.App{
		Config:  &config.Config{},
		Backend: mem,
		Service: core.NewService(mem, roots, core.ServiceConfig{TimeZone: time.UTC}),
	}
	t.Cleanup(func() { app = nil })
	return info.ID
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	jsonOutput, timePattern, tableActive, tableUnlock = false, "", false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFieldsCommand(t *testing.T) {
	newTestApp(t)

	out, err := run(t, "", "fields")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, core.DefaultTitleField) || !strings.Contains(out, "url") {
		t.Errorf("fields output = %q", out)
	}

	out, err = run(t, "", "field", core.DefaultURLField, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var f core.FieldMeta
	if err := json.Unmarshal([]byte(out), &f); err != nil || f.Type != core.FieldURL {
		t.Errorf("field --json = %q (%v)", out, err)
	}

	if _, err := run(t, "", "field", "nope"); err == nil {
		t.Error("field nope: expected error")
	}
}

func TestIngestFromStdin(t *testing.T) {
	tableID := newTestApp(t)

	out, err := run(t, `[{"title":"Go","url":"https://go.dev"},{"title":"","url":"https://x.example"}]`,
		"ingest", "--table", tableID, "--file", "-")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "written: 1, dropped: 1") {
		t.Errorf("ingest output = %q", out)
	}

	out, err = run(t, "", "records", "--table", tableID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "https://go.dev") {
		t.Errorf("records output = %q", out)
	}

	if _, err := run(t, "not json", "ingest", "--table", tableID, "--file", "-"); err == nil {
		t.Error("bad JSON: expected error")
	}
}

func TestImportFile(t *testing.T) {
	tableID := newTestApp(t)
	path := filepath.Join(t.TempDir(), "links.csv")
	if err := os.WriteFile(path, []byte("title,url\nGo,https://go.dev\nRust,https://rust-lang.org\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "import", "--table", tableID, "--file", path, "--json")
	if err != nil {
		t.Fatal(err)
	}
	var report core.IngestReport
	if err := json.Unmarshal([]byte(out), &report); err != nil || report.Written != 2 {
		t.Errorf("import = %q (%v)", out, err)
	}
}

func TestCatalogCommands(t *testing.T) {
	newTestApp(t)

	out, err := run(t, "", "catalog", "tree")
	if err != nil {
		t.Fatal(err)
	}
	want := "1 Docs\n  1.1 Go  https://go.dev\n  1.2 Draft  (disabled)\n"
	if out != want {
		t.Errorf("catalog tree = %q, want %q", out, want)
	}

	out, err = run(t, "", "catalog", "children", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "1.1 Go") {
		t.Errorf("catalog children = %q", out)
	}

	if _, err := run(t, "", "catalog", "children", "9"); err == nil {
		t.Error("children 9: expected error")
	}
}

func TestFormatTimeCommand(t *testing.T) {
	newTestApp(t)

	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"format-time", "2024-03-05T10:20:30Z", "-p", "YYYY/MM/DD"}, want: "2024/03/05\n"},
		{args: []string{"format-time", "86400000", "-p", "YYYY-MM-DD"}, want: "1970-01-02\n"},
		{args: []string{"format-time", "someday"}, want: "null\n"},
	}
	for _, tt := range tests {
		out, err := run(t, "", tt.args...)
		if err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		if out != tt.want {
			t.Errorf("%v = %q, want %q", tt.args, out, tt.want)
		}
	}
}

func TestTableCommands(t *testing.T) {
	newTestApp(t)

	out, err := run(t, "", "table", "init", "more", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var info store.TableInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil || info.Name != "more" || info.Active {
		t.Fatalf("table init = %q (%v)", out, err)
	}

	if _, err := run(t, "", "table", "activate", info.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "", "table", "lock", info.ID); err != nil {
		t.Fatal(err)
	}

	out, err = run(t, "", "table", "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var tables []store.TableInfo
	if err := json.Unmarshal([]byte(out), &tables); err != nil {
		t.Fatal(err)
	}
	for _, tbl := range tables {
		if tbl.ID == info.ID && (!tbl.Active || !tbl.Locked) {
			t.Errorf("table %s: active=%v locked=%v", tbl.ID, tbl.Active, tbl.Locked)
		}
	}
}
