package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/linkbase/internal/core"
	"github.com/JonMunkholm/linkbase/internal/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want store.Code
	}{
		{name: "unique", err: &pgconn.PgError{Code: pgUniqueViolation}, want: store.CodeConflict},
		{name: "foreign key", err: &pgconn.PgError{Code: pgForeignKeyViolation}, want: store.CodeInvalidOperation},
		{name: "bad text", err: fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: pgInvalidTextRepr}), want: store.CodeInvalidOperation},
		{name: "other pg error", err: &pgconn.PgError{Code: "53300"}, want: store.CodeInternal},
		{name: "plain error", err: errors.New("broken pipe"), want: store.CodeInternal},
		{name: "already classified", err: store.TableNotFound("x", "y"), want: store.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := store.CodeOf(classify("op", tt.err)); got != tt.want {
				t.Errorf("code = %q, want %q", got, tt.want)
			}
		})
	}

	if err := classify("op", context.Canceled); err != context.Canceled {
		t.Errorf("context error was wrapped: %v", err)
	}
	if classify("op", nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}

func TestUUIDHelpers(t *testing.T) {
	id := newPgUUID()
	if !id.Valid {
		t.Fatal("new id invalid")
	}
	if back := toPgUUID(uuidString(id)); back != id {
		t.Errorf("round trip = %v, want %v", back, id)
	}
	if toPgUUID("not-a-uuid").Valid || toPgUUID("").Valid {
		t.Error("malformed ids should be invalid")
	}
	if uuidString(toPgUUID("")) != "" {
		t.Error("invalid uuid should render empty")
	}
	if toPgText("").Valid || !toPgText("x").Valid {
		t.Error("toPgText validity wrong")
	}
}

// TestStore_Integration runs against a real database when
// LINKBASE_TEST_DATABASE_URL is set.
func TestStore_Integration(t *testing.T) {
	url := os.Getenv("LINKBASE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LINKBASE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	s, err := Open(ctx, Config{URL: url, MaxConns: 4})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	info, err := s.CreateTable(ctx, store.TableSpec{
		Name:   "links-" + uuidString(newPgUUID()),
		Fields: store.LinkTable("", "", "").Fields,
		Active: true,
	})
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	fields, err := core.FetchHeaders(ctx, s)
	if err != nil || len(fields) != 2 {
		t.Fatalf("FetchHeaders = %v, %v", fields, err)
	}

	in := core.NewIngestor(s)
	ids, err := in.Ingest(ctx, info.ID, []core.Record{
		{Title: "A", URL: "http://a.example"},
		{Title: "", URL: "http://b.example"},
		{Title: "C", URL: "https://c.example"},
	})
	if err != nil || len(ids) != 2 {
		t.Fatalf("Ingest = %v, %v", ids, err)
	}

	recs, err := s.ListRecords(ctx, info.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != ids[0] || recs[1].Values[core.DefaultTitleField] != "C" {
		t.Errorf("records = %+v", recs)
	}

	if err := s.SetLocked(ctx, info.ID, true); err != nil {
		t.Fatal(err)
	}
	ids, err = in.Ingest(ctx, info.ID, []core.Record{{Title: "D", URL: "http://d.example"}})
	if err != nil || ids != nil {
		t.Errorf("Ingest on locked table = %v, %v", ids, err)
	}
}
