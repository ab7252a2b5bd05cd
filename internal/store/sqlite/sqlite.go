// Package sqlite implements the table store on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/JonMunkholm/linkbase/internal/core"
	"github.com/JonMunkholm/linkbase/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Store is a store.Backend on database/sql with the sqlite3 driver.
type Store struct {
	db *sql.DB
}

var _ store.Backend = (*Store)(nil)

// Open opens (creating if needed) the database file at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; transactions below never touch db directly.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the store tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return classify("ensure schema", err)
	}
	return nil
}

// IsInvalidOperation implements core.TableStore.
func (s *Store) IsInvalidOperation(err error) bool { return store.IsInvalidOperation(err) }

// ActiveTable implements core.TableStore.
func (s *Store) ActiveTable(ctx context.Context) (core.TableHandle, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM base_tables WHERE is_active = 1 LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get active table", err)
	}
	return &handle{s: s, id: id}, nil
}

// TableByID implements core.TableStore.
func (s *Store) TableByID(ctx context.Context, id string) (core.TableHandle, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM base_tables WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return nil, classify("get table", err)
	}
	if !exists {
		return nil, store.TableNotFound("get table", id)
	}
	return &handle{s: s, id: id}, nil
}

// CreateTable inserts a table and its fields. The table becomes active when
// spec.Active is set or when no other table is active.
func (s *Store) CreateTable(ctx context.Context, spec store.TableSpec) (store.TableInfo, error) {
	if err := spec.Validate(); err != nil {
		return store.TableInfo{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.TableInfo{}, classify("create table", err)
	}
	defer tx.Rollback()

	var anyActive bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM base_tables WHERE is_active = 1)`).Scan(&anyActive); err != nil {
		return store.TableInfo{}, classify("create table", err)
	}
	activate := spec.Active || !anyActive
	if activate {
		if _, err := tx.ExecContext(ctx, `UPDATE base_tables SET is_active = 0 WHERE is_active = 1`); err != nil {
			return store.TableInfo{}, classify("create table", err)
		}
	}

	info := store.TableInfo{
		ID:        uuid.NewString(),
		Name:      spec.Name,
		Active:    activate,
		CreatedAt: time.Now().UTC(),
		Fields:    spec.FieldMetas(uuid.NewString),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO base_tables (id, name, is_active, created_at) VALUES (?, ?, ?, ?)`,
		info.ID, info.Name, activate, info.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return store.TableInfo{}, classify("create table", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO base_fields (id, table_id, name, field_type, is_primary, position) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return store.TableInfo{}, classify("create table", err)
	}
	defer stmt.Close()
	for _, f := range info.Fields {
		if _, err := stmt.ExecContext(ctx, f.ID, info.ID, f.Name, string(f.Type), f.IsPrimary, f.Position); err != nil {
			return store.TableInfo{}, classify("create table", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return store.TableInfo{}, classify("create table", err)
	}
	return info, nil
}

// ListTables returns all tables in creation order.
func (s *Store) ListTables(ctx context.Context) ([]store.TableInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, is_active, locked, created_at FROM base_tables ORDER BY rowid`)
	if err != nil {
		return nil, classify("list tables", err)
	}

	tables := []store.TableInfo{}
	for rows.Next() {
		var (
			info    store.TableInfo
			created string
		)
		if err := rows.Scan(&info.ID, &info.Name, &info.Active, &info.Locked, &created); err != nil {
			rows.Close()
			return nil, classify("list tables", err)
		}
		info.CreatedAt = parseTime(created)
		tables = append(tables, info)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classify("list tables", err)
	}

	for i := range tables {
		fields, err := loadFields(ctx, s.db, tables[i].ID)
		if err != nil {
			return nil, err
		}
		tables[i].Fields = fields
	}
	return tables, nil
}

// SetActive marks id as the active table. An empty id clears it.
func (s *Store) SetActive(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("set active", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE base_tables SET is_active = 0 WHERE is_active = 1`); err != nil {
		return classify("set active", err)
	}
	if id != "" {
		res, err := tx.ExecContext(ctx, `UPDATE base_tables SET is_active = 1 WHERE id = ?`, id)
		if err != nil {
			return classify("set active", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.TableNotFound("set active", id)
		}
	}
	return classify("set active", tx.Commit())
}

// SetLocked toggles write protection on a table.
func (s *Store) SetLocked(ctx context.Context, id string, locked bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE base_tables SET locked = ? WHERE id = ?`, locked, id)
	if err != nil {
		return classify("set locked", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.TableNotFound("set locked", id)
	}
	return nil
}

// ListRecords returns the rows of a table in insertion order.
func (s *Store) ListRecords(ctx context.Context, tableID string) ([]store.RecordView, error) {
	if _, err := s.TableByID(ctx, tableID); err != nil {
		return nil, err
	}
	fields, err := loadFields(ctx, s.db, tableID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]core.FieldMeta, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.created_at, c.field_id, c.value
		FROM base_records r
		LEFT JOIN base_cells c ON c.record_id = r.id
		WHERE r.table_id = ?
		ORDER BY r.seq`, tableID)
	if err != nil {
		return nil, classify("list records", err)
	}
	defer rows.Close()

	out := []store.RecordView{}
	for rows.Next() {
		var (
			recID, created string
			fieldID, value sql.NullString
		)
		if err := rows.Scan(&recID, &created, &fieldID, &value); err != nil {
			return nil, classify("list records", err)
		}

		id := core.RecordID(recID)
		if len(out) == 0 || out[len(out)-1].ID != id {
			out = append(out, store.RecordView{ID: id, CreatedAt: parseTime(created), Values: map[string]any{}})
		}
		if f, ok := byID[fieldID.String]; ok && value.Valid {
			out[len(out)-1].Values[f.Name] = store.DecodeValue(f.Type, value.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list records", err)
	}
	return out, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadFields(ctx context.Context, q querier, tableID string) ([]core.FieldMeta, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, field_type, is_primary, position
		FROM base_fields
		WHERE table_id = ?
		ORDER BY position`, tableID)
	if err != nil {
		return nil, classify("list fields", err)
	}
	defer rows.Close()

	fields := []core.FieldMeta{}
	for rows.Next() {
		var (
			meta core.FieldMeta
			typ  string
		)
		if err := rows.Scan(&meta.ID, &meta.Name, &typ, &meta.IsPrimary, &meta.Position); err != nil {
			return nil, classify("list fields", err)
		}
		meta.Type = core.FieldType(typ)
		fields = append(fields, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list fields", err)
	}
	return fields, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// classify turns driver errors into store errors.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *store.Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.Code == sqlite3.ErrConstraint {
		switch sqErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return store.Wrap(store.CodeConflict, op, err)
		default:
			return store.Wrap(store.CodeInvalidOperation, op, err)
		}
	}
	return store.Wrap(store.CodeInternal, op, err)
}

// handle is a TableHandle bound to one table id.
type handle struct {
	s  *Store
	id string
}

func (h *handle) ID() string { return h.id }

func (h *handle) FieldMetaList(ctx context.Context) ([]core.FieldMeta, error) {
	return loadFields(ctx, h.s.db, h.id)
}

func (h *handle) Field(ctx context.Context, name string) (core.FieldHandle, error) {
	fields, err := h.FieldMetaList(ctx)
	if err != nil {
		return nil, err
	}
	meta, err := store.FieldByName(h.id, fields, name)
	if err != nil {
		return nil, err
	}
	return store.NewField(meta), nil
}

// AddRecords writes all rows in one transaction.
func (h *handle) AddRecords(ctx context.Context, rows []core.Row) ([]core.RecordID, error) {
	tx, err := h.s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("add records", err)
	}
	defer tx.Rollback()

	var locked bool
	err = tx.QueryRowContext(ctx, `SELECT locked FROM base_tables WHERE id = ?`, h.id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.TableNotFound("add records", h.id)
	}
	if err != nil {
		return nil, classify("add records", err)
	}
	if locked {
		return nil, store.Wrap(store.CodeInvalidOperation, "add records", store.ErrLocked)
	}

	fields, err := loadFields(ctx, tx, h.id)
	if err != nil {
		return nil, err
	}
	if err := store.CheckRows(fields, rows); err != nil {
		return nil, err
	}

	recStmt, err := tx.PrepareContext(ctx, `INSERT INTO base_records (id, table_id, created_at) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, classify("add records", err)
	}
	defer recStmt.Close()
	cellStmt, err := tx.PrepareContext(ctx, `INSERT INTO base_cells (record_id, field_id, value) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, classify("add records", err)
	}
	defer cellStmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	ids := make([]core.RecordID, len(rows))
	for i, row := range rows {
		id := uuid.NewString()
		if _, err := recStmt.ExecContext(ctx, id, h.id, now); err != nil {
			return nil, classify("add records", err)
		}
		for _, c := range row {
			if _, err := cellStmt.ExecContext(ctx, id, c.FieldID, store.EncodeValue(c.Value)); err != nil {
				return nil, classify("add records", err)
			}
		}
		ids[i] = core.RecordID(id)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify("add records", err)
	}
	return ids, nil
}
