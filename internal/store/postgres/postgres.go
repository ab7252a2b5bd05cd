// Package postgres implements the table store on PostgreSQL with pgx.
//
// Tables, fields, records and cells live in four tables (see schema.sql).
// A batch of records is written inside one transaction with COPY, so
// AddRecords is atomic: either every row lands or none does.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/linkbase/internal/core"
	"github.com/JonMunkholm/linkbase/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Config holds the pool settings.
type Config struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store is a store.Backend on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Backend = (*Store)(nil)

// Open connects a pool and verifies it with a ping.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(pool), nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// EnsureSchema creates the store tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return classify("ensure schema", err)
	}
	return nil
}

// IsInvalidOperation implements core.TableStore.
func (s *Store) IsInvalidOperation(err error) bool { return store.IsInvalidOperation(err) }

// ActiveTable implements core.TableStore.
func (s *Store) ActiveTable(ctx context.Context) (core.TableHandle, error) {
	var id pgtype.UUID
	err := s.pool.QueryRow(ctx, `SELECT id FROM base_tables WHERE is_active LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get active table", err)
	}
	return &handle{s: s, id: id}, nil
}

// TableByID implements core.TableStore.
func (s *Store) TableByID(ctx context.Context, id string) (core.TableHandle, error) {
	pgID := toPgUUID(id)
	if !pgID.Valid {
		return nil, store.TableNotFound("get table", id)
	}

	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM base_tables WHERE id = $1)`, pgID).Scan(&exists)
	if err != nil {
		return nil, classify("get table", err)
	}
	if !exists {
		return nil, store.TableNotFound("get table", id)
	}
	return &handle{s: s, id: pgID}, nil
}

// CreateTable inserts a table and its fields. The table becomes active when
// spec.Active is set or when no other table is active.
func (s *Store) CreateTable(ctx context.Context, spec store.TableSpec) (store.TableInfo, error) {
	if err := spec.Validate(); err != nil {
		return store.TableInfo{}, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return store.TableInfo{}, classify("create table", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	var anyActive bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM base_tables WHERE is_active)`).Scan(&anyActive); err != nil {
		return store.TableInfo{}, classify("create table", err)
	}
	activate := spec.Active || !anyActive
	if activate {
		if _, err := tx.Exec(ctx, `UPDATE base_tables SET is_active = FALSE WHERE is_active`); err != nil {
			return store.TableInfo{}, classify("create table", err)
		}
	}

	tableID := newPgUUID()
	var createdAt time.Time
	err = tx.QueryRow(ctx,
		`INSERT INTO base_tables (id, name, is_active) VALUES ($1, $2, $3) RETURNING created_at`,
		tableID, spec.Name, activate,
	).Scan(&createdAt)
	if err != nil {
		return store.TableInfo{}, classify("create table", err)
	}

	fields := spec.FieldMetas(func() string { return uuidString(newPgUUID()) })
	batch := &pgx.Batch{}
	for _, f := range fields {
		batch.Queue(
			`INSERT INTO base_fields (id, table_id, name, field_type, is_primary, position) VALUES ($1, $2, $3, $4, $5, $6)`,
			toPgUUID(f.ID), tableID, f.Name, string(f.Type), f.IsPrimary, f.Position,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return store.TableInfo{}, classify("create table", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return store.TableInfo{}, classify("create table", err)
	}

	return store.TableInfo{
		ID:        uuidString(tableID),
		Name:      spec.Name,
		Active:    activate,
		CreatedAt: createdAt.UTC(),
		Fields:    fields,
	}, nil
}

// ListTables returns all tables in creation order.
func (s *Store) ListTables(ctx context.Context) ([]store.TableInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, is_active, locked, created_at FROM base_tables ORDER BY created_at, id`)
	if err != nil {
		return nil, classify("list tables", err)
	}
	tables, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.TableInfo, error) {
		var (
			id   pgtype.UUID
			info store.TableInfo
		)
		err := row.Scan(&id, &info.Name, &info.Active, &info.Locked, &info.CreatedAt)
		info.ID = uuidString(id)
		info.CreatedAt = info.CreatedAt.UTC()
		return info, err
	})
	if err != nil {
		return nil, classify("list tables", err)
	}

	for i := range tables {
		fields, err := loadFields(ctx, s.pool, toPgUUID(tables[i].ID))
		if err != nil {
			return nil, err
		}
		tables[i].Fields = fields
	}
	return tables, nil
}

// SetActive marks id as the active table. An empty id clears it.
func (s *Store) SetActive(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return classify("set active", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE base_tables SET is_active = FALSE WHERE is_active`); err != nil {
		return classify("set active", err)
	}
	if id != "" {
		pgID := toPgUUID(id)
		if !pgID.Valid {
			return store.TableNotFound("set active", id)
		}
		tag, err := tx.Exec(ctx, `UPDATE base_tables SET is_active = TRUE WHERE id = $1`, pgID)
		if err != nil {
			return classify("set active", err)
		}
		if tag.RowsAffected() == 0 {
			return store.TableNotFound("set active", id)
		}
	}
	return classify("set active", tx.Commit(ctx))
}

// SetLocked toggles write protection on a table.
func (s *Store) SetLocked(ctx context.Context, id string, locked bool) error {
	pgID := toPgUUID(id)
	if !pgID.Valid {
		return store.TableNotFound("set locked", id)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE base_tables SET locked = $2 WHERE id = $1`, pgID, locked)
	if err != nil {
		return classify("set locked", err)
	}
	if tag.RowsAffected() == 0 {
		return store.TableNotFound("set locked", id)
	}
	return nil
}

// ListRecords returns the rows of a table in insertion order.
func (s *Store) ListRecords(ctx context.Context, tableID string) ([]store.RecordView, error) {
	h, err := s.TableByID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	pgID := h.(*handle).id

	fields, err := loadFields(ctx, s.pool, pgID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]core.FieldMeta, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.created_at, c.field_id, c.value
		FROM base_records r
		LEFT JOIN base_cells c ON c.record_id = r.id
		WHERE r.table_id = $1
		ORDER BY r.seq`, pgID)
	if err != nil {
		return nil, classify("list records", err)
	}
	defer rows.Close()

	out := []store.RecordView{}
	for rows.Next() {
		var (
			recID     pgtype.UUID
			createdAt time.Time
			fieldID   pgtype.UUID
			value     pgtype.Text
		)
		if err := rows.Scan(&recID, &createdAt, &fieldID, &value); err != nil {
			return nil, classify("list records", err)
		}

		id := core.RecordID(uuidString(recID))
		if len(out) == 0 || out[len(out)-1].ID != id {
			out = append(out, store.RecordView{ID: id, CreatedAt: createdAt.UTC(), Values: map[string]any{}})
		}
		if f, ok := byID[uuidString(fieldID)]; ok && value.Valid {
			out[len(out)-1].Values[f.Name] = store.DecodeValue(f.Type, value.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list records", err)
	}
	return out, nil
}

func loadFields(ctx context.Context, q DBTX, tableID pgtype.UUID) ([]core.FieldMeta, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, field_type, is_primary, position
		FROM base_fields
		WHERE table_id = $1
		ORDER BY position`, tableID)
	if err != nil {
		return nil, classify("list fields", err)
	}
	fields, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.FieldMeta, error) {
		var (
			id   pgtype.UUID
			typ  string
			meta core.FieldMeta
		)
		err := row.Scan(&id, &meta.Name, &typ, &meta.IsPrimary, &meta.Position)
		meta.ID = uuidString(id)
		meta.Type = core.FieldType(typ)
		return meta, err
	})
	if err != nil {
		return nil, classify("list fields", err)
	}
	if fields == nil {
		fields = []core.FieldMeta{}
	}
	return fields, nil
}

// handle is a TableHandle bound to one table id.
type handle struct {
	s  *Store
	id pgtype.UUID
}

func (h *handle) ID() string { return uuidString(h.id) }

func (h *handle) FieldMetaList(ctx context.Context) ([]core.FieldMeta, error) {
	return loadFields(ctx, h.s.pool, h.id)
}

func (h *handle) Field(ctx context.Context, name string) (core.FieldHandle, error) {
	fields, err := h.FieldMetaList(ctx)
	if err != nil {
		return nil, err
	}
	meta, err := store.FieldByName(h.ID(), fields, name)
	if err != nil {
		return nil, err
	}
	return store.NewField(meta), nil
}

// AddRecords writes all rows in one transaction using COPY for both the
// record and the cell tables.
func (h *handle) AddRecords(ctx context.Context, rows []core.Row) ([]core.RecordID, error) {
	tx, err := h.s.pool.Begin(ctx)
	if err != nil {
		return nil, classify("add records", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	var locked bool
	err = tx.QueryRow(ctx, `SELECT locked FROM base_tables WHERE id = $1 FOR UPDATE`, h.id).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.TableNotFound("add records", h.ID())
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

	ids := make([]core.RecordID, len(rows))
	if len(rows) == 0 {
		return ids, nil
	}

	now := time.Now().UTC()
	recordRows := make([][]any, len(rows))
	var cellRows [][]any
	for i, row := range rows {
		recID := newPgUUID()
		ids[i] = core.RecordID(uuidString(recID))
		recordRows[i] = []any{recID, h.id, now}
		for _, c := range row {
			cellRows = append(cellRows, []any{recID, toPgUUID(c.FieldID), toPgText(store.EncodeValue(c.Value))})
		}
	}

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"base_records"},
		[]string{"id", "table_id", "created_at"},
		pgx.CopyFromRows(recordRows),
	); err != nil {
		return nil, classify("add records", err)
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"base_cells"},
		[]string{"record_id", "field_id", "value"},
		pgx.CopyFromRows(cellRows),
	); err != nil {
		return nil, classify("add records", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, classify("add records", err)
	}
	return ids, nil
}
