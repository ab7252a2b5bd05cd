// Package memory is an in-process table store for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/linkbase/internal/core"
	"github.com/JonMunkholm/linkbase/internal/store"
)

// Store keeps tables in memory. It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
	order  []string
	active string
	now    func() time.Time
}

var _ store.Backend = (*Store)(nil)

type table struct {
	info    store.TableInfo
	records []record
}

type record struct {
	id        core.RecordID
	createdAt time.Time
	cells     map[string]any // field id -> value
}

// New returns an empty store.
func New() *Store {
	return &Store{tables: make(map[string]*table), now: time.Now}
}

// EnsureSchema is a no-op.
func (s *Store) EnsureSchema(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

// IsInvalidOperation implements core.TableStore.
func (s *Store) IsInvalidOperation(err error) bool { return store.IsInvalidOperation(err) }

// ActiveTable implements core.TableStore.
func (s *Store) ActiveTable(ctx context.Context) (core.TableHandle, error) {
	s.mu.RLock()
	id := s.active
	s.mu.RUnlock()

	if id == "" {
		return nil, nil
	}
	return s.TableByID(ctx, id)
}

// TableByID implements core.TableStore.
func (s *Store) TableByID(ctx context.Context, id string) (core.TableHandle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tables[id]; !ok {
		return nil, store.TableNotFound("get table", id)
	}
	return &handle{s: s, id: id}, nil
}

// CreateTable adds a table. The first table created becomes active, as
// does any table created with spec.Active.
func (s *Store) CreateTable(ctx context.Context, spec store.TableSpec) (store.TableInfo, error) {
	if err := spec.Validate(); err != nil {
		return store.TableInfo{}, err
	}

	info := store.TableInfo{
		ID:        uuid.NewString(),
		Name:      spec.Name,
		CreatedAt: s.now().UTC(),
		Fields:    spec.FieldMetas(uuid.NewString),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[info.ID] = &table{info: info}
	s.order = append(s.order, info.ID)
	if spec.Active || s.active == "" {
		s.active = info.ID
	}
	return s.infoLocked(info.ID), nil
}

// ListTables returns tables in creation order.
func (s *Store) ListTables(ctx context.Context) ([]store.TableInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.TableInfo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.infoLocked(id))
	}
	return out, nil
}

// SetActive marks id as the active table. An empty id clears it.
func (s *Store) SetActive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if _, ok := s.tables[id]; !ok {
			return store.TableNotFound("set active", id)
		}
	}
	s.active = id
	return nil
}

// SetLocked toggles write protection on a table.
func (s *Store) SetLocked(ctx context.Context, id string, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[id]
	if !ok {
		return store.TableNotFound("set locked", id)
	}
	t.info.Locked = locked
	return nil
}

// ListRecords returns the rows of a table in insertion order.
func (s *Store) ListRecords(ctx context.Context, tableID string) ([]store.RecordView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[tableID]
	if !ok {
		return nil, store.TableNotFound("list records", tableID)
	}

	names := make(map[string]string, len(t.info.Fields))
	for _, f := range t.info.Fields {
		names[f.ID] = f.Name
	}

	out := make([]store.RecordView, 0, len(t.records))
	for _, r := range t.records {
		values := make(map[string]any, len(r.cells))
		for fid, v := range r.cells {
			values[names[fid]] = v
		}
		out = append(out, store.RecordView{ID: r.id, CreatedAt: r.createdAt, Values: values})
	}
	return out, nil
}

func (s *Store) infoLocked(id string) store.TableInfo {
	t := s.tables[id]
	info := t.info
	info.Active = id == s.active
	info.Fields = append([]core.FieldMeta(nil), t.info.Fields...)
	sort.SliceStable(info.Fields, func(i, j int) bool { return info.Fields[i].Position < info.Fields[j].Position })
	return info
}

// handle is a TableHandle bound to one table id.
type handle struct {
	s  *Store
	id string
}

func (h *handle) ID() string { return h.id }

func (h *handle) FieldMetaList(ctx context.Context) ([]core.FieldMeta, error) {
	h.s.mu.RLock()
	defer h.s.mu.RUnlock()

	if _, ok := h.s.tables[h.id]; !ok {
		return nil, store.TableNotFound("list fields", h.id)
	}
	return h.s.infoLocked(h.id).Fields, nil
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

func (h *handle) AddRecords(ctx context.Context, rows []core.Row) ([]core.RecordID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	t, ok := h.s.tables[h.id]
	if !ok {
		return nil, store.TableNotFound("add records", h.id)
	}
	if t.info.Locked {
		return nil, store.Wrap(store.CodeInvalidOperation, "add records", store.ErrLocked)
	}
	if err := store.CheckRows(t.info.Fields, rows); err != nil {
		return nil, err
	}

	now := h.s.now().UTC()
	ids := make([]core.RecordID, len(rows))
	added := make([]record, len(rows))
	for i, row := range rows {
		cells := make(map[string]any, len(row))
		for _, c := range row {
			cells[c.FieldID] = c.Value
		}
		ids[i] = core.RecordID(uuid.NewString())
		added[i] = record{id: ids[i], createdAt: now, cells: cells}
	}
	t.records = append(t.records, added...)
	return ids, nil
}
