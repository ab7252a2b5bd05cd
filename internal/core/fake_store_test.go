package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// errFakeInvalidOp is the fake store's "invalid operation" kind.
var errFakeInvalidOp = errors.New("fake: invalid operation")

// fakeStore is a scripted TableStore for error injection and call counting.
type fakeStore struct {
	tables map[string]*fakeTable
	active string

	activeErr error
	lookupErr error

	calls atomic.Int64
}

func newFakeStore() *fakeStore {
	t := &fakeTable{
		id: "tbl1",
		fields: []FieldMeta{
			{ID: "f-title", Name: DefaultTitleField, Type: FieldText, IsPrimary: true},
			{ID: "f-url", Name: DefaultURLField, Type: FieldURL, Position: 1},
		},
	}
	return &fakeStore{tables: map[string]*fakeTable{"tbl1": t}, active: "tbl1"}
}

func (s *fakeStore) table() *fakeTable { return s.tables["tbl1"] }

func (s *fakeStore) ActiveTable(ctx context.Context) (TableHandle, error) {
	s.calls.Add(1)
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	t, ok := s.tables[s.active]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (s *fakeStore) TableByID(ctx context.Context, id string) (TableHandle, error) {
	s.calls.Add(1)
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	t, ok := s.tables[id]
	if !ok {
		return nil, fmt.Errorf("fake: table not found: %s", id)
	}
	return t, nil
}

func (s *fakeStore) IsInvalidOperation(err error) bool {
	return errors.Is(err, errFakeInvalidOp)
}

type fakeTable struct {
	id     string
	fields []FieldMeta

	fieldsNil bool
	cellErr   map[string]error // keyed by cell value
	addErr    error

	mu      sync.Mutex
	written [][]Row
}

func (t *fakeTable) ID() string { return t.id }

func (t *fakeTable) FieldMetaList(ctx context.Context) ([]FieldMeta, error) {
	if t.fieldsNil {
		return nil, nil
	}
	return append([]FieldMeta{}, t.fields...), nil
}

func (t *fakeTable) Field(ctx context.Context, name string) (FieldHandle, error) {
	for _, f := range t.fields {
		if f.Name == name {
			return &fakeField{meta: f, table: t}, nil
		}
	}
	return nil, fmt.Errorf("fake: field not found: %s", name)
}

func (t *fakeTable) AddRecords(ctx context.Context, rows []Row) ([]RecordID, error) {
	if t.addErr != nil {
		return nil, t.addErr
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written = append(t.written, rows)
	ids := make([]RecordID, len(rows))
	for i := range rows {
		ids[i] = RecordID(fmt.Sprintf("rec-%d-%d", len(t.written), i))
	}
	return ids, nil
}

func (t *fakeTable) batches() [][]Row {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written
}

type fakeField struct {
	meta  FieldMeta
	table *fakeTable
}

func (f *fakeField) Meta() FieldMeta { return f.meta }

func (f *fakeField) CreateCell(ctx context.Context, value any) (Cell, error) {
	if s, ok := value.(string); ok {
		if err := f.table.cellErr[s]; err != nil {
			return Cell{}, err
		}
	}
	return Cell{FieldID: f.meta.ID, Value: value}, nil
}
