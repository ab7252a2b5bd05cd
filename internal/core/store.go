package core

import "context"

// FieldType is the kind of value a table column holds.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldURL      FieldType = "url"
	FieldNumber   FieldType = "number"
	FieldDateTime FieldType = "datetime"
	FieldCheckbox FieldType = "checkbox"
)

// Valid reports whether t is a known field type.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldURL, FieldNumber, FieldDateTime, FieldCheckbox:
		return true
	}
	return false
}

// FieldMeta describes one column of a table.
type FieldMeta struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      FieldType `json:"type"`
	IsPrimary bool      `json:"is_primary"`
	Position  int       `json:"position"`
}

// ItemName implements Named.
func (f FieldMeta) ItemName() string { return f.Name }

// RecordID identifies a written row.
type RecordID string

// Cell is a value bound to a field, ready to be written as part of a row.
type Cell struct {
	FieldID string `json:"field_id"`
	Value   any    `json:"value"`
}

// Row is the ordered set of cells for one record.
type Row []Cell

// TableStore is the host table backend.
//
// ActiveTable returns (nil, nil) when no table is active. IsInvalidOperation
// reports whether err is the store's "invalid operation" kind, which callers
// may treat as non-fatal.
type TableStore interface {
	ActiveTable(ctx context.Context) (TableHandle, error)
	TableByID(ctx context.Context, id string) (TableHandle, error)
	IsInvalidOperation(err error) bool
}

// TableHandle is a resolved table.
type TableHandle interface {
	ID() string
	FieldMetaList(ctx context.Context) ([]FieldMeta, error)
	Field(ctx context.Context, name string) (FieldHandle, error)

	// AddRecords writes all rows in one atomic call and returns one id per
	// row, in input order.
	AddRecords(ctx context.Context, rows []Row) ([]RecordID, error)
}

// FieldHandle is a resolved column that can build cells for itself.
type FieldHandle interface {
	Meta() FieldMeta
	CreateCell(ctx context.Context, value any) (Cell, error)
}
