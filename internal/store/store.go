// Package store holds what the table store backends share: the error type
// that carries the "invalid operation" kind, cell validation per field
// type, and the admin surface used to create and inspect tables.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/linkbase/internal/core"
)

// Code classifies a store error.
type Code string

const (
	CodeInvalidOperation Code = "invalid_operation"
	CodeNotFound         Code = "not_found"
	CodeConflict         Code = "conflict"
	CodeInternal         Code = "internal"
)

// ErrLocked is wrapped in an invalid operation error when writing to a
// locked table.
var ErrLocked = errors.New("table is locked")

// Error is returned by every backend.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	code := strings.ReplaceAll(string(e.Code), "_", " ")
	if e.Err == nil {
		return fmt.Sprintf("store: %s: %s", e.Op, code)
	}
	return fmt.Sprintf("store: %s: %s: %v", e.Op, code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error with a formatted cause.
func Errorf(code Code, op, format string, args ...any) error {
	return &Error{Code: code, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap builds an *Error around err. A nil err stays nil.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsInvalidOperation reports whether err is an invalid operation store error.
func IsInvalidOperation(err error) bool { return CodeOf(err) == CodeInvalidOperation }

// IsNotFound reports whether err is a not found store error.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }

// FieldSpec declares one column of a new table.
type FieldSpec struct {
	Name string         `json:"name"`
	Type core.FieldType `json:"type"`
}

// TableSpec declares a new table. The first field is the primary field.
type TableSpec struct {
	Name   string      `json:"name"`
	Fields []FieldSpec `json:"fields"`
	Active bool        `json:"active"`
}

// LinkTable returns the default two column layout for link records.
func LinkTable(name, titleField, urlField string) TableSpec {
	if titleField == "" {
		titleField = core.DefaultTitleField
	}
	if urlField == "" {
		urlField = core.DefaultURLField
	}
	return TableSpec{
		Name: name,
		Fields: []FieldSpec{
			{Name: titleField, Type: core.FieldText},
			{Name: urlField, Type: core.FieldURL},
		},
	}
}

// Validate checks the table layout before any backend touches it.
func (s TableSpec) Validate() error {
	var errs []string
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, "table name is required")
	}
	if len(s.Fields) == 0 {
		errs = append(errs, "at least one field is required")
	}
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		switch {
		case strings.TrimSpace(f.Name) == "":
			errs = append(errs, fmt.Sprintf("field %d: name is required", i))
		case seen[f.Name]:
			errs = append(errs, fmt.Sprintf("field %q: duplicate name", f.Name))
		}
		seen[f.Name] = true
		if !f.Type.Valid() {
			errs = append(errs, fmt.Sprintf("field %q: unknown type %q", f.Name, f.Type))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", core.ErrInvalidInput, strings.Join(errs, "; "))
	}
	return nil
}

// FieldMetas assigns ids and positions to the declared fields.
func (s TableSpec) FieldMetas(newID func() string) []core.FieldMeta {
	out := make([]core.FieldMeta, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = core.FieldMeta{
			ID:        newID(),
			Name:      f.Name,
			Type:      f.Type,
			IsPrimary: i == 0,
			Position:  i,
		}
	}
	return out
}

// TableInfo describes an existing table.
type TableInfo struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Active    bool             `json:"active"`
	Locked    bool             `json:"locked"`
	CreatedAt time.Time        `json:"created_at"`
	Fields    []core.FieldMeta `json:"fields"`
}

// RecordView is a stored row read back by field name.
type RecordView struct {
	ID        core.RecordID  `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Values    map[string]any `json:"values"`
}

// Backend is a TableStore with the admin operations every implementation offers.
type Backend interface {
	core.TableStore

	EnsureSchema(ctx context.Context) error
	CreateTable(ctx context.Context, spec TableSpec) (TableInfo, error)
	ListTables(ctx context.Context) ([]TableInfo, error)
	SetActive(ctx context.Context, id string) error
	SetLocked(ctx context.Context, id string, locked bool) error
	ListRecords(ctx context.Context, tableID string) ([]RecordView, error)
	Close() error
}
