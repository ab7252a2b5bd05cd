package store

// cells.go validates and normalizes cell values per field type.
//
// Values arrive from users and spreadsheets, so the rules are lenient about
// presentation (currency symbols, thousands separators, yes/no booleans)
// and strict about meaning: a value the field cannot hold is an invalid
// operation, the same kind a host table reports for a rejected write.

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/linkbase/internal/core"
)

// numericRegex matches integers, decimals and scientific notation after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// datetimes are parsed in UTC when they carry no zone.
var cellTimes = core.Normalizer{Location: time.UTC}

// NormalizeValue returns the canonical value a field of type t stores for v:
// string for text and url, float64 for number, RFC 3339 string for datetime
// and bool for checkbox.
func NormalizeValue(t core.FieldType, v any) (any, error) {
	switch t {
	case core.FieldText:
		s := strings.TrimSpace(scalarString(v))
		if s == "" {
			return nil, Errorf(CodeInvalidOperation, "create cell", "empty text value")
		}
		return s, nil

	case core.FieldURL:
		s := strings.TrimSpace(scalarString(v))
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, Errorf(CodeInvalidOperation, "create cell", "invalid url %q", s)
		}
		return s, nil

	case core.FieldNumber:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, nil
			}
		case string:
			if f, ok := parseNumber(n); ok {
				return f, nil
			}
		}
		return nil, Errorf(CodeInvalidOperation, "create cell", "invalid number %v", v)

	case core.FieldDateTime:
		ts, ok := cellTimes.Parse(v)
		if !ok {
			return nil, Errorf(CodeInvalidOperation, "create cell", "invalid date %v", v)
		}
		return ts.UTC().Format(time.RFC3339Nano), nil

	case core.FieldCheckbox:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		if b, ok := parseBool(scalarString(v)); ok {
			return b, nil
		}
		return nil, Errorf(CodeInvalidOperation, "create cell", "invalid checkbox value %v", v)
	}
	return nil, Errorf(CodeInvalidOperation, "create cell", "unknown field type %q", t)
}

// EncodeValue renders a normalized value for a TEXT column.
func EncodeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}

// DecodeValue reverses EncodeValue for a field of type t.
func DecodeValue(t core.FieldType, s string) any {
	switch t {
	case core.FieldNumber:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case core.FieldCheckbox:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return s
}

// parseNumber accepts currency symbols, thousands separators and the
// accounting form "(123.45)" for negatives.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	case int, int64, float64, bool:
		return fmt.Sprint(x)
	}
	return ""
}

// Field is a FieldHandle whose cells are validated locally.
// Backends share it because building a cell needs no round trip.
type Field struct {
	meta core.FieldMeta
}

// NewField returns a handle for meta.
func NewField(meta core.FieldMeta) *Field {
	return &Field{meta: meta}
}

// Meta implements core.FieldHandle.
func (f *Field) Meta() core.FieldMeta { return f.meta }

// CreateCell implements core.FieldHandle.
func (f *Field) CreateCell(ctx context.Context, value any) (core.Cell, error) {
	if err := ctx.Err(); err != nil {
		return core.Cell{}, err
	}
	v, err := NormalizeValue(f.meta.Type, value)
	if err != nil {
		return core.Cell{}, err
	}
	return core.Cell{FieldID: f.meta.ID, Value: v}, nil
}

// CheckRows verifies every cell targets one of fields and that no row names
// a field twice.
func CheckRows(fields []core.FieldMeta, rows []core.Row) error {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.ID] = true
	}
	for i, row := range rows {
		seen := make(map[string]bool, len(row))
		for _, c := range row {
			if !known[c.FieldID] {
				return Errorf(CodeInvalidOperation, "add records", "row %d: unknown field %q", i, c.FieldID)
			}
			if seen[c.FieldID] {
				return Errorf(CodeInvalidOperation, "add records", "row %d: field %q set twice", i, c.FieldID)
			}
			seen[c.FieldID] = true
		}
	}
	return nil
}

// FieldByName finds a field or returns a not found store error.
func FieldByName(tableID string, fields []core.FieldMeta, name string) (core.FieldMeta, error) {
	for _, f := range fields {
		if f.Name == name {
			return f, nil
		}
	}
	return core.FieldMeta{}, Errorf(CodeNotFound, "get field", "field not found: %q in table %s", name, tableID)
}

// TableNotFound is the error every backend returns for an unknown table id.
func TableNotFound(op, id string) error {
	return Errorf(CodeNotFound, op, "table not found: %s", id)
}
