package core

import (
	"context"
	"fmt"
)

// FetchHeaders returns the field metadata of the store's active table.
//
// It fails with ErrNoActiveTable when nothing is active and with
// ErrMalformedResponse when the table answers without a field list.
func FetchHeaders(ctx context.Context, ts TableStore) ([]FieldMeta, error) {
	if ts == nil {
		return nil, fmt.Errorf("%w: table store is nil", ErrInvalidInput)
	}

	table, err := ts.ActiveTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active table: %w", err)
	}
	if table == nil {
		return nil, ErrNoActiveTable
	}

	fields, err := table.FieldMetaList(ctx)
	if err != nil {
		return nil, fmt.Errorf("list fields of table %s: %w", table.ID(), err)
	}
	if fields == nil {
		return nil, fmt.Errorf("table %s: %w", table.ID(), ErrMalformedResponse)
	}
	return fields, nil
}
