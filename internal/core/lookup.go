package core

import (
	"log/slog"
	"strings"
)

// Named is anything that can be looked up by name.
type Named interface {
	ItemName() string
}

// FindByName returns the first item whose name equals name exactly
// (case-sensitive, no trimming). A nil list or a blank name is logged at
// warn level and reported as not found.
func FindByName[T Named](items []T, name string) (T, bool) {
	var zero T
	if items == nil {
		slog.Warn("find by name: list is nil", "name", name)
		return zero, false
	}
	if strings.TrimSpace(name) == "" {
		slog.Warn("find by name: name is blank", "name", name, "items", len(items))
		return zero, false
	}

	for _, item := range items {
		if item.ItemName() == name {
			return item, true
		}
	}
	return zero, false
}

// FindField looks up a field by its display name.
func FindField(fields []FieldMeta, name string) (FieldMeta, bool) {
	return FindByName(fields, name)
}
