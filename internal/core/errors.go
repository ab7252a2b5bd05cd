package core

import "errors"

var (
	// ErrInvalidInput is returned for malformed arguments, before any store call.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoActiveTable is returned when the store has no active table.
	ErrNoActiveTable = errors.New("no active table")

	// ErrMalformedResponse is returned when the store answers a field list
	// request with something that is not a list.
	ErrMalformedResponse = errors.New("malformed field list response")

	// ErrFormat is returned when a parsed time cannot be rendered with the
	// requested pattern.
	ErrFormat = errors.New("invalid time format pattern")

	// ErrTooManyIngests is returned when all ingest slots stay occupied for
	// longer than the limiter's wait time.
	ErrTooManyIngests = errors.New("too many concurrent ingests, please try again later")

	// ErrNodeNotFound is returned when a catalog id is not present in the tree.
	ErrNodeNotFound = errors.New("catalog node not found")

	// ErrInvalidImport marks an upload that cannot be read as a links CSV.
	// The wrapped cause carries the detail shown to users.
	ErrInvalidImport = errors.New("invalid import file")

	// ErrFieldNotFound is returned when a field name does not match any header.
	ErrFieldNotFound = errors.New("field not found")
)
