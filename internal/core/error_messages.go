package core

// error_messages.go maps technical errors to user-facing messages with a
// stable code support staff can look up.
//
// Codes by category:
//
//	VAL001  invalid input              (ErrInvalidInput)
//	VAL002  invalid url                "invalid url"
//	VAL003  invalid number             "invalid number"
//	VAL004  missing column             "missing required column"
//	VAL005  invalid date               "invalid date"
//	VAL006  invalid checkbox value     "invalid checkbox"
//	VAL007  invalid time pattern       (ErrFormat)
//
//	TBL001  no active table            (ErrNoActiveTable)
//	TBL002  malformed field list       (ErrMalformedResponse)
//	TBL003  field not found            (ErrFieldNotFound), "field not found"
//	TBL004  table not found            "table not found"
//	TBL005  table locked               "table is locked"
//
//	CAT001  catalog node not found     (ErrNodeNotFound)
//	CAT002  catalog unavailable        "catalog"
//
//	ING001  too many ingests           (ErrTooManyIngests)
//	ING002  rejected by store          "invalid operation"
//
//	DB001   duplicate value            "duplicate key", "unique constraint", "violates unique"
//	DB002   connection refused         "connection refused"
//	DB003   connection reset           "connection reset"
//	DB004   timeout                    "timeout"
//	DB005   database locked            "database is locked", "deadlock"
//
//	FILE001 file too large             "file too large"
//	FILE002 invalid csv                "invalid csv"
//	FILE003 no file                    "no file provided"
//	FILE004 empty file                 "empty file"
//
//	REQ001  request cancelled          "context canceled"
//	REQ002  request timed out          "context deadline exceeded"
//	RATE001 rate limited               "rate limit"
//
//	ERR000  anything else; check the logs for the technical error.
//
// Sentinel errors are matched first with errors.Is. Message patterns are
// matched case-insensitively in table order, so specific patterns come
// before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrInvalidInput, UserMessage{"The request is missing required values", "Provide a table id and at least one record", "VAL001"}},
	{ErrFormat, UserMessage{"The time pattern cannot be rendered", "Close every '[' in the pattern with ']'", "VAL007"}},
	{ErrNoActiveTable, UserMessage{"No table is currently active", "Select or activate a table first", "TBL001"}},
	{ErrMalformedResponse, UserMessage{"The table returned an unreadable field list", "Please try again or contact support", "TBL002"}},
	{ErrFieldNotFound, UserMessage{"Field not found", "Check the field name against the table headers", "TBL003"}},
	{ErrNodeNotFound, UserMessage{"Catalog entry not found", "Reload the catalog and pick the entry again", "CAT001"}},
	{ErrTooManyIngests, UserMessage{"The system is busy writing other batches", "Please wait a moment and try again", "ING001"}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Validation
	{"invalid url", UserMessage{"A link is not a valid web address", "Use absolute http:// or https:// links", "VAL002"}},
	{"invalid number", UserMessage{"Invalid number format detected", "Remove currency symbols and use standard decimal format", "VAL003"}},
	{"missing required column", UserMessage{"Required column is missing from the file", "Add a title column and a url column to the header row", "VAL004"}},
	{"invalid date", UserMessage{"Invalid date format detected", "Use YYYY-MM-DD or an ISO 8601 timestamp", "VAL005"}},
	{"invalid checkbox", UserMessage{"Invalid checkbox value", "Use true/false, yes/no or 1/0", "VAL006"}},

	// Tables
	{"table is locked", UserMessage{"The table is locked for editing", "Unlock the table and try again", "TBL005"}},
	{"field not found", UserMessage{"Field not found", "Check the field name against the table headers", "TBL003"}},
	{"table not found", UserMessage{"Table not found", "Verify the table id is correct", "TBL004"}},

	// Store
	{"invalid operation", UserMessage{"The table rejected the write", "Check the values and that the table accepts edits", "ING002"}},

	// Database
	{"duplicate key", UserMessage{"A record with this id already exists", "Please try again", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for duplicate entries", "DB001"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Check for duplicate entries", "DB001"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB002"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB003"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller batch or check your connection", "REQ002"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller batch or try again later", "DB004"}},
	{"database is locked", UserMessage{"Database is busy", "Please try again", "DB005"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB005"}},

	// Files
	{"file too large", UserMessage{"File exceeds the maximum size limit", "Split the file into smaller chunks", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Ensure file is comma-separated with consistent columns", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to import", "FILE003"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Please upload a CSV file with data rows", "FILE004"}},

	// Requests
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "REQ001"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},

	// Catalog
	{"catalog", UserMessage{"The catalog could not be loaded", "Check the catalog source and try again", "CAT002"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known sentinels win over message patterns; unknown errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
// Error returns the user message; Unwrap returns the technical error.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
