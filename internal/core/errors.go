package core

// errors.go defines the pipeline's error taxonomy and maps technical errors
// to support codes.
//
// Every failure is wrapped in a StageError naming where it happened. The
// orchestrator stops at the first one, so the stage in the exit message is
// always the stage that failed.
//
// # Error Codes Reference
//
//	READ001 - Source file missing        Patterns: "no such file", "cannot find the file"
//	READ002 - Source not a workbook      Patterns: "zip: not a valid zip file", "unsupported workbook"
//	READ003 - Sheet not found            Patterns: "sheet", "does not exist"
//	READ004 - Bad header row             Patterns: "duplicate column", "empty name", "no header row"
//	VAL001  - Missing column             Patterns: ErrMissingColumn
//	VAL002  - Non-numeric value          Patterns: ErrNotNumeric
//	VAL003  - Number out of range        Patterns: ErrNumericRange
//	FILE001 - Intermediate not writable  Patterns: "permission denied", "read-only file system"
//	FILE002 - Intermediate malformed     Patterns: "wrong number of fields", "bare \" in non-quoted-field"
//	DB001   - Connection refused         Patterns: "connection refused"
//	DB002   - Authentication failed      Patterns: "password authentication failed", "access denied"
//	DB003   - Database missing           Patterns: "database" + "does not exist", "unknown database"
//	DB004   - Schema missing             Patterns: "schema" + "does not exist"
//	DB005   - Type mismatch during copy  Patterns: "invalid input syntax", "incorrect integer value"
//	DB006   - Timeout                    Patterns: "timeout", "deadline exceeded"
//	DB007   - Local infile disabled      Patterns: "local infile", "loading local data is disabled"
//	DB008   - Permission denied on table Patterns: "permission denied for"
//	ERR000  - Unknown
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")

	// ErrNotNumeric is returned when an arithmetic operand is not a number.
	ErrNotNumeric = errors.New("invalid number")

	// ErrNumericRange is returned when a product's exponent overflows.
	ErrNumericRange = errors.New("number out of range")
)

// Stage identifies a pipeline step for error reporting.
type Stage string

const (
	StageConfig    Stage = "config"
	StageRead      Stage = "read"
	StageTransform Stage = "transform"
	StageWrite     Stage = "write"
	StageLoad      Stage = "load"
)

// StageError marks the pipeline stage an error came from.
type StageError struct {
	Stage  Stage
	Detail string // e.g. the file or table involved
	Err    error
}

func (e *StageError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %v", e.Stage, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Fail wraps err in a StageError. It returns nil for a nil err.
func Fail(stage Stage, detail string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Detail: detail, Err: err}
}

// StageOf returns the stage recorded in err's chain, or "".
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern matches when every entry of all appears in the error text.
type errorPattern struct {
	all []string
	msg UserMessage
}

var errorPatterns = []errorPattern{
	// Source extracts
	{[]string{"no such file"}, UserMessage{"Source file not found", "Check SOURCE_REGION_A and SOURCE_REGION_B", "READ001"}},
	{[]string{"cannot find the file"}, UserMessage{"Source file not found", "Check SOURCE_REGION_A and SOURCE_REGION_B", "READ001"}},
	{[]string{"not a valid zip file"}, UserMessage{"Source file is not an Excel workbook", "Save the extract as .xlsx", "READ002"}},
	{[]string{"unsupported workbook"}, UserMessage{"Source file type is not supported", "Use .xlsx, .xlsm or .csv", "READ002"}},
	{[]string{"sheet", "does not exist"}, UserMessage{"Worksheet not found", "Check SOURCE_SHEET", "READ003"}},
	{[]string{"duplicate column"}, UserMessage{"Header row has a repeated column", "Rename the duplicate header", "READ004"}},
	{[]string{"empty name"}, UserMessage{"Header row has a blank column", "Name every column in the header row", "READ004"}},
	{[]string{"no header row"}, UserMessage{"Source file is empty", "Export the extract with its header row", "READ004"}},

	// Transform
	{[]string{ErrMissingColumn.Error()}, UserMessage{"A required column is missing", "Extracts need OrderId, QuantityOrdered and ItemPrice", "VAL001"}},
	{[]string{ErrNotNumeric.Error()}, UserMessage{"A quantity or price is not a number", "Fix the cell named in the error", "VAL002"}},
	{[]string{ErrNumericRange.Error()}, UserMessage{"A quantity or price is too large or too small", "Fix the cell named in the error", "VAL003"}},

	// Database (checked before generic file permissions)
	{[]string{"permission denied for"}, UserMessage{"Database user may not modify the table", "Grant the load user rights on the target schema", "DB008"}},
	{[]string{"connection refused"}, UserMessage{"Unable to connect to database", "Check DATABASE_URL and that the server is up", "DB001"}},
	{[]string{"password authentication failed"}, UserMessage{"Database login failed", "Check the credentials in DATABASE_URL", "DB002"}},
	{[]string{"access denied"}, UserMessage{"Database login failed", "Check the credentials in DATABASE_URL", "DB002"}},
	{[]string{"unknown database"}, UserMessage{"Database does not exist", "Check the database name in DATABASE_URL", "DB003"}},
	{[]string{"database", "does not exist"}, UserMessage{"Database does not exist", "Check the database name in DATABASE_URL", "DB003"}},
	{[]string{"schema", "does not exist"}, UserMessage{"Target schema does not exist", "Create the schema or fix DB_SCHEMA", "DB004"}},
	{[]string{"invalid input syntax"}, UserMessage{"A value did not match its column type", "Inspect the intermediate file for mixed values", "DB005"}},
	{[]string{"incorrect integer value"}, UserMessage{"A value did not match its column type", "Inspect the intermediate file for mixed values", "DB005"}},
	{[]string{"local infile"}, UserMessage{"Server refuses LOAD DATA LOCAL", "Enable local_infile on the MySQL server", "DB007"}},
	{[]string{"loading local data is disabled"}, UserMessage{"Server refuses LOAD DATA LOCAL", "Enable local_infile on the MySQL server", "DB007"}},
	{[]string{"deadline exceeded"}, UserMessage{"Operation timed out", "Raise LOAD_TIMEOUT or check the server", "DB006"}},
	{[]string{"timeout"}, UserMessage{"Operation timed out", "Raise LOAD_TIMEOUT or check the server", "DB006"}},

	// Intermediate file
	{[]string{"permission denied"}, UserMessage{"Intermediate file is not writable", "Check INTERMEDIATE_PATH", "FILE001"}},
	{[]string{"read-only file system"}, UserMessage{"Intermediate file is not writable", "Check INTERMEDIATE_PATH", "FILE001"}},
	{[]string{"wrong number of fields"}, UserMessage{"Intermediate file is malformed", "Re-run the pipeline to regenerate it", "FILE002"}},
	{[]string{`bare " in non-quoted-field`}, UserMessage{"Intermediate file is malformed", "Re-run the pipeline to regenerate it", "FILE002"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the log for the technical error",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern, or the ERR000 fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if matchesAll(errStr, ep.all) {
			return ep.msg
		}
	}

	return defaultMessage
}

func matchesAll(s string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(s, strings.ToLower(p)) {
			return false
		}
	}
	return true
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
