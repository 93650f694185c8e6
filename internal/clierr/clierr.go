// Package clierr provides LogLens's uniform error taxonomy: a single Kind
// enum shared by the CLI, the dashboard HTTP API, and the MCP tool
// surface, each mapping it to their own transport's error shape (exit
// code, HTTP status, JSON-RPC error code).
package clierr

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Kind is one of spec.md §7's error kinds.
type Kind string

const (
	KindInvalidInput     Kind = "invalid_input"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindAuthentication   Kind = "authentication"
	KindRateLimited      Kind = "rate_limited"
	KindTimeout          Kind = "timeout"
	KindCircuitOpen      Kind = "circuit_open"
	KindTransport        Kind = "transport"
	KindInvalidResponse  Kind = "invalid_response"
	KindAnalysisFailed   Kind = "analysis_failed"
	KindDecodeError      Kind = "decode_error"
	KindStorage          Kind = "storage"
	KindInternal         Kind = "internal"
)

// exitCodes maps each Kind to a CLI exit code. spec.md §6 only mandates
// 0/1 (success/failure) for the CLI surface; LogLens additionally exposes
// fine-grained codes for scripting, following the convention observed in
// kraklabs-cie's error package, while still exiting 1 for any kind a
// caller doesn't special-case (os.Exit(1) remains correct for all of
// these).
var exitCodes = map[Kind]int{
	KindInvalidInput:    4,
	KindNotFound:        6,
	KindConflict:        1,
	KindAuthentication:  1,
	KindRateLimited:     1,
	KindTimeout:         1,
	KindCircuitOpen:     1,
	KindTransport:       3,
	KindInvalidResponse: 1,
	KindAnalysisFailed:  1,
	KindDecodeError:     1,
	KindStorage:         2,
	KindInternal:        10,
}

// httpStatus maps each Kind to the HTTP status spec.md §7 prescribes.
var httpStatus = map[Kind]int{
	KindInvalidInput:    400,
	KindNotFound:        404,
	KindConflict:        409,
	KindAuthentication:  401,
	KindRateLimited:     429,
	KindTimeout:         504,
	KindCircuitOpen:     503,
	KindTransport:       502,
	KindInvalidResponse: 502,
	KindAnalysisFailed:  500,
	KindDecodeError:     400,
	KindStorage:         500,
	KindInternal:        500,
}

// Error is a structured error carrying a Kind, a user-facing message, and
// an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   string
	Fix     string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error of the given Kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given Kind wrapping err.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithFix attaches an actionable suggestion and returns e for chaining.
func (e *Error) WithFix(fix string) *Error {
	e.Fix = fix
	return e
}

// WithCause attaches diagnostic context and returns e for chaining.
func (e *Error) WithCause(cause string) *Error {
	e.Cause = cause
	return e
}

// ExitCode returns the CLI exit code for this error's Kind.
func (e *Error) ExitCode() int {
	if code, ok := exitCodes[e.Kind]; ok {
		return code
	}
	return 1
}

// HTTPStatus returns the HTTP status for this error's Kind.
func (e *Error) HTTPStatus() int {
	if code, ok := httpStatus[e.Kind]; ok {
		return code
	}
	return 500
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders the error as a single concise, optionally colored, line
// for the CLI (spec.md §7: "the CLI prints a single concise error line").
func Format(err error, noColor bool) string {
	original := color.NoColor
	defer func() { color.NoColor = original }()
	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	ce, ok := err.(*Error)
	if !ok {
		return fmt.Sprintf("%s %v\n", colorError.Sprint("Error:"), err)
	}

	var b strings.Builder
	b.WriteString(colorError.Sprint("Error: "))
	b.WriteString(ce.Message)
	if ce.Cause != "" {
		b.WriteString(" (")
		b.WriteString(colorCause.Sprint(ce.Cause))
		b.WriteString(")")
	}
	if ce.Fix != "" {
		b.WriteString(" ")
		b.WriteString(colorFix.Sprint("Fix: "))
		b.WriteString(ce.Fix)
	}
	b.WriteString("\n")
	return b.String()
}

// Envelope is the JSON error envelope spec.md §7 defines for the HTTP API
// and the tool-protocol surface.
type Envelope struct {
	Error     Kind   `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	Timestamp string `json:"timestamp"`
	TraceID   string `json:"trace_id,omitempty"`
}

// ToEnvelope builds the JSON error envelope for err, stamping the given
// RFC3339 timestamp and optional trace id.
func ToEnvelope(err error, timestamp, traceID string) Envelope {
	ce, ok := err.(*Error)
	if !ok {
		return Envelope{Error: KindInternal, Message: "internal error", Code: 500, Timestamp: timestamp, TraceID: traceID}
	}
	return Envelope{
		Error:     ce.Kind,
		Message:   ce.Error(),
		Code:      ce.HTTPStatus(),
		Timestamp: timestamp,
		TraceID:   traceID,
	}
}

// Fatal prints err via Format and exits with its mapped exit code. Never
// returns for a non-nil err.
func Fatal(err error) {
	if err == nil {
		return
	}
	fmt.Fprint(os.Stderr, Format(err, false))
	if ce, ok := err.(*Error); ok {
		os.Exit(ce.ExitCode())
	}
	os.Exit(10)
}

// MarshalJSON lets an *Error serialize directly as its envelope body when
// embedded in ad hoc JSON responses outside the HTTP layer's envelope
// construction (e.g. MCP tool error payloads).
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"error":   e.Kind,
		"message": e.Error(),
	})
}
