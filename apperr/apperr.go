// Package apperr defines the failure taxonomy shared across the CLI:
// each failure maps to one category with a fixed process exit code and
// a JSON envelope rendered on stderr.
package apperr

import (
	"fmt"
	"time"
)

// Category identifies one failure class in the error envelope.
type Category string

const (
	CategoryUsage             Category = "usage_error"
	CategoryAuth              Category = "auth_error"
	CategoryRateLimit         Category = "rate_limit"
	CategoryRetryableUpstream Category = "retryable_upstream"
	CategoryAPI               Category = "api_error"
	CategoryInternal          Category = "internal_error"
)

// Process exit codes, one per terminal outcome.
const (
	ExitOK        = 0
	ExitInternal  = 1
	ExitUsage     = 2
	ExitAuth      = 3
	ExitRateLimit = 4
	ExitUpstream  = 5
	ExitAPI       = 6
)

// Error is the one failure type that crosses package boundaries.
// Status and RetryAfter are nil when the upstream never answered.
type Error struct {
	Category   Category
	Status     *int
	Retryable  bool
	RetryAfter *time.Duration
	Message    string
}

func (e *Error) Error() string { return e.Message }

// ExitCode returns the fixed process exit code for the error's category.
func (e *Error) ExitCode() int {
	switch e.Category {
	case CategoryUsage:
		return ExitUsage
	case CategoryAuth:
		return ExitAuth
	case CategoryRateLimit:
		return ExitRateLimit
	case CategoryRetryableUpstream:
		return ExitUpstream
	case CategoryAPI:
		return ExitAPI
	default:
		return ExitInternal
	}
}

// Envelope is the wire form of a failure. Every field is always
// present; status and retry_after_ms serialize as null when unknown.
type Envelope struct {
	Error EnvelopeError `json:"error"`
}

type EnvelopeError struct {
	Category     Category `json:"category"`
	ExitCode     int      `json:"exit_code"`
	Status       *int     `json:"status"`
	Retryable    bool     `json:"retryable"`
	RetryAfterMS *int64   `json:"retry_after_ms"`
	Message      string   `json:"message"`
}

// Envelope builds the JSON contract for the error.
func (e *Error) Envelope() Envelope {
	var retryAfterMS *int64
	if e.RetryAfter != nil {
		ms := e.RetryAfter.Milliseconds()
		retryAfterMS = &ms
	}
	return Envelope{Error: EnvelopeError{
		Category:     e.Category,
		ExitCode:     e.ExitCode(),
		Status:       e.Status,
		Retryable:    e.Retryable,
		RetryAfterMS: retryAfterMS,
		Message:      e.Message,
	}}
}

// Usagef builds a usage_error for invalid flags, config, or input.
func Usagef(format string, args ...any) *Error {
	return &Error{Category: CategoryUsage, Message: fmt.Sprintf(format, args...)}
}

// Internalf builds an internal_error for local faults.
func Internalf(format string, args ...any) *Error {
	return &Error{Category: CategoryInternal, Message: fmt.Sprintf(format, args...)}
}
