// Package domainerrors provides a structured error taxonomy shared across the
// analyzer's components. Services construct and inspect errors through Code
// values rather than matching on message strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error into one of the taxonomy kinds the orchestrator
// and resolver reason about explicitly.
type Code string

const (
	CodeUnknownProfile     Code = "unknown_profile"
	CodeCircularDependency Code = "circular_dependency"
	CodeTransientNetwork   Code = "transient_network"
	CodeRateLimited        Code = "rate_limited"
	CodeMalformed          Code = "malformed"
	CodeBudgetExceeded     Code = "budget_exceeded"
	CodeStoreError         Code = "store_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeInternal           Code = "internal"
)

// Error is the concrete error type produced by New and Wrap. It carries a
// Code for programmatic dispatch and an optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New constructs a domain error with no underlying cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Code and message to an existing error, preserving it as the
// cause for errors.Is/errors.As and Unwrap.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// Is reports whether err is a *Error with the given Code, walking the
// Unwrap chain.
func Is(err error, code Code) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// HasCode is an alias of Is kept for call sites that read more naturally
// asking "does this error carry code X".
func HasCode(err error, code Code) bool {
	return Is(err, code)
}

// CodeOf extracts the Code from err, returning CodeInternal if err is not a
// *Error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
