package apperror

import (
	"errors"
	"fmt"
)

// Kind tags an error so callers can branch on it as normal control flow.
type Kind string

const (
	// KindNotFound: a referenced quiz, attempt or session does not resolve.
	KindNotFound Kind = "not_found"
	// KindNotActive: the quiz is not published or is outside its scheduled window.
	KindNotActive Kind = "not_active"
	// KindAttemptsExhausted: the per-student attempt cap is reached.
	KindAttemptsExhausted Kind = "attempts_exhausted"
	// KindInvalidState: a lifecycle transition from a disallowed source state.
	KindInvalidState Kind = "invalid_state"
	// KindValidationFailed: carries the full violation list, never just the first.
	KindValidationFailed Kind = "validation_failed"
	// KindLookupUnavailable: the query itself could not be answered. This is
	// distinct from a negative answer and must never be downgraded to one.
	KindLookupUnavailable Kind = "lookup_unavailable"
)

type Error struct {
	Kind       Kind
	Message    string
	Violations []string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap keeps the underlying cause available through errors.Unwrap.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validation builds a KindValidationFailed error carrying every violation.
func Validation(violations []string) *Error {
	return &Error{
		Kind:       KindValidationFailed,
		Message:    fmt.Sprintf("%d validation violation(s)", len(violations)),
		Violations: violations,
	}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ViolationsOf returns the violation list carried by err, if any.
func ViolationsOf(err error) []string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Violations
	}
	return nil
}
