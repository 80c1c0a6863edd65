// Package apperr classifies engine errors so callers can map them to a
// transport without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the error category. It decides whether an operation had partial
// effect (never, for caller-fault kinds) and how a transport should report it.
type Kind int

const (
	// Validation: malformed input, caller's fault, no partial effect.
	Validation Kind = iota + 1
	// Unauthorized: the actor lacks the required role.
	Unauthorized
	// NotFound: the referenced entity does not exist.
	NotFound
	// Conflict: the operation collides with existing state (overlapping
	// reservation, duplicate checklist, fraction over-commitment).
	Conflict
	// InsufficientBalance: the owner lacks the day balance or fractions
	// the operation needs.
	InsufficientBalance
	// InvariantViolation: completing the operation would break a data
	// invariant; the whole operation is aborted.
	InvariantViolation
	// Internal: storage or infrastructure failure.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case InsufficientBalance:
		return "insufficient_balance"
	case InvariantViolation:
		return "invariant_violation"
	default:
		return "internal"
	}
}

// Error is a classified engine error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of err, or Internal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
