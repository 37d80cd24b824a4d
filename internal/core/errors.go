package core

import "fmt"

// ErrKind classifies engine failures for callers that map them onto HTTP
// statuses or exit codes.
type ErrKind string

const (
	ErrInvalidField        ErrKind = "invalid_field"
	ErrMisalignedBoundary  ErrKind = "misaligned_boundary"
	ErrNoncontiguous       ErrKind = "noncontiguous"
	ErrUnresolvableInherit ErrKind = "unresolvable_inherit"
	ErrEmptyDayAfterDelete ErrKind = "empty_day_after_delete"
	ErrConflict            ErrKind = "conflict"
	ErrControllerDown      ErrKind = "controller_unavailable"
	ErrControllerRejected  ErrKind = "controller_rejected"
	ErrStoreUnavailable    ErrKind = "store_unavailable"
	// ErrBug marks contract violations that should never reach production,
	// such as an Inherit mode surviving validation.
	ErrBug ErrKind = "bug"
)

// Error carries an ErrKind alongside a human-readable message. Validation
// messages are deterministic and specific; system errors name the subsystem.
type Error struct {
	Kind    ErrKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports whether the error is a user-correctable schedule
// problem rather than a system failure.
func (e *Error) Validation() bool {
	switch e.Kind {
	case ErrInvalidField, ErrMisalignedBoundary, ErrNoncontiguous,
		ErrUnresolvableInherit, ErrEmptyDayAfterDelete:
		return true
	}
	return false
}

func newError(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}
