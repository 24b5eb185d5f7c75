package page

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is on any *Error of the same kind.
var (
	ErrValidation = errors.New("validation error")
	ErrProvider   = errors.New("embedding provider error")
	ErrStorage    = errors.New("storage error")
	ErrNotFound   = errors.New("page not found")
)

// ErrEmptyURL is the cause of a validation failure for a blank URL.
var ErrEmptyURL = errors.New("url is required")

// ErrInvalidLimit is the cause of a validation failure for limit < 1.
var ErrInvalidLimit = errors.New("limit must be at least 1")

// Kind classifies an Error so callers can decide whether to retry.
type Kind int

// Kind values.
const (
	KindValidation Kind = iota + 1
	KindProvider
	KindStorage
	KindNotFound
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindProvider:
		return "provider"
	case KindStorage:
		return "storage"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindProvider:
		return ErrProvider
	case KindStorage:
		return ErrStorage
	case KindNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Error reports a failed page operation with the operation name, the key it
// acted on (URL, ID or query) and the failure kind.
type Error struct {
	op    string
	key   string
	kind  Kind
	cause error
}

// NewValidationError creates an error for malformed input.
func NewValidationError(op, key string, cause error) *Error {
	return &Error{op: op, key: key, kind: KindValidation, cause: cause}
}

// NewProviderError creates an error for an embedding provider failure.
func NewProviderError(op, key string, cause error) *Error {
	return &Error{op: op, key: key, kind: KindProvider, cause: cause}
}

// NewStorageError creates an error for a storage failure.
func NewStorageError(op, key string, cause error) *Error {
	return &Error{op: op, key: key, kind: KindStorage, cause: cause}
}

// NewNotFoundError creates an error for a lookup with no match.
func NewNotFoundError(op, key string) *Error {
	return &Error{op: op, key: key, kind: KindNotFound}
}

// Op returns the operation name.
func (e *Error) Op() string { return e.op }

// Key returns the URL, ID or query the operation acted on.
func (e *Error) Key() string { return e.key }

// Kind returns the failure kind.
func (e *Error) Kind() Kind { return e.kind }

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q: %s", e.op, e.key, e.kind.sentinel())
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.cause }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.kind.sentinel()
}

// KindOf returns the kind of the first *Error in err's chain, or zero.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.kind
	}
	return 0
}

// DimensionError reports an embedding whose length differs from the store's.
type DimensionError struct {
	Expected int
	Actual   int
}

// Error implements the error interface.
func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension %d does not match expected %d", e.Actual, e.Expected)
}

// IsDimensionMismatch reports whether err carries a *DimensionError.
func IsDimensionMismatch(err error) bool {
	var de *DimensionError
	return errors.As(err, &de)
}
