// Package errs holds the error taxonomy shared by the lending core.
//
// Every expected failure wraps one of the sentinel kinds so callers can branch
// with errors.Is. Anything not wrapping a kind is an internal fault.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrState      = errors.New("state error")
	ErrArithmetic = errors.New("arithmetic error")
	ErrInternal   = errors.New("internal error")
)

func Validation(format string, args ...any) error { return wrap(ErrValidation, format, args...) }
func NotFound(format string, args ...any) error   { return wrap(ErrNotFound, format, args...) }
func State(format string, args ...any) error      { return wrap(ErrState, format, args...) }
func Arithmetic(format string, args ...any) error { return wrap(ErrArithmetic, format, args...) }

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Kind reports which sentinel err belongs to. Unclassified errors are ErrInternal.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrNotFound, ErrState, ErrArithmetic} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ErrInternal
}

// IsExpected is true for the recoverable outcomes reported back to callers.
func IsExpected(err error) bool {
	return err != nil && Kind(err) != ErrInternal
}

// Label is a short lowercase name for a kind, used in metrics and logs.
func Label(err error) string {
	switch Kind(err) {
	case ErrValidation:
		return "validation"
	case ErrNotFound:
		return "not_found"
	case ErrState:
		return "state"
	case ErrArithmetic:
		return "arithmetic"
	default:
		return "internal"
	}
}
