package extract

import (
	"errors"
	"fmt"
)

var (
	errDecode = errors.New("failed to decode address")
	errWrite  = errors.New("failed to write derived columns")
)

// Error wraps a sentinel error with the failing row and the underlying cause.
type Error struct {
	err     error
	cause   error
	context string
}

func (e *Error) Error() string {
	msg := e.err.Error()
	if e.context != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.context)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.err}
	}
	return []error{e.err, e.cause}
}

func newError(err, cause error, format string, args ...interface{}) *Error {
	return &Error{
		err:     err,
		cause:   cause,
		context: fmt.Sprintf(format, args...),
	}
}

// IsDecodeError reports whether err came from an unreadable info:address value.
func IsDecodeError(err error) bool {
	return errors.Is(err, errDecode)
}

// IsWriteError reports whether err came from writing the derived columns.
func IsWriteError(err error) bool {
	return errors.Is(err, errWrite)
}
