// Package errors provides coded errors shared by the provisioning steps.
//
// Each error carries one of the ErrCode constants so callers can decide how
// to react (abort, report, map to an exit code) without matching on message
// text. Standard library helpers (errors.Is, errors.As) keep working on the
// wrapped cause.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies a failure.
type ErrorCode string

// Error codes as constants
const (
	ErrCodeIO              ErrorCode = "IO_ERROR"
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	ErrCodeExternalCommand ErrorCode = "EXTERNAL_COMMAND"
	ErrCodeUnavailable     ErrorCode = "UNAVAILABLE"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StructuredError is an error with a code, a human readable message and an
// optional underlying cause.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New returns a StructuredError without a cause.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{Code: code, Message: message}
}

// Wrap returns a StructuredError wrapping cause.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause}
}

// Code returns the code of the first StructuredError in err's chain, or an
// empty code if there is none.
func Code(err error) ErrorCode {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsCode reports whether err's chain contains a StructuredError with code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && Code(err) == code
}
