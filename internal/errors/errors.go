package errors

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error type mapped to process exit codes.
type Code int

const (
	CodeSuccess      Code = 0
	CodeInternal     Code = 1
	CodeUsage        Code = 2
	CodeConfig       Code = 3
	CodeAborted      Code = 4
	CodeAuth         Code = 10
	CodeUnavailable  Code = 12
	CodeEstimation   Code = 20
	CodeSubmission   Code = 21
	CodeReverted     Code = 22
	CodeInsufficient Code = 23
)

// Error is a typed error that carries a stable error code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	typed, ok := As(err)
	return ok && typed.Code == code
}

// Fatal reports whether err is a configuration or usage problem that must
// abort the run instead of being offered to the operator for retry.
func Fatal(err error) bool {
	typed, ok := As(err)
	if !ok {
		return false
	}
	switch typed.Code {
	case CodeConfig, CodeUsage, CodeAborted, CodeInternal:
		return true
	default:
		return false
	}
}

func ExitCode(err error) int {
	if err == nil {
		return int(CodeSuccess)
	}
	if typed, ok := As(err); ok {
		return int(typed.Code)
	}
	return int(CodeInternal)
}
