package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")

	// ErrNoText marks a document without an extractable text layer.
	ErrNoText = errors.New("no extractable text; OCR required")
	// ErrElectionNotFound is returned when no election matches a date.
	ErrElectionNotFound = errors.New("election not found")
)

// Error codes carried by AppError.
const (
	CodeConfig     = "CONFIG_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeDatabase   = "DATABASE_ERROR"
	CodeNotFound   = "NOT_FOUND"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func NotFoundErrorf(format string, args ...any) error {
	return NewAppError(CodeNotFound, fmt.Sprintf(format, args...), ErrNotFound)
}

func DatabaseError(message string, cause error) error {
	return NewAppError(CodeDatabase, message, errors.Join(ErrDatabase, cause))
}

// ValidationError wraps cause so that errors.Is(err, ErrValidation) holds.
func ValidationError(message string, cause error) error {
	return NewAppError(CodeValidation, message, errors.Join(ErrValidation, cause))
}

// ExitCode maps an error to a process exit status for the command line tools.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return 2
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrElectionNotFound):
		return 3
	case errors.Is(err, ErrDatabase):
		return 4
	default:
		return 1
	}
}
