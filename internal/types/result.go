package types

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a failed business operation.
type ErrorKind string

const (
	KindValidation       ErrorKind = "VALIDATION_ERROR"
	KindInvalidID        ErrorKind = "INVALID_ID"
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindEmailConflict    ErrorKind = "EMAIL_CONFLICT"
	KindNoFieldsProvided ErrorKind = "NO_FIELDS_PROVIDED"
	KindInternal         ErrorKind = "INTERNAL_ERROR"
)

// Violation is a single broken input rule.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the failure variant of a Result.
type Error struct {
	Kind       ErrorKind
	Message    string
	Violations []Violation
}

func (e *Error) Error() string {
	if len(e.Violations) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, ", "))
}

// NewError builds an Error of the given kind.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Result is the outcome of a business operation: either Success with
// Data and Message, or a failure carrying Err. Build it with Ok or Fail.
type Result[T any] struct {
	Success bool
	Data    T
	Message string
	Err     *Error
}

// Ok returns a success Result.
func Ok[T any](data T, message string) Result[T] {
	return Result[T]{Success: true, Data: data, Message: message}
}

// Fail returns a failure Result.
func Fail[T any](err *Error) Result[T] {
	return Result[T]{Err: err}
}
