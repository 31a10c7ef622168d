package apperror

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeValidation      Code = "validation"
	CodeUnauthenticated Code = "unauthenticated"
	CodeForbidden       Code = "forbidden"
	CodeNotFound        Code = "not_found"
	CodeConflict        Code = "conflict"
	CodeInternal        Code = "internal"
)

// Error is a classified failure that transport layers translate into a
// status code. Entity names the record type involved, when there is one.
type Error struct {
	Code    Code
	Message string
	Entity  string
}

func (e *Error) Error() string {
	return e.Message
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Validation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

func Conflict(entity, message string) *Error {
	return &Error{Code: CodeConflict, Message: message, Entity: entity}
}

func NotFound(entity string) *Error {
	return &Error{Code: CodeNotFound, Message: entity + " not found", Entity: entity}
}

var ErrUnauthenticated = New(CodeUnauthenticated, "authentication required")

func GetCode(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

func IsConflict(err error) bool {
	return Is(err, CodeConflict)
}
