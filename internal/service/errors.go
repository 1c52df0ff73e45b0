package service

import (
	"errors"
	"net/http"
)

type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeGone         Code = "GONE"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeConflict     Code = "CONFLICT"
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Error is the error every exported service operation returns. Message is
// safe to show to API clients.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Status is the HTTP status an Error is reported with.
func (e *Error) Status() int {
	switch e.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeGone:
		return http.StatusGone
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeConflict:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	errLinkNotFound     = newError(CodeNotFound, "Link not found")
	errLinkExpired      = newError(CodeGone, "Link expired")
	errPasswordRequired = newError(CodeUnauthorized, "Password required")
	errInvalidPassword  = newError(CodeUnauthorized, "Invalid password")
	errSlugExists       = newError(CodeConflict, "Slug already exists")
	errInternal         = newError(CodeInternal, "Internal server error")
)

// AsError unwraps err into an *Error; anything else is reported as an
// internal error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return errInternal
}

// IsCode reports whether err is a service error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
