package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the error type services hand to the HTTP layer. Status is an HTTP status code and Code a
// stable machine-readable identifier.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func newf(status int, code, format string, args ...any) *Error {
	return &Error{Status: status, Code: code, Err: fmt.Errorf(format, args...)}
}

func Validation(code, format string, args ...any) *Error {
	return newf(http.StatusBadRequest, code, format, args...)
}

func Unauthorized(code, format string, args ...any) *Error {
	return newf(http.StatusUnauthorized, code, format, args...)
}

func Forbidden(code, format string, args ...any) *Error {
	return newf(http.StatusForbidden, code, format, args...)
}

func NotFound(code, format string, args ...any) *Error {
	return newf(http.StatusNotFound, code, format, args...)
}

func Conflict(code, format string, args ...any) *Error {
	return newf(http.StatusConflict, code, format, args...)
}

func Transport(code string, err error) *Error {
	return &Error{Status: http.StatusBadGateway, Code: code, Err: err}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	if ae, ok := As(err); ok {
		return ae.Status
	}
	return 0
}

func IsValidation(err error) bool   { return StatusOf(err) == http.StatusBadRequest }
func IsUnauthorized(err error) bool { return StatusOf(err) == http.StatusUnauthorized }
func IsForbidden(err error) bool    { return StatusOf(err) == http.StatusForbidden }
func IsNotFound(err error) bool     { return StatusOf(err) == http.StatusNotFound }
func IsConflict(err error) bool     { return StatusOf(err) == http.StatusConflict }
