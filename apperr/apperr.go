package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is a request-terminating failure with the HTTP status it maps to.
// Extra fields are merged into the JSON error body.
type Error struct {
	Status  int
	Message string
	Extra   map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// With returns a copy of e carrying an extra response field.
func (e *Error) With(key string, val any) *Error {
	extra := make(map[string]any, len(e.Extra)+1)
	for k, v := range e.Extra {
		extra[k] = v
	}
	extra[key] = val
	return &Error{Status: e.Status, Message: e.Message, Extra: extra}
}

func New(status int, msg string) *Error {
	return &Error{Status: status, Message: msg}
}

func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, fmt.Sprintf(format, args...))
}

func BadRequest(format string, args ...any) *Error {
	return New(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(http.StatusForbidden, fmt.Sprintf(format, args...))
}

func Unauthorized(format string, args ...any) *Error {
	return New(http.StatusUnauthorized, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(http.StatusConflict, fmt.Sprintf(format, args...))
}

func Internal(format string, args ...any) *Error {
	return New(http.StatusInternalServerError, fmt.Sprintf(format, args...))
}

// As unwraps err into an *Error if one is in the chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// CastError reports an identifier that is not a valid ObjectID.
type CastError struct {
	Value string
}

func (e *CastError) Error() string {
	return "invalid id " + e.Value
}

// ValidationError collects field-level validation failures for a record.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Fields, ", ")
}

// Add appends a failure message.
func (e *ValidationError) Add(msg string) {
	e.Fields = append(e.Fields, msg)
}

// OrNil returns nil when nothing failed.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
