package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the one failure shape every pipeline stage produces. The HTTP
// error handler is the only place it is turned into a response body.
type Error struct {
	Code    string
	Status  int
	Title   string
	Message string
	Errors  []string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) WithCause(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

func New(code string, status int, title, message string) *Error {
	return &Error{
		Code:    code,
		Status:  status,
		Title:   title,
		Message: message,
	}
}

func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func Is(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

const (
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeLoginFailed      = "LOGIN_FAILED"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeResourceNotFound = "RESOURCE_NOT_FOUND"
	CodeRouteNotFound    = "ROUTE_NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeInvalidJSON      = "INVALID_JSON"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternal         = "INTERNAL"
)

// Unauthenticated is deliberately generic: it never says whether the token
// was missing, malformed or expired.
func Unauthenticated() *Error {
	return New(
		CodeUnauthenticated,
		http.StatusUnauthorized,
		"Unauthorized",
		"The provided credentials were invalid.",
	)
}

// LoginFailed is the same regardless of which credential was wrong.
func LoginFailed() *Error {
	err := New(
		CodeLoginFailed,
		http.StatusUnauthorized,
		"Login failed",
		"Login failed",
	)
	err.Errors = []string{"The provided credentials were invalid."}
	return err
}

func ValidationFailed(failures []string) *Error {
	err := New(
		CodeValidationFailed,
		http.StatusBadRequest,
		"Bad request.",
		"Bad request.",
	)
	err.Errors = failures
	return err
}

func NotFound(resource string) *Error {
	err := New(
		CodeResourceNotFound,
		http.StatusNotFound,
		resource+" not found.",
		"The requested resource couldn't be found.",
	)
	err.Errors = []string{resource + " not found."}
	return err
}

func RouteNotFound() *Error {
	return New(
		CodeRouteNotFound,
		http.StatusNotFound,
		"Server Error",
		"The requested resource couldn't be found.",
	)
}

func Conflict(message string) *Error {
	return New(CodeConflict, http.StatusConflict, "Conflict", message)
}

func InvalidJSON() *Error {
	return New(CodeInvalidJSON, http.StatusBadRequest, "Bad request.", "invalid json body")
}

func MethodNotAllowed() *Error {
	return New(CodeMethodNotAllowed, http.StatusMethodNotAllowed, "Method not allowed.", "method not allowed")
}
