package shared

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates a failed email/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate entry")
)

// Error is the single error value the HTTP boundary understands. Code is the
// HTTP status, Errors carries field-level validation messages (400 only) and
// Data carries partial context on certain 404s.
type Error struct {
	Code    int
	Message string
	Errors  map[string][]string
	Data    any
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds a bare status/message error.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Unauthorized builds a 401 error. The message is deliberately generic so the
// client cannot distinguish expired, malformed and revoked tokens.
func Unauthorized(message string) *Error {
	return &Error{Code: http.StatusUnauthorized, Message: message}
}

// PermissionDenied builds the single 403 error the API ever emits. Missing
// permissions and failed ownership checks share it so clients cannot probe
// for record existence.
func PermissionDenied() *Error {
	return &Error{Code: http.StatusForbidden, Message: "Permission denied"}
}

// NotFound builds a 404 error.
func NotFound(message string) *Error {
	return &Error{Code: http.StatusNotFound, Message: message}
}

// NotFoundWithData builds a 404 error carrying partial context.
func NotFoundWithData(message string, data any) *Error {
	return &Error{Code: http.StatusNotFound, Message: message, Data: data}
}

// Conflict builds a 409 error.
func Conflict(message string) *Error {
	return &Error{Code: http.StatusConflict, Message: message}
}

// ValidationFailed builds a 400 error with field-level messages.
func ValidationFailed(fieldErrors map[string][]string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: "Validation errors", Errors: fieldErrors}
}

// InvalidID builds the 400 error used for malformed path ids.
func InvalidID(field, message string) *Error {
	return ValidationFailed(map[string][]string{field: {message}})
}
