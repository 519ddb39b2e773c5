package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies where an error came from so callers can decide whether a
// user should see it.
type Kind string

const (
	KindInit   Kind = "init"
	KindRead   Kind = "read"
	KindWrite  Kind = "write"
	KindRemote Kind = "remote"
	KindTenant Kind = "tenant"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Kind    Kind         `json:"kind,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`

	cause error
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Message: "Resource not found"}
	ErrUnauthorized   = &AppError{Code: http.StatusUnauthorized, Message: "Unauthorized"}
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Message: "Bad request"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}
	ErrTokenExpired   = &AppError{Code: http.StatusUnauthorized, Message: "Token has expired"}
	ErrInvalidToken   = &AppError{Code: http.StatusUnauthorized, Message: "Invalid token"}

	// ErrRemoteNotConfigured is returned before any request is attempted when
	// no sync endpoint has been configured.
	ErrRemoteNotConfigured = &AppError{Code: http.StatusServiceUnavailable, Message: "Remote sync endpoint not configured", Kind: KindRemote}
	// ErrMissingCredential is returned when the session holds no usable bearer token.
	ErrMissingCredential = &AppError{Code: http.StatusUnauthorized, Message: "No valid bearer credential for this session", Kind: KindRemote}
	// ErrTenantMismatch guards writes that would attach data to a tenant other
	// than the active one.
	ErrTenantMismatch = &AppError{Code: http.StatusForbidden, Message: "Record belongs to a different tenant", Kind: KindTenant}
	// ErrStorageUnavailable means no local storage backend could be initialized.
	ErrStorageUnavailable = &AppError{Code: http.StatusServiceUnavailable, Message: "Local storage unavailable", Kind: KindInit}
)

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: resource + " not found",
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// NewRemoteError describes a non-2xx answer from the sync server.
func NewRemoteError(status int, body string) *AppError {
	code := status
	if code < 400 {
		code = http.StatusBadGateway
	}
	msg := fmt.Sprintf("Remote responded with status %d", status)
	if body != "" {
		msg += ": " + body
	}
	return &AppError{Code: code, Message: msg, Kind: KindRemote}
}

// WrapRemote marks a transport failure (offline, DNS, timeout) as a remote error.
func WrapRemote(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind == KindRemote {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &AppError{Code: http.StatusBadGateway, Message: op, Kind: KindRemote, cause: err}
}

// WrapWrite marks a failed local write. Write failures are never recovered
// locally and callers must not update in-memory state after one.
func WrapWrite(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind == KindWrite {
		return fmt.Errorf("%s: %w", op, err)
	}
	code := http.StatusInternalServerError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}
	return &AppError{Code: code, Message: op, Kind: KindWrite, cause: err}
}

// WrapInit marks a storage initialization failure.
func WrapInit(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Code: http.StatusServiceUnavailable, Message: op, Kind: KindInit, cause: err}
}

// IsUserFacing reports whether an error should be surfaced to the user.
// Only failed writes and network/remote failures qualify; everything else
// is a silent degradation.
func IsUserFacing(err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Kind == KindWrite || appErr.Kind == KindRemote
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.cause == nil || appErr.Message == err.Error() {
			return appErr
		}
		return &AppError{Code: appErr.Code, Message: err.Error(), Kind: appErr.Kind, Errors: appErr.Errors}
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
	}
}
