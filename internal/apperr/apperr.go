// Package apperr is the error taxonomy shared by the services and the HTTP layer.
//
// Every failure a service wants a caller to act on is an *AppError. Anything
// else reaching a handler is treated as an internal error.
package apperr

import (
	"errors"
	"net/http"
)

const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeForbidden     = "FORBIDDEN"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeConflict      = "CONFLICT"
	CodeStorage       = "STORAGE_ERROR"
	CodeUpload        = "UPLOAD_ERROR"
	CodeParse         = "PARSE_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

// AppError carries an HTTP status and a client-safe message. Cause is for logs only.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"error"`
	HTTPStatus int    `json:"-"`
	Cause      error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches on Code so errors.Is(err, apperr.NotFound("")) works for any resource.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Validation is the caller's-fault error (malformed or out-of-range input).
func Validation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, HTTPStatus: http.StatusBadRequest}
}

// NotFound reports a referenced entity that does not exist.
func NotFound(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: resource + " not found", HTTPStatus: http.StatusNotFound}
}

// Forbidden is the authorization error: authenticated but not permitted.
func Forbidden(msg string) *AppError {
	return &AppError{Code: CodeForbidden, Message: msg, HTTPStatus: http.StatusForbidden}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: msg, HTTPStatus: http.StatusUnauthorized}
}

func Conflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, HTTPStatus: http.StatusConflict}
}

// Storage wraps a failure of the underlying persistence substrate.
func Storage(cause error) *AppError {
	return &AppError{Code: CodeStorage, Message: "storage failure", HTTPStatus: http.StatusInternalServerError, Cause: cause}
}

// Upload reports an assembly failure of an upload, distinct from per-page storage failures.
func Upload(cause error) *AppError {
	return &AppError{Code: CodeUpload, Message: "failed to upload manga", HTTPStatus: http.StatusInternalServerError, Cause: cause}
}

// Parse reports an unreadable serialized payload.
func Parse(cause error) *AppError {
	return &AppError{Code: CodeParse, Message: "malformed payload", HTTPStatus: http.StatusBadRequest, Cause: cause}
}

func Internal(cause error) *AppError {
	return &AppError{Code: CodeInternalError, Message: "internal server error", HTTPStatus: http.StatusInternalServerError, Cause: cause}
}

// As extracts the *AppError from err's chain, or nil.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
