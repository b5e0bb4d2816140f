package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrAlreadyExists     = errors.New("resource already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrExpired           = errors.New("expired")
	ErrRateLimited       = errors.New("rate limited")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrPdfProcessing     = errors.New("pdf processing failed")
	ErrIntegrityMismatch = errors.New("signature integrity mismatch")
)

// Stable machine-readable error codes
const (
	CodeUnauthenticated   = "UNAUTHENTICATED"
	CodeAPIKeyRequired    = "API_KEY_REQUIRED"
	CodeAPIKeyInvalid     = "API_KEY_INVALID"
	CodeAPIKeyExpired     = "API_KEY_EXPIRED"
	CodeForbidden         = "FORBIDDEN"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeConsentRequired   = "CONSENT_REQUIRED"
	CodeExpired           = "EXPIRED"
	CodeRateLimited       = "RATE_LIMITED"
	CodePdfProcessing     = "PDF_PROCESSING_ERROR"
	CodeIntegrityMismatch = "INTEGRITY_MISMATCH"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeInvalidRequest, message, ErrInvalidInput)
}

func Unauthenticated(code, message string) *AppError {
	if code == "" {
		code = CodeUnauthenticated
	}
	return NewAppError(http.StatusUnauthorized, code, message, ErrUnauthenticated)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Expired(message string) *AppError {
	return NewAppError(http.StatusGone, CodeExpired, message, ErrExpired)
}

func RateLimited(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, CodeRateLimited, message, ErrRateLimited)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, ErrAlreadyExists)
}

func IntegrityMismatch(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeIntegrityMismatch, message, ErrIntegrityMismatch)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, "internal server error", err)
}

// PdfProcessingError reports which marking stage failed.
type PdfProcessingError struct {
	Stage string
	Err   error
}

func (e *PdfProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdf %s stage: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("pdf %s stage failed", e.Stage)
}

func (e *PdfProcessingError) Unwrap() error {
	return e.Err
}

func (e *PdfProcessingError) Is(target error) bool {
	return target == ErrPdfProcessing
}

// PdfProcessing wraps a marking failure for a given stage.
func PdfProcessing(stage string, err error) *PdfProcessingError {
	return &PdfProcessingError{Stage: stage, Err: err}
}

// ToAppError converts any error into the response shape.
func ToAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var pdfErr *PdfProcessingError
	if errors.As(err, &pdfErr) {
		return NewAppError(http.StatusUnprocessableEntity, CodePdfProcessing, "document marking failed at stage "+pdfErr.Stage, pdfErr)
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound("resource not found")
	case errors.Is(err, ErrAlreadyExists):
		return Conflict("resource already exists")
	case errors.Is(err, ErrInvalidInput):
		return BadRequest(err.Error())
	}
	return InternalError(err)
}
