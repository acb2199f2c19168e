package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies report errors for HTTP status mapping.
type ErrorKind int

const (
	// KindBadRequest marks structurally invalid input.
	KindBadRequest ErrorKind = iota
	// KindNotFound marks a missing referenced document.
	KindNotFound
	// KindInternal marks backend or renderer failures.
	KindInternal
)

// ReportError is the error type surfaced by report generation.
type ReportError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ReportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ReportError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to an HTTP status code.
func (e *ReportError) HTTPStatus() int {
	switch e.Kind {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// BadRequest creates a validation error.
func BadRequest(format string, args ...any) error {
	return &ReportError{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

// NotFound creates a missing-document error.
func NotFound(format string, args ...any) error {
	return &ReportError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps a backend or renderer failure.
func Internal(err error, message string) error {
	return &ReportError{Kind: KindInternal, Message: message, Err: err}
}

// IsBadRequest reports whether err is a validation error.
func IsBadRequest(err error) bool {
	var re *ReportError
	return errors.As(err, &re) && re.Kind == KindBadRequest
}

// IsNotFound reports whether err is a missing-document error.
func IsNotFound(err error) bool {
	var re *ReportError
	return errors.As(err, &re) && re.Kind == KindNotFound
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	var re *ReportError
	if errors.As(err, &re) {
		return re.HTTPStatus()
	}
	return http.StatusInternalServerError
}
