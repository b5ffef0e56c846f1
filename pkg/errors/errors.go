// Package errors classifies the failures the search API can report. Each
// sentinel maps to an HTTP status and a stable machine-readable code;
// AppError attaches a client-facing message to a sentinel.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
	ErrNotConfigured       = errors.New("not configured")
	ErrUnavailable         = errors.New("dependency unavailable")
	ErrTimeout             = errors.New("operation timed out")
	ErrInternal            = errors.New("internal error")
)

var kinds = []struct {
	err    error
	status int
	code   string
}{
	{ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{ErrSnapshotUnavailable, http.StatusServiceUnavailable, "snapshot_unavailable"},
	{ErrNotConfigured, http.StatusNotImplemented, "not_configured"},
	{ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
	{ErrTimeout, http.StatusGatewayTimeout, "timeout"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
}

// AppError is a sentinel plus the message shown to API clients.
type AppError struct {
	Kind    error
	Message string
}

func (e *AppError) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Kind
}

func Newf(kind error, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) *AppError {
	return Newf(ErrInvalidInput, format, args...)
}

// NotConfigured reports a feature the running process was started without.
func NotConfigured(feature string) *AppError {
	return Newf(ErrNotConfigured, "%s is not configured", feature)
}

func Unavailable(format string, args ...any) *AppError {
	return Newf(ErrUnavailable, format, args...)
}

// HTTPStatusCode returns the status for err; unclassified errors are 500.
func HTTPStatusCode(err error) int {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// Code returns the stable identifier for err's kind, "internal" if none.
func Code(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return "internal"
}

// Public returns the text safe to show a client: the AppError message when
// present, the error text for classified kinds, "internal error" otherwise.
func Public(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if HTTPStatusCode(err) == http.StatusInternalServerError {
		return ErrInternal.Error()
	}
	return err.Error()
}
