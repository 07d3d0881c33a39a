// ABOUTME: Error types returned by the forms API client
// ABOUTME: Transport failures, HTTP status errors and user-facing save errors
package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTransport = errors.New("forms API unreachable")
	ErrNotFound  = errors.New("not found")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Code)
}

// Is lets errors.Is(err, ErrNotFound) match a 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// SaveError wraps a failed create or update so callers can show a status
// message without inspecting the cause.
type SaveError struct {
	Op  string
	Err error
}

func (e *SaveError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// UserMessage is the text shown when a save fails.
func (e *SaveError) UserMessage() string {
	var status *StatusError
	switch {
	case errors.Is(e.Err, ErrTransport):
		return "Could not reach the server. Your changes were not saved."
	case errors.As(e.Err, &status) && status.Code == http.StatusNotFound:
		return "This item no longer exists."
	case errors.As(e.Err, &status) && status.Code == http.StatusForbidden:
		return "You do not have permission to make this change."
	case errors.As(e.Err, &status) && status.Code == http.StatusConflict:
		return "This item was changed elsewhere. Reload and try again."
	default:
		return "Saving failed. Please try again."
	}
}

func saveError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &SaveError{Op: op, Err: err}
}

// UserMessage returns the save message carried by err, if any.
func UserMessage(err error) (string, bool) {
	var se *SaveError
	if errors.As(err, &se) {
		return se.UserMessage(), true
	}
	return "", false
}
