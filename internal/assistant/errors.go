package assistant

import (
	"errors"
	"fmt"
)

// ErrNoReply is returned when a completed run produced no assistant message.
var ErrNoReply = errors.New("assistant returned no reply")

// ErrTruncatedStream is returned when the event stream ends before the run
// reaches a terminal state.
var ErrTruncatedStream = errors.New("event stream ended before the run finished")

// APIError is a non-2xx response from the assistant service.
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("assistant API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("assistant API error (status %d)", e.StatusCode)
}

// RunFailedError reports a run that reached a terminal state other than
// completed. Status carries the service's terminal status string.
type RunFailedError struct {
	Status    string
	LastError *RunError
}

func (e *RunFailedError) Error() string {
	if e.LastError != nil && e.LastError.Message != "" {
		return fmt.Sprintf("assistant run ended with status %s: %s", e.Status, e.LastError.Message)
	}
	return fmt.Sprintf("assistant run ended with status %s", e.Status)
}
