package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable means the microphone is absent or access was denied.
	ErrDeviceUnavailable = errors.New("audio input device unavailable")
	// ErrSessionAlreadyActive means a capture session is already open.
	ErrSessionAlreadyActive = errors.New("recording session already active")
	// ErrDecode means captured audio could not be decoded to PCM.
	ErrDecode = errors.New("audio decode failed")
	// ErrSubmission means the upload request failed.
	ErrSubmission = errors.New("match submission failed")
	// ErrPolling means a task status request failed.
	ErrPolling = errors.New("task status request failed")
	// ErrNoMatch means the backend finished without any candidate.
	ErrNoMatch = errors.New("no match found")
	// ErrMalformedResponse means a backend payload did not have the expected shape.
	ErrMalformedResponse = errors.New("malformed backend response")
	// ErrPollTimeout means the task did not finish within the polling bounds.
	ErrPollTimeout = errors.New("timed out waiting for task result")
	// ErrPipelineBusy means a recording or match is already running.
	ErrPipelineBusy = errors.New("pipeline already running")
)

// HTTPError records a non-2xx backend response. It unwraps to Kind so
// callers can keep using errors.Is with the sentinels above.
type HTTPError struct {
	Kind       error
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: http %d", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%v: http %d: %s", e.Kind, e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error { return e.Kind }
