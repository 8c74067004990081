package spectra

import (
	"errors"
	"strings"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

const unexpectedMessage = "Unexpected error occurred."

// UserMessage maps a pipeline error to the text shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrNoMatch):
		return "No match found"
	case errors.Is(err, model.ErrSessionAlreadyActive):
		return "A recording is already in progress"
	case errors.Is(err, model.ErrDeviceUnavailable):
		return "Microphone unavailable: " + deviceCause(err)
	case errors.Is(err, model.ErrDecode):
		return "Could not process the recording"
	case errors.Is(err, model.ErrSubmission):
		return "Failed to start matching task"
	case errors.Is(err, model.ErrPolling):
		return "Failed to fetch task status"
	case errors.Is(err, model.ErrMalformedResponse):
		return "Unexpected response from recognition service"
	case errors.Is(err, model.ErrPollTimeout):
		return "Timed out waiting for a match"
	default:
		return unexpectedMessage
	}
}

// deviceCause strips the sentinel text so only the platform reason remains.
func deviceCause(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, model.ErrDeviceUnavailable.Error()); i >= 0 {
		msg = msg[i+len(model.ErrDeviceUnavailable.Error()):]
	}
	msg = strings.TrimLeft(msg, ": ")
	if msg == "" {
		return "no input device"
	}
	return msg
}
