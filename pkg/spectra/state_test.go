package spectra

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{model.ErrNoMatch, "No match found"},
		{fmt.Errorf("%w: ffmpeg not found in PATH", model.ErrDeviceUnavailable), "Microphone unavailable: ffmpeg not found in PATH"},
		{model.ErrDeviceUnavailable, "Microphone unavailable: no input device"},
		{model.ErrSessionAlreadyActive, "A recording is already in progress"},
		{fmt.Errorf("encode: %w", model.ErrDecode), "Could not process the recording"},
		{&model.HTTPError{Kind: model.ErrSubmission, StatusCode: 500}, "Failed to start matching task"},
		{&model.HTTPError{Kind: model.ErrPolling, StatusCode: 404}, "Failed to fetch task status"},
		{model.ErrMalformedResponse, "Unexpected response from recognition service"},
		{model.ErrPollTimeout, "Timed out waiting for a match"},
		{errors.New("boom"), "Unexpected error occurred."},
		{context.Canceled, "Unexpected error occurred."},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestUIStateConstructors(t *testing.T) {
	if st := ResultsState(nil); st.Phase() != PhaseError || !st.IsNotice() {
		t.Errorf("empty results should be a no-match notice, got %v", st)
	}

	in := []model.MatchCandidate{{Title: "a"}, {Title: "b"}}
	st := ResultsState(in)
	in[0].Title = "changed"
	if got := st.Results(); got[0].Title != "a" {
		t.Error("results state must not alias the caller's slice")
	}

	errSt := ErrorState("", model.ErrPollTimeout)
	if errSt.Message() != "Timed out waiting for a match" || errSt.IsNotice() {
		t.Errorf("unexpected error state %v", errSt)
	}

	interactive := map[Phase]bool{
		PhaseIdle:       true,
		PhaseRecording:  false,
		PhaseProcessing: false,
		PhaseError:      true,
		PhaseResults:    true,
	}
	for _, s := range []UIState{IdleState(), RecordingState(), ProcessingState(), errSt, st} {
		if s.Interactive() != interactive[s.Phase()] {
			t.Errorf("%v: Interactive() = %v", s.Phase(), s.Interactive())
		}
	}
}
