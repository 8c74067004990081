package spectra

import (
	"context"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

// Logger is the logging surface every component accepts.
type Logger = model.Logger

// Recorder captures one recording session at a time.
type Recorder interface {
	Start(ctx context.Context) (<-chan model.RecordingResult, error)
	Stop() error
}

// Matcher talks to the recognition service.
type Matcher interface {
	Submit(ctx context.Context, rec model.EncodedRecording) (string, error)
	AwaitResult(ctx context.Context, taskID string) (model.MatchTask, error)
}

// Pinger is implemented by matchers that can probe the backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Encoder turns raw audio into an upload-ready recording.
type Encoder interface {
	Encode(ctx context.Context, raw []byte) (model.EncodedRecording, error)
}

// History stores finished match tasks.
type History interface {
	Record(ctx context.Context, task model.MatchTask, rec model.EncodedRecording) error
}
