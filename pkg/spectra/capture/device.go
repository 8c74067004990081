package capture

import (
	"context"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

// Device opens live audio streams from an input such as a microphone.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an open capture. Fragments delivers raw container bytes in
// arrival order and is closed once every track has stopped and the
// container has been flushed.
type Stream interface {
	Fragments() <-chan []byte
	Tracks() []Track
	// Err reports why the stream ended. It is nil after a requested stop.
	Err() error
}

// Track is one hardware input held by a stream.
type Track interface {
	Stop() error
	Active() bool
}

// Encoder converts the concatenated raw capture into an upload-ready recording.
type Encoder interface {
	Encode(ctx context.Context, raw []byte) (model.EncodedRecording, error)
}

// activeTracks counts the tracks of s that still hold the device.
func activeTracks(s Stream) int {
	n := 0
	for _, t := range s.Tracks() {
		if t.Active() {
			n++
		}
	}
	return n
}
