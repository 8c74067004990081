package model

import "time"

// TaskStatus is the lifecycle status of a backend match task.
type TaskStatus string

const (
	StatusPending TaskStatus = "pending"
	StatusSuccess TaskStatus = "success"
	StatusFailure TaskStatus = "failure"
)

// IsTerminal reports whether polling can stop at this status.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// MatchCandidate is one ranked result returned by the recognition backend.
type MatchCandidate struct {
	SongID     int     `json:"song_id"`
	SongName   string  `json:"song_name"`
	VideoID    string  `json:"video_id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	AlbumArt   string  `json:"album_art"`   // artwork URL, may be empty
	WebpageURL string  `json:"webpage_url"` // outbound link to the source page
	Votes      int     `json:"votes"`       // agreeing detection windows
	Confidence float64 `json:"confidence"`  // 0.0–1.0
}

// DisplayTitle is Title, or SongName when the backend sent no title.
func (c MatchCandidate) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.SongName
}

// MatchTask is one backend job. Candidates keep backend relevance order.
type MatchTask struct {
	ID         string
	Status     TaskStatus
	Candidates []MatchCandidate
	Message    string // failure reason reported by the backend, if any
	Polls      int    // status requests issued before the terminal response
}

// EncodedRecording is an immutable WAV payload ready for upload.
type EncodedRecording struct {
	Data       []byte
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
	Peak       float64 // absolute peak amplitude in [0,1]
}

// Len returns the payload size in bytes.
func (r EncodedRecording) Len() int {
	return len(r.Data)
}

// RecordingResult is the completion event of one capture session.
type RecordingResult struct {
	SessionID string
	Recording EncodedRecording
	Err       error
}
