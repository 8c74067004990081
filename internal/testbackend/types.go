package testbackend

import (
	"fmt"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

// Step is one scripted answer to a task status request.
type Step struct {
	Status string                 // "pending", "success", "fail", "failure" or anything else
	Result []model.MatchCandidate // reported with success
	Error  string                 // reported with fail/failure
	Code   int                    // non-zero replies with this HTTP status instead
	Raw    string                 // non-empty replies with this body verbatim
}

// Script drives the backend. Status requests walk Steps in order and keep
// repeating the last one.
type Script struct {
	SubmitCode int    // non-zero fails POST /match_file with this status
	SubmitRaw  string // non-empty replaces the submit response body
	TaskID     string // fixed task id, random when empty
	Steps      []Step
}

// Validate rejects scripts that cannot be served.
func (s Script) Validate() error {
	for i, st := range s.Steps {
		if st.Code != 0 && (st.Code < 100 || st.Code > 599) {
			return fmt.Errorf("step %d: invalid status code %d", i, st.Code)
		}
	}
	if s.SubmitCode != 0 && (s.SubmitCode < 100 || s.SubmitCode > 599) {
		return fmt.Errorf("invalid submit status code %d", s.SubmitCode)
	}
	return nil
}

// Pending, Success and Failure build common steps.
func Pending() Step { return Step{Status: "pending"} }

func Success(candidates ...model.MatchCandidate) Step {
	if candidates == nil {
		candidates = []model.MatchCandidate{}
	}
	return Step{Status: "success", Result: candidates}
}

func Failure(msg string) Step { return Step{Status: "fail", Error: msg} }

// SubmitResponse is the body of POST /match_file.
type SubmitResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// StatusResponse is the body of GET /task_status/{task_id}.
type StatusResponse struct {
	Status string                 `json:"status"`
	Result []model.MatchCandidate `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string          `json:"status"`
	Service string          `json:"service"`
	Checks  map[string]bool `json:"checks"`
}

// DemoScript answers like a slow backend that finds two songs.
func DemoScript() Script {
	return Script{
		Steps: []Step{
			Pending(),
			Pending(),
			Success(
				model.MatchCandidate{
					SongID:     1,
					SongName:   "Blinding Lights",
					VideoID:    "4NRXx6U8ABQ",
					Title:      "Blinding Lights",
					Artist:     "The Weeknd",
					Album:      "After Hours",
					AlbumArt:   "https://i.ytimg.com/vi/4NRXx6U8ABQ/hqdefault.jpg",
					WebpageURL: "https://www.youtube.com/watch?v=4NRXx6U8ABQ",
					Votes:      41,
					Confidence: 0.8234,
				},
				model.MatchCandidate{
					SongID:     7,
					SongName:   "Save Your Tears",
					VideoID:    "XXYlFuWEuKI",
					Title:      "Save Your Tears",
					Artist:     "The Weeknd",
					WebpageURL: "https://www.youtube.com/watch?v=XXYlFuWEuKI",
					Votes:      6,
					Confidence: 0.1176,
				},
			),
		},
	}
}
