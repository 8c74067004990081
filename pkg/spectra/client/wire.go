package client

import (
	"encoding/json"
	"fmt"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

// submitResponse mirrors the JSON returned by POST /match_file.
type submitResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

func (r *submitResponse) Validate() error {
	if r.TaskID == "" {
		return fmt.Errorf("%w: submit response has no task_id", model.ErrMalformedResponse)
	}
	return nil
}

// statusResponse mirrors the JSON returned by GET /task_status/{id}.
type statusResponse struct {
	Status string                 `json:"status"`
	Result []model.MatchCandidate `json:"result"`
	Error  string                 `json:"error"`
}

// parseStatus maps the wire status onto model.TaskStatus. The backend
// has used both "fail" and "failure".
func parseStatus(s string) (model.TaskStatus, bool) {
	switch s {
	case "pending":
		return model.StatusPending, true
	case "success":
		return model.StatusSuccess, true
	case "failure", "fail":
		return model.StatusFailure, true
	}
	return "", false
}

// Validate checks the status and, for success, every candidate.
func (r *statusResponse) Validate() error {
	status, ok := parseStatus(r.Status)
	if !ok {
		return fmt.Errorf("%w: unknown task status %q", model.ErrMalformedResponse, r.Status)
	}
	if status != model.StatusSuccess {
		return nil
	}
	for i, c := range r.Result {
		if err := validateCandidate(c); err != nil {
			return fmt.Errorf("%w: candidate %d: %v", model.ErrMalformedResponse, i, err)
		}
	}
	return nil
}

// validateCandidate checks the numeric fields. Title may be null or empty;
// presenters fall back to SongName.
func validateCandidate(c model.MatchCandidate) error {
	if c.Votes < 0 {
		return fmt.Errorf("negative votes %d", c.Votes)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", c.Confidence)
	}
	return nil
}

func decode(body []byte, v interface{ Validate() error }) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode response: %v (%s)", model.ErrMalformedResponse, err, truncate(body, 200))
	}
	return v.Validate()
}

// truncate returns the first n bytes of body as a string.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
