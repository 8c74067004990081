package present

import (
	"encoding/json"
	"io"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

// JSONPresenter writes candidates as indented JSON in the wire shape.
type JSONPresenter struct{}

func (JSONPresenter) Render(w io.Writer, candidates []model.MatchCandidate) error {
	if candidates == nil {
		candidates = []model.MatchCandidate{}
	}
	return writeJSON(w, candidates)
}

// writeJSON encodes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// stateJSON is the --json rendering of a UI state.
type stateJSON struct {
	Phase   string                 `json:"phase"`
	Message string                 `json:"message,omitempty"`
	NoMatch bool                   `json:"no_match,omitempty"`
	Results []model.MatchCandidate `json:"results,omitempty"`
}
