package present

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/himanishpuri/spectra/pkg/spectra"
	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

func sampleCandidates() []model.MatchCandidate {
	return []model.MatchCandidate{
		{Title: "Zebra Song", Artist: "Z", Album: "Stripes", AlbumArt: "https://img.test/z.jpg", WebpageURL: "https://video.test/z", Votes: 40, Confidence: 0.8234},
		{Title: "Alpha Song", Artist: "A", WebpageURL: "https://video.test/a", Votes: 3, Confidence: 0.05},
		{Title: "Middle Song", Artist: "M", Votes: 1, Confidence: 1},
	}
}

func TestFormatConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.8234, "82.3%"},
		{0, "0.0%"},
		{1, "100.0%"},
		{0.05, "5.0%"},
		{0.99999, "100.0%"},
		{0.8125, "81.3%"},
	}
	for _, tt := range tests {
		if got := FormatConfidence(tt.in); got != tt.want {
			t.Errorf("FormatConfidence(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTextRenderPreservesOrderAndCount(t *testing.T) {
	var buf bytes.Buffer
	p := &TextPresenter{}
	if err := p.Render(&buf, sampleCandidates()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "Top 3 Picks\n") {
		t.Errorf("missing header: %q", out)
	}
	z := strings.Index(out, "Zebra Song")
	a := strings.Index(out, "Alpha Song")
	m := strings.Index(out, "Middle Song")
	if z < 0 || a < 0 || m < 0 || !(z < a && a < m) {
		t.Errorf("rows out of backend order:\n%s", out)
	}
	if strings.Count(out, "Song") != 3 {
		t.Errorf("expected exactly 3 rows:\n%s", out)
	}
	for _, want := range []string{"Title", "Confidence", "Link", "82.3%", "5.0%", "100.0%", "https://img.test/z.jpg", "https://video.test/a"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "No Image") != 2 {
		t.Errorf("expected placeholder for the two candidates without artwork:\n%s", out)
	}
}

func TestTextRenderHyperlinks(t *testing.T) {
	var buf bytes.Buffer
	p := &TextPresenter{Hyperlinks: true}
	if err := p.Render(&buf, sampleCandidates()[:1]); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "https://video.test/z") || !strings.Contains(out, "\x1b]8;;") {
		t.Errorf("expected an OSC 8 hyperlink:\n%q", out)
	}
	if !strings.Contains(out, "Title") {
		t.Errorf("expected headers in their own case:\n%s", out)
	}
	if strings.Contains(strings.ToLower(out), "link") {
		t.Errorf("link column should be hidden when hyperlinks are on:\n%s", out)
	}
}

func TestTextRenderFallsBackToSongName(t *testing.T) {
	candidates := []model.MatchCandidate{
		{SongName: "untitled_upload", Artist: "U", Votes: 30, Confidence: 0.5},
		{Title: "Real", SongName: "real_file", Artist: "R", Votes: 2, Confidence: 0.1},
	}
	for _, hyperlinks := range []bool{false, true} {
		var buf bytes.Buffer
		if err := (&TextPresenter{Hyperlinks: hyperlinks}).Render(&buf, candidates); err != nil {
			t.Fatalf("Render: %v", err)
		}
		out := buf.String()
		u := strings.Index(out, "untitled_upload")
		r := strings.Index(out, "Real")
		if u < 0 || r < 0 || u > r {
			t.Errorf("hyperlinks=%v: expected song name fallback before the titled row:\n%s", hyperlinks, out)
		}
		if strings.Contains(out, "real_file") {
			t.Errorf("hyperlinks=%v: song name shown although a title exists:\n%s", hyperlinks, out)
		}
	}
}

func TestTextRenderEmpty(t *testing.T) {
	for _, in := range [][]model.MatchCandidate{nil, {}} {
		var buf bytes.Buffer
		if err := (&TextPresenter{}).Render(&buf, in); err != nil {
			t.Fatalf("Render: %v", err)
		}
		if buf.String() != "No matches found, try again!\n" {
			t.Errorf("unexpected empty rendering %q", buf.String())
		}
	}
}

func TestJSONRenderPreservesOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONPresenter{}).Render(&buf, sampleCandidates()); err != nil {
		t.Fatalf("Render: %v", err)
	}
	var got []model.MatchCandidate
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got) != 3 || got[0].Title != "Zebra Song" || got[2].Title != "Middle Song" {
		t.Errorf("unexpected order %+v", got)
	}
	if !strings.Contains(buf.String(), `"webpage_url"`) {
		t.Errorf("expected wire field names: %s", buf.String())
	}

	buf.Reset()
	(JSONPresenter{}).Render(&buf, nil)
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("nil candidates should render as [], got %q", buf.String())
	}
}

func TestRenderState(t *testing.T) {
	tests := []struct {
		name  string
		state spectra.UIState
		want  string
	}{
		{"idle", spectra.IdleState(), "start recording"},
		{"recording", spectra.RecordingState(), "Listening"},
		{"processing", spectra.ProcessingState(), "Trying to find a match..."},
		{"no match", spectra.NoMatchState(), "No matches found, try again!"},
		{"error", spectra.ErrorState("Failed to start matching task", model.ErrSubmission), "Error: Failed to start matching task"},
		{"results", spectra.ResultsState(sampleCandidates()), "Top 3 Picks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := RenderState(&buf, tt.state, &TextPresenter{}); err != nil {
				t.Fatalf("RenderState: %v", err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("expected %q in %q", tt.want, buf.String())
			}
		})
	}
}

func TestRenderStateJSON(t *testing.T) {
	for _, p := range []Presenter{JSONPresenter{}, &JSONPresenter{}} {
		var buf bytes.Buffer
		if err := RenderState(&buf, spectra.NoMatchState(), p); err != nil {
			t.Fatalf("RenderState(%T): %v", p, err)
		}
		var got map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("%T: invalid JSON %q: %v", p, buf.String(), err)
		}
		if got["phase"] != "error" || got["no_match"] != true || got["message"] != "No match found" {
			t.Errorf("%T: unexpected state JSON %v", p, got)
		}
	}
}
