package spectra

import "github.com/himanishpuri/spectra/pkg/spectra/model"

// Phase is the visible stage of the pipeline.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRecording
	PhaseProcessing
	PhaseError
	PhaseResults
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRecording:
		return "recording"
	case PhaseProcessing:
		return "processing"
	case PhaseError:
		return "error"
	case PhaseResults:
		return "results"
	default:
		return "unknown"
	}
}

// UIState is what the user sees. Only the constructors below build one, so
// an error state always has a message and a results state always has at
// least one candidate.
type UIState struct {
	phase   Phase
	message string
	notice  bool
	err     error
	results []model.MatchCandidate
}

func IdleState() UIState       { return UIState{phase: PhaseIdle} }
func RecordingState() UIState  { return UIState{phase: PhaseRecording} }
func ProcessingState() UIState { return UIState{phase: PhaseProcessing} }

// ErrorState carries the user-facing message and the error behind it.
func ErrorState(message string, err error) UIState {
	if message == "" {
		message = UserMessage(err)
	}
	return UIState{phase: PhaseError, message: message, err: err}
}

// NoMatchState is the informational error shown when nothing matched.
func NoMatchState() UIState {
	return UIState{phase: PhaseError, message: UserMessage(model.ErrNoMatch), notice: true, err: model.ErrNoMatch}
}

// ResultsState holds candidates in backend order. An empty list yields NoMatchState.
func ResultsState(candidates []model.MatchCandidate) UIState {
	if len(candidates) == 0 {
		return NoMatchState()
	}
	out := make([]model.MatchCandidate, len(candidates))
	copy(out, candidates)
	return UIState{phase: PhaseResults, results: out}
}

func (s UIState) Phase() Phase { return s.phase }

// Message is the error text; empty outside PhaseError.
func (s UIState) Message() string { return s.message }

// IsNotice reports whether the error is the informational no-match case.
func (s UIState) IsNotice() bool { return s.notice }

func (s UIState) Err() error { return s.err }

// Results returns a copy of the ranked candidates.
func (s UIState) Results() []model.MatchCandidate {
	if len(s.results) == 0 {
		return nil
	}
	out := make([]model.MatchCandidate, len(s.results))
	copy(out, s.results)
	return out
}

// Interactive reports whether a new recording may start from this state.
func (s UIState) Interactive() bool {
	return s.phase == PhaseIdle || s.phase == PhaseError || s.phase == PhaseResults
}

func (s UIState) String() string {
	if s.phase == PhaseError {
		return s.phase.String() + ": " + s.message
	}
	return s.phase.String()
}
