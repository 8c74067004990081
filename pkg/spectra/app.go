// Package spectra wires capture, encoding and the recognition client into
// the record, match and render pipeline.
package spectra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/himanishpuri/spectra/pkg/logger"
	"github.com/himanishpuri/spectra/pkg/spectra/audio"
	"github.com/himanishpuri/spectra/pkg/spectra/capture"
	"github.com/himanishpuri/spectra/pkg/spectra/client"
	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

// App owns the UI state and runs at most one pipeline at a time.
type App struct {
	recorder Recorder
	matcher  Matcher
	encoder  Encoder
	history  History
	log      Logger

	mu        sync.Mutex
	state     UIState
	idle      chan struct{} // closed when the state becomes interactive again
	listeners []func(UIState)
}

func NewApp(opts ...Option) (*App, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	enc := cfg.Encoder
	if enc == nil {
		enc = audio.NewEncoder(audio.EncoderConfig{
			SampleRate: cfg.SampleRate,
			TempDir:    cfg.TempDir,
			FFmpegPath: cfg.FFmpegPath,
			Logger:     prefixed(cfg.Logger, "audio"),
		})
	}

	rec := cfg.Recorder
	if rec == nil {
		device := &capture.FFmpegDevice{
			Path:   cfg.FFmpegPath,
			Format: cfg.CaptureFormat,
			Input:  cfg.CaptureDevice,
			Codec:  cfg.CaptureCodec,
			Log:    prefixed(cfg.Logger, "ffmpeg"),
		}
		rec = capture.NewRecorder(device, enc,
			capture.WithMaxDuration(cfg.MaxDuration),
			capture.WithLockFile(cfg.LockFile),
			capture.WithLogger(prefixed(cfg.Logger, "capture")),
		)
	}

	matcher := cfg.Matcher
	if matcher == nil {
		if cfg.BackendURL == "" {
			return nil, errors.New("backend URL is required")
		}
		matcher = client.NewClient(client.Config{
			BaseURL:      cfg.BackendURL,
			PollInterval: cfg.PollInterval,
			PollTimeout:  cfg.PollTimeout,
			MaxPolls:     cfg.MaxPolls,
			Logger:       prefixed(cfg.Logger, "client"),
		})
	}

	return &App{
		recorder:  rec,
		matcher:   matcher,
		encoder:   enc,
		history:   cfg.History,
		log:       cfg.Logger,
		state:     IdleState(),
		listeners: cfg.Listeners,
	}, nil
}

// prefixed tags log lines with component when log is the package logger.
func prefixed(log Logger, component string) Logger {
	if l, ok := log.(*logger.Logger); ok {
		return l.WithPrefix(component)
	}
	return log
}

// State returns the current UI state.
func (a *App) State() UIState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// StartRecording begins a capture session. The rest of the pipeline runs in
// the background once the recording completes.
func (a *App) StartRecording(ctx context.Context) error {
	a.mu.Lock()
	if !a.state.Interactive() {
		a.mu.Unlock()
		return model.ErrPipelineBusy
	}

	done, err := a.recorder.Start(ctx)
	if err != nil {
		a.mu.Unlock()
		a.fail(err)
		return err
	}
	listeners, _ := a.setLocked(RecordingState())
	a.mu.Unlock()
	a.notify(listeners, RecordingState())

	go a.awaitRecording(ctx, done)
	return nil
}

// StopRecording ends capture early. It is a no-op when nothing is recording.
func (a *App) StopRecording() error {
	return a.recorder.Stop()
}

// MatchRecording submits an already encoded recording and blocks until the
// result is known. It returns nil for results and the pipeline error
// otherwise, with ErrNoMatch when the backend found nothing.
func (a *App) MatchRecording(ctx context.Context, rec model.EncodedRecording) error {
	a.mu.Lock()
	if !a.state.Interactive() {
		a.mu.Unlock()
		return model.ErrPipelineBusy
	}
	listeners, _ := a.setLocked(ProcessingState())
	a.mu.Unlock()
	a.notify(listeners, ProcessingState())

	return a.process(ctx, rec)
}

// EncodeFile reads an audio file and converts it for upload.
func (a *App) EncodeFile(ctx context.Context, path string) (model.EncodedRecording, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.EncodedRecording{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return a.encoder.Encode(ctx, raw)
}

// Ping probes the backend when the matcher supports it.
func (a *App) Ping(ctx context.Context) error {
	if p, ok := a.matcher.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Wait blocks until the pipeline is back in an interactive phase.
func (a *App) Wait(ctx context.Context) (UIState, error) {
	a.mu.Lock()
	if a.state.Interactive() {
		st := a.state
		a.mu.Unlock()
		return st, nil
	}
	idle := a.idle
	a.mu.Unlock()

	select {
	case <-idle:
		return a.State(), nil
	case <-ctx.Done():
		return a.State(), ctx.Err()
	}
}

func (a *App) awaitRecording(ctx context.Context, done <-chan model.RecordingResult) {
	res, ok := <-done
	if !ok {
		a.fail(errors.New("recording ended without a result"))
		return
	}
	if res.Err != nil {
		a.fail(res.Err)
		return
	}

	a.set(ProcessingState())
	_ = a.process(ctx, res.Recording)
}

// process runs submit and poll. The state is Processing on entry.
func (a *App) process(ctx context.Context, rec model.EncodedRecording) error {
	if rec.Peak < SilenceThreshold {
		a.log.Warnf("Recording looks silent (peak %.4f), the service will likely find nothing", rec.Peak)
	}

	taskID, err := a.matcher.Submit(ctx, rec)
	if err != nil {
		a.fail(err)
		return err
	}

	task, err := a.matcher.AwaitResult(ctx, taskID)
	if err != nil {
		a.fail(err)
		return err
	}
	a.recordHistory(ctx, task, rec)

	if task.Status == model.StatusSuccess && len(task.Candidates) > 0 {
		a.log.Infof("Task %s matched %d candidate(s)", task.ID, len(task.Candidates))
		a.set(ResultsState(task.Candidates))
		return nil
	}

	if task.Message != "" {
		a.log.Infof("Task %s failed: %s", task.ID, task.Message)
	}
	a.set(NoMatchState())
	return model.ErrNoMatch
}

func (a *App) recordHistory(ctx context.Context, task model.MatchTask, rec model.EncodedRecording) {
	if a.history == nil {
		return
	}
	if err := a.history.Record(context.WithoutCancel(ctx), task, rec); err != nil {
		a.log.Warnf("Failed to record task %s in history: %v", task.ID, err)
	}
}

func (a *App) fail(err error) {
	a.log.Errorf("Pipeline failed: %v", err)
	a.set(ErrorState(UserMessage(err), err))
}

func (a *App) set(st UIState) {
	a.mu.Lock()
	listeners, idle := a.setLocked(st)
	a.mu.Unlock()
	a.notify(listeners, st)
	if idle != nil {
		close(idle)
	}
}

// setLocked applies st and returns the listeners to notify plus, when st is
// interactive, the idle channel to close once they have run. a.mu must be held.
func (a *App) setLocked(st UIState) ([]func(UIState), chan struct{}) {
	a.state = st
	var idle chan struct{}
	if st.Interactive() {
		idle = a.idle
		a.idle = nil
	} else if a.idle == nil {
		a.idle = make(chan struct{})
	}
	return a.listeners, idle
}

func (a *App) notify(listeners []func(UIState), st UIState) {
	for _, fn := range listeners {
		fn(st)
	}
}
