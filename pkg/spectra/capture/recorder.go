package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/himanishpuri/spectra/pkg/logger"
	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

const (
	// DefaultMaxDuration is the auto-stop limit for one session.
	DefaultMaxDuration = 5 * time.Second
	// DefaultFlushTimeout bounds how long Stop waits for the stream to close.
	DefaultFlushTimeout = 5 * time.Second
)

// State is the lifecycle state of the recorder.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateStopping
	StateConverting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateStopping:
		return "stopping"
	case StateConverting:
		return "converting"
	default:
		return "unknown"
	}
}

type session struct {
	id      string
	ctx     context.Context
	stream  Stream
	started time.Time
	timer   *time.Timer
	lock    *flock.Flock
	done    chan model.RecordingResult
	ended   chan struct{}

	mu        sync.Mutex
	fragments [][]byte
	sealed    bool // set once the fragments are joined; later ones are dropped
	collected chan struct{}

	stopOnce sync.Once
	stopErr  error
}

// Recorder owns at most one capture session at a time.
type Recorder struct {
	device       Device
	encoder      Encoder
	maxDuration  time.Duration
	flushTimeout time.Duration
	lockPath     string
	log          model.Logger
	now          func() time.Time

	mu    sync.Mutex
	state State
	sess  *session
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithMaxDuration sets the auto-stop limit. Zero disables auto-stop.
func WithMaxDuration(d time.Duration) Option {
	return func(r *Recorder) {
		if d >= 0 {
			r.maxDuration = d
		}
	}
}

// WithFlushTimeout bounds the wait for a stopped stream to close.
func WithFlushTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.flushTimeout = d
		}
	}
}

// WithLockFile holds an exclusive file lock for the lifetime of each
// session so only one process on the host records at a time.
func WithLockFile(path string) Option {
	return func(r *Recorder) {
		r.lockPath = path
	}
}

func WithLogger(l model.Logger) Option {
	return func(r *Recorder) {
		if l != nil {
			r.log = l
		}
	}
}

func NewRecorder(device Device, encoder Encoder, opts ...Option) *Recorder {
	r := &Recorder{
		device:       device,
		encoder:      encoder,
		maxDuration:  DefaultMaxDuration,
		flushTimeout: DefaultFlushTimeout,
		log:          logger.GetLogger().WithPrefix("capture"),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Elapsed returns the age of the active session, or zero.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sess == nil {
		return 0
	}
	return r.now().Sub(r.sess.started)
}

// Start opens the device and begins collecting fragments. The returned
// channel yields exactly one result for the session and is then closed.
// Cancelling ctx aborts the session.
func (r *Recorder) Start(ctx context.Context) (<-chan model.RecordingResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return nil, model.ErrSessionAlreadyActive
	}

	var lock *flock.Flock
	if r.lockPath != "" {
		lock = flock.New(r.lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquiring capture lock %s: %w", r.lockPath, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s is held by another process", model.ErrSessionAlreadyActive, r.lockPath)
		}
	}

	stream, err := r.device.Open(ctx)
	if err != nil {
		releaseLock(lock, r.log)
		if errors.Is(err, model.ErrDeviceUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
	}

	sess := &session{
		id:        uuid.NewString(),
		ctx:       ctx,
		stream:    stream,
		started:   r.now(),
		lock:      lock,
		done:      make(chan model.RecordingResult, 1),
		ended:     make(chan struct{}),
		collected: make(chan struct{}),
	}
	r.sess = sess
	r.state = StateCapturing

	go r.collect(sess)
	go r.watchContext(sess)

	if r.maxDuration > 0 {
		sess.timer = time.AfterFunc(r.maxDuration, func() {
			r.log.Debugf("Session %s reached max duration %v", sess.id, r.maxDuration)
			r.stopSession(sess)
		})
	}

	r.log.Infof("Recording session %s started (%d track(s))", sess.id, activeTracks(stream))
	return sess.done, nil
}

// Stop ends the active session. It is a no-op when nothing is capturing and
// safe to call concurrently with the auto-stop timer.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	sess := r.sess
	capturing := r.state == StateCapturing
	r.mu.Unlock()

	if sess == nil || !capturing {
		return nil
	}
	return r.stopSession(sess)
}

func (r *Recorder) stopSession(sess *session) error {
	sess.stopOnce.Do(func() {
		sess.stopErr = r.finish(sess)
	})
	return sess.stopErr
}

// collect appends fragments until the stream closes. A stream that ends on
// its own also ends the session. Fragments arriving after the session was
// sealed are drained and discarded.
func (r *Recorder) collect(sess *session) {
	for frag := range sess.stream.Fragments() {
		if len(frag) == 0 {
			continue
		}
		sess.mu.Lock()
		if !sess.sealed {
			sess.fragments = append(sess.fragments, frag)
		}
		sess.mu.Unlock()
	}
	close(sess.collected)
	r.stopSession(sess)
}

func (r *Recorder) watchContext(sess *session) {
	select {
	case <-sess.ctx.Done():
		r.stopSession(sess)
	case <-sess.ended:
	}
}

// finish runs the stop transition exactly once per session.
func (r *Recorder) finish(sess *session) error {
	r.mu.Lock()
	if r.sess != sess || r.state != StateCapturing {
		r.mu.Unlock()
		return nil
	}
	r.state = StateStopping
	if sess.timer != nil {
		sess.timer.Stop()
	}
	r.mu.Unlock()

	var stopErrs []error
	for _, t := range sess.stream.Tracks() {
		if err := t.Stop(); err != nil {
			stopErrs = append(stopErrs, err)
		}
	}
	stopErr := errors.Join(stopErrs...)
	if stopErr != nil {
		r.log.Warnf("Stopping tracks for session %s: %v", sess.id, stopErr)
	}

	select {
	case <-sess.collected:
	case <-time.After(r.flushTimeout):
		r.log.Warnf("Stream for session %s did not flush within %v", sess.id, r.flushTimeout)
	}

	r.mu.Lock()
	r.state = StateConverting
	r.mu.Unlock()

	sess.mu.Lock()
	sess.sealed = true
	raw := bytes.Join(sess.fragments, nil)
	sess.fragments = nil
	sess.mu.Unlock()

	result := model.RecordingResult{SessionID: sess.id}
	switch {
	case sess.ctx.Err() != nil:
		result.Err = fmt.Errorf("recording aborted: %w", sess.ctx.Err())
	case sess.stream.Err() != nil:
		result.Err = fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, sess.stream.Err())
	default:
		rec, err := r.encoder.Encode(sess.ctx, raw)
		if err != nil {
			result.Err = err
		} else {
			result.Recording = rec
		}
	}

	releaseLock(sess.lock, r.log)

	r.mu.Lock()
	r.sess = nil
	r.state = StateIdle
	r.mu.Unlock()

	if result.Err != nil {
		r.log.Warnf("Recording session %s failed: %v", sess.id, result.Err)
	} else {
		r.log.Infof("Recording session %s captured %d raw bytes in %v", sess.id, len(raw), r.now().Sub(sess.started).Round(time.Millisecond))
	}

	sess.done <- result
	close(sess.done)
	close(sess.ended)
	return stopErr
}

func releaseLock(lock *flock.Flock, log model.Logger) {
	if lock == nil {
		return
	}
	if err := lock.Unlock(); err != nil {
		log.Warnf("Releasing capture lock %s: %v", lock.Path(), err)
	}
}
