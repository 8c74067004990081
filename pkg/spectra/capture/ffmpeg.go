package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/himanishpuri/spectra/pkg/spectra/model"
)

const (
	defaultChunkSize    = 4096
	defaultStopGrace    = 2 * time.Second
	defaultStartupProbe = 250 * time.Millisecond
)

// FFmpegDevice captures from the platform audio API through an ffmpeg
// subprocess writing a compressed container to stdout.
type FFmpegDevice struct {
	Path   string // ffmpeg binary, default "ffmpeg"
	Format string // input format (pulse, alsa, avfoundation, dshow), default per OS
	Input  string // input device name, default per OS
	Codec  string // "webm" (opus, default) or "ogg"

	ChunkSize    int
	StopGrace    time.Duration // wait after interrupt before killing
	StartupProbe time.Duration // an exit within this window means no device
	Log          model.Logger
}

// PlatformInput returns the default ffmpeg input format and device for goos.
func PlatformInput(goos string) (format, input string) {
	switch goos {
	case "darwin":
		return "avfoundation", ":0"
	case "windows":
		return "dshow", "audio=Microphone"
	default:
		return "pulse", "default"
	}
}

func (d *FFmpegDevice) args() []string {
	format, input := PlatformInput(runtime.GOOS)
	if d.Format != "" {
		format = d.Format
	}
	if d.Input != "" {
		input = d.Input
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-f", format,
		"-i", input,
		"-ac", "1",
		"-c:a", "libopus",
	}
	switch strings.ToLower(d.Codec) {
	case "ogg":
		args = append(args, "-f", "ogg")
	default:
		args = append(args, "-f", "webm")
	}
	return append(args, "pipe:1")
}

// Open starts ffmpeg. A missing binary or a process that exits during the
// startup probe is reported as ErrDeviceUnavailable.
func (d *FFmpegDevice) Open(ctx context.Context) (Stream, error) {
	path := d.Path
	if path == "" {
		path = "ffmpeg"
	}
	log := d.Log
	if log == nil {
		log = model.NopLogger{}
	}

	cmd := exec.Command(path, d.args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s not found in PATH", model.ErrDeviceUnavailable, path)
		}
		return nil, fmt.Errorf("%w: starting ffmpeg: %v", model.ErrDeviceUnavailable, err)
	}
	log.Debugf("Started %s %s (pid %d)", path, strings.Join(cmd.Args[1:], " "), cmd.Process.Pid)

	chunk := d.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	s := &ffmpegStream{
		frags:  make(chan []byte, 64),
		exited: make(chan struct{}),
		stderr: &stderr,
	}
	s.track = &ffmpegTrack{
		cmd:    cmd,
		stream: s,
		grace:  d.StopGrace,
	}
	if s.track.grace <= 0 {
		s.track.grace = defaultStopGrace
	}

	go s.pump(stdout, chunk, cmd)

	probe := d.StartupProbe
	if probe <= 0 {
		probe = defaultStartupProbe
	}
	select {
	case <-s.exited:
		return nil, fmt.Errorf("%w: ffmpeg exited at startup: %v", model.ErrDeviceUnavailable, s.Err())
	case <-ctx.Done():
		go func() {
			for range s.frags {
			}
		}()
		_ = s.track.Stop()
		return nil, ctx.Err()
	case <-time.After(probe):
	}

	return s, nil
}

type ffmpegStream struct {
	frags  chan []byte
	exited chan struct{}
	track  *ffmpegTrack
	stderr *bytes.Buffer

	mu      sync.Mutex
	waitErr error
}

func (s *ffmpegStream) Fragments() <-chan []byte { return s.frags }
func (s *ffmpegStream) Tracks() []Track          { return []Track{s.track} }

func (s *ffmpegStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.waitErr == nil || s.track.requested() {
		return nil
	}
	msg := strings.TrimSpace(s.stderr.String())
	if msg == "" {
		return s.waitErr
	}
	return fmt.Errorf("%v: %s", s.waitErr, msg)
}

// pump copies stdout into fragments until EOF, then reaps the process.
func (s *ffmpegStream) pump(r io.Reader, chunk int, cmd *exec.Cmd) {
	buf := make([]byte, chunk)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			frag := make([]byte, n)
			copy(frag, buf[:n])
			s.frags <- frag
		}
		if err != nil {
			break
		}
	}

	err := cmd.Wait()
	s.mu.Lock()
	s.waitErr = err
	s.mu.Unlock()

	close(s.exited)
	close(s.frags)
}

type ffmpegTrack struct {
	cmd    *exec.Cmd
	stream *ffmpegStream
	grace  time.Duration

	once    sync.Once
	mu      sync.Mutex
	stopped bool
}

func (t *ffmpegTrack) requested() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *ffmpegTrack) Active() bool {
	select {
	case <-t.stream.exited:
		return false
	default:
		return true
	}
}

// Stop interrupts ffmpeg so it finalizes the container, killing it if it
// has not exited after the grace period. It returns once the process is gone.
func (t *ffmpegTrack) Stop() error {
	var err error
	t.once.Do(func() {
		t.mu.Lock()
		t.stopped = true
		t.mu.Unlock()

		if !t.Active() {
			return
		}
		if sigErr := t.cmd.Process.Signal(os.Interrupt); sigErr != nil {
			err = t.kill()
			return
		}
		select {
		case <-t.stream.exited:
		case <-time.After(t.grace):
			err = t.kill()
		}
	})
	return err
}

func (t *ffmpegTrack) kill() error {
	if err := t.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("killing ffmpeg: %w", err)
	}
	<-t.stream.exited
	return nil
}
