package spectra

import (
	"os"
	"time"

	"github.com/himanishpuri/spectra/pkg/spectra/audio"
	"github.com/himanishpuri/spectra/pkg/spectra/capture"
	"github.com/himanishpuri/spectra/pkg/spectra/client"
)

// SilenceThreshold is the peak amplitude below which the backend rejects audio.
const SilenceThreshold = 1e-3

type Config struct {
	BackendURL string
	TempDir    string
	SampleRate int
	FFmpegPath string

	MaxDuration  time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
	MaxPolls     int

	CaptureFormat string
	CaptureDevice string
	CaptureCodec  string
	LockFile      string

	Logger    Logger
	History   History
	Recorder  Recorder
	Matcher   Matcher
	Encoder   Encoder
	Listeners []func(UIState)
}

type Option func(*Config)

func WithBackendURL(url string) Option {
	return func(c *Config) {
		c.BackendURL = url
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithFFmpegPath(path string) Option {
	return func(c *Config) {
		c.FFmpegPath = path
	}
}

// WithMaxDuration sets the auto-stop limit. Zero disables auto-stop.
func WithMaxDuration(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDuration = d
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = d
	}
}

// WithPollTimeout bounds how long a task may stay pending. Negative disables the bound.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.PollTimeout = d
	}
}

func WithMaxPolls(n int) Option {
	return func(c *Config) {
		c.MaxPolls = n
	}
}

// WithCaptureInput selects the ffmpeg input format and device.
func WithCaptureInput(format, device string) Option {
	return func(c *Config) {
		c.CaptureFormat = format
		c.CaptureDevice = device
	}
}

func WithCaptureCodec(codec string) Option {
	return func(c *Config) {
		c.CaptureCodec = codec
	}
}

func WithLockFile(path string) Option {
	return func(c *Config) {
		c.LockFile = path
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithHistory(h History) Option {
	return func(c *Config) {
		c.History = h
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Config) {
		c.Recorder = r
	}
}

func WithMatcher(m Matcher) Option {
	return func(c *Config) {
		c.Matcher = m
	}
}

func WithEncoder(e Encoder) Option {
	return func(c *Config) {
		c.Encoder = e
	}
}

// WithStateListener registers fn to be called after every state transition.
func WithStateListener(fn func(UIState)) Option {
	return func(c *Config) {
		if fn != nil {
			c.Listeners = append(c.Listeners, fn)
		}
	}
}

func defaultConfig() *Config {
	return &Config{
		TempDir:      os.TempDir(),
		SampleRate:   audio.DefaultSampleRate,
		MaxDuration:  capture.DefaultMaxDuration,
		PollInterval: client.DefaultPollInterval,
		PollTimeout:  client.DefaultPollTimeout,
		CaptureCodec: "webm",
	}
}
