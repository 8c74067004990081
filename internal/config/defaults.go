package config

import "time"

// DefaultBackendURL is the recognition service used when nothing overrides it.
// Release builds set it with
// -ldflags "-X github.com/himanishpuri/spectra/internal/config.DefaultBackendURL=...".
var DefaultBackendURL = "http://localhost:5000"

const (
	defaultConfigPath   = "~/.config/spectra/config.toml"
	projectConfigFile   = "spectra.toml"
	defaultPollInterval = 1500 * time.Millisecond
	defaultPollTimeout  = 2 * time.Minute
	defaultMaxDuration  = 5 * time.Second
	defaultSampleRate   = 22050
	defaultFFmpegPath   = "ffmpeg"
	defaultCaptureCodec = "webm"
	defaultHistoryPath  = "~/.local/share/spectra/history.sqlite3"
	defaultLockFileName = "spectra-capture.lock"
	defaultTempDirName  = "spectra"
	defaultLogLevel     = "info"

	minSampleRate = 8000
	maxSampleRate = 192000
)

const envPrefix = "SPECTRA_"
