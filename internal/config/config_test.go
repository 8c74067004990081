package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/himanishpuri/spectra/internal/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"SPECTRA_BACKEND_URL", "SPECTRA_POLL_INTERVAL", "SPECTRA_POLL_TIMEOUT",
		"SPECTRA_MAX_POLLS", "SPECTRA_MAX_DURATION", "SPECTRA_SAMPLE_RATE",
		"SPECTRA_TEMP_DIR", "SPECTRA_FFMPEG_PATH", "SPECTRA_LOG_LEVEL", "LOG_LEVEL",
		"SPECTRA_HISTORY_PATH", "SPECTRA_HISTORY_ENABLED",
		"SPECTRA_CAPTURE_FORMAT", "SPECTRA_CAPTURE_DEVICE",
	} {
		t.Setenv(key, "")
	}
	return home
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	home := isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if resolved != filepath.Join(home, ".config", "spectra", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}

	if cfg.BackendURL != config.DefaultBackendURL {
		t.Fatalf("unexpected backend url %q", cfg.BackendURL)
	}
	if cfg.PollInterval.Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected poll interval %v", cfg.PollInterval)
	}
	if cfg.PollTimeout.Duration != 2*time.Minute {
		t.Fatalf("unexpected poll timeout %v", cfg.PollTimeout)
	}
	if cfg.MaxDuration.Duration != 5*time.Second {
		t.Fatalf("unexpected max duration %v", cfg.MaxDuration)
	}
	if cfg.SampleRate != 22050 {
		t.Fatalf("unexpected sample rate %d", cfg.SampleRate)
	}
	if cfg.Capture.Codec != "webm" {
		t.Fatalf("unexpected codec %q", cfg.Capture.Codec)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.History.Path != filepath.Join(home, ".local", "share", "spectra", "history.sqlite3") {
		t.Fatalf("unexpected history path %q", cfg.History.Path)
	}
	if !filepath.IsAbs(cfg.TempDir) || !filepath.IsAbs(cfg.Capture.LockFile) {
		t.Fatalf("expected absolute temp dir and lock file, got %q %q", cfg.TempDir, cfg.Capture.LockFile)
	}
}

func TestLoadFileValues(t *testing.T) {
	home := isolate(t)
	path := writeConfig(t, t.TempDir(), `
backend_url = "https://match.example.com/"
poll_interval = "250ms"
poll_timeout = "-1s"
max_polls = 40
max_duration = "8s"
sample_rate = 44100
temp_dir = "~/scratch"
log_level = "DEBUG"

[capture]
format = "alsa"
device = "hw:1"

[history]
enabled = false
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be used, got %q exists=%v", path, resolved, exists)
	}
	if cfg.BackendURL != "https://match.example.com" {
		t.Errorf("trailing slash not trimmed: %q", cfg.BackendURL)
	}
	if cfg.PollInterval.Duration != 250*time.Millisecond || cfg.PollTimeout.Duration != -time.Second {
		t.Errorf("unexpected polling %v %v", cfg.PollInterval, cfg.PollTimeout)
	}
	if cfg.MaxPolls != 40 || cfg.MaxDuration.Duration != 8*time.Second || cfg.SampleRate != 44100 {
		t.Errorf("unexpected values %+v", cfg)
	}
	if cfg.TempDir != filepath.Join(home, "scratch") {
		t.Errorf("tilde not expanded: %q", cfg.TempDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level not normalized: %q", cfg.LogLevel)
	}
	if cfg.Capture.Format != "alsa" || cfg.Capture.Device != "hw:1" || cfg.Capture.Codec != "webm" {
		t.Errorf("unexpected capture %+v", cfg.Capture)
	}
	if cfg.History.Enabled {
		t.Error("history should be disabled by the file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, t.TempDir(), `backend_url = "http://file.example"`+"\n"+`poll_interval = "2s"`+"\n")

	t.Setenv("SPECTRA_BACKEND_URL", "http://env.example:8080")
	t.Setenv("SPECTRA_POLL_INTERVAL", "100ms")
	t.Setenv("SPECTRA_MAX_POLLS", "7")
	t.Setenv("SPECTRA_HISTORY_ENABLED", "false")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.BackendURL != "http://env.example:8080" {
		t.Errorf("env did not override backend: %q", cfg.BackendURL)
	}
	if cfg.PollInterval.Duration != 100*time.Millisecond {
		t.Errorf("env did not override poll interval: %v", cfg.PollInterval)
	}
	if cfg.MaxPolls != 7 || cfg.History.Enabled {
		t.Errorf("unexpected env overrides %+v", cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("SPECTRA_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPECTRA_TEST_DOTENV", "")
	os.Unsetenv("SPECTRA_TEST_DOTENV")

	if err := config.LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := config.GetEnv("SPECTRA_TEST_DOTENV", "fallback"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
	if err := config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("expected an error for a missing .env file")
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("SPECTRA_TEST_INT", "12")
	if got := config.GetEnvInt("SPECTRA_TEST_INT", 3); got != 12 {
		t.Errorf("got %d want 12", got)
	}
	t.Setenv("SPECTRA_TEST_INT", "twelve")
	if got := config.GetEnvInt("SPECTRA_TEST_INT", 3); got != 3 {
		t.Errorf("invalid integer should fall back, got %d", got)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad scheme", `backend_url = "ftp://x"`, "http or https"},
		{"no host", `backend_url = "http://"`, "no host"},
		{"bad duration", `poll_interval = "soon"`, "parse config"},
		{"negative interval", `poll_interval = "-1s"`, "poll_interval must be positive"},
		{"timeout below interval", "poll_interval = \"2s\"\npoll_timeout = \"1s\"", "poll_timeout"},
		{"negative max polls", `max_polls = -1`, "max_polls"},
		{"sample rate", `sample_rate = 100`, "sample_rate"},
		{"log level", `log_level = "chatty"`, "log_level"},
		{"codec", "[capture]\ncodec = \"mp3\"", "capture.codec"},
		{"unknown key", `backend = "http://x"`, "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := writeConfig(t, t.TempDir(), tt.body+"\n")
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateRequiresBackendURL(t *testing.T) {
	isolate(t)
	cfg := config.Default()
	cfg.BackendURL = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "spectra config init") {
		t.Fatalf("expected guidance in error, got %v", err)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "conf", "config.toml")

	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if err := config.CreateSample(path); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected refusal to overwrite, got %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := toml.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists || cfg.PollInterval.Duration != 1500*time.Millisecond {
		t.Fatalf("unexpected sample values %+v", cfg)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	isolate(t)
	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(out), "poll_interval = '1.5s'") && !strings.Contains(string(out), `poll_interval = "1.5s"`) {
		t.Errorf("durations should encode as strings:\n%s", out)
	}

	path := writeConfig(t, t.TempDir(), string(out))
	again, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("encoded config should load again: %v", err)
	}
	if again.PollTimeout != cfg.PollTimeout || again.History != cfg.History {
		t.Errorf("round trip changed values: %+v vs %+v", again, cfg)
	}
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)
	got, err := config.ExpandPath("~/music/x")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "music", "x") {
		t.Errorf("unexpected expansion %q", got)
	}
	if got, _ := config.ExpandPath(""); got != "" {
		t.Errorf("empty path should stay empty, got %q", got)
	}
}
