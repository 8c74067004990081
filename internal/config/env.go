package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv reads KEY=value pairs into the process environment without
// overriding variables that are already set. With no paths ".env" is used.
// A missing file is reported as an error callers may ignore.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the variable named by key, or fallback when unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer variable named by key, or fallback when it
// is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

func (c *Config) applyEnv() error {
	c.BackendURL = GetEnv(envPrefix+"BACKEND_URL", c.BackendURL)
	c.TempDir = GetEnv(envPrefix+"TEMP_DIR", c.TempDir)
	c.FFmpegPath = GetEnv(envPrefix+"FFMPEG_PATH", c.FFmpegPath)
	c.LogLevel = GetEnv(envPrefix+"LOG_LEVEL", GetEnv("LOG_LEVEL", c.LogLevel))
	c.SampleRate = GetEnvInt(envPrefix+"SAMPLE_RATE", c.SampleRate)
	c.MaxPolls = GetEnvInt(envPrefix+"MAX_POLLS", c.MaxPolls)
	c.Capture.Format = GetEnv(envPrefix+"CAPTURE_FORMAT", c.Capture.Format)
	c.Capture.Device = GetEnv(envPrefix+"CAPTURE_DEVICE", c.Capture.Device)
	c.History.Path = GetEnv(envPrefix+"HISTORY_PATH", c.History.Path)

	if v, ok := os.LookupEnv(envPrefix + "HISTORY_ENABLED"); ok && strings.TrimSpace(v) != "" {
		enabled, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sHISTORY_ENABLED: %w", envPrefix, err)
		}
		c.History.Enabled = enabled
	}

	durations := []struct {
		key string
		dst *Duration
	}{
		{"POLL_INTERVAL", &c.PollInterval},
		{"POLL_TIMEOUT", &c.PollTimeout},
		{"MAX_DURATION", &c.MaxDuration},
	}
	for _, d := range durations {
		v := GetEnv(envPrefix+d.key, "")
		if v == "" {
			continue
		}
		if err := d.dst.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, d.key, err)
		}
	}
	return nil
}
