package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/himanishpuri/spectra/pkg/logger"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validatePolling(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if c.Capture.Codec != "webm" && c.Capture.Codec != "ogg" {
		return fmt.Errorf("capture.codec %q must be webm or ogg", c.Capture.Codec)
	}
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

func (c *Config) validateBackend() error {
	if c.BackendURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("backend_url is required. Set SPECTRA_BACKEND_URL, pass --backend, or edit %s (create with 'spectra config init')", defaultPath)
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("backend_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend_url %q must use http or https", c.BackendURL)
	}
	if u.Host == "" {
		return fmt.Errorf("backend_url %q has no host", c.BackendURL)
	}
	return nil
}

func (c *Config) validatePolling() error {
	if c.PollInterval.Duration <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.PollTimeout.Duration > 0 && c.PollTimeout.Duration < c.PollInterval.Duration {
		return errors.New("poll_timeout must be at least poll_interval")
	}
	if c.MaxPolls < 0 {
		return errors.New("max_polls must be 0 or positive")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.MaxDuration.Duration <= 0 {
		return errors.New("max_duration must be positive")
	}
	if c.SampleRate < minSampleRate || c.SampleRate > maxSampleRate {
		return fmt.Errorf("sample_rate must be between %d and %d", minSampleRate, maxSampleRate)
	}
	return nil
}
