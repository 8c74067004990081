package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if strings.TrimSpace(c.FFmpegPath) == "" {
		c.FFmpegPath = defaultFFmpegPath
	}
	if c.SampleRate == 0 {
		c.SampleRate = defaultSampleRate
	}
	if c.PollInterval.Duration == 0 {
		c.PollInterval.Duration = defaultPollInterval
	}
	if c.MaxDuration.Duration == 0 {
		c.MaxDuration.Duration = defaultMaxDuration
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.TempDir) == "" {
		c.TempDir = filepath.Join(os.TempDir(), defaultTempDirName)
	}
	if c.TempDir, err = expandPath(c.TempDir); err != nil {
		return fmt.Errorf("temp_dir: %w", err)
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	if strings.TrimSpace(c.Capture.LockFile) == "" {
		c.Capture.LockFile = filepath.Join(os.TempDir(), defaultLockFileName)
	}
	if c.Capture.LockFile, err = expandPath(c.Capture.LockFile); err != nil {
		return fmt.Errorf("capture.lock_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeCapture() {
	c.Capture.Format = strings.TrimSpace(c.Capture.Format)
	c.Capture.Device = strings.TrimSpace(c.Capture.Device)
	c.Capture.Codec = strings.ToLower(strings.TrimSpace(c.Capture.Codec))
	if c.Capture.Codec == "" {
		c.Capture.Codec = defaultCaptureCodec
	}
}
