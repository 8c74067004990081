package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Capture configures the microphone input.
type Capture struct {
	Format   string `toml:"format"`
	Device   string `toml:"device"`
	Codec    string `toml:"codec"`
	LockFile string `toml:"lock_file"`
}

// History configures the local match history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Config holds every setting the CLI needs to build an App.
type Config struct {
	BackendURL   string   `toml:"backend_url"`
	PollInterval Duration `toml:"poll_interval"`
	PollTimeout  Duration `toml:"poll_timeout"`
	MaxPolls     int      `toml:"max_polls"`
	MaxDuration  Duration `toml:"max_duration"`
	SampleRate   int      `toml:"sample_rate"`
	TempDir      string   `toml:"temp_dir"`
	FFmpegPath   string   `toml:"ffmpeg_path"`
	LogLevel     string   `toml:"log_level"`
	Capture      Capture  `toml:"capture"`
	History      History  `toml:"history"`
}

// Default returns the built-in configuration before normalization.
func Default() Config {
	return Config{
		BackendURL:   DefaultBackendURL,
		PollInterval: Duration{defaultPollInterval},
		PollTimeout:  Duration{defaultPollTimeout},
		MaxDuration:  Duration{defaultMaxDuration},
		SampleRate:   defaultSampleRate,
		FFmpegPath:   defaultFFmpegPath,
		LogLevel:     defaultLogLevel,
		Capture: Capture{
			Codec: defaultCaptureCodec,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
	}
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load resolves, parses, and validates the configuration. It returns the
// config, the path it looked at, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	_ = LoadDotEnv()
	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigFile)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// CreateSample writes the commented sample configuration to path. It refuses
// to overwrite an existing file.
func CreateSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	out, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return out, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath applies the config path rules (tilde, clean, absolute).
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
