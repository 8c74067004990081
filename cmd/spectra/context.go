package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/spectra/internal/config"
	"github.com/himanishpuri/spectra/internal/history"
	"github.com/himanishpuri/spectra/pkg/logger"
	"github.com/himanishpuri/spectra/pkg/spectra"
	"github.com/himanishpuri/spectra/pkg/spectra/present"
)

// errReported marks a failure the command already showed to the user.
var errReported = errors.New("reported")

type globalFlags struct {
	config   string
	backend  string
	json     bool
	logLevel string
}

type commandContext struct {
	flags *globalFlags

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if backend := strings.TrimSpace(c.flags.backend); backend != "" {
			cfg.BackendURL = strings.TrimRight(backend, "/")
		}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			cfg.LogLevel = strings.ToLower(level)
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		if lvl, ok := logger.ParseLevel(cfg.LogLevel); ok {
			logger.SetLevel(lvl)
		}
		if exists {
			logger.Debugf("Loaded config from %s", path)
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

// configureLogging routes log lines to the command's stderr.
func (c *commandContext) configureLogging(cmd *cobra.Command) {
	log := logger.GetLogger()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetColorize(logger.IsTerminal(cmd.ErrOrStderr()))
	if lvl, ok := logger.ParseLevel(c.flags.logLevel); ok && c.flags.logLevel != "" {
		log.SetLevel(lvl)
	}
}

func (c *commandContext) jsonOutput() bool {
	return c.flags.json
}

func (c *commandContext) presenter(cmd *cobra.Command) present.Presenter {
	if c.jsonOutput() {
		return present.JSONPresenter{}
	}
	return present.NewTextPresenter(cmd.OutOrStdout())
}

// newApp builds the pipeline from the loaded config. The returned func
// releases the history database.
func (c *commandContext) newApp(opts ...spectra.Option) (*spectra.App, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	options := []spectra.Option{
		spectra.WithBackendURL(cfg.BackendURL),
		spectra.WithTempDir(cfg.TempDir),
		spectra.WithSampleRate(cfg.SampleRate),
		spectra.WithFFmpegPath(cfg.FFmpegPath),
		spectra.WithMaxDuration(cfg.MaxDuration.Duration),
		spectra.WithPollInterval(cfg.PollInterval.Duration),
		spectra.WithPollTimeout(cfg.PollTimeout.Duration),
		spectra.WithMaxPolls(cfg.MaxPolls),
		spectra.WithCaptureInput(cfg.Capture.Format, cfg.Capture.Device),
		spectra.WithCaptureCodec(cfg.Capture.Codec),
		spectra.WithLockFile(cfg.Capture.LockFile),
		spectra.WithLogger(logger.GetLogger()),
	}

	cleanup := func() {}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			logger.Warnf("History disabled: %v", err)
		} else {
			options = append(options, spectra.WithHistory(store))
			cleanup = func() { store.Close() }
		}
	}

	app, err := spectra.NewApp(append(options, opts...)...)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build pipeline: %w", err)
	}
	return app, cleanup, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
