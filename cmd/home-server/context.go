package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Ocean50ul/home-server/internal/config"
	"github.com/Ocean50ul/home-server/internal/logging"
	"github.com/Ocean50ul/home-server/internal/runlock"
)

// commandContext carries the lazily loaded configuration shared by all
// subcommands.
type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// runLogger builds a file-only logger for one-shot commands. Tables and
// summaries own stdout; the detailed run log goes to the log file.
func (c *commandContext) runLogger(cfg *config.Config) *slog.Logger {
	if cfg == nil || strings.TrimSpace(cfg.Logging.Dir) == "" {
		return logging.NewNop()
	}
	logPath := logging.FilePath(cfg.Logging.Dir)
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withRunLock serializes sync, resample and prepare runs against the same
// library. A held lock fails fast instead of queueing.
func withRunLock(cfg *config.Config, fn func() error) error {
	lock := runlock.New(cfg.Logging.Dir)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
