package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"qbtmigrate/internal/config"
	"qbtmigrate/internal/journal"
	"qbtmigrate/internal/logging"
)

type globalFlags struct {
	config   string
	btBackup string
	logLevel string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		overrides := []config.Override{config.WithBTBackupDir(c.flags.btBackup)}
		if level := strings.TrimSpace(c.flags.logLevel); level != "" {
			overrides = append(overrides, func(cfg *config.Config) {
				cfg.Logging.Level = level
			})
		}
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config), overrides...)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

// logger builds the run logger writing to the command's stderr.
func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
		File:   cfg.Logging.File,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// openJournal returns nil when the journal is disabled.
func (c *commandContext) openJournal(cfg *config.Config) (*journal.Store, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	store, err := journal.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return store, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
