package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMigrate(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.BTBackupDir == "" {
		return fmt.Errorf("paths.bt_backup_dir is required. Set %s or edit the config file (create with 'qbt-migrate config init')", btBackupEnv)
	}
	if c.Journal.Enabled && c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set when the journal is enabled")
	}
	return nil
}

func (c *Config) validateMigrate() error {
	switch cases.Fold().String(strings.TrimSpace(c.Migrate.TargetOS)) {
	case "", "windows", "win", "linux", "mac", "macos", "posix":
	default:
		return fmt.Errorf("migrate.target_os: unsupported value %q (want Windows, Linux, or Mac)", c.Migrate.TargetOS)
	}
	if c.Migrate.Workers < 1 || c.Migrate.Workers > maxWorkers {
		return fmt.Errorf("migrate.workers must be between 1 and %d", maxWorkers)
	}
	if c.Migrate.ArchiveRetentionDays < 0 {
		return errors.New("migrate.archive_retention_days must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
