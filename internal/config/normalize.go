package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize(host Host) error {
	if err := c.normalizePaths(host); err != nil {
		return err
	}
	c.normalizeMigrate()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

// Normalize applies environment fallbacks and path expansion using the
// current host. Load calls it; commands that build a Config in code use it
// directly.
func (c *Config) Normalize() error {
	return c.normalize(CurrentHost())
}

func (c *Config) normalizePaths(host Host) error {
	var err error
	c.Paths.BTBackupDir = strings.TrimSpace(c.Paths.BTBackupDir)
	if c.Paths.BTBackupDir == "" {
		if value := strings.TrimSpace(host.getenv(btBackupEnv)); value != "" {
			c.Paths.BTBackupDir = value
		} else {
			c.Paths.BTBackupDir = DiscoverBTBackupDir(host)
		}
	}
	if c.Paths.BTBackupDir, err = expandPath(c.Paths.BTBackupDir); err != nil {
		return fmt.Errorf("paths.bt_backup_dir: %w", err)
	}

	c.Paths.BackupDir = strings.TrimSpace(c.Paths.BackupDir)
	if c.Paths.BackupDir == "" && c.Paths.BTBackupDir != "" {
		c.Paths.BackupDir = filepath.Dir(c.Paths.BTBackupDir)
	}
	if c.Paths.BackupDir, err = expandPath(c.Paths.BackupDir); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}

	if value := strings.TrimSpace(host.getenv(stateDirEnv)); value != "" {
		c.Paths.StateDir = value
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMigrate() {
	c.Migrate.TargetOS = strings.TrimSpace(c.Migrate.TargetOS)
	if c.Migrate.Workers == 0 {
		c.Migrate.Workers = defaultWorkers
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	var err error
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}
