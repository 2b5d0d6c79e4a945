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

// Paths contains directory configuration.
type Paths struct {
	// BTBackupDir is qBittorrent's BT_backup directory holding .fastresume files.
	BTBackupDir string `toml:"bt_backup_dir"`
	// BackupDir receives the zip archive taken before a batch. Empty means the
	// parent of BTBackupDir.
	BackupDir string `toml:"backup_dir"`
	// StateDir holds the run journal.
	StateDir string `toml:"state_dir"`
}

// Migrate contains batch migration defaults. Command-line flags override them.
type Migrate struct {
	CreateBackup         bool   `toml:"create_backup"`
	IncludeTorrents      bool   `toml:"include_torrents"`
	RecordBackups        bool   `toml:"record_backups"`
	SkipBadFiles         bool   `toml:"skip_bad_files"`
	Regex                bool   `toml:"regex"`
	TargetOS             string `toml:"target_os"`
	Workers              int    `toml:"workers"`
	ArchiveRetentionDays int    `toml:"archive_retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Journal controls the sqlite run history.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Config encapsulates all configuration values for qbt-migrate.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Migrate Migrate `toml:"migrate"`
	Logging Logging `toml:"logging"`
	Journal Journal `toml:"journal"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Override adjusts a decoded config before it is normalized and validated.
type Override func(*Config)

// WithBTBackupDir replaces paths.bt_backup_dir. An empty dir is ignored.
func WithBTBackupDir(dir string) Override {
	return func(c *Config) {
		if dir = strings.TrimSpace(dir); dir != "" {
			c.Paths.BTBackupDir = dir
		}
	}
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. Overrides apply on top of the file.
func Load(path string, overrides ...Override) (*Config, string, bool, error) {
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
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	for _, override := range overrides {
		override(&cfg)
	}

	if err := cfg.Normalize(); err != nil {
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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
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

// JournalPath returns the sqlite database location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, journalFileName)
}

// EnsureDirectories creates the state directory when the journal is enabled.
func (c *Config) EnsureDirectories() error {
	if !c.Journal.Enabled {
		return nil
	}
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	return nil
}

// Encode renders c as TOML.
func (c *Config) Encode() ([]byte, error) {
	var b strings.Builder
	enc := toml.NewEncoder(&b)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return []byte(b.String()), nil
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
	cleaned := filepath.Clean(os.ExpandEnv(pathValue))
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
