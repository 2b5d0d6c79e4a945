package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"qbtmigrate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test:
// base/BT_backup (created), base/backups, and base/state.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.BTBackupDir = filepath.Join(base, "BT_backup")
	cfgVal.Paths.BackupDir = filepath.Join(base, "backups")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Migrate.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.Paths.BTBackupDir, 0o755); err != nil {
		t.Fatalf("mkdir BT_backup: %v", err)
	}
	return builder.cfg
}

// WithoutJournal disables the sqlite run journal.
func WithoutJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = false
	}
}

// WithMigrate edits the [migrate] section.
func WithMigrate(edit func(*config.Migrate)) ConfigOption {
	return func(b *configBuilder) {
		edit(&b.cfg.Migrate)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
