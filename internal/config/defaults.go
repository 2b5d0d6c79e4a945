package config

const (
	defaultConfigPath = "~/.config/qbt-migrate/config.toml"
	projectConfigName = "qbt-migrate.toml"
	defaultStateDir   = "~/.local/share/qbt-migrate"
	journalFileName   = "journal.db"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"
	defaultWorkers    = 4
	maxWorkers        = 256
	btBackupEnv       = "QBT_BT_BACKUP_PATH"
	stateDirEnv       = "QBT_MIGRATE_STATE_DIR"
)

// Default returns a Config populated with repository defaults. The BT_backup
// directory is left empty and discovered during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
		},
		Migrate: Migrate{
			CreateBackup:    true,
			IncludeTorrents: true,
			Workers:         defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Journal: Journal{
			Enabled: true,
		},
	}
}
