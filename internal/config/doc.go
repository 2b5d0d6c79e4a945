// Package config loads, normalizes, and validates qbt-migrate configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts and
// environment variables), reads TOML files, and honours the
// QBT_BT_BACKUP_PATH fallback. When no BT_backup directory is configured the
// platform default is discovered from the host: Windows local app data, the
// linuxserver.io container layout, or the XDG data directory.
//
// Command-line flags override individual migrate settings after Load returns.
package config
