package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

const (
	containerMarker   = "/.dockerenv"
	containerBTBackup = "/config/qBittorrent/BT_backup"
)

// Host describes the environment used to locate qBittorrent's default
// BT_backup directory. Zero-valued function fields fall back to the os
// package.
type Host struct {
	GOOS   string
	Getenv func(string) string
	Stat   func(string) (fs.FileInfo, error)
}

// CurrentHost returns the Host for the running process.
func CurrentHost() Host {
	return Host{GOOS: runtime.GOOS, Getenv: os.Getenv, Stat: os.Stat}
}

func (h Host) getenv(key string) string {
	if h.Getenv == nil {
		return os.Getenv(key)
	}
	return h.Getenv(key)
}

func (h Host) stat(path string) (fs.FileInfo, error) {
	if h.Stat == nil {
		return os.Stat(path)
	}
	return h.Stat(path)
}

// DiscoverBTBackupDir returns qBittorrent's default BT_backup location:
// %LOCALAPPDATA%\qBittorrent\BT_backup on Windows, the linuxserver.io
// container layout when running inside Docker, and the XDG data directory
// under $HOME otherwise. An empty string means no candidate could be built.
func DiscoverBTBackupDir(h Host) string {
	if h.GOOS == "windows" {
		base := h.getenv("LOCALAPPDATA")
		if base == "" {
			return ""
		}
		return base + `\qBittorrent\BT_backup`
	}

	if marker, err := h.stat(containerMarker); err == nil && marker.Mode().IsRegular() {
		if dir, err := h.stat(containerBTBackup); err == nil && dir.IsDir() {
			return containerBTBackup
		}
	}

	home := h.getenv("HOME")
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".local", "share", "data", "qBittorrent", "BT_backup")
}
