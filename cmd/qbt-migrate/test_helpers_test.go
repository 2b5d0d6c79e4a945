package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"qbtmigrate/internal/config"
	"qbtmigrate/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	btBackup   string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	home := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("QBT_BT_BACKUP_PATH", "")
	t.Setenv("QBT_MIGRATE_STATE_DIR", "")

	cfg := testsupport.NewConfig(t, opts...)
	configPath := filepath.Join(home, ".config", "qbt-migrate", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, btBackup: cfg.Paths.BTBackupDir}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()

	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	testsupport.WriteBytes(t, path, data)
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
