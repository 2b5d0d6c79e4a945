package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"qbtmigrate/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks a migration depends on. Checks are
// only run when the corresponding feature is enabled.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("BT_backup directory", cfg.Paths.BTBackupDir)}

	if cfg.Migrate.CreateBackup {
		results = append(results, CheckCreatable("Backup directory", cfg.Paths.BackupDir))
	}
	if cfg.Journal.Enabled {
		results = append(results, CheckCreatable("State directory", cfg.Paths.StateDir))
	}
	return results
}

// Err joins the details of every failed result, or returns nil.
func Err(results []Result) error {
	var errs []error
	for _, r := range results {
		if !r.Passed {
			errs = append(errs, fmt.Errorf("%s: %s", r.Name, r.Detail))
		}
	}
	return errors.Join(errs...)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := accessReadWrite(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCreatable passes when path is a writable directory or can be created
// inside its nearest existing ancestor.
func CheckCreatable(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	dir := path
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing ancestor)", path)}
		}
		dir = parent
	}
	check := CheckDirectoryAccess(name, dir)
	if !check.Passed {
		return check
	}
	if dir != path {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	}
	return check
}
