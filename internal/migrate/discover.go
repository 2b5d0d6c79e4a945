package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"qbtmigrate/internal/fastresume"
	"qbtmigrate/internal/logging"
)

// Skipped is a record that failed to load while bad files were being skipped.
type Skipped struct {
	Path string
	Err  error
}

// Discovery is the result of scanning a BT_backup directory.
type Discovery struct {
	// Scanned counts every top-level .fastresume file considered.
	Scanned int
	Records []*fastresume.Record
	Skipped []Skipped
}

// Paths returns the file paths of the matched records.
func (d *Discovery) Paths() []string {
	paths := make([]string, len(d.Records))
	for i, rec := range d.Records {
		paths[i] = rec.Path()
	}
	return paths
}

// Matcher reports whether a record's save paths are relevant to a run.
type Matcher func(rec *fastresume.Record) bool

// NewMatcher matches records whose save_path or qBt-savePath contains pattern.
// In regex mode a record also matches when pattern finds a match anywhere in
// either field.
func NewMatcher(pattern string, useRegex bool) (Matcher, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("existing path: %w", fastresume.ErrEmptyPath)
	}
	var re *regexp.Regexp
	if useRegex {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
		}
		re = compiled
	}
	return func(rec *fastresume.Record) bool {
		for _, read := range []func() (string, bool){rec.SavePath, rec.QBtSavePath} {
			value, ok := read()
			if !ok {
				continue
			}
			if strings.Contains(value, pattern) {
				return true
			}
			if re != nil && re.MatchString(value) {
				return true
			}
		}
		return false
	}, nil
}

// Discover loads every top-level .fastresume file in the batch directory and
// keeps those matching pattern. A file that fails to load aborts discovery
// unless skipBad is set, in which case it is logged and listed in Skipped.
func (b *Batch) Discover(ctx context.Context, pattern string, useRegex, skipBad bool) (*Discovery, error) {
	logger := logging.WithContext(ctx, b.logger)

	match, err := NewMatcher(pattern, useRegex)
	if err != nil {
		return nil, err
	}
	files, err := listRecords(b.dir)
	if err != nil {
		return nil, err
	}

	found := &Discovery{Scanned: len(files)}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := fastresume.Load(path, fastresume.WithLogger(logger), fastresume.WithClock(b.now))
		if err != nil {
			if !skipBad {
				return nil, err
			}
			logging.WarnWithContext(logger, "skipping unreadable fastresume", "fastresume_skipped",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect or remove the file, then rerun"),
				logging.String(logging.FieldImpact, "record is left unchanged"),
			)
			found.Skipped = append(found.Skipped, Skipped{Path: path, Err: err})
			continue
		}
		if match(rec) {
			found.Records = append(found.Records, rec)
		}
	}

	logger.Info("discovery complete",
		logging.Int("scanned", found.Scanned),
		logging.Int("matched", len(found.Records)),
		logging.Int("skipped", len(found.Skipped)),
	)
	return found, nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotADirectory, dir)
		}
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotADirectory, dir)
	}
	return nil
}

func listRecords(dir string) ([]string, error) {
	if err := checkDir(dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), fastresume.Extension) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
