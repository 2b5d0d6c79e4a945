package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"qbtmigrate/internal/fastresume"
	"qbtmigrate/internal/fileutil"
	"qbtmigrate/internal/logging"
)

const (
	namePrefix = "fastresume_backup"
	nameSuffix = ".zip"
	timeLayout = "20060102150405"

	resumeExt  = fastresume.Extension
	torrentExt = ".torrent"
)

// ErrExists reports an archive name that is already taken.
var ErrExists = errors.New("backup archive already exists")

// Options configures Create.
type Options struct {
	// SourceDir is the BT_backup directory. Only its top-level files are read.
	SourceDir string
	// DestDir receives the archive. Empty means the parent of SourceDir.
	DestDir         string
	IncludeTorrents bool
	Now             func() time.Time
	Logger          *slog.Logger
}

// Entry describes one archived file.
type Entry struct {
	Name   string
	Digest fileutil.Digest
}

// Manifest lists what Create wrote, in archive order.
type Manifest struct {
	Path      string
	CreatedAt time.Time
	Entries   []Entry
}

// Name returns the archive file name for ts.
func Name(ts time.Time) string {
	return namePrefix + ts.Format(timeLayout) + nameSuffix
}

// Create writes a zip of every top-level .fastresume file in SourceDir, plus
// .torrent files when IncludeTorrents is set. Subdirectories are skipped and
// entries are stored under their base names. The archive is assembled in a
// temporary file and moved into place only after every entry was copied, so a
// failed run leaves no partial archive behind.
func Create(ctx context.Context, opts Options) (*Manifest, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	files, err := collect(opts.SourceDir, opts.IncludeTorrents)
	if err != nil {
		return nil, err
	}

	destDir := opts.DestDir
	if destDir == "" {
		destDir = filepath.Dir(filepath.Clean(opts.SourceDir))
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	created := now()
	target := filepath.Join(destDir, Name(created))
	if _, err := os.Stat(target); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, target)
	}

	logger.Info("creating backup archive",
		logging.String("archive", target),
		logging.Int("files", len(files)),
		logging.Bool("include_torrents", opts.IncludeTorrents),
	)

	tmp, err := os.CreateTemp(destDir, "."+namePrefix+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp archive: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	manifest := &Manifest{Path: target, CreatedAt: created, Entries: make([]Entry, 0, len(files))}
	zw := zip.NewWriter(tmp)
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		digest, err := addFile(zw, filepath.Join(opts.SourceDir, name), name)
		if err != nil {
			return nil, fmt.Errorf("archive %s: %w", name, err)
		}
		manifest.Entries = append(manifest.Entries, Entry{Name: name, Digest: digest})
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	if err := atomic.ReplaceFile(tmpName, target); err != nil {
		return nil, fmt.Errorf("move archive into place: %w", err)
	}
	committed = true

	logger.Info("backup archive created", logging.String("archive", target), logging.Int("entries", len(manifest.Entries)))
	return manifest, nil
}

func collect(dir string, includeTorrents bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		// Extensions match case-sensitively, like discovery does.
		switch filepath.Ext(name) {
		case resumeExt:
		case torrentExt:
			if !includeTorrents {
				continue
			}
		default:
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

func addFile(zw *zip.Writer, path, name string) (fileutil.Digest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileutil.Digest{}, err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fileutil.Digest{}, err
	}
	header.Name = name
	header.Method = zip.Deflate
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fileutil.Digest{}, err
	}
	return fileutil.CopyVerified(path, w)
}

// Verify re-reads the archive at m.Path and checks that it holds exactly the
// manifest entries with matching content hashes.
func Verify(m *Manifest) error {
	zr, err := zip.OpenReader(m.Path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	got := make(map[string]fileutil.Digest, len(zr.File))
	for _, f := range zr.File {
		digest, err := hashEntry(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", f.Name, err)
		}
		got[f.Name] = digest
	}
	if len(got) != len(m.Entries) {
		return fmt.Errorf("archive has %d entries, manifest lists %d", len(got), len(m.Entries))
	}
	for _, e := range m.Entries {
		digest, ok := got[e.Name]
		if !ok {
			return fmt.Errorf("archive is missing %s", e.Name)
		}
		if digest != e.Digest {
			return fmt.Errorf("archive entry %s does not match source hash", e.Name)
		}
	}
	return nil
}

func hashEntry(f *zip.File) (fileutil.Digest, error) {
	rc, err := f.Open()
	if err != nil {
		return fileutil.Digest{}, err
	}
	defer rc.Close()
	return fileutil.HashReader(rc)
}

// Prune removes archives in dir older than retentionDays, never touching
// keep. A retentionDays value of 0 disables pruning.
func Prune(logger *slog.Logger, dir string, retentionDays int, now time.Time, keep string) []string {
	if retentionDays <= 0 {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var removed []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, namePrefix) || !strings.HasSuffix(name, nameSuffix) {
			continue
		}
		full := filepath.Join(dir, name)
		if full == keep {
			continue
		}
		ts, err := time.ParseInLocation(timeLayout, strings.TrimSuffix(strings.TrimPrefix(name, namePrefix), nameSuffix), now.Location())
		if err != nil || !ts.Before(cutoff) {
			continue
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(logger, "archive prune failed; file remains", "archive_prune_failed",
				logging.String("path", full),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on the backup directory"),
				logging.String(logging.FieldImpact, "old archive remains on disk"),
			)
			continue
		}
		logger.Info("archive pruned", logging.String("path", full), logging.String(logging.FieldEventType, "archive_pruned"))
		removed = append(removed, full)
	}
	return removed
}
