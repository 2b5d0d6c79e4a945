package fastresume

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"

	"qbtmigrate/internal/bencode"
	"qbtmigrate/internal/logging"
)

// Field names a path-bearing key in the record's root dictionary.
type Field string

const (
	FieldSavePath     Field = "save_path"
	FieldQBtSavePath  Field = "qBt-savePath"
	FieldDownloadPath Field = "qBt-downloadPath"

	keyMappedFiles = "mapped_files"

	// Extension is the suffix of qBittorrent resume files.
	Extension = ".fastresume"

	backupTimeLayout = "20060102150405"
	newFilePerms     = 0o644
)

func (f Field) valid() bool {
	switch f {
	case FieldSavePath, FieldQBtSavePath, FieldDownloadPath:
		return true
	}
	return false
}

// Record is one decoded .fastresume file. A Record is not safe for concurrent
// use; batch processing gives each goroutine its own Record.
type Record struct {
	path       string
	doc        *bencode.Dict
	logger     *slog.Logger
	now        func() time.Time
	lastBackup string
}

// Option customizes a Record.
type Option func(*Record)

// WithLogger attaches a logger. Nil keeps the no-op default.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Record) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides the time source used for backup file names.
func WithClock(now func() time.Time) Option {
	return func(r *Record) {
		if now != nil {
			r.now = now
		}
	}
}

// Load reads and decodes the record at path. Errors are *LoadError values
// wrapping ErrNotFound, bencode.ErrMalformed, or ErrMissingRequiredField.
func Load(path string, opts ...Option) (*Record, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, &LoadError{Path: resolved, Err: err}
	}
	doc, err := bencode.DecodeDict(data)
	if err != nil {
		return nil, &LoadError{Path: resolved, Err: err}
	}
	rec, err := New(resolved, doc, opts...)
	if err != nil {
		return nil, &LoadError{Path: resolved, Err: err}
	}
	rec.logger.Debug("fastresume loaded", logging.Int("keys", doc.Len()))
	return rec, nil
}

// New wraps an already decoded document. The document must carry save_path or
// qBt-savePath as a byte string.
func New(path string, doc *bencode.Dict, opts ...Option) (*Record, error) {
	if doc == nil {
		doc = bencode.NewDict()
	}
	r := &Record{
		path:   path,
		doc:    doc,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logging.String(logging.FieldRecord, filepath.Base(path)))

	_, hasSave := r.SavePath()
	_, hasQBt := r.QBtSavePath()
	if !hasSave && !hasQBt {
		return nil, fmt.Errorf("%w: need %s or %s", ErrMissingRequiredField, FieldSavePath, FieldQBtSavePath)
	}
	return r, nil
}

func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrNotFound, abs)
	}
	if linked, err := filepath.EvalSymlinks(abs); err == nil {
		abs = linked
	}
	return abs, nil
}

// Path returns the backing file location.
func (r *Record) Path() string { return r.path }

// Document returns a deep copy of the root dictionary.
func (r *Record) Document() *bencode.Dict { return r.doc.Clone() }

// SavePath returns save_path and whether it is present.
func (r *Record) SavePath() (string, bool) { return r.stringField(FieldSavePath) }

// QBtSavePath returns qBt-savePath and whether it is present.
func (r *Record) QBtSavePath() (string, bool) { return r.stringField(FieldQBtSavePath) }

// DownloadPath returns qBt-downloadPath and whether it is present.
func (r *Record) DownloadPath() (string, bool) { return r.stringField(FieldDownloadPath) }

// MappedFiles returns the string entries of mapped_files and whether the list
// is present. Non-string entries are skipped here and left untouched on write.
func (r *Record) MappedFiles() ([]string, bool) {
	v, ok := r.doc.Get(keyMappedFiles)
	if !ok {
		return nil, false
	}
	items, ok := v.Items()
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.Str(); ok {
			out = append(out, s)
		}
	}
	return out, true
}

func (r *Record) stringField(f Field) (string, bool) {
	v, ok := r.doc.Get(string(f))
	if !ok {
		return "", false
	}
	return v.Str()
}

// Bytes returns the encoded document.
func (r *Record) Bytes() ([]byte, error) {
	return bencode.EncodeDict(r.doc)
}

// BackupPath returns the timestamped backup location for the current time.
func (r *Record) BackupPath() string {
	return fmt.Sprintf("%s.%s.bkup", r.path, r.now().Format(backupTimeLayout))
}

// LastBackup returns the file written by the most recent Backup call.
func (r *Record) LastBackup() string { return r.lastBackup }

// Backup serializes the current document to BackupPath.
func (r *Record) Backup() (string, error) {
	target := r.BackupPath()
	if err := r.Save(target); err != nil {
		return "", err
	}
	r.lastBackup = target
	return target, nil
}

// Save atomically writes the encoded document to target, or to the record's
// own path when target is empty. Existing file permissions are preserved.
func (r *Record) Save(target string) error {
	if target == "" {
		target = r.path
	}
	data, err := r.Bytes()
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.path, err)
	}

	mode := os.FileMode(newFilePerms)
	if info, statErr := os.Stat(target); statErr == nil {
		mode = info.Mode().Perm()
	}

	r.logger.Info("saving fastresume", logging.String("target", target))
	if err := atomic.WriteFile(target, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	// atomic.WriteFile keeps an existing target's mode. Newly created
	// targets, such as .bkup files, get newFilePerms here.
	if err := os.Chmod(target, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", target, err)
	}
	return nil
}
