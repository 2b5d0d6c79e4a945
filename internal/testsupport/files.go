package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"qbtmigrate/internal/bencode"
)

// Resume describes the path fields of a fixture .fastresume document. Empty
// strings omit the key; MappedFiles is written only when non-nil.
type Resume struct {
	SavePath     string
	QBtSavePath  string
	DownloadPath string
	MappedFiles  []string
}

// Document builds a document with the requested path fields surrounded by
// unrelated keys that must survive every rewrite untouched.
func (r Resume) Document() *bencode.Dict {
	doc := bencode.NewDict()
	doc.Set("active_time", bencode.Int(86400))
	doc.Set("file-format", bencode.String("libtorrent resume file"))
	if r.SavePath != "" {
		doc.Set("save_path", bencode.String(r.SavePath))
	}
	doc.Set("pieces", bencode.Bytes([]byte{0x01, 0x00, 0xfe, 'e', ':'}))
	if r.QBtSavePath != "" {
		doc.Set("qBt-savePath", bencode.String(r.QBtSavePath))
	}
	if r.DownloadPath != "" {
		doc.Set("qBt-downloadPath", bencode.String(r.DownloadPath))
	}
	if r.MappedFiles != nil {
		items := make([]bencode.Value, len(r.MappedFiles))
		for i, p := range r.MappedFiles {
			items[i] = bencode.String(p)
		}
		doc.Set("mapped_files", bencode.List(items...))
	}
	tags := bencode.NewDict()
	tags.Set("category", bencode.String("linux-isos"))
	tags.Set("ratio", bencode.Int(-1))
	doc.Set("qBt-tags", bencode.DictValue(tags))
	return doc
}

// Bytes returns the encoded fixture document.
func (r Resume) Bytes(t testing.TB) []byte {
	t.Helper()

	data, err := bencode.EncodeDict(r.Document())
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return data
}

// WriteResume encodes r into dir/name and returns the full path.
func WriteResume(t testing.TB, dir, name string, r Resume) string {
	t.Helper()

	path := filepath.Join(dir, name)
	WriteBytes(t, path, r.Bytes(t))
	return path
}

// WriteBytes writes data to path, creating parent directories.
func WriteBytes(t testing.TB, path string, data []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadBytes returns the content of path or fails the test.
func ReadBytes(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}
