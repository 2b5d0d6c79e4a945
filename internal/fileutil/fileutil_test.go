package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyVerified(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.fastresume")
	content := []byte("d9:save_path4:/abce")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	digest, err := CopyVerified(src, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), content) {
		t.Fatalf("content mismatch: got %q, want %q", buf.Bytes(), content)
	}
	if digest != HashBytes(content) {
		t.Fatalf("digest mismatch: %+v vs %+v", digest, HashBytes(content))
	}
	if digest.Size != int64(len(content)) || len(digest.SHA256) != 64 {
		t.Fatalf("unexpected digest %+v", digest)
	}
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.torrent")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := HashFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// sha256("x")
	const want = "2d711642b726b04401627ca9fbac32f5c8530fb1903cc4db02258717921a4881"
	if got.SHA256 != want || got.Size != 1 {
		t.Fatalf("unexpected digest %+v", got)
	}
}

func TestCopyVerified_MissingSource(t *testing.T) {
	if _, err := CopyVerified(filepath.Join(t.TempDir(), "nope"), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestHashReaderMatchesHashBytes(t *testing.T) {
	data := []byte("d12:qBt-savePath6:/mediae")
	got, err := HashReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got != HashBytes(data) {
		t.Fatalf("HashReader %+v != HashBytes %+v", got, HashBytes(data))
	}
}
