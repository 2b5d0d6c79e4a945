package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Digest identifies file content by SHA256 and size.
type Digest struct {
	SHA256 string
	Size   int64
}

// HashFile returns the digest of the file at path.
func HashFile(path string) (Digest, error) {
	return CopyVerified(path, io.Discard)
}

// HashBytes returns the digest of data.
func HashBytes(data []byte) Digest {
	sum := sha256.Sum256(data)
	return Digest{SHA256: hex.EncodeToString(sum[:]), Size: int64(len(data))}
}

// HashReader consumes r and returns the digest of everything read.
func HashReader(r io.Reader) (Digest, error) {
	hasher := sha256.New()
	n, err := io.Copy(hasher, r)
	if err != nil {
		return Digest{}, err
	}
	return Digest{SHA256: hex.EncodeToString(hasher.Sum(nil)), Size: n}, nil
}

// CopyVerified streams src into dst and returns the digest of the bytes
// written. The copy fails when the written size differs from the size src had
// when it was opened, which catches files truncated or grown mid-copy.
func CopyVerified(src string, dst io.Writer) (Digest, error) {
	in, err := os.Open(src)
	if err != nil {
		return Digest{}, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return Digest{}, fmt.Errorf("stat source: %w", err)
	}

	hasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(dst, hasher), in)
	if err != nil {
		return Digest{}, err
	}
	if written != info.Size() {
		return Digest{}, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}
	return Digest{SHA256: hex.EncodeToString(hasher.Sum(nil)), Size: written}, nil
}
