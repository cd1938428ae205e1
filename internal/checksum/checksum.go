// Package checksum computes file digests in fixed-size blocks so large
// artifacts never have to fit in memory.
package checksum

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// HashBlockSize is the read chunk size used while digesting.
const HashBlockSize = 1024 * 1024

// New returns the hash implementation for a named algorithm.
func New(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algorithm)
	}
}

// File returns the hex digest of the file at path using the named algorithm.
func File(path, algorithm string) (string, error) {
	h, err := New(algorithm)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, HashBlockSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify compares the file digest against an expected hex digest.
// A nil return means the digests match.
func Verify(path, algorithm, expected string) error {
	got, err := File(path, algorithm)
	if err != nil {
		return err
	}
	if got != expected {
		return fmt.Errorf("%s mismatch for %s: expected %s got %s", algorithm, path, expected, got)
	}
	return nil
}
