// Package verify checks that a zero-copy transfer produced the same bytes
// it read, by hashing both ranges with BLAKE3.
package verify

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// HashRange computes the hex BLAKE3 digest of n bytes of path starting at
// off. A range running past EOF hashes only the bytes that exist.
func HashRange(path string, off, n int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, 32*1024)
	if _, err := io.CopyBuffer(h, io.NewSectionReader(f, off, n), buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Mismatch describes differing source and destination ranges.
type Mismatch struct {
	SrcPath string
	DstPath string
	SrcHash string
	DstHash string
}

func (m *Mismatch) Error() string {
	return fmt.Sprintf("verify %s -> %s: checksum mismatch (src %s, dst %s)",
		m.SrcPath, m.DstPath, m.SrcHash, m.DstHash)
}

// Ranges compares n bytes at srcOff in srcPath with n bytes at dstOff in
// dstPath. It returns a *Mismatch when they differ.
func Ranges(srcPath string, srcOff int64, dstPath string, dstOff int64, n int64) error {
	srcHash, err := HashRange(srcPath, srcOff, n)
	if err != nil {
		return err
	}
	dstHash, err := HashRange(dstPath, dstOff, n)
	if err != nil {
		return err
	}
	if srcHash != dstHash {
		return &Mismatch{SrcPath: srcPath, DstPath: dstPath, SrcHash: srcHash, DstHash: dstHash}
	}
	return nil
}
