// Package fileutil moves encoder outputs into place.
package fileutil

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// rename is swapped in tests to simulate cross-device moves.
var rename = os.Rename

// MoveFile renames src to dst. When the two paths are on different
// filesystems it falls back to a verified copy followed by removing src.
func MoveFile(src, dst string) error {
	err := rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyVerified(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// copyVerified streams src to dst and compares size and SHA-256 of both
// sides. dst is removed on mismatch.
func copyVerified(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()

	srcHash := sha256.New()
	dstHash := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, dstHash), io.TeeReader(in, srcHash))
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	if written != info.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}
	if string(srcHash.Sum(nil)) != string(dstHash.Sum(nil)) {
		_ = os.Remove(dst)
		return errors.New("copy hash mismatch")
	}
	return nil
}
