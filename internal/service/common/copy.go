//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// DefaultFileMode is used when producing artifacts for distribution.
const DefaultFileMode os.FileMode = 0o755

var errNotRegularFile = errors.New("source is not a regular file")

// CopyFile copies src to dst, preserving the source's permission bits and
// modification time. A staged binary keeps its executable bit and build
// timestamp this way. An existing destination is overwritten.
func CopyFile(src, dst string) error {
	sourceInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	if !sourceInfo.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", errNotRegularFile, src)
	}

	sourceFile, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	defer func() {
		_ = sourceFile.Close()
	}()

	destFile, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, sourceInfo.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err = io.Copy(destFile, sourceFile); err != nil {
		_ = destFile.Close()

		return fmt.Errorf("copy contents: %w", err)
	}

	if err = destFile.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	// O_CREATE mode is masked by the umask, apply the exact bits afterwards.
	if err = os.Chmod(dst, sourceInfo.Mode().Perm()); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}

	// A zero access time leaves it unchanged.
	if err = os.Chtimes(dst, time.Time{}, sourceInfo.ModTime()); err != nil {
		return fmt.Errorf("set modification time: %w", err)
	}

	return nil
}
