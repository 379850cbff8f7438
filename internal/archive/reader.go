package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	errUnknownArchiveType = errors.New("unknown archive type")
	errUnsafeEntry        = errors.New("archive entry escapes destination")
)

// Extract unpacks archivePath into destDir, choosing the decoder from the
// file extension. Entry names pointing outside destDir are rejected.
func Extract(archivePath, destDir string) error {
	switch {
	case strings.HasSuffix(archivePath, ".zip"):
		return extractZip(archivePath, destDir)
	case strings.HasSuffix(archivePath, ".tar.gz"), strings.HasSuffix(archivePath, ".tgz"):
		return extractTarGz(archivePath, destDir)
	default:
		return fmt.Errorf("%w: %s", errUnknownArchiveType, filepath.Base(archivePath))
	}
}

// extractZip unpacks a zip archive entry by entry.
func extractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	for _, file := range reader.File {
		entryPath, pathErr := entryDestination(destDir, file.Name)
		if pathErr != nil {
			return pathErr
		}

		if file.FileInfo().IsDir() {
			if err = os.MkdirAll(entryPath, 0o755); err != nil {
				return err
			}

			continue
		}

		if err = writeEntry(entryPath, file.Mode().Perm(), file.Open); err != nil {
			return err
		}
	}

	return nil
}

// extractTarGz unpacks a gzip-compressed tarball entry by entry.
func extractTarGz(archivePath, destDir string) error {
	file, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return fmt.Errorf("open tarball: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("open gzip stream: %w", err)
	}

	defer func() {
		_ = gzipReader.Close()
	}()

	tarReader := tar.NewReader(gzipReader)

	for {
		header, nextErr := tarReader.Next()
		if errors.Is(nextErr, io.EOF) {
			return nil
		}

		if nextErr != nil {
			return fmt.Errorf("read tar entry: %w", nextErr)
		}

		entryPath, pathErr := entryDestination(destDir, header.Name)
		if pathErr != nil {
			return pathErr
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err = os.MkdirAll(entryPath, header.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeReg:
			open := func() (io.ReadCloser, error) {
				return io.NopCloser(tarReader), nil
			}
			if err = writeEntry(entryPath, header.FileInfo().Mode().Perm(), open); err != nil {
				return err
			}
		default:
			// Symlinks and special files never appear in our archives.
			continue
		}
	}
}

// entryDestination resolves an archive entry name below destDir, rejecting
// absolute names and parent-directory escapes.
func entryDestination(destDir, name string) (string, error) {
	cleaned := filepath.FromSlash(name)
	if !filepath.IsLocal(cleaned) {
		return "", fmt.Errorf("%w: %q", errUnsafeEntry, name)
	}

	return filepath.Join(destDir, cleaned), nil
}

// writeEntry creates the file for a regular archive entry.
func writeEntry(path string, perm os.FileMode, open func() (io.ReadCloser, error)) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	source, err := open()
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	dest, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err = io.Copy(dest, source); err != nil {
		_ = dest.Close()

		return err
	}

	return dest.Close()
}
