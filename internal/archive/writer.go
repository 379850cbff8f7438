package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/photoselector/shipper/internal/domain/dist"
)

// archiveFileMode is applied to finished archives.
const archiveFileMode os.FileMode = 0o644

var errUnsupportedFormat = errors.New("unsupported archive format")

// Write archives the contents of dir into archivePath using the provided format.
func Write(format dist.ArchiveFormat, archivePath, dir string) error {
	tmp, err := os.CreateTemp(filepath.Dir(archivePath), filepath.Base(archivePath)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temporary archive: %w", err)
	}

	tmpName := tmp.Name()

	var success bool

	defer func() {
		if !success {
			_ = os.Remove(tmpName)
		}
	}()

	if err = writeEntries(tmp, format, dir); err != nil {
		_ = tmp.Close()

		return err
	}

	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("sync archive: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	if err = os.Chmod(tmpName, archiveFileMode); err != nil {
		return fmt.Errorf("set archive permissions: %w", err)
	}

	if err = os.Rename(tmpName, archivePath); err != nil {
		return fmt.Errorf("move archive into place: %w", err)
	}

	success = true

	return nil
}

// writeEntries dispatches to the format-specific writer.
func writeEntries(w io.Writer, format dist.ArchiveFormat, dir string) error {
	switch format {
	case dist.FormatZip:
		return writeZip(w, dir)
	case dist.FormatTarGz:
		return writeTarGz(w, dir)
	default:
		return fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// writeZip streams dir into a zip archive. Directories become explicit
// entries with a trailing slash, regular files are deflated.
func writeZip(w io.Writer, dir string) error {
	zipWriter := zip.NewWriter(w)

	err := walkEntries(dir, func(rel string, info fs.FileInfo, path string) error {
		header, headerErr := zip.FileInfoHeader(info)
		if headerErr != nil {
			return headerErr
		}

		header.Name = rel
		if info.IsDir() {
			header.Name += "/"
		} else {
			header.Method = zip.Deflate
		}

		entry, entryErr := zipWriter.CreateHeader(header)
		if entryErr != nil {
			return entryErr
		}

		return copyRegular(entry, info, path)
	})
	if err != nil {
		_ = zipWriter.Close()

		return err
	}

	return zipWriter.Close()
}

// writeTarGz streams dir into a gzip-compressed tarball.
func writeTarGz(w io.Writer, dir string) error {
	gzipWriter := gzip.NewWriter(w)
	tarWriter := tar.NewWriter(gzipWriter)

	err := walkEntries(dir, func(rel string, info fs.FileInfo, path string) error {
		header, headerErr := tar.FileInfoHeader(info, "")
		if headerErr != nil {
			return headerErr
		}

		header.Name = rel

		if writeErr := tarWriter.WriteHeader(header); writeErr != nil {
			return writeErr
		}

		return copyRegular(tarWriter, info, path)
	})
	if err != nil {
		_ = tarWriter.Close()
		_ = gzipWriter.Close()

		return err
	}

	if err = tarWriter.Close(); err != nil {
		return err
	}

	return gzipWriter.Close()
}

// walkEntries visits every entry under dir and hands the writer callback the
// slash-separated path relative to dir. The root itself is skipped, which is
// what keeps the archive free of a wrapping folder.
func walkEntries(dir string, visit func(rel string, info fs.FileInfo, path string) error) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		return visit(rel, info, path)
	})
}

// copyRegular copies the file contents into the archive entry; non-regular
// entries (directories) carry no contents.
func copyRegular(w io.Writer, info fs.FileInfo, path string) error {
	if !info.Mode().IsRegular() {
		return nil
	}

	src, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer func() {
		_ = src.Close()
	}()

	_, err = io.Copy(w, src)

	return err
}
