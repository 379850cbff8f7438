package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/photoselector/shipper/internal/domain/dist"
)

func TestExtractRoundtrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		format  dist.ArchiveFormat
		archive string
	}{
		{name: "zip", format: dist.FormatZip, archive: "PhotoSelector-Windows.zip"},
		{name: "tar.gz", format: dist.FormatTarGz, archive: "PhotoSelector-Linux.tar.gz"},
	}

	for _, testCase := range testCases {
		testCase := testCase

		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			staging := newStagingDir(t)
			archivePath := filepath.Join(t.TempDir(), testCase.archive)
			require.NoError(t, Write(testCase.format, archivePath, staging))

			destDir := t.TempDir()
			require.NoError(t, Extract(archivePath, destDir))

			binary, err := os.ReadFile(filepath.Join(destDir, "PhotoSelector"))
			require.NoError(t, err)
			require.Equal(t, []byte("binary"), binary)

			readme, err := os.ReadFile(filepath.Join(destDir, "README.txt"))
			require.NoError(t, err)
			require.Equal(t, []byte("readme"), readme)

			logo, err := os.ReadFile(filepath.Join(destDir, "assets", "logo.png"))
			require.NoError(t, err)
			require.Equal(t, []byte("png"), logo)

			if runtime.GOOS != "windows" {
				info, statErr := os.Stat(filepath.Join(destDir, "PhotoSelector"))
				require.NoError(t, statErr)
				require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
			}
		})
	}
}

func TestExtractUnknownArchiveType(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "PhotoSelector.rar")
	require.NoError(t, os.WriteFile(archivePath, []byte("whatever"), 0o644))

	require.Error(t, Extract(archivePath, dir))
}

func TestExtractRejectsEscapingEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "escape.zip")

	file, err := os.Create(archivePath)
	require.NoError(t, err)

	zipWriter := zip.NewWriter(file)
	entry, err := zipWriter.CreateHeader(&zip.FileHeader{Name: "../evil.txt", Method: zip.Deflate})
	require.NoError(t, err)
	_, err = entry.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, zipWriter.Close())
	require.NoError(t, file.Close())

	destDir := filepath.Join(dir, "dest")
	require.NoError(t, os.MkdirAll(destDir, 0o755))

	err = Extract(archivePath, destDir)
	require.Error(t, err)
	require.ErrorContains(t, err, "escapes destination")
	require.NoFileExists(t, filepath.Join(dir, "evil.txt"))
}
