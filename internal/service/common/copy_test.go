//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCopyFilePreservesMetadata(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	src := filepath.Join(dir, "photo-selector")
	require.NoError(t, os.WriteFile(src, []byte("binary contents"), 0o755))

	buildTime := time.Now().Add(-2 * time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(src, buildTime, buildTime))

	dst := filepath.Join(dir, "PhotoSelector", "PhotoSelector")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, CopyFile(src, dst))

	contents, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, []byte("binary contents"), contents)

	info, err := os.Stat(dst)
	require.NoError(t, err)
	require.WithinDuration(t, buildTime, info.ModTime(), time.Second)

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	}
}

func TestCopyFileOverwritesDestination(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	src := filepath.Join(dir, "new")
	require.NoError(t, os.WriteFile(src, []byte("new build"), 0o755))

	dst := filepath.Join(dir, "old")
	require.NoError(t, os.WriteFile(dst, []byte("previous build with longer contents"), 0o644))

	require.NoError(t, CopyFile(src, dst))

	contents, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, []byte("new build"), contents)
}

func TestCopyFileRejectsDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.Error(t, CopyFile(dir, filepath.Join(dir, "copy")))
}
