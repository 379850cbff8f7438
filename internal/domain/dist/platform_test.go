package dist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFromGOOS verifies the mapping from OS identifiers to platforms,
// including capitalized identifiers and the Linux-style fallback.
func TestFromGOOS(t *testing.T) {
	t.Parallel()

	cases := map[string]Platform{
		"windows": PlatformWindows,
		"Windows": PlatformWindows,
		"darwin":  PlatformMac,
		"Darwin":  PlatformMac,
		"Mac":     PlatformMac,
		"macOS":   PlatformMac,
		"linux":   PlatformLinux,
		"freebsd": PlatformLinux,
		"openbsd": PlatformLinux,
		"":        PlatformLinux,
	}
	for goos, want := range cases {
		require.Equal(t, want, FromGOOS(goos), "goos %q", goos)
	}
}

// TestPlatformNaming checks executable suffixes, labels and container formats
// for all three recognized platforms.
func TestPlatformNaming(t *testing.T) {
	t.Parallel()

	require.Equal(t, ".exe", PlatformWindows.ExecutableSuffix())
	require.Empty(t, PlatformMac.ExecutableSuffix())
	require.Empty(t, PlatformLinux.ExecutableSuffix())

	require.Equal(t, "Windows", PlatformWindows.Label())
	require.Equal(t, "Mac", PlatformMac.Label())
	require.Equal(t, "Linux", PlatformLinux.Label())

	require.Equal(t, FormatZip, PlatformWindows.ArchiveFormat())
	require.Equal(t, FormatZip, PlatformMac.ArchiveFormat())
	require.Equal(t, FormatTarGz, PlatformLinux.ArchiveFormat())

	require.Equal(t, ".zip", FormatZip.Extension())
	require.Equal(t, ".tar.gz", FormatTarGz.Extension())
}

// TestLayoutPaths verifies the full path computation for each platform against
// the fixed PhotoSelector naming scheme.
func TestLayoutPaths(t *testing.T) {
	t.Parallel()

	layout := Layout{
		AppName:    "PhotoSelector",
		CrateName:  "photo-selector",
		ProjectDir: "proj",
		OutputDir:  "out",
		Profile:    "release",
		Platform:   PlatformWindows,
	}

	require.Equal(t, filepath.Join("proj", "target", "release", "photo-selector.exe"), layout.SourceBinaryPath())
	require.Equal(t, filepath.Join("out", "PhotoSelector"), layout.StagingDir())
	require.Equal(t, filepath.Join("out", "PhotoSelector", "PhotoSelector.exe"), layout.StagedBinaryPath())
	require.Equal(t, filepath.Join("out", "PhotoSelector", "README.txt"), layout.ReadmePath())
	require.Equal(t, "PhotoSelector-Windows.zip", layout.ArchiveName())
	require.Equal(t, filepath.Join("out", "PhotoSelector-Windows.zip"), layout.ArchivePath())

	layout.Platform = PlatformMac
	require.Equal(t, filepath.Join("proj", "target", "release", "photo-selector"), layout.SourceBinaryPath())
	require.Equal(t, "PhotoSelector", layout.ExecutableName())
	require.Equal(t, "PhotoSelector-Mac.zip", layout.ArchiveName())

	layout.Platform = PlatformLinux
	require.Equal(t, "PhotoSelector-Linux.tar.gz", layout.ArchiveName())
	require.Equal(t, filepath.Join("out", "PhotoSelector-Linux.tar.gz"), layout.ArchivePath())
}
