package dist

import (
	"runtime"
	"strings"
)

// Platform identifies one of the three distribution targets the shipper
// recognizes. Any operating system that is neither Windows nor macOS is
// treated as the Linux-style fallback.
type Platform string

const (
	// PlatformWindows packages with an .exe suffix into a zip container.
	PlatformWindows Platform = "windows"
	// PlatformMac packages without a suffix into a zip container labeled "Mac".
	PlatformMac Platform = "darwin"
	// PlatformLinux is the fallback for every other operating system and
	// packages into a gzip-compressed tar container.
	PlatformLinux Platform = "linux"
)

// ArchiveFormat is the container format of a distributable archive.
type ArchiveFormat string

const (
	// FormatZip is used on Windows and macOS.
	FormatZip ArchiveFormat = "zip"
	// FormatTarGz is used everywhere else.
	FormatTarGz ArchiveFormat = "tar.gz"
)

// Current returns the platform of the running host.
func Current() Platform {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS maps an operating system identifier to a Platform.
// It accepts GOOS values ("windows", "darwin") as well as the labels other
// tooling reports ("Windows", "Mac", "macOS"); everything unrecognized falls
// back to PlatformLinux.
func FromGOOS(goos string) Platform {
	switch strings.ToLower(strings.TrimSpace(goos)) {
	case "windows":
		return PlatformWindows
	case "darwin", "mac", "macos":
		return PlatformMac
	default:
		return PlatformLinux
	}
}

// Label returns the human-readable platform name used in archive base names.
func (p Platform) Label() string {
	switch p {
	case PlatformWindows:
		return "Windows"
	case PlatformMac:
		return "Mac"
	default:
		return "Linux"
	}
}

// ExecutableSuffix returns the file name suffix of executables on this platform.
func (p Platform) ExecutableSuffix() string {
	if p == PlatformWindows {
		return ".exe"
	}

	return ""
}

// ArchiveFormat returns the container format used for this platform's archive.
func (p Platform) ArchiveFormat() ArchiveFormat {
	switch p {
	case PlatformWindows, PlatformMac:
		return FormatZip
	default:
		return FormatTarGz
	}
}

// Extension returns the file name extension of the format, dot included.
func (f ArchiveFormat) Extension() string {
	if f == FormatZip {
		return ".zip"
	}

	return ".tar.gz"
}
