package dist

import "path/filepath"

// ReadmeFilename is the usage document written into every staging directory.
const ReadmeFilename = "README.txt"

// Layout computes every path the packaging pipeline touches from explicit
// inputs. It carries no hidden state: the platform and all directories are
// injected, which keeps the pipeline testable without a real host OS.
type Layout struct {
	// AppName is the distribution name. It becomes the staging directory,
	// the staged executable base name and the archive base name.
	AppName string
	// CrateName is the binary name the build tool produces.
	CrateName string
	// ProjectDir is the directory the build tool runs in; the built binary
	// is expected under its target/<profile>/ subdirectory.
	ProjectDir string
	// OutputDir is where the staging directory, the archive and the release
	// manifest are placed.
	OutputDir string
	// Profile is the build profile subdirectory under target/.
	Profile string
	// Platform selects executable naming and the archive container format.
	Platform Platform
}

// SourceBinaryName returns the file name the build tool produces.
func (l Layout) SourceBinaryName() string {
	return l.CrateName + l.Platform.ExecutableSuffix()
}

// SourceBinaryPath returns the expected location of the freshly built binary.
func (l Layout) SourceBinaryPath() string {
	return filepath.Join(l.ProjectDir, "target", l.Profile, l.SourceBinaryName())
}

// ExecutableName returns the file name the binary is distributed under.
func (l Layout) ExecutableName() string {
	return l.AppName + l.Platform.ExecutableSuffix()
}

// StagingDir returns the directory the archive is assembled from.
func (l Layout) StagingDir() string {
	return filepath.Join(l.OutputDir, l.AppName)
}

// StagedBinaryPath returns the location of the binary inside the staging directory.
func (l Layout) StagedBinaryPath() string {
	return filepath.Join(l.StagingDir(), l.ExecutableName())
}

// ReadmePath returns the location of the usage document inside the staging directory.
func (l Layout) ReadmePath() string {
	return filepath.Join(l.StagingDir(), ReadmeFilename)
}

// ArchiveName returns the platform-specific archive file name,
// e.g. "PhotoSelector-Windows.zip" or "PhotoSelector-Linux.tar.gz".
func (l Layout) ArchiveName() string {
	return l.AppName + "-" + l.Platform.Label() + l.Platform.ArchiveFormat().Extension()
}

// ArchivePath returns the location the archive is written to.
func (l Layout) ArchivePath() string {
	return filepath.Join(l.OutputDir, l.ArchiveName())
}
