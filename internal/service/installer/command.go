package installer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/photoselector/shipper/internal/archive"
	"github.com/photoselector/shipper/internal/config"
	"github.com/photoselector/shipper/internal/domain/dist"
	"github.com/photoselector/shipper/internal/logger"
	"github.com/photoselector/shipper/internal/repository/manifest"
	"github.com/photoselector/shipper/internal/service/common"
)

const (
	// loggerName tags log lines produced by the install workflow.
	loggerName = "selector-installer"

	// defaultRetryMax bounds HTTP retries when fetching from a remote folder.
	defaultRetryMax = 3

	// defaultFetchTimeout bounds a single HTTP attempt; archives are sizable.
	defaultFetchTimeout = 5 * time.Minute
)

var (
	// errSourceRequired is returned when no update folder was configured.
	errSourceRequired = errors.New("update folder must be provided (argument, flag or settings)")
	// errPlatformMismatch is returned when the release targets another platform.
	errPlatformMismatch = errors.New("release platform does not match this machine")
	// errChecksumMismatch is returned when the downloaded archive fails verification.
	errChecksumMismatch = errors.New("archive checksum mismatch")
	// errNoExecutableChecksum is returned when the manifest lacks the executable's checksum.
	errNoExecutableChecksum = errors.New("checksum missing for executable")
)

// Options are inputs accepted by the installer entry point.
type Options struct {
	// ConfigPath is an optional path to the settings YAML file.
	ConfigPath string
	// Source is the update folder: a local directory or an http(s) URL.
	// Falls back to the configured update folder.
	Source string
	// DestDir is the installation directory. Falls back to the configured
	// install directory, then to the current directory.
	DestDir string
	// Platform overrides the detected platform (a GOOS value).
	Platform string
}

// runner holds the mutable state and helpers for a single install execution.
// It is intentionally unexported—call Run(ctx, *Options) from callers.
type runner struct {
	// source is the update folder after fallbacks were applied.
	source string
	// destDir is the installation directory after fallbacks were applied.
	destDir string
	// platform is the install target.
	platform dist.Platform
	// client performs HTTP fetches; nil when the source is a local folder.
	client *retryablehttp.Client
	// remote is the release manifest fetched from the update folder.
	remote *manifest.Manifest
	// receipt persists the applied manifest inside the installation directory.
	receipt *manifest.FileRepository
	// temporaryDirectory is where the archive is downloaded and unpacked.
	temporaryDirectory string
	// releaseMarker removes the run marker when the install finishes.
	releaseMarker func()
}

// Run executes the installer lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, loggerName)

	ins, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	defer ins.cleanup(ctx)

	if err = ins.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Install failed", "error", err)
		return err
	}

	logger.Info(ctx, "Installer completed")

	return nil
}

// newRunner resolves the source and destination, writes the run marker and
// prepares the HTTP client for remote folders.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	if opts == nil {
		opts = &Options{}
	}

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	source := opts.Source
	if source == "" {
		source = cfg.UpdateFolder
	}

	if source == "" {
		return nil, errSourceRequired
	}

	destDir := opts.DestDir
	if destDir == "" {
		destDir = cfg.InstallDir
	}

	if destDir == "" {
		destDir = "."
	}

	platform := dist.Current()
	if opts.Platform != "" {
		platform = dist.FromGOOS(opts.Platform)
	}

	releaseMarker, err := common.AcquireRunMarker(ctx)
	if err != nil {
		return nil, err
	}

	ins := &runner{
		source:        source,
		destDir:       destDir,
		platform:      platform,
		receipt:       manifest.NewFileRepository(filepath.Join(destDir, manifest.DefaultFilename)),
		releaseMarker: releaseMarker,
	}

	if config.IsRemoteFolder(source) {
		ins.client = retryablehttp.NewClient()
		ins.client.RetryMax = defaultRetryMax
		ins.client.HTTPClient.Timeout = defaultFetchTimeout
		ins.client.Logger = nil // suppress retryablehttp's default logging
	}

	return ins, nil
}

// Run executes the install workflow for this runner instance:
// 1) Fetch the release manifest from the update folder.
// 2) Check the release targets this platform.
// 3) Compare against the installation receipt.
// 4) Download and verify the archive.
// 5) Unpack and apply the release.
// 6) Store the manifest as the new receipt.
func (i *runner) Run(ctx context.Context) error {
	logger.InfoKV(ctx, "Fetching release manifest", "source", i.source)

	if err := i.fetchManifest(ctx); err != nil {
		return fmt.Errorf("fetch release manifest: %w", err)
	}

	if i.remote.Platform != i.platform.Label() {
		return fmt.Errorf("%w: release is for %s, this machine is %s",
			errPlatformMismatch, i.remote.Platform, i.platform.Label())
	}

	needed, err := i.needsInstall(ctx)
	if err != nil {
		return err
	}

	if !needed {
		logger.Info(ctx, "Installation is up to date")
		return nil
	}

	archivePath, err := i.downloadArchive(ctx)
	if err != nil {
		return fmt.Errorf("download archive: %w", err)
	}

	if err = i.verifyArchive(ctx, archivePath); err != nil {
		return err
	}

	if err = i.apply(ctx, archivePath); err != nil {
		return fmt.Errorf("apply release: %w", err)
	}

	if err = i.receipt.Save(ctx, i.remote); err != nil {
		return fmt.Errorf("store installation receipt: %w", err)
	}

	logger.InfoKV(ctx, "Installed release",
		"version", i.remote.Version,
		"dest", i.destDir)

	return nil
}

// needsInstall compares the remote manifest against the local receipt and the
// installed executable. Newer remote versions and corrupted installations
// trigger an install; older remote versions are refused with a warning.
func (i *runner) needsInstall(ctx context.Context) (bool, error) {
	local, err := i.receipt.Load(ctx)
	if errors.Is(err, manifest.ErrNotFound) {
		logger.Info(ctx, "No installation receipt found, installing fresh")
		return true, nil
	}

	if err != nil {
		return false, fmt.Errorf("read installation receipt: %w", err)
	}

	remoteVersion, err := i.remote.SemVer()
	if err != nil {
		return false, err
	}

	localVersion, err := local.SemVer()
	if err != nil {
		// An unreadable receipt means the installation state is unknown.
		logger.Warnf(ctx, "Installation receipt is damaged, reinstalling: %v", err)
		return true, nil
	}

	if remoteVersion.GreaterThan(localVersion) {
		logger.InfoKV(ctx, "Newer release available",
			"local", local.Version, "remote", i.remote.Version)

		return true, nil
	}

	if remoteVersion.LessThan(localVersion) {
		logger.WarnKV(ctx, "Update folder offers an older release, refusing to downgrade",
			"local", local.Version, "remote", i.remote.Version)

		return false, nil
	}

	return i.isExecutableDamaged(ctx)
}

// isExecutableDamaged verifies the installed executable against the manifest
// checksum. Same-version releases reinstall only when the binary is missing
// or differs.
func (i *runner) isExecutableDamaged(ctx context.Context) (bool, error) {
	expectedEncoded, ok := i.remote.Files[i.remote.Executable]
	if !ok {
		return false, fmt.Errorf("%w: %s", errNoExecutableChecksum, i.remote.Executable)
	}

	expected, err := common.DecodeChecksum(expectedEncoded)
	if err != nil {
		return false, err
	}

	installedPath := filepath.Join(i.destDir, i.remote.Executable)

	if _, err = os.Stat(installedPath); errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Installed executable is missing, reinstalling")
		return true, nil
	} else if err != nil {
		return false, fmt.Errorf("stat installed executable: %w", err)
	}

	actual, err := common.FileChecksum(installedPath)
	if err != nil {
		return false, err
	}

	if !bytes.Equal(expected, actual) {
		logger.Info(ctx, "Installed executable differs from the release, repairing")
		return true, nil
	}

	return false, nil
}

// verifyArchive checks the downloaded archive against the manifest checksum
// before anything gets unpacked.
func (i *runner) verifyArchive(ctx context.Context, archivePath string) error {
	expected, err := common.DecodeChecksum(i.remote.ArchiveChecksum)
	if err != nil {
		return err
	}

	actual, err := common.FileChecksum(archivePath)
	if err != nil {
		return err
	}

	if !bytes.Equal(expected, actual) {
		return fmt.Errorf("%w: %s", errChecksumMismatch, i.remote.Archive)
	}

	logger.DebugKV(ctx, "Archive checksum verified", "archive", i.remote.Archive)

	return nil
}

// apply unpacks the archive and installs its contents into the destination.
func (i *runner) apply(ctx context.Context, archivePath string) error {
	unpackDir := filepath.Join(i.temporaryDirectory, "unpacked")
	if err := os.MkdirAll(unpackDir, 0o755); err != nil {
		return err
	}

	if err := archive.Extract(archivePath, unpackDir); err != nil {
		return fmt.Errorf("unpack archive: %w", err)
	}

	if err := os.MkdirAll(i.destDir, 0o755); err != nil {
		return fmt.Errorf("create installation directory: %w", err)
	}

	return filepath.WalkDir(unpackDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(unpackDir, path)
		if relErr != nil {
			return relErr
		}

		if filepath.ToSlash(rel) == i.remote.Executable {
			return i.applyExecutable(ctx, path)
		}

		dest := filepath.Join(i.destDir, rel)
		if mkdirErr := os.MkdirAll(filepath.Dir(dest), 0o755); mkdirErr != nil {
			return mkdirErr
		}

		logger.DebugKV(ctx, "Installing file", "file", rel)

		return common.CopyFile(path, dest)
	})
}

// applyExecutable swaps the installed executable using a checksum-validated
// atomic replacement.
func (i *runner) applyExecutable(ctx context.Context, sourcePath string) error {
	expectedEncoded, ok := i.remote.Files[i.remote.Executable]
	if !ok {
		return fmt.Errorf("%w: %s", errNoExecutableChecksum, i.remote.Executable)
	}

	expected, err := common.DecodeChecksum(expectedEncoded)
	if err != nil {
		return err
	}

	targetPath := filepath.Join(i.destDir, i.remote.Executable)

	// The swap needs an existing target file to replace.
	if _, err = os.Stat(targetPath); errors.Is(err, os.ErrNotExist) {
		var placeholder *os.File

		if placeholder, err = os.Create(targetPath); err != nil {
			return err
		}

		if err = placeholder.Close(); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	source, err := os.Open(filepath.Clean(sourcePath))
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	logger.InfoKV(ctx, "Replacing executable", "target", targetPath)

	err = goupdate.Apply(source, goupdate.Options{
		TargetPath: targetPath,
		TargetMode: common.DefaultFileMode,
		Checksum:   expected,
		Hash:       common.ChecksumFunction,
	})
	if err != nil {
		return fmt.Errorf("replace executable: %w", err)
	}

	// The previous binary is parked next to the target during the swap.
	oldPath := targetPath + ".old"
	if _, err = os.Stat(oldPath); err == nil {
		_ = os.Remove(oldPath)
	}

	return nil
}

// cleanup removes temporary artifacts and the run marker.
func (i *runner) cleanup(ctx context.Context) {
	if i.temporaryDirectory != "" {
		if _, err := os.Stat(i.temporaryDirectory); err == nil {
			_ = os.RemoveAll(i.temporaryDirectory)
		}
	}

	if i.releaseMarker != nil {
		i.releaseMarker()
	}

	logger.Debug(ctx, "The installer has been stopped")
}
