package packager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/photoselector/shipper/internal/archive"
	"github.com/photoselector/shipper/internal/logger"
	"github.com/photoselector/shipper/internal/repository/manifest"
	"github.com/photoselector/shipper/internal/service/common"
)

// pack stages the distribution folder, archives it and publishes the manifest.
func (p *packager) pack(ctx context.Context) error {
	if err := p.stage(ctx); err != nil {
		return &Error{Op: "stage", Err: err}
	}

	if err := p.writeArchive(ctx); err != nil {
		return &Error{Op: "archive", Err: err}
	}

	if err := p.publishManifest(ctx); err != nil {
		return &Error{Op: "manifest", Err: err}
	}

	p.printNextSteps(ctx)

	return nil
}

// stage copies the built binary, the include patterns and the README into the
// staging folder. Files already present there are overwritten, anything else
// is left alone.
func (p *packager) stage(ctx context.Context) error {
	sourceBinary := p.layout.SourceBinaryPath()

	if _, err := os.Stat(sourceBinary); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s (run the build step first?)", ErrBinaryNotFound, sourceBinary)
		}

		return fmt.Errorf("stat built binary: %w", err)
	}

	stagingDir := p.layout.StagingDir()
	if err := os.MkdirAll(stagingDir, common.DefaultFileMode); err != nil {
		return fmt.Errorf("create staging folder: %w", err)
	}

	logger.InfoKV(ctx, "Staging release files", "dir", stagingDir)

	if err := common.CopyFile(sourceBinary, p.layout.StagedBinaryPath()); err != nil {
		return fmt.Errorf("stage binary: %w", err)
	}

	if err := p.stageIncludes(ctx); err != nil {
		return err
	}

	if err := os.WriteFile(p.layout.ReadmePath(), []byte(ReadmeText), readmeFileMode); err != nil {
		return fmt.Errorf("write README: %w", err)
	}

	return nil
}

// stageIncludes copies files matching the optional include patterns into the
// staging folder, preserving their path relative to the project directory.
func (p *packager) stageIncludes(ctx context.Context) error {
	for _, pattern := range p.cfg.Include {
		fullPattern := filepath.ToSlash(filepath.Join(p.cfg.ProjectDir, pattern))

		matches, err := doublestar.FilepathGlob(fullPattern)
		if err != nil {
			return fmt.Errorf("expand include pattern %q: %w", pattern, err)
		}

		for _, match := range matches {
			info, statErr := os.Stat(match)
			if statErr != nil {
				return statErr
			}

			// Directories are created on demand for the files inside them.
			if info.IsDir() {
				continue
			}

			rel, relErr := filepath.Rel(p.cfg.ProjectDir, match)
			if relErr != nil {
				return relErr
			}

			dest := filepath.Join(p.layout.StagingDir(), rel)
			if err = os.MkdirAll(filepath.Dir(dest), common.DefaultFileMode); err != nil {
				return err
			}

			if err = common.CopyFile(match, dest); err != nil {
				return fmt.Errorf("stage %s: %w", rel, err)
			}

			logger.DebugKV(ctx, "Staged include", "file", rel)
		}
	}

	return nil
}

// writeArchive packs the staging folder into the platform's archive format.
func (p *packager) writeArchive(ctx context.Context) error {
	archivePath := p.layout.ArchivePath()

	logger.InfoKV(ctx, "Creating archive",
		"path", archivePath,
		"format", string(p.layout.Platform.ArchiveFormat()))

	return archive.Write(p.layout.Platform.ArchiveFormat(), archivePath, p.layout.StagingDir())
}

// publishManifest records checksums for every staged file plus the archive
// and saves the manifest next to it.
func (p *packager) publishManifest(ctx context.Context) error {
	m := manifest.New(p.cfg.AppName, p.layout.Platform.Label())
	m.Archive = p.layout.ArchiveName()
	m.Executable = p.layout.ExecutableName()

	stagingDir := p.layout.StagingDir()

	err := filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(stagingDir, path)
		if relErr != nil {
			return relErr
		}

		checksum, sumErr := common.FileChecksum(path)
		if sumErr != nil {
			return sumErr
		}

		m.Files[filepath.ToSlash(rel)] = common.EncodeChecksum(checksum)

		return nil
	})
	if err != nil {
		return fmt.Errorf("checksum staged files: %w", err)
	}

	archiveChecksum, err := common.FileChecksum(p.layout.ArchivePath())
	if err != nil {
		return fmt.Errorf("checksum archive: %w", err)
	}

	m.ArchiveChecksum = common.EncodeChecksum(archiveChecksum)

	if err = p.repo.Save(ctx, m); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Saved release manifest",
		"path", p.repo.Path(),
		"version", m.Version)

	return nil
}
