package packager

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/photoselector/shipper/internal/config"
	"github.com/photoselector/shipper/internal/domain/dist"
	"github.com/photoselector/shipper/internal/logger"
	"github.com/photoselector/shipper/internal/repository/manifest"
	"github.com/photoselector/shipper/internal/service/builder"
	"github.com/photoselector/shipper/internal/service/common"
	"github.com/photoselector/shipper/internal/service/watcher"
)

// loggerName tags log lines produced by the packaging pipeline.
const loggerName = "selector-packager"

// Options contains inputs for the packager entry points.
type Options struct {
	// ConfigPath is an optional path to the settings file (defaults to shipper-settings.yaml).
	ConfigPath string
	// ProjectDir overrides the configured project directory.
	ProjectDir string
	// OutputDir overrides the configured output directory.
	OutputDir string
	// Platform overrides the detected target platform (a GOOS value such as windows or darwin).
	Platform string
	// SkipBuild packages the binary already present in the target directory.
	SkipBuild bool
}

// Error wraps a packaging-stage failure so the CLI can map it to an exit status
// distinct from build failures.
type Error struct {
	// Op is the stage that failed: stage, archive or manifest.
	Op string
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying failure to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrBinaryNotFound is returned when packaging starts without a built binary in place.
var ErrBinaryNotFound = errors.New("built binary not found")

// packager drives one build-and-package pipeline.
// It is unexported—callers should use the Run entry points, which encapsulate
// setup, the concurrency guard and cleanup.
type packager struct {
	// cfg holds the packaging settings after CLI overrides were applied.
	cfg *config.Config
	// layout describes where the binary, staging folder and artifacts live.
	layout dist.Layout
	// repo persists the release manifest next to the archive.
	repo *manifest.FileRepository
	// releaseMarker removes the run marker when the pipeline finishes.
	releaseMarker func()
	// skipBuild packages the existing binary without rebuilding it.
	skipBuild bool
}

// Run executes the full workflow: build the release binary, then package it.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, loggerName)

	p, err := newPackager(ctx, opts)
	if err != nil {
		return err
	}

	defer p.close()

	if err = p.runOnce(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Packager completed successfully")

	return nil
}

// RunBuild executes only the build step.
func RunBuild(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, loggerName)

	p, err := newPackager(ctx, opts)
	if err != nil {
		return err
	}

	defer p.close()

	return p.build(ctx)
}

// RunPackage archives the binary produced by an earlier build without rebuilding.
func RunPackage(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, loggerName)

	p, err := newPackager(ctx, opts)
	if err != nil {
		return err
	}

	defer p.close()

	return p.pack(ctx)
}

// RunWatch reruns the full workflow every time the watched sources change.
// It blocks until the context is cancelled.
func RunWatch(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, loggerName)

	p, err := newPackager(ctx, opts)
	if err != nil {
		return err
	}

	defer p.close()

	return watcher.Run(ctx, &watcher.Options{
		BaseDir: p.cfg.ProjectDir,
		Paths:   p.cfg.WatchPaths,
		Ignore:  p.watchIgnores(),
	}, p.runOnce)
}

// watchIgnores shields the watch loop from the pipeline's own outputs, which
// would retrigger it forever when they land inside a watched path.
func (p *packager) watchIgnores() []string {
	ignores := []string{"target", "target/**"}

	for _, derived := range []string{p.layout.StagingDir(), p.layout.ArchivePath(), p.repo.Path()} {
		rel, err := filepath.Rel(p.cfg.ProjectDir, derived)
		if err != nil || !filepath.IsLocal(rel) {
			continue
		}

		rel = filepath.ToSlash(rel)
		ignores = append(ignores, rel, rel+"/**")
	}

	return ignores
}

// newPackager loads settings, applies overrides and takes the run marker.
func newPackager(ctx context.Context, opts *Options) (*packager, error) {
	if opts == nil {
		opts = &Options{}
	}

	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.ProjectDir != "" {
		cfg.ProjectDir = opts.ProjectDir
	}

	if opts.OutputDir != "" {
		cfg.OutputDir = opts.OutputDir
	}

	platform := dist.Current()
	if opts.Platform != "" {
		platform = dist.FromGOOS(opts.Platform)
	}

	releaseMarker, err := common.AcquireRunMarker(ctx)
	if err != nil {
		return nil, err
	}

	layout := dist.Layout{
		AppName:    cfg.AppName,
		CrateName:  cfg.CrateName,
		ProjectDir: cfg.ProjectDir,
		OutputDir:  cfg.OutputDir,
		Profile:    cfg.BuildProfile,
		Platform:   platform,
	}

	return &packager{
		cfg:           cfg,
		layout:        layout,
		repo:          manifest.NewFileRepository(filepath.Join(cfg.OutputDir, manifest.DefaultFilename)),
		releaseMarker: releaseMarker,
		skipBuild:     opts.SkipBuild,
	}, nil
}

// runOnce performs one build-and-package cycle.
func (p *packager) runOnce(ctx context.Context) error {
	if !p.skipBuild {
		if err := p.build(ctx); err != nil {
			return err
		}
	}

	return p.pack(ctx)
}

// build invokes the build tool and verifies its exit status.
func (p *packager) build(ctx context.Context) error {
	logger.InfoKV(ctx, "Building release binary",
		"tool", p.cfg.BuildTool,
		"args", strings.Join(p.cfg.BuildArgs, " "),
		"dir", p.cfg.ProjectDir)

	output, err := builder.Build(ctx, &builder.Options{
		Tool:    p.cfg.BuildTool,
		Args:    p.cfg.BuildArgs,
		Dir:     p.cfg.ProjectDir,
		Timeout: p.cfg.BuildTimeout,
	})
	if err != nil {
		var buildErr *builder.Error
		if errors.As(err, &buildErr) {
			logger.ErrorKV(ctx, "Build tool failed",
				"exit_code", buildErr.ExitCode,
				"output", buildErr.Output)
		}

		return err
	}

	logger.Debugf(ctx, "Build output:\n%s", output)
	logger.Info(ctx, "Build completed")

	return nil
}

// close releases the run marker.
func (p *packager) close() {
	if p.releaseMarker != nil {
		p.releaseMarker()
	}
}

// printNextSteps logs human-readable guidance for distributing the artifacts.
func (p *packager) printNextSteps(ctx context.Context) {
	var b strings.Builder

	b.WriteString("The distribution is ready. Upload the following files")

	if p.cfg.UpdateFolder != "" {
		b.WriteString(" to the folder ")
		b.WriteString(p.cfg.UpdateFolder)
	}

	b.WriteString(":\n")
	b.WriteString(p.layout.ArchiveName())
	b.WriteString(",\n")
	b.WriteString(manifest.DefaultFilename)
	b.WriteString("\n\nOn a user's computer, run: selector-installer")

	if p.cfg.UpdateFolder != "" {
		b.WriteString(" ")
		b.WriteString(p.cfg.UpdateFolder)
	}

	logger.Info(ctx, b.String())
}
