package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/photoselector/shipper/internal/config"
	"github.com/photoselector/shipper/internal/logger"
	"github.com/photoselector/shipper/internal/service/builder"
	"github.com/photoselector/shipper/internal/service/packager"
	"github.com/photoselector/shipper/internal/version"
)

// Exit codes reported by the packager so calling scripts can tell which stage failed.
const (
	// exitFailure reports configuration or environment problems.
	exitFailure = 1
	// exitBuildFailed reports that the build tool exited with an error.
	exitBuildFailed = 2
	// exitPackageFailed reports that staging, archiving or manifest publishing failed.
	exitPackageFailed = 3
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// projectDir overrides the configured project directory.
	projectDir string
	// outputDir overrides the configured output directory.
	outputDir string
	// platform overrides the detected target platform.
	platform string
	// logLevel adjusts logging verbosity for all subcommands.
	logLevel string
	// skipBuild packages the binary from the previous build instead of rebuilding.
	skipBuild bool

	// rootCmd represents the base command that builds and packages a release.
	rootCmd = &cobra.Command{
		Use:   "selector-packager",
		Short: "Build the PhotoSelector binary and package it for distribution",
		Long: `Builds the PhotoSelector cargo project in release mode, stages the binary
together with the user guide, archives the staged files for the target
platform and publishes a version manifest next to the archive.

Run without arguments to execute the whole pipeline. The build and package
subcommands run a single stage, watch keeps rebuilding on source changes.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := applyLogLevel(); err != nil {
				return err
			}

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return packager.Run(ctx, packagerOptions())
		},
	}
)

// Execute runs the selector-packager CLI and exits with a stage-specific
// status code on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// packagerOptions collects the shared flag values for the packager service.
func packagerOptions() *packager.Options {
	return &packager.Options{
		ConfigPath: configPath,
		ProjectDir: projectDir,
		OutputDir:  outputDir,
		Platform:   platform,
		SkipBuild:  skipBuild,
	}
}

// applyLogLevel sets the global logging level from the --log-level flag.
func applyLogLevel() error {
	if logLevel == "" {
		return nil
	}

	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", logLevel)
	}

	logger.SetLevel(level)

	return nil
}

// exitCode maps service errors to the stage-specific exit codes.
func exitCode(err error) int {
	var buildErr *builder.Error

	if errors.As(err, &buildErr) {
		return exitBuildFailed
	}

	var packageErr *packager.Error

	if errors.As(err, &packageErr) {
		return exitPackageFailed
	}

	return exitFailure
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "",
			"path to configuration file (defaults to "+config.DefaultConfigFilename+" when present)")
	rootCmd.PersistentFlags().
		StringVar(&projectDir, "project-dir", "", "cargo project directory (defaults to the current directory)")
	rootCmd.PersistentFlags().
		StringVar(&outputDir, "output-dir", "", "directory receiving the archive and manifest")
	rootCmd.PersistentFlags().
		StringVar(&platform, "platform", "", "target platform: windows, darwin or linux (defaults to the host)")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "", "logging verbosity: debug, info, warn or error")
	rootCmd.Flags().
		BoolVar(&skipBuild, "skip-build", false, "package the binary from the previous build instead of rebuilding")
}
