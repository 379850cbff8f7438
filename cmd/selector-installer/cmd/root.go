package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/photoselector/shipper/internal/config"
	"github.com/photoselector/shipper/internal/logger"
	"github.com/photoselector/shipper/internal/service/installer"
	"github.com/photoselector/shipper/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// destDir is the directory receiving the installed application.
	destDir string
	// platform overrides the detected platform.
	platform string
	// logLevel adjusts logging verbosity.
	logLevel string

	// rootCmd represents the base command for installing PhotoSelector releases.
	rootCmd = &cobra.Command{
		Use:   "selector-installer [update-folder]",
		Short: "Install or update PhotoSelector from a release folder",
		Long: `Reads the release manifest from a local folder or an http(s) address,
compares it with the installed version and applies the release when the
installation is missing, outdated or damaged.

The update folder argument overrides the one from the configuration file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := applyLogLevel(); err != nil {
				return err
			}

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use the update folder argument if provided, otherwise rely on config.
			var source string
			if len(args) > 0 {
				source = args[0]
			}

			options := &installer.Options{
				ConfigPath: configPath,
				Source:     source,
				DestDir:    destDir,
				Platform:   platform,
			}

			return installer.Run(ctx, options)
		},
	}
)

// Execute runs the selector-installer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
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

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().
		StringVarP(&configPath, "config", "c", "",
			"path to configuration file (defaults to "+config.DefaultConfigFilename+" when present)")
	rootCmd.Flags().
		StringVarP(&destDir, "dest", "d", "", "installation directory (defaults to the configured one)")
	rootCmd.Flags().
		StringVar(&platform, "platform", "", "target platform: windows, darwin or linux (defaults to the host)")
	rootCmd.Flags().
		StringVar(&logLevel, "log-level", "", "logging verbosity: debug, info, warn or error")
}
