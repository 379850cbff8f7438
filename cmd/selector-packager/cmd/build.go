package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/photoselector/shipper/internal/service/packager"
)

// buildCmd runs only the build stage.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the release binary without packaging it",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := applyLogLevel(); err != nil {
			return err
		}

		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return packager.RunBuild(ctx, packagerOptions())
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(buildCmd)
}
