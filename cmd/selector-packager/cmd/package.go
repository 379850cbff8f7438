package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/photoselector/shipper/internal/service/packager"
)

// packageCmd stages and archives the binary produced by an earlier build.
var packageCmd = &cobra.Command{
	Use:   "package",
	Short: "Stage, archive and publish the binary built previously",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := applyLogLevel(); err != nil {
			return err
		}

		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return packager.RunPackage(ctx, packagerOptions())
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(packageCmd)
}
