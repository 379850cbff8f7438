package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/photoselector/shipper/internal/service/packager"
)

// watchCmd reruns the pipeline whenever watched sources change.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild and repackage whenever watched sources change",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := applyLogLevel(); err != nil {
			return err
		}

		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return packager.RunWatch(ctx, packagerOptions())
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(watchCmd)
}
