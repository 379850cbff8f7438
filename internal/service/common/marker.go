//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/photoselector/shipper/internal/domain/dist"
	"github.com/photoselector/shipper/internal/logger"
)

const (
	// RunMarkerFilename marks that a shipper binary is running right now to avoid parallel execution.
	RunMarkerFilename = "shipper-run-marker.bin"

	// markerLifetime is the period after which a stale run marker is ignored.
	// A release build may legitimately hold the marker for many minutes.
	markerLifetime = 30 * time.Minute
)

// ErrAlreadyRunning is returned when another shipper process holds the run marker.
var ErrAlreadyRunning = errors.New("another shipper process is already running")

// shipperExecutables returns the process names that legitimately hold the run marker
// on the current platform.
func shipperExecutables() []string {
	suffix := dist.Current().ExecutableSuffix()

	return []string{
		"selector-packager" + suffix,
		"selector-installer" + suffix,
	}
}

// IsShipperRunningNow checks presence of a run marker and attempts recovery if it looks stale.
func IsShipperRunningNow(ctx context.Context) bool {
	fileInfo, err := os.Stat(RunMarkerFilename)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The run marker is too old, checking for live processes")

		if hasLiveShipperProcess() {
			return true
		}

		if err = os.Remove(RunMarkerFilename); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	logger.Infof(ctx, "Unable to read run marker: %v", err)

	return false
}

// hasLiveShipperProcess reports whether a shipper binary other than this one
// is currently running. Unlike a kill-based recovery, a live process is left
// alone: interrupting a release build halfway is worse than waiting.
func hasLiveShipperProcess() bool {
	processList, err := ps.Processes()
	if err != nil {
		// Cannot inspect processes, trust the marker.
		return true
	}

	owners := sliceToSet(shipperExecutables())
	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if _, found := owners[process.Executable()]; found {
			return true
		}
	}

	return false
}

// AcquireRunMarker writes the run marker and returns a function releasing it.
// It fails with ErrAlreadyRunning when a fresh marker already exists.
func AcquireRunMarker(ctx context.Context) (func(), error) {
	if IsShipperRunningNow(ctx) {
		return nil, ErrAlreadyRunning
	}

	marker, err := os.Create(RunMarkerFilename)
	if err != nil {
		return nil, fmt.Errorf("create run marker: %w", err)
	}

	if err = marker.Close(); err != nil {
		return nil, fmt.Errorf("close run marker: %w", err)
	}

	release := func() {
		if _, statErr := os.Stat(RunMarkerFilename); statErr == nil {
			_ = os.Remove(RunMarkerFilename)
		}
	}

	return release, nil
}

// sliceToSet converts a slice to a set for quick lookups.
func sliceToSet[T comparable](elements []T) map[T]struct{} {
	result := make(map[T]struct{}, len(elements))
	for _, value := range elements {
		result[value] = struct{}{}
	}

	return result
}
