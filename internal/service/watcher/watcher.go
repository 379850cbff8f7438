package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/photoselector/shipper/internal/logger"
)

// defaultDebounce collapses bursts of filesystem events into one action run.
// Editors and cargo both touch several files per save.
const defaultDebounce = 500 * time.Millisecond

var (
	// errActionRequired is returned when no action was provided.
	errActionRequired = errors.New("action must be provided")
	// errNothingToWatch is returned when none of the configured paths exist.
	errNothingToWatch = errors.New("none of the watch paths exist")
)

// Options configures a watch session.
type Options struct {
	// BaseDir anchors relative watch paths and ignore patterns.
	BaseDir string
	// Paths are the files and directories to watch, relative to BaseDir
	// unless absolute. Directories are watched recursively.
	Paths []string
	// Ignore lists doublestar patterns, relative to BaseDir, whose changes
	// are discarded.
	Ignore []string
	// Debounce is the quiet period after the last event before the action
	// reruns; zero selects the default.
	Debounce time.Duration
}

// Run executes action once immediately, then reruns it after every debounced
// change to the watched paths. It blocks until ctx is cancelled.
func Run(ctx context.Context, opts *Options, action func(context.Context) error) error {
	if action == nil {
		return errActionRequired
	}

	if opts == nil {
		opts = &Options{}
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create filesystem watcher: %w", err)
	}

	defer func() {
		_ = fsWatcher.Close()
	}()

	watched := 0

	for _, path := range opts.Paths {
		full := path
		if !filepath.IsAbs(full) {
			full = filepath.Join(opts.BaseDir, path)
		}

		added, addErr := addRecursive(fsWatcher, full)
		if addErr != nil {
			logger.WarnKV(ctx, "Unable to watch path", "path", full, "error", addErr)
			continue
		}

		watched += added
	}

	if watched == 0 {
		return errNothingToWatch
	}

	logger.InfoKV(ctx, "Watching for changes",
		"paths", strings.Join(opts.Paths, ", "),
		"debounce", debounce.String())

	runAction := func() {
		if actionErr := action(ctx); actionErr != nil {
			logger.ErrorKV(ctx, "Run failed, watching continues", "error", actionErr)
		}
	}

	// The first run happens right away; events only schedule reruns.
	runAction()

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Watch session stopped")
			return nil

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}

			if !isRelevant(event) {
				continue
			}

			if isIgnored(opts.BaseDir, opts.Ignore, event.Name) {
				continue
			}

			// Freshly created directories join the watch, otherwise changes
			// nested under them go unseen.
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_, _ = addRecursive(fsWatcher, event.Name)
				}
			}

			logger.DebugKV(ctx, "Change detected", "path", event.Name, "op", event.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			runAction()

		case watchErr, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}

			logger.WarnKV(ctx, "Watcher error", "error", watchErr)
		}
	}
}

// isRelevant filters out events that cannot change build inputs.
func isRelevant(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) ||
		event.Has(fsnotify.Rename)
}

// isIgnored reports whether the changed path matches an ignore pattern.
func isIgnored(baseDir string, patterns []string, name string) bool {
	if len(patterns) == 0 {
		return false
	}

	rel, err := filepath.Rel(baseDir, name)
	if err != nil {
		rel = name
	}

	rel = filepath.ToSlash(rel)

	for _, pattern := range patterns {
		if matched, matchErr := doublestar.Match(pattern, rel); matchErr == nil && matched {
			return true
		}
	}

	return false
}

// addRecursive registers path and, for directories, everything below it.
// It returns the number of watch points added.
func addRecursive(fsWatcher *fsnotify.Watcher, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	if !info.IsDir() {
		if err = fsWatcher.Add(path); err != nil {
			return 0, err
		}

		return 1, nil
	}

	added := 0

	err = filepath.WalkDir(path, func(entry string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !d.IsDir() {
			return nil
		}

		if addErr := fsWatcher.Add(entry); addErr != nil {
			return addErr
		}

		added++

		return nil
	})
	if err != nil {
		return added, err
	}

	return added, nil
}
