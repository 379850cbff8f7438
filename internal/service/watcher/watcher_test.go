package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// startWatch runs Run in a goroutine and returns a channel counting action
// runs plus a stop function that cancels the session and waits for exit.
func startWatch(t *testing.T, opts *Options) (runs chan struct{}, stop func()) {
	t.Helper()

	runs = make(chan struct{}, 64)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, opts, func(context.Context) error {
			runs <- struct{}{}
			return nil
		})
	}()

	stop = func() {
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watch session did not stop")
		}
	}

	return runs, stop
}

// waitForRun fails the test unless an action run arrives in time.
func waitForRun(t *testing.T, runs <-chan struct{}) {
	t.Helper()

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("expected an action run")
	}
}

func TestRunExecutesActionImmediately(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))

	runs, stop := startWatch(t, &Options{
		BaseDir:  dir,
		Paths:    []string{"src"},
		Debounce: 50 * time.Millisecond,
	})
	defer stop()

	waitForRun(t, runs)
}

func TestRunRerunsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))

	runs, stop := startWatch(t, &Options{
		BaseDir:  dir,
		Paths:    []string{"src"},
		Debounce: 50 * time.Millisecond,
	})
	defer stop()

	waitForRun(t, runs)

	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "main.rs"), []byte("fn main() {}"), 0o644))
	waitForRun(t, runs)
}

func TestRunCollapsesEventBursts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))

	runs, stop := startWatch(t, &Options{
		BaseDir:  dir,
		Paths:    []string{"src"},
		Debounce: 300 * time.Millisecond,
	})
	defer stop()

	waitForRun(t, runs)

	// A burst of writes inside one debounce window.
	for i := 0; i < 5; i++ {
		name := filepath.Join(srcDir, "file"+string(rune('a'+i))+".rs")
		require.NoError(t, os.WriteFile(name, []byte("change"), 0o644))
	}

	waitForRun(t, runs)

	// Give any stragglers a chance to fire, then check the burst collapsed.
	time.Sleep(time.Second)

	extra := 0

	for {
		select {
		case <-runs:
			extra++
		default:
			require.LessOrEqual(t, extra, 1)
			return
		}
	}
}

func TestRunIgnoresPatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))

	runs, stop := startWatch(t, &Options{
		BaseDir:  dir,
		Paths:    []string{"src"},
		Ignore:   []string{"src/**/*.swp"},
		Debounce: 50 * time.Millisecond,
	})
	defer stop()

	waitForRun(t, runs)

	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "main.rs.swp"), []byte("editor junk"), 0o644))

	select {
	case <-runs:
		t.Fatal("ignored file must not trigger a run")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestRunWatchesNewlyCreatedDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))

	runs, stop := startWatch(t, &Options{
		BaseDir:  dir,
		Paths:    []string{"src"},
		Debounce: 50 * time.Millisecond,
	})
	defer stop()

	waitForRun(t, runs)

	nested := filepath.Join(srcDir, "ui")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	waitForRun(t, runs)

	// A change inside the new directory is seen too.
	require.NoError(t, os.WriteFile(filepath.Join(nested, "view.rs"), []byte("mod view;"), 0o644))
	waitForRun(t, runs)
}

func TestRunFailsWithoutExistingPaths(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{
		BaseDir: t.TempDir(),
		Paths:   []string{"src", "Cargo.toml"},
	}, func(context.Context) error { return nil })
	require.ErrorIs(t, err, errNothingToWatch)
}

func TestRunRequiresAction(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), &Options{}, nil)
	require.ErrorIs(t, err, errActionRequired)
}

func TestRunKeepsWatchingAfterActionFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	srcDir := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(srcDir, 0o755))

	runs := make(chan struct{}, 64)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, &Options{
			BaseDir:  dir,
			Paths:    []string{"src"},
			Debounce: 50 * time.Millisecond,
		}, func(context.Context) error {
			runs <- struct{}{}
			return errors.New("build exploded")
		})
	}()

	waitForRun(t, runs)

	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "lib.rs"), []byte("pub fn f() {}"), 0o644))
	waitForRun(t, runs)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch session did not stop")
	}
}
