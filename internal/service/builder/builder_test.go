package builder

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// requireShell skips tests that drive a POSIX shell as a stand-in build tool.
func requireShell(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("test requires a POSIX shell")
	}
}

func TestBuildRequiresTool(t *testing.T) {
	t.Parallel()

	_, err := Build(context.Background(), nil)
	require.Error(t, err)

	_, err = Build(context.Background(), &Options{})
	require.Error(t, err)
}

func TestBuildToolNotFound(t *testing.T) {
	t.Parallel()

	_, err := Build(context.Background(), &Options{
		Tool: "definitely-not-a-real-compiler-3720",
		Args: []string{"build", "--release"},
	})
	require.ErrorIs(t, err, ErrToolNotFound)
}

func TestBuildSuccess(t *testing.T) {
	t.Parallel()
	requireShell(t)

	output, err := Build(context.Background(), &Options{
		Tool: "sh",
		Args: []string{"-c", "echo compiling && echo done"},
		Dir:  t.TempDir(),
	})
	require.NoError(t, err)
	require.Contains(t, output, "done")
}

func TestBuildReportsExitCode(t *testing.T) {
	t.Parallel()
	requireShell(t)

	_, err := Build(context.Background(), &Options{
		Tool: "sh",
		Args: []string{"-c", "echo 'error[E0308]: mismatched types' >&2; exit 101"},
		Dir:  t.TempDir(),
	})
	require.Error(t, err)

	var buildErr *Error
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, "sh", buildErr.Tool)
	require.Equal(t, 101, buildErr.ExitCode)
	require.Contains(t, buildErr.Output, "mismatched types")
}

func TestBuildHonorsTimeout(t *testing.T) {
	t.Parallel()
	requireShell(t)

	started := time.Now()

	_, err := Build(context.Background(), &Options{
		Tool:    "sh",
		Args:    []string{"-c", "sleep 30"},
		Dir:     t.TempDir(),
		Timeout: 100 * time.Millisecond,
	})
	require.Error(t, err)
	require.Less(t, time.Since(started), 10*time.Second)
}
