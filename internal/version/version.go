package version

import "fmt"

var (
	// Version is the semantic version stamped on releases. Overridden via
	// ldflags; plain builds ship as 1.0.0 so manifests stay parseable.
	Version = "1.0.0"
	// Commit is the short git SHA recorded at build time, or "none".
	Commit = "none"
	// BuildTime is the UTC timestamp recorded at build time.
	BuildTime = "unknown"
)

// Short returns the bare semantic version, the form release manifests carry.
func Short() string {
	return Version
}

// Full returns the version together with the commit and build timestamp.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}

// UserAgent renders the HTTP User-Agent header the installer identifies
// itself with when fetching releases.
func UserAgent(binaryName string) string {
	return fmt.Sprintf("%s/%s", binaryName, Version)
}
