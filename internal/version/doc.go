// Package version exposes build metadata for the shipper binaries.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags and default to sensible values for local builds. Short and Full
// render the version string for CLI output and logs; UserAgent builds the
// HTTP identity the installer presents to update servers.
package version
