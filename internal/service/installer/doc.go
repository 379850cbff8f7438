// Package installer implements the selector-installer workflow.
//
// The installer fetches a release manifest and archive from an update folder
// (a local directory or an http(s) URL), decides whether the local
// installation is outdated, verifies the archive checksum, and applies the
// release: the executable is swapped atomically with checksum-validated
// replacement, every other archive entry is copied in place, and the applied
// manifest is stored as an installation receipt for the next comparison.
package installer
