// Package packager implements the release pipeline of the selector-packager binary.
//
// A full run builds the optimized binary with the configured build tool,
// stages it together with the user README into the distribution folder,
// archives the folder in the platform's format and publishes a manifest with
// checksums for the installer. The build and package stages report failures
// through distinct error types, so the CLI can translate them into separate
// exit codes.
package packager
