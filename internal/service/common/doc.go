// Package common holds helpers shared by the packager and installer services.
//
// It provides the run marker guarding against concurrent executions, checksum
// calculation for distribution manifests, and a file copy that preserves the
// mode and modification time of the staged artifacts.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
