// Package manifest implements persistence for release manifests.
//
// A manifest describes one published release: version, target platform,
// archive name and the checksums the installer verifies before applying an
// update. The FileRepository stores and loads manifests as YAML on disk and
// exposes a Repository interface that the packager and installer services
// depend on.
package manifest
