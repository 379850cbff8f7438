package manifest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/photoselector/shipper/internal/domain/dist"
	"github.com/photoselector/shipper/internal/version"
)

const (
	// DefaultFilename stores the release description published next to the archive.
	DefaultFilename = "photo-selector-version.yaml"

	// defaultMapCapacity is the default initial capacity for the file listing.
	defaultMapCapacity = 8
)

var (
	// errManifestIsNotSet is returned when a nil manifest is provided.
	errManifestIsNotSet = errors.New("manifest is not set")
	// errAppNameRequired is returned when the application name is missing.
	errAppNameRequired = errors.New("app name must be provided")
	// errPlatformRequired is returned when the platform label is missing.
	errPlatformRequired = errors.New("platform must be provided")
	// errArchiveRequired is returned when the archive filename is missing.
	errArchiveRequired = errors.New("archive filename must be provided")
	// errChecksumRequired is returned when the archive checksum is missing.
	errChecksumRequired = errors.New("archive checksum must be provided")
	// errExecutableRequired is returned when the executable name is missing.
	errExecutableRequired = errors.New("executable name must be provided")
	// errArchiveMismatch is returned when the archive container does not fit the platform.
	errArchiveMismatch = errors.New("archive name does not match the platform's container format")
)

// Manifest describes one published release of the application.
type Manifest struct {
	// Version is the semantic version of this release.
	Version string `yaml:"version"`
	// AppName is the distribution name of the application.
	AppName string `yaml:"app_name"`
	// Platform is the human label of the release target (Windows, Mac or Linux).
	Platform string `yaml:"platform"`
	// Archive is the filename of the release archive.
	Archive string `yaml:"archive"`
	// ArchiveChecksum is the base64-encoded checksum of the archive.
	ArchiveChecksum string `yaml:"archive_checksum"`
	// Executable is the name of the staged program inside the archive.
	Executable string `yaml:"executable"`
	// Files maps archive entry names to their base64-encoded checksums.
	Files map[string]string `yaml:"files"`
	// CreatedAt is the publication timestamp in UTC.
	CreatedAt time.Time `yaml:"created_at"`
}

// New produces a manifest for the current build with an empty file listing.
func New(appName, platform string) *Manifest {
	return &Manifest{
		Version:   version.Short(),
		AppName:   appName,
		Platform:  platform,
		Files:     make(map[string]string, defaultMapCapacity),
		CreatedAt: time.Now().UTC(),
	}
}

// SemVer parses the manifest's version field.
func (m *Manifest) SemVer() (*semver.Version, error) {
	parsed, err := semver.NewVersion(m.Version)
	if err != nil {
		return nil, fmt.Errorf("parse manifest version %q: %w", m.Version, err)
	}

	return parsed, nil
}

// Validate checks the fields the installer depends on.
func (m *Manifest) Validate() error {
	if m == nil {
		return errManifestIsNotSet
	}

	if _, err := m.SemVer(); err != nil {
		return err
	}

	if m.AppName == "" {
		return errAppNameRequired
	}

	if m.Platform == "" {
		return errPlatformRequired
	}

	if m.Archive == "" {
		return errArchiveRequired
	}

	extension := dist.FromGOOS(m.Platform).ArchiveFormat().Extension()
	if !strings.HasSuffix(m.Archive, extension) {
		return fmt.Errorf("%w: %s is not a %s archive", errArchiveMismatch, m.Archive, extension)
	}

	if m.ArchiveChecksum == "" {
		return errChecksumRequired
	}

	if m.Executable == "" {
		return errExecutableRequired
	}

	return nil
}

// Parse decodes a YAML manifest and validates it.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Encode renders the manifest as YAML.
func (m *Manifest) Encode() ([]byte, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}

	return data, nil
}
