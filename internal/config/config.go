package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the shipper binaries. Every field has a
// default reproducing the original zero-config packaging behavior, so a
// missing settings file is not an error.
type Config struct {
	// AppName is the distribution name: staging directory, staged executable
	// and archive base name.
	AppName string `yaml:"app_name"`
	// CrateName is the binary name the build tool produces under target/.
	CrateName string `yaml:"crate_name"`
	// ProjectDir is the directory the build tool runs in.
	ProjectDir string `yaml:"project_dir"`
	// OutputDir is where the staging directory, archive and manifest land.
	OutputDir string `yaml:"output_dir"`
	// BuildTool is the external compiler command, cargo by default.
	BuildTool string `yaml:"build_tool"`
	// BuildArgs are the arguments passed to the build tool.
	BuildArgs []string `yaml:"build_args,flow"`
	// BuildProfile is the profile subdirectory under target/ the binary is
	// expected in after a successful build.
	BuildProfile string `yaml:"build_profile"`
	// BuildTimeout bounds a single build tool invocation.
	BuildTimeout time.Duration `yaml:"build_timeout"`
	// Include lists optional doublestar patterns, relative to the project
	// directory, of extra files staged next to the binary.
	Include []string `yaml:"include,omitempty"`
	// WatchPaths lists the files and directories the watch mode monitors,
	// relative to the project directory.
	WatchPaths []string `yaml:"watch_paths,omitempty"`
	// UpdateFolder is the optional location (local directory or http(s) URL)
	// the archive and manifest are published to and installed from.
	UpdateFolder string `yaml:"update_folder,omitempty"`
	// InstallDir is the optional default destination for the installer.
	InstallDir string `yaml:"install_dir,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for shipper settings.
	DefaultConfigFilename = "shipper-settings.yaml"

	// DefaultAppName is the distribution name of the packaged application.
	DefaultAppName = "PhotoSelector"

	// DefaultCrateName is the binary name the cargo project produces.
	DefaultCrateName = "photo-selector"

	// DefaultBuildTool invokes the Rust toolchain.
	DefaultBuildTool = "cargo"

	// DefaultBuildProfile is the optimized cargo profile.
	DefaultBuildProfile = "release"

	// DefaultBuildTimeout bounds a release build; cargo builds are slow on
	// cold caches, so this is deliberately generous.
	DefaultBuildTimeout = 15 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errAppNameInvalid is returned when the app name cannot be used as a
	// directory and file base name.
	errAppNameInvalid = errors.New("app name must be a bare name without path separators")
	// errCrateNameInvalid is returned when the crate name cannot be used as a
	// file base name.
	errCrateNameInvalid = errors.New("crate name must be a bare name without path separators")
	// errInvalidPattern is returned when an include pattern does not parse.
	errInvalidPattern = errors.New("invalid include pattern")
	// errInvalidUpdateFolder is returned for unusable update folder values.
	errInvalidUpdateFolder = errors.New("update folder must be a directory path or an http(s) URL")
)

// defaultBuildArgs returns a fresh copy of the cargo release invocation.
func defaultBuildArgs() []string {
	return []string{"build", "--release"}
}

// defaultWatchPaths returns a fresh copy of the default watch roots: the
// cargo source tree and the manifest that changes dependency sets.
func defaultWatchPaths() []string {
	return []string{"src", "Cargo.toml"}
}

// Default returns a configuration with every field set to the packaging
// defaults of the PhotoSelector project.
func Default() *Config {
	return &Config{
		AppName:      DefaultAppName,
		CrateName:    DefaultCrateName,
		ProjectDir:   ".",
		OutputDir:    ".",
		BuildTool:    DefaultBuildTool,
		BuildArgs:    defaultBuildArgs(),
		BuildProfile: DefaultBuildProfile,
		BuildTimeout: DefaultBuildTimeout,
		WatchPaths:   defaultWatchPaths(),
	}
}

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Default when no path was
// given explicitly and the default settings file does not exist. The original
// packaging script ran without any configuration, and so does this tool.
func LoadOrDefault(path string) (*Config, error) {
	explicit := path != ""

	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if !explicit && errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return nil, err
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills in defaults for unset fields and checks the rest for
// formatting problems.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if !isBareName(cfg.AppName) {
		return fmt.Errorf("%w: %q", errAppNameInvalid, cfg.AppName)
	}

	if !isBareName(cfg.CrateName) {
		return fmt.Errorf("%w: %q", errCrateNameInvalid, cfg.CrateName)
	}

	for _, pattern := range cfg.Include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %q", errInvalidPattern, pattern)
		}
	}

	if err := validateUpdateFolder(cfg.UpdateFolder); err != nil {
		return err
	}

	return nil
}

// applyDefaults replaces zero values with the packaging defaults.
func applyDefaults(cfg *Config) {
	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}

	if cfg.CrateName == "" {
		cfg.CrateName = DefaultCrateName
	}

	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	if cfg.BuildTool == "" {
		cfg.BuildTool = DefaultBuildTool
	}

	if len(cfg.BuildArgs) == 0 {
		cfg.BuildArgs = defaultBuildArgs()
	}

	if cfg.BuildProfile == "" {
		cfg.BuildProfile = DefaultBuildProfile
	}

	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = DefaultBuildTimeout
	}

	if len(cfg.WatchPaths) == 0 {
		cfg.WatchPaths = defaultWatchPaths()
	}
}

// isBareName reports whether the name is usable as a single path element.
func isBareName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, `/\`)
}

// validateUpdateFolder accepts an empty value, an http(s) URL or anything
// that looks like a filesystem path. A single-letter scheme is a Windows
// drive letter, not a URL.
func validateUpdateFolder(folder string) error {
	if folder == "" {
		return nil
	}

	u, err := url.Parse(folder)
	if err != nil {
		return fmt.Errorf("%w: %q", errInvalidUpdateFolder, folder)
	}

	if len(u.Scheme) <= 1 {
		return nil
	}

	switch u.Scheme {
	case "http", "https":
		return nil
	default:
		return fmt.Errorf("%w: unsupported scheme %q", errInvalidUpdateFolder, u.Scheme)
	}
}

// IsRemoteFolder reports whether the folder value refers to an http(s)
// location rather than a local directory.
func IsRemoteFolder(folder string) bool {
	u, err := url.Parse(folder)
	if err != nil {
		return false
	}

	return u.Scheme == "http" || u.Scheme == "https"
}
