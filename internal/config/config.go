package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds installer settings shared by all pipeline steps.
type Config struct {
	// ManifestURL is the endpoint publishing the latest known-good builds.
	ManifestURL string `yaml:"manifest_url"`
	// Channel is the release track to install from.
	Channel string `yaml:"channel"`
	// Platform is the artifact platform identifier to resolve.
	Platform string `yaml:"platform"`
	// Destination is the directory receiving the extracted builds.
	Destination string `yaml:"destination"`
	// Timeout bounds the manifest fetch.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for installer settings.
	DefaultConfigFilename = "cft-installer-settings.yaml"

	// DefaultManifestURL is the official Chrome-for-Testing availability endpoint.
	DefaultManifestURL = "https://googlechromelabs.github.io/chrome-for-testing/last-known-good-versions-with-downloads.json"

	// DefaultChannel is the release track installed when none is configured.
	DefaultChannel = "Stable"

	// DefaultPlatform is the artifact platform installed when none is configured.
	DefaultPlatform = "win64"

	// DefaultTimeout is the default duration for the manifest fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// destinationDirName is the directory created under the standard app-data root.
	destinationDirName = "chrome-for-testing"

	// fallbackDestination is used when no app-data root can be determined.
	fallbackDestination = `C:\chrome-for-testing`
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Default returns a configuration populated with built-in defaults.
func Default() *Config {
	return &Config{
		ManifestURL: DefaultManifestURL,
		Channel:     DefaultChannel,
		Platform:    DefaultPlatform,
		Destination: DefaultDestination(),
		Timeout:     DefaultTimeout,
	}
}

// DefaultDestination resolves the standard installation directory for the
// target platform. The local app-data root is preferred when available.
func DefaultDestination() string {
	if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
		return filepath.Join(localAppData, destinationDirName)
	}

	return fallbackDestination
}

// Load reads configuration from the provided path and validates essential
// fields. A missing file is not an error: built-in defaults are returned so
// the installer works without any settings file present.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

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

// Save writes settings to the provided path.
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

// Validate checks the provided settings and fills unset fields with defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ManifestURL == "" {
		cfg.ManifestURL = DefaultManifestURL
	}

	if _, err := url.ParseRequestURI(cfg.ManifestURL); err != nil {
		return fmt.Errorf("invalid manifest URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}

	if cfg.Platform == "" {
		cfg.Platform = DefaultPlatform
	}

	if cfg.Destination == "" {
		cfg.Destination = DefaultDestination()
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}
