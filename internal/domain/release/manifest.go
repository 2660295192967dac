package release

import (
	"errors"
	"fmt"
)

// Manifest mirrors the "last known good versions with downloads" JSON
// document published for Chrome for Testing.
type Manifest struct {
	// Timestamp is when the upstream document was generated.
	Timestamp string `json:"timestamp"`
	// Channels maps release track names to their published builds.
	Channels map[string]Channel `json:"channels"`
}

// Channel describes the current build of one release track.
type Channel struct {
	// Channel is the release track name as published upstream.
	Channel string `json:"channel"`
	// Version is the build version, e.g. "127.0.6533.72".
	Version string `json:"version"`
	// Revision is the Chromium revision the build was cut from.
	Revision string `json:"revision"`
	// Downloads lists the downloadable artifacts per kind.
	Downloads Downloads `json:"downloads"`
}

// Downloads groups artifacts by kind.
type Downloads struct {
	// Chrome lists the browser archives per platform.
	Chrome []Artifact `json:"chrome"`
	// Chromedriver lists the driver archives per platform.
	Chromedriver []Artifact `json:"chromedriver"`
}

// Artifact is one downloadable build for a specific platform.
type Artifact struct {
	// Platform is the upstream platform identifier, e.g. "win64".
	Platform string `json:"platform"`
	// URL is the archive download location.
	URL string `json:"url"`
}

// Target is the resolved pair of download URLs for one channel and platform.
type Target struct {
	// Channel is the release track the target was resolved from.
	Channel string
	// Platform is the artifact platform identifier.
	Platform string
	// Version is the build version being installed.
	Version string
	// Revision is the Chromium revision of the build.
	Revision string
	// BrowserURL is the browser archive download location.
	BrowserURL string
	// DriverURL is the driver archive download location.
	DriverURL string
}

var (
	// ErrChannelNotFound is returned when the manifest lacks the requested channel.
	ErrChannelNotFound = errors.New("channel not found in manifest")
	// ErrArtifactNotFound is returned when a channel lacks an artifact for the platform.
	ErrArtifactNotFound = errors.New("no artifact for platform")
)

// Resolve locates the browser and driver URLs for the given channel and
// platform. The first matching entry wins when duplicates exist.
func (m *Manifest) Resolve(channelName, platform string) (*Target, error) {
	channel, ok := m.Channels[channelName]
	if !ok {
		return nil, fmt.Errorf("%s: %w", channelName, ErrChannelNotFound)
	}

	browserURL, err := pickURL(channel.Downloads.Chrome, platform)
	if err != nil {
		return nil, fmt.Errorf("chrome: %w", err)
	}

	driverURL, err := pickURL(channel.Downloads.Chromedriver, platform)
	if err != nil {
		return nil, fmt.Errorf("chromedriver: %w", err)
	}

	return &Target{
		Channel:    channelName,
		Platform:   platform,
		Version:    channel.Version,
		Revision:   channel.Revision,
		BrowserURL: browserURL,
		DriverURL:  driverURL,
	}, nil
}

// pickURL returns the URL of the first artifact matching the platform.
func pickURL(artifacts []Artifact, platform string) (string, error) {
	for _, artifact := range artifacts {
		if artifact.Platform == platform && artifact.URL != "" {
			return artifact.URL, nil
		}
	}

	return "", fmt.Errorf("%s: %w", platform, ErrArtifactNotFound)
}
