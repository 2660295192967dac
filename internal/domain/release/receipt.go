package release

import "time"

// Actor identifies who performed an install.
type Actor struct {
	// Hostname is the machine name where the install was performed.
	Hostname string `json:"hostname"`
	// Username is the system user who ran the installer.
	Username string `json:"username"`
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// Receipt records a completed installation.
type Receipt struct {
	// Version is the installed build version.
	Version string `json:"version"`
	// Revision is the Chromium revision of the installed build.
	Revision string `json:"revision"`
	// Channel is the release track the build came from.
	Channel string `json:"channel"`
	// Platform is the artifact platform identifier.
	Platform string `json:"platform"`
	// BrowserPath is the installed browser executable.
	BrowserPath string `json:"browser_path"`
	// DriverPath is the installed driver executable.
	DriverPath string `json:"driver_path"`
	// Timestamp is when the install completed.
	Timestamp time.Time `json:"timestamp"`
	// InstalledBy is the host/user that performed the install.
	InstalledBy *Actor `json:"installed_by,omitempty"`
}

// Clone returns a copy of the receipt to avoid leaking internal references.
func (r *Receipt) Clone() *Receipt {
	if r == nil {
		return nil
	}

	cloned := *r
	cloned.InstalledBy = r.InstalledBy.Clone()

	return &cloned
}
