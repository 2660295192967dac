// Package installer downloads and installs Chrome for Testing builds.
//
// It fetches the upstream availability manifest, resolves the browser and
// driver archive URLs for the configured channel and platform, downloads
// both archives to a temporary directory, extracts them into the install
// destination, and removes the temporary files on every exit path.
package installer
