// Package release contains core domain types for Chrome-for-Testing builds.
//
// It defines the Manifest document published upstream, the Target resolved
// from it for one channel/platform pair, and the Receipt left behind after
// a completed install.
package release
