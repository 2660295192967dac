// Package config defines installer settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the manifest endpoint, release channel, platform
// identifier, destination directory and network timeout. Missing settings
// files fall back to built-in defaults so the tool runs with no setup.
package config
