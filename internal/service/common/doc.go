// Package common holds helpers shared by several services.
//
// It provides a utility to detect the current system actor
// (hostname/username) recorded in the install receipt.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
