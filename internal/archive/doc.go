// Package archive unpacks downloaded build archives.
//
// ExtractZip extracts every entry of a zip archive into a destination
// directory, overwriting existing files and rejecting entries whose paths
// would escape the destination.
package archive
