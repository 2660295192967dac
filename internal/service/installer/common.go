package installer

import "os"

const (
	// scratchDirPattern names the temporary directory holding downloaded archives.
	scratchDirPattern = "cft-installer-"

	// browserArchiveName is the scratch filename for the browser archive.
	browserArchiveName = "chrome.zip"

	// driverArchiveName is the scratch filename for the driver archive.
	driverArchiveName = "chromedriver.zip"

	// browserExecutableName is the browser binary inside the extracted tree.
	browserExecutableName = "chrome.exe"

	// driverExecutableName is the driver binary inside the extracted tree.
	driverExecutableName = "chromedriver.exe"

	// defaultDirMode is used when creating the destination directory.
	defaultDirMode os.FileMode = 0o755

	// archiveCount is the number of archives one run downloads.
	archiveCount = 2
)

// browserDirName is the top-level directory the browser archive extracts to.
func browserDirName(platform string) string {
	return "chrome-" + platform
}

// driverDirName is the top-level directory the driver archive extracts to.
func driverDirName(platform string) string {
	return "chromedriver-" + platform
}

// staleExecutableNames lists processes terminated before overwriting an install.
func staleExecutableNames() []string {
	return []string{browserExecutableName, driverExecutableName}
}

// sliceToSet converts a slice to a set for quick lookups.
func sliceToSet[T comparable](elements []T) map[T]struct{} {
	result := make(map[T]struct{}, len(elements))
	for _, value := range elements {
		result[value] = struct{}{}
	}

	return result
}
