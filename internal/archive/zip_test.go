package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeZip produces a zip archive at path containing the provided entries.
func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	archiveFile, err := os.Create(path)
	require.NoError(t, err)

	writer := zip.NewWriter(archiveFile)
	for name, body := range entries {
		entry, entryErr := writer.Create(name)
		require.NoError(t, entryErr)

		_, entryErr = entry.Write([]byte(body))
		require.NoError(t, entryErr)
	}

	require.NoError(t, writer.Close())
	require.NoError(t, archiveFile.Close())
}

// TestExtractZip checks extraction into a directory that does not exist yet.
func TestExtractZip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "build.zip")
	dest := filepath.Join(dir, "install", "nested")

	writeZip(t, archivePath, map[string]string{
		"chrome-win64/chrome.exe":        "browser",
		"chrome-win64/icudtl.dat":        "icu-data",
		"chrome-win64/locales/en-US.pak": "locale",
	})

	require.NoError(t, ExtractZip(archivePath, dest))

	contents, err := os.ReadFile(filepath.Join(dest, "chrome-win64", "chrome.exe"))
	require.NoError(t, err)
	require.Equal(t, "browser", string(contents))

	_, err = os.Stat(filepath.Join(dest, "chrome-win64", "locales", "en-US.pak"))
	require.NoError(t, err)
}

// TestExtractZipOverwrites ensures a second extraction replaces prior files in place.
func TestExtractZipOverwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dest := filepath.Join(dir, "install")

	oldArchive := filepath.Join(dir, "old.zip")
	writeZip(t, oldArchive, map[string]string{
		"chromedriver-win64/chromedriver.exe": "old-driver",
	})
	require.NoError(t, ExtractZip(oldArchive, dest))

	newArchive := filepath.Join(dir, "new.zip")
	writeZip(t, newArchive, map[string]string{
		"chromedriver-win64/chromedriver.exe": "new-driver",
	})
	require.NoError(t, ExtractZip(newArchive, dest))

	contents, err := os.ReadFile(filepath.Join(dest, "chromedriver-win64", "chromedriver.exe"))
	require.NoError(t, err)
	require.Equal(t, "new-driver", string(contents))
}

// TestExtractZipRejectsEscapingEntries covers entries pointing outside the destination.
func TestExtractZipRejectsEscapingEntries(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")
	writeZip(t, archivePath, map[string]string{
		"../evil.txt": "payload",
	})

	err := ExtractZip(archivePath, filepath.Join(dir, "install"))
	require.ErrorIs(t, err, errInsecurePath)

	_, err = os.Stat(filepath.Join(dir, "evil.txt"))
	require.True(t, os.IsNotExist(err))
}

// TestExtractZipCorruptArchive ensures unreadable archives surface an error.
func TestExtractZipCorruptArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archivePath := filepath.Join(dir, "corrupt.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("not a zip"), 0o600))

	err := ExtractZip(archivePath, filepath.Join(dir, "install"))
	require.Error(t, err)
}
