package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// defaultDirMode is used for directories created during extraction.
	defaultDirMode os.FileMode = 0o755

	// defaultFileMode is used when an archive entry carries no mode bits.
	defaultFileMode os.FileMode = 0o644
)

// errInsecurePath is returned for entries that would escape the destination.
var errInsecurePath = errors.New("archive entry escapes destination")

// ExtractZip unpacks the zip archive at src into dest, creating directories
// as needed and overwriting files that already exist at the same relative
// path.
func ExtractZip(src, dest string) error {
	reader, err := zip.OpenReader(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	cleanDest := filepath.Clean(dest)
	if err = os.MkdirAll(cleanDest, defaultDirMode); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	for _, entry := range reader.File {
		if err = extractEntry(entry, cleanDest); err != nil {
			return fmt.Errorf("extract %s: %w", entry.Name, err)
		}
	}

	return nil
}

// extractEntry writes a single archive entry below dest.
func extractEntry(entry *zip.File, dest string) error {
	targetPath := filepath.Join(dest, filepath.FromSlash(entry.Name))
	if !strings.HasPrefix(targetPath, dest+string(os.PathSeparator)) {
		return fmt.Errorf("%s: %w", entry.Name, errInsecurePath)
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(targetPath, defaultDirMode)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), defaultDirMode); err != nil {
		return err
	}

	mode := entry.Mode()
	if mode.Perm() == 0 {
		// Archives produced on Windows often carry no permission bits.
		mode = defaultFileMode
	}

	source, err := entry.Open()
	if err != nil {
		return err
	}

	target, err := os.OpenFile(filepath.Clean(targetPath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode.Perm())
	if err != nil {
		_ = source.Close()

		return err
	}

	if _, err = io.Copy(target, source); err != nil {
		_ = source.Close()
		_ = target.Close()

		return err
	}

	if err = source.Close(); err != nil {
		_ = target.Close()

		return err
	}

	return target.Close()
}
