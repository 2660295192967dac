package integration

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/cft-installer/internal/config"
	"github.com/oshokin/cft-installer/internal/domain/release"
	"github.com/oshokin/cft-installer/internal/repository/receipt"
	"github.com/oshokin/cft-installer/internal/service/installer"
)

// buildZip produces an in-memory zip archive with the provided entries.
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer

	writer := zip.NewWriter(&buf)
	for name, body := range entries {
		entry, err := writer.Create(name)
		require.NoError(t, err)

		_, err = entry.Write([]byte(body))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	return buf.Bytes()
}

// redirectScratch points the system temporary directory at a fresh location
// so the test can verify no downloaded archive survives the run.
func redirectScratch(t *testing.T) string {
	t.Helper()

	scratchRoot := t.TempDir()
	t.Setenv("TMPDIR", scratchRoot)
	t.Setenv("TMP", scratchRoot)

	return scratchRoot
}

// TestInstaller_Run_DownloadsAndExtracts serves a manifest and two archives
// over HTTP and verifies both builds end up extracted, prior files are
// overwritten, a receipt is written, and the scratch directory is empty.
//
//nolint:funlen // Integration test requires comprehensive setup and verification.
func TestInstaller_Run_DownloadsAndExtracts(t *testing.T) {
	scratchRoot := redirectScratch(t)

	dir := t.TempDir()
	dest := filepath.Join(dir, "install")

	// A previous install that the run must overwrite in place.
	prior := filepath.Join(dest, "chrome-win64", "chrome.exe")
	require.NoError(t, os.MkdirAll(filepath.Dir(prior), 0o755))
	require.NoError(t, os.WriteFile(prior, []byte("stale-browser"), 0o644))

	browserZip := buildZip(t, map[string]string{
		"chrome-win64/chrome.exe": "fresh-browser",
		"chrome-win64/icudtl.dat": "icu-data",
	})
	driverZip := buildZip(t, map[string]string{
		"chromedriver-win64/chromedriver.exe": "fresh-driver",
	})

	// Setup HTTP server to serve manifest and archives.
	var ts *httptest.Server

	mux := http.NewServeMux()
	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, _ *http.Request) {
		manifest := &release.Manifest{
			Channels: map[string]release.Channel{
				"Stable": {
					Channel:  "Stable",
					Version:  "127.0.6533.72",
					Revision: "1313161",
					Downloads: release.Downloads{
						Chrome: []release.Artifact{
							{Platform: "win64", URL: ts.URL + "/chrome.zip"},
						},
						Chromedriver: []release.Artifact{
							{Platform: "win64", URL: ts.URL + "/chromedriver.zip"},
						},
					},
				},
			},
		}

		_ = json.NewEncoder(w).Encode(manifest)
	})

	mux.HandleFunc("/chrome.zip", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(browserZip)
	})

	mux.HandleFunc("/chromedriver.zip", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(driverZip)
	})

	ts = httptest.NewServer(mux)
	defer ts.Close()

	// Create configuration file pointing to the test HTTP server.
	cfgPath := filepath.Join(dir, config.DefaultConfigFilename)
	cfg := &config.Config{
		ManifestURL: ts.URL + "/manifest.json",
		Destination: dest,
	}

	require.NoError(t, config.Save(cfgPath, cfg))

	installerOptions := &installer.Options{
		ConfigPath: cfgPath,
	}

	require.NoError(t, installer.Run(context.Background(), installerOptions))

	// Both builds extracted, prior browser overwritten.
	contents, err := os.ReadFile(filepath.Join(dest, "chrome-win64", "chrome.exe"))
	require.NoError(t, err)
	require.Equal(t, "fresh-browser", string(contents))

	contents, err = os.ReadFile(filepath.Join(dest, "chromedriver-win64", "chromedriver.exe"))
	require.NoError(t, err)
	require.Equal(t, "fresh-driver", string(contents))

	// Receipt records the installed version.
	loaded, err := receipt.NewFileRepository(filepath.Join(dest, receipt.Filename)).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "127.0.6533.72", loaded.Version)
	require.Equal(t, "win64", loaded.Platform)

	// No downloaded archive survives the run.
	leftovers, err := os.ReadDir(scratchRoot)
	require.NoError(t, err)
	require.Empty(t, leftovers)
}

// TestInstaller_Run_ResolutionFailure verifies that a manifest without a
// win64 driver entry fails before any archive download is attempted and
// leaves no temporary files behind.
func TestInstaller_Run_ResolutionFailure(t *testing.T) {
	scratchRoot := redirectScratch(t)

	dir := t.TempDir()
	dest := filepath.Join(dir, "install")

	var archiveRequests atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/manifest.json", func(w http.ResponseWriter, _ *http.Request) {
		const document = `{"channels":{"Stable":{"downloads":{` +
			`"chrome":[{"platform":"win64","url":"https://x/chrome.zip"}],` +
			`"chromedriver":[{"platform":"linux64","url":"https://x/driver.zip"}]}}}}`

		fmt.Fprint(w, document)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		archiveRequests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	cfgPath := filepath.Join(dir, config.DefaultConfigFilename)
	cfg := &config.Config{
		ManifestURL: ts.URL + "/manifest.json",
		Destination: dest,
	}

	require.NoError(t, config.Save(cfgPath, cfg))

	err := installer.Run(context.Background(), &installer.Options{ConfigPath: cfgPath})
	require.ErrorIs(t, err, release.ErrArtifactNotFound)

	// Resolution failed before any download was attempted.
	require.Zero(t, archiveRequests.Load())

	// Nothing was extracted and no scratch files remain.
	_, err = os.Stat(filepath.Join(dest, "chrome-win64"))
	require.True(t, os.IsNotExist(err))

	leftovers, err := os.ReadDir(scratchRoot)
	require.NoError(t, err)
	require.Empty(t, leftovers)
}
