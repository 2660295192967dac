package installer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/cft-installer/internal/archive"
	"github.com/oshokin/cft-installer/internal/config"
	"github.com/oshokin/cft-installer/internal/domain/release"
	"github.com/oshokin/cft-installer/internal/logger"
	"github.com/oshokin/cft-installer/internal/repository/receipt"
	"github.com/oshokin/cft-installer/internal/service/common"
)

var (
	errManifestStatus = errors.New("unexpected manifest http status")
	errDownloadStatus = errors.New("unexpected download http status")
)

// Options are inputs accepted by the installer entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Destination overrides the configured install directory when set.
	Destination string
}

// runner holds the mutable state and helpers for a single install execution.
// It is intentionally unexported—call Run(ctx, Options) from callers.
type runner struct {
	cfg        *config.Config     // Installer configuration loaded from YAML or defaults.
	target     *release.Target    // Resolved download URLs for this run.
	scratchDir string             // Where archives are downloaded before extraction.
	archives   map[string]string  // Archive name -> local scratch path.
	client     *http.Client       // Shared HTTP client for manifest and downloads.
	receipts   receipt.Repository // Persists what was installed.
}

// Run executes the install lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "cft-installer")

	r, err := newRunner(opts)
	if err != nil {
		return err
	}

	defer r.cleanup(ctx)

	if err = r.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Install failed", "error", err)
		return err
	}

	logger.Info(ctx, "Install completed")

	return nil
}

// newRunner loads configuration and prepares the run.
func newRunner(opts *Options) (*runner, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.Destination != "" {
		cfg.Destination = opts.Destination
	}

	return &runner{
		cfg:      cfg,
		archives: make(map[string]string, archiveCount),
		client:   &http.Client{},
		receipts: receipt.NewFileRepository(filepath.Join(cfg.Destination, receipt.Filename)),
	}, nil
}

// Run executes the install workflow for this runner instance:
// 1) Report what a previous run installed, if anything.
// 2) Terminate stale browser/driver processes so overwrite can succeed.
// 3) Fetch the availability manifest.
// 4) Resolve the browser and driver URLs.
// 5) Download both archives to a scratch directory.
// 6) Extract both archives into the destination.
// 7) Record the install receipt.
func (r *runner) Run(ctx context.Context) error {
	r.logPreviousInstall(ctx)

	logger.Info(ctx, "Terminating stale browser and driver processes")
	r.terminateStaleProcesses(ctx)

	logger.InfoKV(ctx, "Fetching availability manifest", "url", r.cfg.ManifestURL)

	manifest, err := r.fetchManifest(ctx)
	if err != nil {
		return fmt.Errorf("fetch manifest: %w", err)
	}

	target, err := manifest.Resolve(r.cfg.Channel, r.cfg.Platform)
	if err != nil {
		return fmt.Errorf("resolve download urls: %w", err)
	}

	r.target = target

	logger.InfoKV(ctx, "Resolved release",
		"channel", target.Channel, "platform", target.Platform,
		"version", target.Version, "revision", target.Revision)

	if err = os.MkdirAll(r.cfg.Destination, defaultDirMode); err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	logger.Info(ctx, "Downloading archives to a temporary folder")

	if err = r.downloadArchives(ctx); err != nil {
		return fmt.Errorf("download archives: %w", err)
	}

	logger.InfoKV(ctx, "Extracting archives", "destination", r.cfg.Destination)

	if err = r.extractArchives(ctx); err != nil {
		return fmt.Errorf("extract archives: %w", err)
	}

	r.writeReceipt(ctx)

	return nil
}

// logPreviousInstall reports the build a prior run left behind, when known.
func (r *runner) logPreviousInstall(ctx context.Context) {
	previous, err := r.receipts.Load(ctx)
	if err != nil {
		if !errors.Is(err, receipt.ErrNotFound) {
			logger.Warnf(ctx, "Could not read previous install receipt: %v", err)
		}

		return
	}

	logger.InfoKV(ctx, "Replacing previous install",
		"version", previous.Version, "installed_at", previous.Timestamp)
}

// fetchManifest downloads and decodes the availability manifest.
func (r *runner) fetchManifest(ctx context.Context) (*release.Manifest, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, r.cfg.ManifestURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", r.cfg.ManifestURL, response.Status, errManifestStatus)
	}

	var manifest release.Manifest
	if err = json.NewDecoder(response.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	return &manifest, nil
}

// downloadArchives downloads both archives into a scratch directory.
func (r *runner) downloadArchives(ctx context.Context) error {
	scratchDir, err := os.MkdirTemp("", scratchDirPattern)
	if err != nil {
		return err
	}

	r.scratchDir = scratchDir

	downloads := []struct {
		name string
		url  string
	}{
		{browserArchiveName, r.target.BrowserURL},
		{driverArchiveName, r.target.DriverURL},
	}

	for _, download := range downloads {
		archivePath := filepath.Clean(filepath.Join(scratchDir, download.name))
		if err = r.downloadArchive(ctx, download.url, archivePath); err != nil {
			return fmt.Errorf("%s: %w", download.name, err)
		}

		r.archives[download.name] = archivePath
		logger.InfoKV(ctx, "Downloaded archive", "path", archivePath)
	}

	return nil
}

// downloadArchive streams one URL to the provided path, overwriting it.
func (r *runner) downloadArchive(ctx context.Context, rawURL, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return err
	}

	response, err := r.client.Do(req)
	if err != nil {
		return err
	}

	if response.StatusCode != http.StatusOK {
		_ = response.Body.Close()

		return fmt.Errorf("%s, %s: %w", rawURL, response.Status, errDownloadStatus)
	}

	outputFile, err := os.Create(outputPath)
	if err != nil {
		_ = response.Body.Close()

		return err
	}

	if _, err = io.Copy(outputFile, response.Body); err != nil {
		_ = response.Body.Close()
		_ = outputFile.Close()

		return err
	}

	if err = response.Body.Close(); err != nil {
		_ = outputFile.Close()

		return err
	}

	return outputFile.Close()
}

// extractArchives unpacks both downloaded archives into the destination.
func (r *runner) extractArchives(ctx context.Context) error {
	for _, name := range []string{browserArchiveName, driverArchiveName} {
		archivePath, ok := r.archives[name]
		if !ok {
			continue
		}

		logger.InfoKV(ctx, "Extracting archive", "archive", name)

		if err := archive.ExtractZip(archivePath, r.cfg.Destination); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}

// writeReceipt records what was installed. The install itself already
// succeeded, so failures here are reported but not escalated.
func (r *runner) writeReceipt(ctx context.Context) {
	actor, err := common.DetectActor()
	if err != nil {
		logger.Warnf(ctx, "Could not detect current user for the receipt: %v", err)
	}

	rcpt := &release.Receipt{
		Version:     r.target.Version,
		Revision:    r.target.Revision,
		Channel:     r.target.Channel,
		Platform:    r.target.Platform,
		BrowserPath: filepath.Join(r.cfg.Destination, browserDirName(r.target.Platform), browserExecutableName),
		DriverPath:  filepath.Join(r.cfg.Destination, driverDirName(r.target.Platform), driverExecutableName),
		Timestamp:   time.Now().UTC(),
		InstalledBy: actor,
	}

	if err = r.receipts.Save(ctx, rcpt); err != nil {
		logger.Warnf(ctx, "Could not write install receipt: %v", err)

		return
	}

	logger.InfoKV(ctx, "Wrote install receipt", "version", rcpt.Version)
}

// terminateStaleProcesses kills running browser/driver binaries left over
// from a previous install. The target platform locks executables that are
// running, so extraction would fail otherwise. Best effort only: a first
// install has nothing to kill.
func (r *runner) terminateStaleProcesses(ctx context.Context) {
	staleExecutables := sliceToSet(staleExecutableNames())

	processList, err := ps.Processes()
	if err != nil {
		logger.Warnf(ctx, "Could not list processes: %v", err)

		return
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		processID := process.Pid()
		if processID == thisProcessID {
			continue
		}

		processName := process.Executable()
		if _, found := staleExecutables[processName]; !found {
			continue
		}

		runningProcess, findErr := os.FindProcess(processID)
		if findErr != nil {
			continue
		}

		if killErr := runningProcess.Kill(); killErr != nil {
			logger.Warnf(ctx, "Could not terminate %s (pid %d): %v", processName, processID, killErr)

			continue
		}

		logger.InfoKV(ctx, "Terminated stale process", "executable", processName, "pid", processID)
	}
}

// cleanup removes the scratch directory with the downloaded archives.
// It runs on every exit path; when the run failed before any download,
// there is nothing to remove.
func (r *runner) cleanup(ctx context.Context) {
	if r.scratchDir == "" {
		return
	}

	if _, err := os.Stat(r.scratchDir); err == nil {
		_ = os.RemoveAll(r.scratchDir)
	}

	logger.Info(ctx, "Removed temporary download folder")
}
