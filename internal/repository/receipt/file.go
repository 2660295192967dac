package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/cft-installer/internal/config"
	"github.com/oshokin/cft-installer/internal/domain/release"
)

// Filename is the receipt file written into the destination directory.
const Filename = "cft-install-receipt.json"

// Repository defines persistence operations for the install receipt.
type Repository interface {
	Load(ctx context.Context) (*release.Receipt, error)
	Save(ctx context.Context, rcpt *release.Receipt) error
}

// FileRepository persists the install receipt as JSON next to the
// installed files.
type FileRepository struct {
	// path is the filesystem location of the receipt file.
	path string
	// mu protects concurrent access to the receipt file.
	mu sync.Mutex
}

// ErrNotFound is returned when no receipt has been written yet.
var ErrNotFound = errors.New("receipt not found")

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the receipt from disk.
func (r *FileRepository) Load(_ context.Context) (*release.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read receipt file: %w", err)
	}

	var rcpt release.Receipt
	if err = json.Unmarshal(contents, &rcpt); err != nil {
		return nil, fmt.Errorf("decode receipt file: %w", err)
	}

	return &rcpt, nil
}

// Save writes the receipt to disk using an indented JSON representation.
func (r *FileRepository) Save(_ context.Context, rcpt *release.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(rcpt, "", "  ")
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write receipt file: %w", err)
	}

	return nil
}
