// Package storage holds user-uploaded files on local disk.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DiskStore writes uploads under a single directory with random names.
// The extension comes from sniffing the content, never from the
// client-supplied filename.
type DiskStore struct {
	dir string
	log *slog.Logger
}

func NewDiskStore(dir string, log *slog.Logger) *DiskStore {
	return &DiskStore{dir: dir, log: log}
}

// Save persists one blob and returns its file name.
func (d *DiskStore) Save(data []byte) (string, error) {
	kind := mimetype.Detect(data)
	name := uuid.NewString() + kind.Extension()

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return "", fmt.Errorf("upload dir unavailable: %w", err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, name), data, 0o644); err != nil {
		d.log.Error("Upload write failed", "name", name, "error", err)
		return "", fmt.Errorf("upload write failed: %w", err)
	}

	d.log.Info("Stored upload", "name", name, "bytes", len(data), "mime", kind.String())
	return name, nil
}

// Dir is where saved files live, for static serving.
func (d *DiskStore) Dir() string {
	return d.dir
}
