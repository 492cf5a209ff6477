// Package local implements journal file storage on the local filesystem,
// with separate directories for pending and published files.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/penguinmenac3/binrec/consumer"
)

// Storage keeps pending journal files in one directory and published ones
// in another. Publishing is an atomic rename between the two.
type Storage struct {
	pendingDir    string
	publishingDir string
}

func NewLocalStorage(pendingDir, publishingDir string) *Storage {
	return &Storage{
		pendingDir:    pendingDir,
		publishingDir: publishingDir,
	}
}

// Create opens a pending file for appending, creating it if needed.
func (s *Storage) Create(_ context.Context, path string) (io.WriteCloser, error) {
	file, err := os.OpenFile(s.pendingPath(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	return file, nil
}

// Publish moves a pending file into the publishing directory.
func (s *Storage) Publish(_ context.Context, path string) error {
	return os.Rename(s.pendingPath(path), filepath.Join(s.publishingDir, filepath.Base(path)))
}

// List lists all files in the pending directory.
func (s *Storage) List(_ context.Context) ([]string, error) {
	return listFiles(s.pendingDir)
}

// Open opens a published file for reading.
func (s *Storage) Open(_ context.Context, path string) (consumer.ReadAtCloser, error) {
	file, err := os.Open(filepath.Join(s.publishingDir, filepath.Base(path)))
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	return file, nil
}

// ListPublished lists all files in the publishing directory.
func (s *Storage) ListPublished(_ context.Context) ([]string, error) {
	return listFiles(s.publishingDir)
}

// Delete removes a published file.
func (s *Storage) Delete(_ context.Context, path string) error {
	if err := os.Remove(filepath.Join(s.publishingDir, filepath.Base(path))); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}

func (s *Storage) pendingPath(path string) string {
	return filepath.Join(s.pendingDir, filepath.Base(path))
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}
