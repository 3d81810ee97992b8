package metastore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MetaExtension is appended to a source path to name its metadata file.
const MetaExtension = ".meta"

// FileStore keeps each record in a .meta file next to its source file.
type FileStore struct{}

// NewFileStore creates a file-backed store
func NewFileStore() *FileStore {
	return &FileStore{}
}

// MetaPath returns the metadata file path for a source file.
func MetaPath(sourcePath string) string {
	return sourcePath + MetaExtension
}

// Load reads the .meta file for sourcePath.
func (s *FileStore) Load(ctx context.Context, sourcePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(MetaPath(sourcePath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", sourcePath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read metadata for %s: %w", sourcePath, err)
	}
	return data, nil
}

// Save writes the .meta file atomically via a temporary file and rename.
func (s *FileStore) Save(ctx context.Context, sourcePath string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	metaPath := MetaPath(sourcePath)
	if err := os.MkdirAll(filepath.Dir(metaPath), 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	tmpPath := metaPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp metadata file: %w", err)
	}

	if err := os.Rename(tmpPath, metaPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	return nil
}

// Delete removes the .meta file. Deleting a missing record is not an error.
func (s *FileStore) Delete(ctx context.Context, sourcePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(MetaPath(sourcePath)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete metadata for %s: %w", sourcePath, err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
