// Package model persists the relevance model.
package model

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/relevance"
)

// FileStore keeps one model at a fixed path.
type FileStore struct {
	path string
}

// NewFileStore creates a store for the model at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the model. A missing file yields domain.ErrModelNotFound.
func (s *FileStore) Load(_ context.Context) (*relevance.Model, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, domain.ErrModelNotFound)
		}
		return nil, fmt.Errorf("read model: %w", err)
	}
	m, err := relevance.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return m, nil
}

// Save writes the model atomically: readers see the old file or the new one, never a partial write.
func (s *FileStore) Save(_ context.Context, m *relevance.Model) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("publish model: %w", err)
	}
	return nil
}
