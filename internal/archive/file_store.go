package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore writes artifacts under Dir/<runID>/<path>.
type FileStore struct {
	Dir string
}

// DefaultDir mirrors the run log location.
func DefaultDir() string {
	return filepath.Join("tmp", "run_artifacts")
}

func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) file(runID, path string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(objectKey(runID, path)))
}

func (s *FileStore) Put(_ context.Context, runID, path string, content []byte) error {
	runID, path, err := validate(runID, path)
	if err != nil {
		return err
	}
	full := s.file(runID, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, content, 0o644)
}

func (s *FileStore) Get(_ context.Context, runID, path string) ([]byte, error) {
	runID, path, err := validate(runID, path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.file(runID, path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *FileStore) List(_ context.Context, runID string) ([]string, error) {
	runID, _, err := validate(runID, "_")
	if err != nil {
		return nil, err
	}
	base := filepath.Join(s.Dir, runID)
	out := make([]string, 0, 8)
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
