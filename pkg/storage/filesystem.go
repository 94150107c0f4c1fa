package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LectureStore persists uploaded lecture files on disk under a base directory.
type LectureStore struct {
	baseDir string
}

// NewLectureStore ensures the base directory exists and returns a handle.
func NewLectureStore(baseDir string) (*LectureStore, error) {
	if baseDir == "" {
		baseDir = "./lectures"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lectures directory: %w", err)
	}
	return &LectureStore{baseDir: baseDir}, nil
}

// Save writes the given bytes under the original upload filename.
func (s *LectureStore) Save(filename string, data []byte) (string, error) {
	path := s.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare lectures directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write lecture file: %w", err)
	}
	return path, nil
}

// SaveStream copies from reader into the target file path.
func (s *LectureStore) SaveStream(filename string, r io.Reader) (string, error) {
	path := s.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare lectures directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create lecture file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write lecture stream: %w", err)
	}
	return path, nil
}

// Open returns a read-only handle for the stored file.
func (s *LectureStore) Open(path string) (*os.File, error) {
	file, err := os.Open(s.resolve(path))
	if err != nil {
		return nil, fmt.Errorf("open lecture file: %w", err)
	}
	return file, nil
}

// Exists reports whether the stored file is still present on disk.
func (s *LectureStore) Exists(path string) bool {
	info, err := os.Stat(s.resolve(path))
	return err == nil && !info.IsDir()
}

// Delete removes a stored file if present.
func (s *LectureStore) Delete(path string) error {
	if err := os.Remove(s.resolve(path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete lecture file: %w", err)
	}
	return nil
}

// Path exposes the absolute path for a stored filename.
func (s *LectureStore) Path(filename string) string {
	return s.resolve(filename)
}

func (s *LectureStore) resolve(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(s.baseDir, filename)
}
