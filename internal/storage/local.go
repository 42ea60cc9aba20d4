package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage stores objects on the local filesystem under a root directory
// that the static-file server exposes at baseURL. Writes go through a temp
// file and a rename, so readers never observe a partial object and a failed
// save leaves nothing behind.
type LocalStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage creates a filesystem-backed store rooted at dir
func NewLocalStorage(dir, baseURL string) (*LocalStorage, error) {
	if dir == "" {
		dir = "uploads"
	}
	if baseURL == "" {
		baseURL = "/static"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStorage{root: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save writes the object under root/key, creating subdirectories as needed
func (s *LocalStorage) Save(ctx context.Context, key string, r io.Reader) (*SaveResult, error) {
	dest := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to write object: %w", err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("failed to finalize object: %w", err)
	}

	return &SaveResult{
		Key:  key,
		URL:  s.PublicURL(key),
		Size: n,
	}, nil
}

// Delete removes a stored object
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// PublicURL returns the path a static-file server exposes the object at
func (s *LocalStorage) PublicURL(key string) string {
	return s.baseURL + "/" + key
}

// Root returns the filesystem root, for mounting as a static dir
func (s *LocalStorage) Root() string {
	return s.root
}
