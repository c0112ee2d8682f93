package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Blobs is a filesystem-backed BlobStore. Keys use forward slashes and
// map directly to paths under the root directory; parent directories are
// created on demand.
type Blobs struct {
	root string
}

// NewBlobs creates a blob store rooted at dir. The directory is created
// if it does not exist.
func NewBlobs(dir string) (*Blobs, error) {
	if dir == "" {
		return nil, errors.New("blob store directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob store directory: %w", err)
	}
	return &Blobs{root: dir}, nil
}

// Get retrieves blob bytes by key.
func (b *Blobs) Get(key string) ([]byte, error) {
	path, err := b.keyPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("blob %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, nil
}

// Put stores a blob, writing atomically via a temp file and rename.
func (b *Blobs) Put(key string, data []byte) error {
	path, err := b.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create blob directory for %s: %w", key, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename blob %s: %w", key, err)
	}
	return nil
}

// Delete removes a blob. Absent blobs are not an error.
func (b *Blobs) Delete(key string) error {
	path, err := b.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a blob is present.
func (b *Blobs) Exists(key string) bool {
	path, err := b.keyPath(key)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(path)
	return statErr == nil
}

// DeletePrefix removes every blob under the given key prefix. Used when
// a card and all of its images are deleted together.
func (b *Blobs) DeletePrefix(prefix string) error {
	path, err := b.keyPath(prefix)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("delete blobs under %s: %w", prefix, err)
	}
	return nil
}

// keyPath converts a blob key to a filesystem path, rejecting keys that
// would escape the root.
func (b *Blobs) keyPath(key string) (string, error) {
	if key == "" {
		return "", errors.New("blob key cannot be empty")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("blob key escapes store root: %q", key)
	}
	return filepath.Join(b.root, clean), nil
}
