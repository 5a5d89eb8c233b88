package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileBackend stores one file per key inside a base directory.
type FileBackend struct {
	dir string
}

// OpenFileBackend prepares dir (with a leading "~/" expanded to the home
// directory) and returns a backend rooted there.
func OpenFileBackend(dir string) (*FileBackend, error) {
	resolved, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resolved) == "" {
		return nil, errors.New("store path must not be empty")
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileBackend{dir: resolved}, nil
}

// Dir returns the resolved base directory.
func (b *FileBackend) Dir() string {
	return b.dir
}

// ExpandHome replaces a leading "~" path element with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key)
}

// Get reads the blob stored under key.
func (b *FileBackend) Get(key string) ([]byte, error) {
	return os.ReadFile(b.path(key))
}

// Create writes data to a hidden temp file and hard-links it into place, so a
// reader never sees a partial blob and an existing key is never replaced.
func (b *FileBackend) Create(key string, data []byte) error {
	tmp, err := os.CreateTemp(b.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	err = os.Link(tmpPath, b.path(key))
	if err == nil || errors.Is(err, fs.ErrExist) {
		return err
	}
	// Some filesystems do not support hard links.
	return b.createExclusive(key, data)
}

func (b *FileBackend) createExclusive(key string, data []byte) error {
	f, err := os.OpenFile(b.path(key), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(b.path(key))
		return fmt.Errorf("write %s: %w", key, err)
	}
	return f.Close()
}

// Delete removes the blob stored under key.
func (b *FileBackend) Delete(key string) error {
	return os.Remove(b.path(key))
}

// Keys lists the stored keys, skipping directories and hidden files.
func (b *FileBackend) Keys() ([]string, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil, fmt.Errorf("read store directory: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys, nil
}
