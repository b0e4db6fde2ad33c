// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pdfsign.
//
// go-pdfsign is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package file implements storage.Backend on a directory tree. Names are
// slash-separated paths relative to the root; traversal outside the root
// is rejected.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jeremyhahn/go-pdfsign/pkg/storage"
)

const (
	// Default directory permissions (owner rwx only)
	defaultDirPerms = 0o700

	// Default file permissions (owner rw only)
	defaultPerms = 0o600
)

// FileStorage is a directory-backed storage.Backend.
type FileStorage struct {
	mu      sync.RWMutex
	rootDir string
}

// New returns a FileStorage rooted at rootDir, creating the directory
// with 0700 permissions if it does not exist.
func New(rootDir string) (*FileStorage, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("file storage: root directory cannot be empty")
	}
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("file storage: failed to resolve root directory: %w", err)
	}
	if err := os.MkdirAll(abs, defaultDirPerms); err != nil {
		return nil, fmt.Errorf("file storage: failed to create root directory: %w", err)
	}
	return &FileStorage{rootDir: abs}, nil
}

// Open returns a FileStorage rooted at an existing directory. Unlike New
// it never creates anything, which is what discovery on removable media
// needs.
func Open(rootDir string) (*FileStorage, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("file storage: root directory cannot be empty")
	}
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("file storage: failed to resolve root directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("file storage: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("file storage: %s is not a directory", abs)
	}
	return &FileStorage{rootDir: abs}, nil
}

// Root returns the absolute root directory.
func (f *FileStorage) Root() string {
	return f.rootDir
}

// Path returns the absolute file path for name.
func (f *FileStorage) Path(name string) (string, error) {
	return f.nameToPath(name)
}

// Get reads the file stored under name.
func (f *FileStorage) Get(name string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	path, err := f.nameToPath(name)
	if err != nil {
		return nil, err
	}
	// #nosec G304 - path is validated to stay under rootDir
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("file storage: failed to read %q: %w", name, err)
	}
	return data, nil
}

// Put writes value to the file for name, creating parent directories.
// With opts.NoOverwrite the file is created exclusively.
func (f *FileStorage) Put(name string, value []byte, opts *storage.Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path, err := f.nameToPath(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirPerms); err != nil {
		return fmt.Errorf("file storage: failed to create directory for %q: %w", name, err)
	}

	perms := fs.FileMode(defaultPerms)
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if opts != nil {
		if opts.Permissions != 0 {
			perms = opts.Permissions
		}
		if opts.NoOverwrite {
			flags = os.O_CREATE | os.O_WRONLY | os.O_EXCL
		}
	}

	// #nosec G304 - path is validated to stay under rootDir
	fh, err := os.OpenFile(path, flags, perms)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, name)
		}
		return fmt.Errorf("file storage: failed to open %q: %w", name, err)
	}
	if _, err := fh.Write(value); err != nil {
		_ = fh.Close()
		return fmt.Errorf("file storage: failed to write %q: %w", name, err)
	}
	if err := fh.Sync(); err != nil {
		_ = fh.Close()
		return fmt.Errorf("file storage: failed to sync %q: %w", name, err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("file storage: failed to close %q: %w", name, err)
	}
	return nil
}

// Delete removes the file for name.
func (f *FileStorage) Delete(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	path, err := f.nameToPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("file storage: failed to delete %q: %w", name, err)
	}
	return nil
}

// List walks the root and returns every file name with the given prefix.
// Directories that cannot be read are skipped rather than failing the
// whole listing.
func (f *FileStorage) List(prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0)
	err := filepath.WalkDir(f.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == f.rootDir {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.rootDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if prefix == "" || strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("file storage: failed to list: %w", err)
	}

	sort.Strings(names)
	return names, nil
}

// Exists reports whether a file is stored under name.
func (f *FileStorage) Exists(name string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	path, err := f.nameToPath(name)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("file storage: failed to stat %q: %w", name, err)
	}
	return true, nil
}

// Close is a no-op for file storage.
func (f *FileStorage) Close() error {
	return nil
}

func (f *FileStorage) nameToPath(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", fmt.Errorf("%w: %v", storage.ErrInvalidName, err)
	}
	return filepath.Join(f.rootDir, filepath.FromSlash(name)), nil
}

// validateName allows nested names like "sub/alice_public.pem" but blocks
// absolute paths, NUL bytes and traversal.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.Contains(name, "\x00") {
		return fmt.Errorf("name contains null byte")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return fmt.Errorf("name cannot be an absolute path")
	}
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(name)))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return fmt.Errorf("name contains path traversal")
	}
	return nil
}

var _ storage.Backend = (*FileStorage)(nil)
