// Package fs implements the FileStore collaborator over the OS filesystem.
package fs

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mrtimdog/diffedit"
)

// Compile-time interface verification.
var _ diffedit.FileStore = (*Store)(nil)

// Store reads and writes target files relative to a root directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir; an empty dir means the current
// working directory.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

func (s *Store) path(name string) string {
	if s.root == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.root, name)
}

// Open returns the current content of the file.
func (s *Store) Open(path string) (string, error) {
	b, err := os.ReadFile(s.path(path))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Save writes replacement content, preserving the file's mode when it
// already exists.
func (s *Store) Save(path string, text string) error {
	p := s.path(path)
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(p); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(p, []byte(text), mode)
}

// Remove deletes the file; used when a patch deletes its target.
func (s *Store) Remove(path string) error {
	return os.Remove(s.path(path))
}
