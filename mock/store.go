// Package mock provides test doubles for diffedit interfaces.
package mock

import "github.com/mrtimdog/diffedit"

// Compile-time interface verification.
var _ diffedit.FileStore = (*FileStore)(nil)

// FileStore is a mock implementation of diffedit.FileStore.
type FileStore struct {
	OpenFn   func(path string) (string, error)
	SaveFn   func(path string, text string) error
	RemoveFn func(path string) error
}

func (s *FileStore) Open(path string) (string, error) {
	return s.OpenFn(path)
}

func (s *FileStore) Save(path string, text string) error {
	return s.SaveFn(path, text)
}

func (s *FileStore) Remove(path string) error {
	return s.RemoveFn(path)
}
