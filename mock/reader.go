package mock

import (
	"context"

	"github.com/mrtimdog/diffedit"
)

// Compile-time interface verification.
var _ diffedit.RevisionReader = (*RevisionReader)(nil)

// RevisionReader is a mock implementation of diffedit.RevisionReader.
type RevisionReader struct {
	ReadFn func(ctx context.Context, path, revision string) (string, error)
}

func (r *RevisionReader) Read(ctx context.Context, path, revision string) (string, error) {
	return r.ReadFn(ctx, path, revision)
}
