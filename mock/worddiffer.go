package mock

import "github.com/mrtimdog/diffedit"

// Compile-time interface verification.
var _ diffedit.WordDiffer = (*WordDiffer)(nil)

// WordDiffer is a mock implementation of diffedit.WordDiffer.
type WordDiffer struct {
	DiffFn func(old, new string) (oldSegs, newSegs []diffedit.Segment)
}

func (w *WordDiffer) Diff(old, new string) (oldSegs, newSegs []diffedit.Segment) {
	return w.DiffFn(old, new)
}
