package diffedit

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that neither side of a hunk could be located in the
// target text, even with the fuzzy fallback. It is returned as a value, not
// panicked: callers routinely continue with subsequent hunks.
var ErrNotFound = errors.New("hunk text not found")

// MalformedHunkError reports a hunk whose header matches no grammar, or whose
// declared counts are irreconcilable with its body. A hunk that matches a
// grammar only partially (ambiguous format) is reported the same way.
type MalformedHunkError struct {
	Offset int    // byte offset in the document where parsing failed
	Reason string
}

func (e *MalformedHunkError) Error() string {
	return fmt.Sprintf("malformed hunk at offset %d: %s", e.Offset, e.Reason)
}

// Malformed constructs a MalformedHunkError.
func Malformed(offset int, format string, args ...any) *MalformedHunkError {
	return &MalformedHunkError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// IsMalformed reports whether err is (or wraps) a MalformedHunkError.
func IsMalformed(err error) bool {
	var me *MalformedHunkError
	return errors.As(err, &me)
}
