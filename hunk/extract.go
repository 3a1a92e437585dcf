package hunk

import (
	"strings"

	"github.com/mrtimdog/diffedit"
)

// Extract is the literal file text reconstructed from one side of a hunk,
// with a mapping from offsets in the raw hunk text back to offsets in Text.
// The mapping keeps a caller's cursor position stable across lookups.
type Extract struct {
	Text  string
	pairs []offsetPair
}

// offsetPair maps the content start of a kept raw line to its position in
// the extracted text.
type offsetPair struct {
	raw int
	out int
}

// MapOffset translates an offset within the raw hunk text to the closest
// corresponding offset within the extracted text.
func (e *Extract) MapOffset(raw int) int {
	out := 0
	for _, p := range e.pairs {
		if p.raw > raw {
			break
		}
		out = p.out + (raw - p.raw)
	}
	if out > len(e.Text) {
		out = len(e.Text)
	}
	if out < 0 {
		out = 0
	}
	return out
}

// ExtractSide reconstructs the old-side (context+removed) or new-side
// (context+added) file text of a hunk. Line-type prefixes are stripped, the
// non-selected side's lines are dropped, and no-newline marker lines are
// dropped after trimming the newline they annotate.
func ExtractSide(h *diffedit.Hunk, wantNew bool) (*Extract, error) {
	switch h.Header.Style {
	case diffedit.Unified:
		return extractUnified(h.Body, wantNew), nil
	case diffedit.Context:
		return extractContext(h.Body, wantNew)
	case diffedit.Normal:
		return extractNormal(h.Body, wantNew), nil
	}
	return nil, diffedit.Malformed(h.Span.Start, "unknown hunk style")
}

type extractor struct {
	b     strings.Builder
	pairs []offsetPair
}

// keep appends one raw line's content. rawStart is the offset of the line in
// the raw hunk text and prefix the number of marker bytes to strip.
func (x *extractor) keep(raw string, rawStart, prefix int) {
	if prefix > len(raw) {
		prefix = len(raw)
	}
	x.pairs = append(x.pairs, offsetPair{raw: rawStart + prefix, out: x.b.Len()})
	x.b.WriteString(raw[prefix:])
}

// dropNewline undoes the trailing newline of the last kept line; used when a
// "\ No newline at end of file" marker follows it.
func (x *extractor) dropNewline() {
	s := x.b.String()
	if strings.HasSuffix(s, "\n") {
		x.b.Reset()
		x.b.WriteString(s[:len(s)-1])
	}
}

func (x *extractor) result() *Extract {
	return &Extract{Text: x.b.String(), pairs: x.pairs}
}

// lines iterates raw lines of body (newline included) with their offsets.
func lines(body string, yield func(start int, line string) bool) {
	pos := 0
	for pos < len(body) {
		end := lineEnd(body, pos)
		if !yield(pos, body[pos:end]) {
			return
		}
		pos = end
	}
}

func extractUnified(body string, wantNew bool) *Extract {
	var x extractor
	first := true
	kept := false
	lines(body, func(start int, line string) bool {
		if first {
			first = false // header line
			return true
		}
		switch Classify(diffedit.Unified, line) {
		case diffedit.LineNoNewline:
			if kept {
				x.dropNewline()
			}
		case diffedit.LineAdded:
			kept = wantNew
			if wantNew {
				x.keep(line, start, 1)
			}
		case diffedit.LineRemoved:
			kept = !wantNew
			if !wantNew {
				x.keep(line, start, 1)
			}
		default:
			kept = true
			prefix := 0
			if line != "" && line != "\n" {
				prefix = 1
			}
			x.keep(line, start, prefix)
		}
		return true
	})
	return x.result()
}

func extractContext(body string, wantNew bool) (*Extract, error) {
	// Halves: old between the "*** a,b ****" line and the mid header, new
	// after the mid header.
	bannerEnd := lineEnd(body, 0)
	if !contextOldRe.MatchString(lineAt(body, bannerEnd)) {
		return nil, diffedit.Malformed(0, "context hunk missing *** a,b **** line")
	}
	oldStart := lineEnd(body, bannerEnd)
	mid := findMidHeader(body, oldStart)
	if mid < 0 {
		return nil, diffedit.Malformed(0, "context hunk missing --- c,d ---- line")
	}
	newStart := lineEnd(body, mid)

	half := body[oldStart:mid]
	base := oldStart
	keepKind := diffedit.LineRemoved
	if wantNew {
		half = body[newStart:]
		base = newStart
		keepKind = diffedit.LineAdded
	}

	// An omitted half means it had no changes; reconstruct from the other
	// half's context lines.
	contextOnly := false
	if strings.TrimSpace(half) == "" {
		if wantNew {
			half, base = body[oldStart:mid], oldStart
		} else {
			half, base = body[newStart:], newStart
		}
		contextOnly = true
	}

	var x extractor
	kept := false
	lines(half, func(start int, line string) bool {
		kind := Classify(diffedit.Context, line)
		switch {
		case kind == diffedit.LineNoNewline:
			if kept {
				x.dropNewline()
			}
			kept = false
		case kind == diffedit.LineContext,
			!contextOnly && (kind == keepKind || kind == diffedit.LineChanged):
			prefix := 2
			if line == "" || line == "\n" {
				prefix = 0
			}
			x.keep(line, base+start, prefix)
			kept = true
		default:
			kept = false
		}
		return true
	})
	return x.result(), nil
}

func extractNormal(body string, wantNew bool) *Extract {
	var x extractor
	keepKind := diffedit.LineRemoved
	if wantNew {
		keepKind = diffedit.LineAdded
	}
	first := true
	kept := false
	lines(body, func(start int, line string) bool {
		if first {
			first = false // header line
			return true
		}
		kind := Classify(diffedit.Normal, line)
		switch {
		case kind == diffedit.LineNoNewline:
			if kept {
				x.dropNewline()
			}
			kept = false
		case kind == keepKind:
			x.keep(line, start, 2)
			kept = true
		default:
			kept = false
		}
		return true
	})
	return x.result()
}
