// Package locate finds the source text a hunk refers to inside a target
// file's content: an exact substring search in both directions from the
// declared position with the closest match winning, switched-side detection
// for already-applied hunks, and a whitespace-insensitive fuzzy fallback.
package locate

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mrtimdog/diffedit"
	"github.com/mrtimdog/diffedit/hunk"
)

// MaxFuzzyLen caps the candidate text fed to the fuzzy fallback. Collapsing
// whitespace runs over an unbounded hunk can produce a pathological pattern;
// beyond the cap the locator reports NotFound instead.
const MaxFuzzyLen = 4096

// patternCacheSize bounds the compiled fuzzy-pattern cache.
const patternCacheSize = 64

// Locator locates hunk text in target content. The zero value is not usable;
// construct with New. A Locator is safe for reuse across documents.
type Locator struct {
	patterns *lru.Cache[string, *regexp.Regexp]
}

// New creates a Locator.
func New() *Locator {
	cache, err := lru.New[string, *regexp.Regexp](patternCacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &Locator{patterns: cache}
}

// Locate resolves h against text. target names the content for reporting.
// preferOld selects which declared start line anchors the search; reverse
// flips the side preference when both sides are present. The returned
// location is never cached: text can change between calls.
//
// Resolution order: exact match of new-side text and old-side text, both
// searched forward and backward from the declared line with the closest
// match winning; then the fuzzy fallback with the same policy; otherwise
// ErrNotFound.
func (l *Locator) Locate(h *diffedit.Hunk, target, text string, preferOld, reverse bool) (*diffedit.SourceLocation, error) {
	oldX, err := hunk.ExtractSide(h, false)
	if err != nil {
		return nil, err
	}
	newX, err := hunk.ExtractSide(h, true)
	if err != nil {
		return nil, err
	}

	declared := h.Header.New.Start
	if preferOld {
		declared = h.Header.Old.Start
	}
	origPos := lineOffset(text, declared)

	loc := &diffedit.SourceLocation{
		Target:  target,
		OldText: oldX.Text,
		NewText: newX.Text,
	}

	oldSpan, oldOK := closest(text, oldX.Text, origPos)
	newSpan, newOK := closest(text, newX.Text, origPos)
	if span, switched, ok := resolve(oldSpan, oldOK, newSpan, newOK, reverse); ok {
		loc.Span, loc.Switched = span, switched
		loc.LineOffset = countLines(text, origPos, span.Start)
		return loc, nil
	}

	// Fuzzy fallback: whitespace runs collapse to a flexible gap.
	oldSpan, oldOK = l.fuzzy(text, oldX.Text, origPos)
	newSpan, newOK = l.fuzzy(text, newX.Text, origPos)
	if span, switched, ok := resolve(oldSpan, oldOK, newSpan, newOK, reverse); ok {
		loc.Span, loc.Switched = span, switched
		loc.Fuzzy = true
		loc.LineOffset = countLines(text, origPos, span.Start)
		return loc, nil
	}

	return nil, diffedit.ErrNotFound
}

// resolve applies the side-preference policy: both found and not reverse
// prefers the new side (patch looks already applied); otherwise the old
// side wins when present.
func resolve(oldSpan diffedit.Span, oldOK bool, newSpan diffedit.Span, newOK bool, reverse bool) (diffedit.Span, bool, bool) {
	switch {
	case oldOK && newOK && !reverse:
		return newSpan, true, true
	case oldOK:
		return oldSpan, false, true
	case newOK:
		return newSpan, true, true
	}
	return diffedit.Span{}, false, false
}

// lineOffset returns the byte offset of the start of the 1-based line,
// clamped to the end of text.
func lineOffset(text string, line int) int {
	pos := 0
	for n := 1; n < line; n++ {
		i := strings.IndexByte(text[pos:], '\n')
		if i < 0 {
			return len(text)
		}
		pos += i + 1
	}
	return pos
}

// countLines returns the signed number of lines between from and to.
func countLines(text string, from, to int) int {
	if from == to {
		return 0
	}
	lo, hi, sign := from, to, 1
	if to < from {
		lo, hi, sign = to, from, -1
	}
	return sign * strings.Count(text[lo:hi], "\n")
}

// closest finds the exact occurrence of sub nearest to origPos, considering
// the first match at or after origPos and the last match before it.
func closest(text, sub string, origPos int) (diffedit.Span, bool) {
	if sub == "" {
		return diffedit.Span{}, false
	}
	fwd, bwd := -1, -1
	if origPos <= len(text) {
		if i := strings.Index(text[origPos:], sub); i >= 0 {
			fwd = origPos + i
		}
	}
	if i := strings.LastIndex(text[:min(origPos, len(text))], sub); i >= 0 {
		bwd = i
	}
	pos, ok := pick(fwd, bwd, origPos)
	if !ok {
		return diffedit.Span{}, false
	}
	return diffedit.Span{Start: pos, End: pos + len(sub)}, true
}

// pick chooses whichever candidate is numerically closer to origPos.
func pick(fwd, bwd, origPos int) (int, bool) {
	switch {
	case fwd < 0 && bwd < 0:
		return 0, false
	case fwd < 0:
		return bwd, true
	case bwd < 0:
		return fwd, true
	case fwd-origPos <= origPos-bwd:
		return fwd, true
	default:
		return bwd, true
	}
}

// fuzzy searches for sub with all whitespace runs collapsed to a single
// flexible gap, again picking the match closest to origPos.
func (l *Locator) fuzzy(text, sub string, origPos int) (diffedit.Span, bool) {
	if sub == "" || len(sub) > MaxFuzzyLen {
		return diffedit.Span{}, false
	}
	re := l.pattern(sub)
	if re == nil {
		return diffedit.Span{}, false
	}

	best := diffedit.Span{}
	bestDist := -1
	for _, m := range re.FindAllStringIndex(text, -1) {
		dist := m[0] - origPos
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best = diffedit.Span{Start: m[0], End: m[1]}
			bestDist = dist
		}
	}
	return best, bestDist >= 0
}

// pattern returns the compiled whitespace-insensitive pattern for sub,
// consulting the bounded cache first.
func (l *Locator) pattern(sub string) *regexp.Regexp {
	if re, ok := l.patterns.Get(sub); ok {
		return re
	}
	isWS := func(c byte) bool {
		return c == ' ' || c == '\t' || c == '\n' || c == '\r'
	}
	var b strings.Builder
	b.Grow(len(sub) + 16)
	for i := 0; i < len(sub); {
		start := i
		if isWS(sub[i]) {
			for i < len(sub) && isWS(sub[i]) {
				i++
			}
			b.WriteString(`[ \t\n\r]+`)
			continue
		}
		for i < len(sub) && !isWS(sub[i]) {
			i++
		}
		b.WriteString(regexp.QuoteMeta(sub[start:i]))
	}
	if b.Len() == 0 {
		return nil
	}
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil
	}
	l.patterns.Add(sub, re)
	return re
}
