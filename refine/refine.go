// Package refine computes fine-grained, sub-line differences within a
// hunk's changed regions for display purposes. It pairs aligned removal and
// addition runs per dialect and delegates the actual diffing to the
// WordDiffer collaborator. It never mutates the diff text.
package refine

import (
	"strings"

	"github.com/mrtimdog/diffedit"
	"github.com/mrtimdog/diffedit/hunk"
)

// Refinement annotates one aligned pair of changed regions within a hunk.
// Spans are byte ranges into the hunk's raw body text, marker prefixes
// included. For a pure addition or removal (no counterpart), the absent
// side's span is empty and the present side is tagged changed in full.
type Refinement struct {
	OldSpan diffedit.Span
	NewSpan diffedit.Span
	OldSegs []diffedit.Segment
	NewSegs []diffedit.Segment
	Paired  bool
}

// run is a contiguous group of same-kind body lines.
type run struct {
	span diffedit.Span // raw span in the body
	text string        // prefix-stripped content
}

// Hunk refines all changed regions of h using d.
func Hunk(h *diffedit.Hunk, d diffedit.WordDiffer) ([]Refinement, error) {
	switch h.Header.Style {
	case diffedit.Unified:
		return refineUnified(h.Body, d), nil
	case diffedit.Context:
		return refineContext(h.Body, d)
	case diffedit.Normal:
		return refineNormal(h.Body, d), nil
	}
	return nil, diffedit.Malformed(h.Span.Start, "unknown hunk style")
}

func lineEnd(src string, pos int) int {
	if i := strings.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

// collectRuns groups consecutive lines of the wanted kind, scanning body
// from pos to end. prefix is the marker width to strip.
func collectRuns(body string, pos, end int, style diffedit.Style, want diffedit.LineKind, prefix int) []run {
	var runs []run
	var cur *run
	var text strings.Builder
	flush := func() {
		if cur != nil {
			cur.text = text.String()
			runs = append(runs, *cur)
			text.Reset()
			cur = nil
		}
	}
	for pos < end {
		le := lineEnd(body, pos)
		raw := body[pos:le]
		if hunk.Classify(style, raw) == want {
			if cur == nil {
				cur = &run{span: diffedit.Span{Start: pos}}
			}
			cur.span.End = le
			n := prefix
			if len(strings.TrimSuffix(raw, "\n")) < n {
				n = 0
			}
			text.WriteString(raw[n:])
		} else {
			flush()
		}
		pos = le
	}
	flush()
	return runs
}

// pair aligns the nth old run with the nth new run and produces the
// refinements; unpaired runs become full-span annotations.
func pair(olds, news []run, d diffedit.WordDiffer) []Refinement {
	var out []Refinement
	n := len(olds)
	if len(news) > n {
		n = len(news)
	}
	for i := 0; i < n; i++ {
		var r Refinement
		switch {
		case i < len(olds) && i < len(news):
			r.OldSpan, r.NewSpan = olds[i].span, news[i].span
			r.OldSegs, r.NewSegs = d.Diff(olds[i].text, news[i].text)
			r.Paired = true
		case i < len(olds):
			r.OldSpan = olds[i].span
			r.OldSegs = []diffedit.Segment{{Text: olds[i].text, Changed: true}}
		default:
			r.NewSpan = news[i].span
			r.NewSegs = []diffedit.Segment{{Text: news[i].text, Changed: true}}
		}
		out = append(out, r)
	}
	return out
}

// refineUnified pairs each consecutive removal run with the addition run
// immediately following it.
func refineUnified(body string, d diffedit.WordDiffer) []Refinement {
	var out []Refinement
	pos := lineEnd(body, 0) // past header
	for pos < len(body) {
		le := lineEnd(body, pos)
		kind := hunk.Classify(diffedit.Unified, body[pos:le])
		if kind != diffedit.LineRemoved && kind != diffedit.LineAdded {
			pos = le
			continue
		}
		groupEnd := le
		for groupEnd < len(body) {
			ge := lineEnd(body, groupEnd)
			k := hunk.Classify(diffedit.Unified, body[groupEnd:ge])
			if k != diffedit.LineRemoved && k != diffedit.LineAdded {
				break
			}
			groupEnd = ge
		}
		olds := collectRuns(body, pos, groupEnd, diffedit.Unified, diffedit.LineRemoved, 1)
		news := collectRuns(body, pos, groupEnd, diffedit.Unified, diffedit.LineAdded, 1)
		out = append(out, pair(olds, news, d)...)
		pos = groupEnd
	}
	return out
}

// refineContext pairs the nth changed-bang run of the old half with the nth
// of the new half, and annotates unpaired pure removals/additions in full.
func refineContext(body string, d diffedit.WordDiffer) ([]Refinement, error) {
	oldStart := lineEnd(body, lineEnd(body, 0)) // past banner and *** a,b ****
	mid := oldStart
	for mid < len(body) && !strings.HasSuffix(strings.TrimSuffix(body[mid:lineEnd(body, mid)], "\n"), "----") {
		mid = lineEnd(body, mid)
	}
	if mid >= len(body) {
		return nil, diffedit.Malformed(0, "context hunk missing mid header")
	}
	newStart := lineEnd(body, mid)

	var out []Refinement
	oldBangs := collectRuns(body, oldStart, mid, diffedit.Context, diffedit.LineChanged, 2)
	newBangs := collectRuns(body, newStart, len(body), diffedit.Context, diffedit.LineChanged, 2)
	out = append(out, pair(oldBangs, newBangs, d)...)

	for _, r := range collectRuns(body, oldStart, mid, diffedit.Context, diffedit.LineRemoved, 2) {
		out = append(out, Refinement{
			OldSpan: r.span,
			OldSegs: []diffedit.Segment{{Text: r.text, Changed: true}},
		})
	}
	for _, r := range collectRuns(body, newStart, len(body), diffedit.Context, diffedit.LineAdded, 2) {
		out = append(out, Refinement{
			NewSpan: r.span,
			NewSegs: []diffedit.Segment{{Text: r.text, Changed: true}},
		})
	}
	return out, nil
}

// refineNormal pairs the "<" half with the ">" half of a change hunk.
func refineNormal(body string, d diffedit.WordDiffer) []Refinement {
	start := lineEnd(body, 0)
	olds := collectRuns(body, start, len(body), diffedit.Normal, diffedit.LineRemoved, 2)
	news := collectRuns(body, start, len(body), diffedit.Normal, diffedit.LineAdded, 2)
	return pair(olds, news, d)
}
