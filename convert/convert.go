// Package convert translates diff documents between the unified and context
// dialects and reverses a diff's direction. All operations run in a single
// left-to-right pass over the document, building the result into a fresh
// buffer; already-converted text is never re-scanned.
package convert

import (
	"fmt"
	"strings"

	"github.com/mrtimdog/diffedit"
	"github.com/mrtimdog/diffedit/hunk"
)

const banner = "***************\n"

// bline is one parsed hunk body line: its kind and its content with the
// marker prefix stripped, trailing newline included.
type bline struct {
	kind    diffedit.LineKind
	content string
}

func lineEnd(src string, pos int) int {
	if i := strings.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

func lineAt(src string, pos int) string {
	return strings.TrimSuffix(src[pos:lineEnd(src, pos)], "\n")
}

// strip removes n marker bytes from a raw line, keeping its newline.
func strip(raw string, n int) string {
	if len(strings.TrimSuffix(raw, "\n")) < n {
		return strings.TrimSuffix(raw, "\n") + "\n"
	}
	return raw[n:]
}

// parseBody reads the body lines of a hunk (raw text after the header) for
// the given style.
func parseBody(style diffedit.Style, body string) []bline {
	var out []bline
	pos := 0
	for pos < len(body) {
		end := lineEnd(body, pos)
		raw := body[pos:end]
		kind := hunk.Classify(style, raw)
		n := 1
		if style != diffedit.Unified {
			n = 2
		}
		switch kind {
		case diffedit.LineNoNewline:
			out = append(out, bline{kind, raw})
		case diffedit.LineContext:
			if strings.TrimSuffix(raw, "\n") == "" {
				out = append(out, bline{kind, raw})
			} else {
				out = append(out, bline{kind, strip(raw, n)})
			}
		default:
			out = append(out, bline{kind, strip(raw, n)})
		}
		pos = end
	}
	return out
}

// fmtRange renders a range in the end-based form used by context and normal
// headers, omitting the end when the range covers a single line.
func fmtRange(r diffedit.Range) string {
	if r.Count <= 1 {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d,%d", r.Start, r.Start+r.Count-1)
}

// fmtUnifiedRange renders a range in start,count form, omitting a count of 1.
func fmtUnifiedRange(r diffedit.Range) string {
	if r.Count == 1 {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d,%d", r.Start, r.Count)
}

// UnifiedToContext rewrites every unified hunk of src as a context-style
// hunk and translates unified file headers. The reported reversible flag is
// false when the inverse conversion cannot reproduce src byte-for-byte:
// empty context lines were seen, or a substitution's removed and added runs
// were not paired one to one.
func UnifiedToContext(src string) (out string, reversible bool, err error) {
	var b strings.Builder
	b.Grow(len(src) * 2)
	reversible = true

	pos := 0
	for pos < len(src) {
		line := lineAt(src, pos)

		// Unified file header pair becomes a context file header pair.
		if strings.HasPrefix(line, "--- ") && !isHunkRelated(line) {
			next := lineEnd(src, pos)
			if next < len(src) && strings.HasPrefix(lineAt(src, next), "+++ ") {
				b.WriteString("*** " + line[4:] + "\n")
				b.WriteString("--- " + lineAt(src, next)[4:] + "\n")
				pos = lineEnd(src, next)
				continue
			}
		}

		h, err := hunk.Parse(src, pos)
		if err == nil && h.Header.Style == diffedit.Unified {
			rev := emitContextHunk(&b, h)
			reversible = reversible && rev
			pos = h.Span.End
			continue
		}

		b.WriteString(src[pos:lineEnd(src, pos)])
		pos = lineEnd(src, pos)
	}
	return b.String(), reversible, nil
}

func isHunkRelated(line string) bool {
	// "--- c,d ----" is a context mid-hunk header, not a file header.
	return strings.HasSuffix(line, "----")
}

// emitContextHunk writes one unified hunk in context form and reports
// whether the transformation is reversible.
func emitContextHunk(b *strings.Builder, h *diffedit.Hunk) bool {
	headerLine := lineAt(h.Body, 0)
	tail := ""
	if i := strings.Index(headerLine, " @@"); i >= 0 {
		tail = headerLine[i+len(" @@"):]
	}
	headerEnd := lineEnd(h.Body, 0)
	body := parseBody(diffedit.Unified, h.Body[headerEnd:])
	reversible := true

	var oldLines, newLines []string
	emitBoth := func(marker, content string) {
		oldLines = append(oldLines, marker+content)
		newLines = append(newLines, marker+content)
	}

	for i := 0; i < len(body); {
		l := body[i]
		switch l.kind {
		case diffedit.LineContext:
			if strings.TrimSuffix(l.content, "\n") == "" {
				// An empty context line has no unambiguous context-format
				// rendering; pass it through and give up reversibility.
				emitBoth("", l.content)
				reversible = false
			} else {
				emitBoth("  ", l.content)
			}
			i++
		case diffedit.LineNoNewline:
			emitBoth("", l.content)
			i++
		default:
			// A removal run optionally followed by an addition run.
			var dels, adds []bline
			for i < len(body) && body[i].kind == diffedit.LineRemoved {
				dels = append(dels, body[i])
				i++
			}
			for i < len(body) && body[i].kind == diffedit.LineAdded {
				adds = append(adds, body[i])
				i++
			}
			if len(dels) == 0 && len(adds) == 0 {
				emitBoth("", l.content)
				i++
				continue
			}
			switch {
			case len(adds) == 0:
				for _, d := range dels {
					oldLines = append(oldLines, "- "+d.content)
				}
			case len(dels) == 0:
				for _, a := range adds {
					newLines = append(newLines, "+ "+a.content)
				}
			default:
				// Substitution: both runs marked as changed.
				for _, d := range dels {
					oldLines = append(oldLines, "! "+d.content)
				}
				for _, a := range adds {
					newLines = append(newLines, "! "+a.content)
				}
				if len(dels) != len(adds) {
					reversible = false
				}
			}
		}
	}

	b.WriteString(banner)
	fmt.Fprintf(b, "*** %s ****%s\n", fmtRange(h.Header.Old), tail)
	for _, l := range oldLines {
		writeLine(b, l)
	}
	fmt.Fprintf(b, "--- %s ----\n", fmtRange(h.Header.New))
	for _, l := range newLines {
		writeLine(b, l)
	}
	return reversible
}

func writeLine(b *strings.Builder, l string) {
	b.WriteString(l)
	if !strings.HasSuffix(l, "\n") {
		b.WriteString("\n")
	}
}

// ContextToUnified rewrites every context hunk of src as a unified hunk,
// merging the hunk's old and new half-blocks back into interleaved lines,
// and translates context file headers.
func ContextToUnified(src string) (string, error) {
	var b strings.Builder
	b.Grow(len(src))

	pos := 0
	for pos < len(src) {
		line := lineAt(src, pos)

		// Context file header pair becomes a unified file header pair.
		if strings.HasPrefix(line, "*** ") && !strings.HasSuffix(line, "****") {
			next := lineEnd(src, pos)
			if next < len(src) {
				nl := lineAt(src, next)
				if strings.HasPrefix(nl, "--- ") && !strings.HasSuffix(nl, "----") {
					b.WriteString("--- " + line[4:] + "\n")
					b.WriteString("+++ " + nl[4:] + "\n")
					pos = lineEnd(src, next)
					continue
				}
			}
		}

		h, err := hunk.Parse(src, pos)
		if err == nil && h.Header.Style == diffedit.Context {
			if err := emitUnifiedHunk(&b, h); err != nil {
				return "", err
			}
			pos = h.Span.End
			continue
		}

		b.WriteString(src[pos:lineEnd(src, pos)])
		pos = lineEnd(src, pos)
	}
	return b.String(), nil
}

// halves splits a context hunk body into its parsed old and new half-blocks.
func halves(h *diffedit.Hunk) (old, new []bline, err error) {
	body := h.Body
	p := lineEnd(body, 0)                 // past banner
	oldStart := lineEnd(body, p)          // past *** a,b ****
	mid := oldStart
	for mid < len(body) && !strings.HasSuffix(lineAt(body, mid), "----") {
		mid = lineEnd(body, mid)
	}
	if mid >= len(body) {
		return nil, nil, diffedit.Malformed(h.Span.Start, "context hunk missing mid header")
	}
	old = parseBody(diffedit.Context, body[oldStart:mid])
	new = parseBody(diffedit.Context, body[lineEnd(body, mid):])
	return old, new, nil
}

// emitUnifiedHunk merges a context hunk's half-blocks into unified lines.
// Header counts are recomputed from the merged result, not copied from the
// context ranges: the end-based context form cannot represent an empty side
// (new-file and whole-file-deletion hunks), so the declared ranges alone
// would lose the ",0" counts.
func emitUnifiedHunk(b *strings.Builder, h *diffedit.Hunk) error {
	old, new, err := halves(h)
	if err != nil {
		return err
	}

	oldHeader := lineAt(h.Body, lineEnd(h.Body, 0))
	tail := ""
	if i := strings.Index(oldHeader, " ****"); i >= 0 {
		tail = oldHeader[i+len(" ****"):]
	}

	var body strings.Builder
	oldCount, newCount := 0, 0

	oi, ni := 0, 0
	for {
		// Additions positioned before the next shared context line.
		for ni < len(new) && new[ni].kind == diffedit.LineAdded {
			writeLine(&body, "+"+new[ni].content)
			newCount++
			ni++
			for ni < len(new) && new[ni].kind == diffedit.LineNoNewline {
				writeLine(&body, new[ni].content)
				ni++
			}
		}
		if oi >= len(old) {
			break
		}
		switch old[oi].kind {
		case diffedit.LineContext:
			writeLine(&body, " "+old[oi].content)
			oldCount++
			newCount++
			oi++
			if ni < len(new) && new[ni].kind == diffedit.LineContext {
				ni++
			}
		case diffedit.LineRemoved:
			writeLine(&body, "-"+old[oi].content)
			oldCount++
			oi++
		case diffedit.LineChanged:
			for oi < len(old) && old[oi].kind == diffedit.LineChanged {
				writeLine(&body, "-"+old[oi].content)
				oldCount++
				oi++
			}
			for ni < len(new) && new[ni].kind == diffedit.LineChanged {
				writeLine(&body, "+"+new[ni].content)
				newCount++
				ni++
			}
		case diffedit.LineNoNewline:
			writeLine(&body, old[oi].content)
			oi++
		default:
			oi++
		}
	}
	// Whatever remains of the new half (including the whole half when the
	// old one was omitted).
	for ; ni < len(new); ni++ {
		switch new[ni].kind {
		case diffedit.LineContext:
			writeLine(&body, " "+new[ni].content)
			oldCount++
			newCount++
		case diffedit.LineAdded, diffedit.LineChanged:
			writeLine(&body, "+"+new[ni].content)
			newCount++
		case diffedit.LineNoNewline:
			writeLine(&body, new[ni].content)
		}
	}

	fmt.Fprintf(b, "@@ -%s +%s @@%s\n",
		fmtUnifiedRange(diffedit.Range{Start: h.Header.Old.Start, Count: oldCount}),
		fmtUnifiedRange(diffedit.Range{Start: h.Header.New.Start, Count: newCount}),
		tail)
	b.WriteString(body.String())
	return nil
}
