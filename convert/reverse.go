package convert

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mrtimdog/diffedit"
	"github.com/mrtimdog/diffedit/hunk"
)

var normalHeaderRe = regexp.MustCompile(`^([0-9]+(,[0-9]+)?)([acd])([0-9]+(,[0-9]+)?)$`)

// Reverse swaps the direction of every hunk and file header in src: old and
// new filenames trade places, header ranges swap, and added/removed markers
// flip. Reversing twice restores a semantically identical document.
func Reverse(src string) (string, error) {
	var b strings.Builder
	b.Grow(len(src))

	pos := 0
	for pos < len(src) {
		line := lineAt(src, pos)

		// Unified file header pair: swap the names, keep the markers.
		if strings.HasPrefix(line, "--- ") && !isHunkRelated(line) {
			next := lineEnd(src, pos)
			if next < len(src) && strings.HasPrefix(lineAt(src, next), "+++ ") {
				b.WriteString("--- " + lineAt(src, next)[4:] + "\n")
				b.WriteString("+++ " + line[4:] + "\n")
				pos = lineEnd(src, next)
				continue
			}
		}
		// Context file header pair.
		if strings.HasPrefix(line, "*** ") && !strings.HasSuffix(line, "****") {
			next := lineEnd(src, pos)
			if next < len(src) {
				nl := lineAt(src, next)
				if strings.HasPrefix(nl, "--- ") && !strings.HasSuffix(nl, "----") {
					b.WriteString("*** " + nl[4:] + "\n")
					b.WriteString("--- " + line[4:] + "\n")
					pos = lineEnd(src, next)
					continue
				}
			}
		}

		if h, err := hunk.Parse(src, pos); err == nil {
			if err := emitReversed(&b, h); err != nil {
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

func emitReversed(b *strings.Builder, h *diffedit.Hunk) error {
	switch h.Header.Style {
	case diffedit.Unified:
		reverseUnified(b, h)
		return nil
	case diffedit.Context:
		return reverseContext(b, h)
	case diffedit.Normal:
		return reverseNormal(b, h)
	}
	return diffedit.Malformed(h.Span.Start, "unknown hunk style")
}

func reverseUnified(b *strings.Builder, h *diffedit.Hunk) {
	headerLine := lineAt(h.Body, 0)
	tail := ""
	if i := strings.Index(headerLine, " @@"); i >= 0 {
		tail = headerLine[i+len(" @@"):]
	}
	fmt.Fprintf(b, "@@ -%s +%s @@%s\n",
		fmtUnifiedRange(h.Header.New), fmtUnifiedRange(h.Header.Old), tail)

	body := parseBody(diffedit.Unified, h.Body[lineEnd(h.Body, 0):])
	for i := 0; i < len(body); {
		l := body[i]
		switch l.kind {
		case diffedit.LineContext:
			if strings.TrimSuffix(l.content, "\n") == "" {
				writeLine(b, l.content)
			} else {
				writeLine(b, " "+l.content)
			}
			i++
		case diffedit.LineNoNewline:
			writeLine(b, l.content)
			i++
		default:
			// Swap each change group: the added run becomes the removals,
			// the removed run the additions. Markers attached to a run's
			// lines travel with them.
			dels, i2 := takeRun(body, i, diffedit.LineRemoved)
			adds, i3 := takeRun(body, i2, diffedit.LineAdded)
			if i3 == i {
				writeLine(b, l.content)
				i++
				continue
			}
			i = i3
			for _, a := range adds {
				if a.kind == diffedit.LineNoNewline {
					writeLine(b, a.content)
				} else {
					writeLine(b, "-"+a.content)
				}
			}
			for _, d := range dels {
				if d.kind == diffedit.LineNoNewline {
					writeLine(b, d.content)
				} else {
					writeLine(b, "+"+d.content)
				}
			}
		}
	}
}

// takeRun collects consecutive lines of kind starting at i, keeping
// no-newline markers attached to the run.
func takeRun(body []bline, i int, kind diffedit.LineKind) ([]bline, int) {
	var run []bline
	for i < len(body) {
		switch body[i].kind {
		case kind:
			run = append(run, body[i])
		case diffedit.LineNoNewline:
			if len(run) == 0 {
				return run, i
			}
			run = append(run, body[i])
		default:
			return run, i
		}
		i++
	}
	return run, i
}

func reverseContext(b *strings.Builder, h *diffedit.Hunk) error {
	old, new, err := halves(h)
	if err != nil {
		return err
	}
	b.WriteString(banner)
	fmt.Fprintf(b, "*** %s ****\n", fmtRange(h.Header.New))
	writeContextHalf(b, new)
	fmt.Fprintf(b, "--- %s ----\n", fmtRange(h.Header.Old))
	writeContextHalf(b, old)
	return nil
}

// writeContextHalf re-emits a half-block with its removal/addition markers
// flipped; context and changed markers stay as they are.
func writeContextHalf(b *strings.Builder, half []bline) {
	for _, l := range half {
		switch l.kind {
		case diffedit.LineContext:
			if strings.TrimSuffix(l.content, "\n") == "" {
				writeLine(b, l.content)
			} else {
				writeLine(b, "  "+l.content)
			}
		case diffedit.LineRemoved:
			writeLine(b, "+ "+l.content)
		case diffedit.LineAdded:
			writeLine(b, "- "+l.content)
		case diffedit.LineChanged:
			writeLine(b, "! "+l.content)
		case diffedit.LineNoNewline:
			writeLine(b, l.content)
		}
	}
}

func reverseNormal(b *strings.Builder, h *diffedit.Hunk) error {
	headerLine := lineAt(h.Body, 0)
	m := normalHeaderRe.FindStringSubmatch(headerLine)
	if m == nil {
		return diffedit.Malformed(h.Span.Start, "bad normal header %q", headerLine)
	}
	op := m[3]
	switch op {
	case "a":
		op = "d"
	case "d":
		op = "a"
	}
	fmt.Fprintf(b, "%s%s%s\n", m[4], op, m[1])

	body := parseBody(diffedit.Normal, h.Body[lineEnd(h.Body, 0):])
	var olds, news []bline
	for _, l := range body {
		switch l.kind {
		case diffedit.LineRemoved:
			olds = append(olds, l)
		case diffedit.LineAdded:
			news = append(news, l)
		case diffedit.LineNoNewline:
			if len(news) > 0 {
				news = append(news, l)
			} else {
				olds = append(olds, l)
			}
		}
	}
	// New half first, shown as the old side now.
	for _, l := range news {
		if l.kind == diffedit.LineNoNewline {
			writeLine(b, l.content)
		} else {
			writeLine(b, "< "+l.content)
		}
	}
	if len(news) > 0 && len(olds) > 0 {
		b.WriteString("---\n")
	}
	for _, l := range olds {
		if l.kind == diffedit.LineNoNewline {
			writeLine(b, l.content)
		} else {
			writeLine(b, "> "+l.content)
		}
	}
	return nil
}
