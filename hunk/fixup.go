package hunk

import (
	"fmt"
	"strings"
)

// Fixup recomputes hunk header count fields after body text between from and
// to has been edited, restoring the declared-counts invariant. The affected
// range is widened to whole hunks, scanned backward accumulating per-kind
// line counters, and each header encountered is rewritten from the counters.
// The function is pure and idempotent; it returns the repaired document.
func Fixup(src string, from, to int) (string, error) {
	if to > len(src) {
		to = len(src)
	}
	if from > to {
		from, to = to, from
	}

	start, err := FindBounds(src, from)
	if err != nil {
		return "", err
	}
	end, err := FindBounds(src, to)
	if err != nil {
		return "", err
	}
	lo, hi := start.Start, end.End
	if hi < to {
		hi = to
	}

	// Collect line offsets in [lo, hi).
	var offs []int
	for p := lo; p < hi; p = lineEnd(src, p) {
		offs = append(offs, p)
	}

	type rewrite struct {
		start, end int
		text       string
	}
	var rewrites []rewrite
	ctx, plus, minus, bang := 0, 0, 0, 0
	reset := func() { ctx, plus, minus, bang = 0, 0, 0, 0 }

	for i := len(offs) - 1; i >= 0; i-- {
		p := offs[i]
		line := lineAt(src, p)

		if m := unifiedHeaderRe.FindStringSubmatchIndex(line); m != nil {
			h, _, err := ParseHeader(src, p)
			if err != nil {
				return "", err
			}
			text := fmt.Sprintf("@@ -%d,%d +%d,%d @@%s",
				h.Old.Start, ctx+minus, h.New.Start, ctx+plus, line[m[1]:])
			rewrites = append(rewrites, rewrite{p, p + len(line), text})
			reset()
			continue
		}
		if m := contextMidRe.FindStringSubmatch(line); m != nil {
			c := atoi(m[1])
			text := fmt.Sprintf("--- %d,%d ----", c, c+ctx+bang+plus-1)
			rewrites = append(rewrites, rewrite{p, p + len(line), text})
			reset()
			continue
		}
		if m := contextOldRe.FindStringSubmatch(line); m != nil {
			a := atoi(m[1])
			text := fmt.Sprintf("*** %d,%d ****", a, a+ctx+bang+minus-1)
			rewrites = append(rewrites, rewrite{p, p + len(line), text})
			reset()
			continue
		}
		if contextBannerRe.MatchString(line) || isFileHeader(line) {
			reset()
			continue
		}

		switch {
		case line == "":
			ctx++
		case line == "-- ":
			// git format-patch signature delimiter, not a removal.
		case line[0] == ' ':
			ctx++
		case line[0] == '+':
			plus++
		case line[0] == '-':
			minus++
		case line[0] == '!':
			bang++
		case line[0] == '\\':
			// no-newline marker, counts for neither side
		default:
			reset()
		}
	}

	if len(rewrites) == 0 {
		return src, nil
	}

	// Rewrites were collected back to front; emit front to back.
	var b strings.Builder
	b.Grow(len(src) + 16)
	pos := 0
	for i := len(rewrites) - 1; i >= 0; i-- {
		r := rewrites[i]
		b.WriteString(src[pos:r.start])
		b.WriteString(r.text)
		pos = r.end
	}
	b.WriteString(src[pos:])
	return b.String(), nil
}
