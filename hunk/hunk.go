// Package hunk recognizes hunk headers and boundaries for the three diff
// dialects, extracts the old-side and new-side text of a hunk, scans whole
// documents into file sections, and repairs hunk header counts after the
// body text has been edited.
package hunk

import (
	"regexp"
	"strings"

	"github.com/mrtimdog/diffedit"
)

// Header grammars. Context ranges are start,end pairs; unified and normal
// counts default to 1 when the comma part is absent.
var (
	unifiedHeaderRe = regexp.MustCompile(`^@@ -([0-9]+)(,([0-9]+))? \+([0-9]+)(,([0-9]+))? @@`)
	contextBannerRe = regexp.MustCompile(`^\*{15}`)
	contextOldRe    = regexp.MustCompile(`^\*\*\* ([0-9]+)(,([0-9]+))? \*\*\*\*`)
	contextMidRe    = regexp.MustCompile(`^--- ([0-9]+)(,([0-9]+))? ----`)
	normalHeaderRe  = regexp.MustCompile(`^([0-9]+)(,([0-9]+))?([acd])([0-9]+)(,([0-9]+))?$`)
)

// lineStart returns the offset of the first byte of the line containing pos.
func lineStart(src string, pos int) int {
	if pos > len(src) {
		pos = len(src)
	}
	if i := strings.LastIndexByte(src[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

// lineEnd returns the offset just past the newline of the line starting at
// pos (or len(src) for an unterminated final line).
func lineEnd(src string, pos int) int {
	if i := strings.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

// lineAt returns the line starting at pos without its trailing newline.
func lineAt(src string, pos int) string {
	return strings.TrimSuffix(src[pos:lineEnd(src, pos)], "\n")
}

// Classify tags a single body line for the given dialect. This is the only
// place line prefixes are interpreted; everything else switches on the enum.
func Classify(style diffedit.Style, line string) diffedit.LineKind {
	line = strings.TrimSuffix(line, "\n")
	if strings.HasPrefix(line, `\`) {
		return diffedit.LineNoNewline
	}
	if line == "" {
		return diffedit.LineContext
	}
	switch style {
	case diffedit.Unified:
		switch line[0] {
		case '+':
			return diffedit.LineAdded
		case '-':
			return diffedit.LineRemoved
		default:
			return diffedit.LineContext
		}
	case diffedit.Context:
		if len(line) >= 2 {
			switch line[:2] {
			case "+ ":
				return diffedit.LineAdded
			case "- ":
				return diffedit.LineRemoved
			case "! ":
				return diffedit.LineChanged
			}
		}
		return diffedit.LineContext
	case diffedit.Normal:
		if strings.HasPrefix(line, "> ") || line == ">" {
			return diffedit.LineAdded
		}
		if strings.HasPrefix(line, "< ") || line == "<" {
			return diffedit.LineRemoved
		}
		return diffedit.LineContext
	}
	return diffedit.LineContext
}

func parseRange(start, count string, endBased bool) diffedit.Range {
	s := atoi(start)
	if count == "" {
		return diffedit.Range{Start: s, Count: 1}
	}
	c := atoi(count)
	if endBased {
		// start,end form: *** 1,5 **** covers lines 1..5.
		return diffedit.Range{Start: s, Count: c - s + 1}
	}
	return diffedit.Range{Start: s, Count: c}
}

func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// ParseHeader matches one of the three header grammars at the line starting
// at start. For context hunks, start must be the 15-asterisk banner line; the
// returned headerEnd is the end of the "*** a,b ****" line. The new-side
// range of a context hunk comes from the mid-hunk header, located separately.
func ParseHeader(src string, start int) (h diffedit.HunkHeader, headerEnd int, err error) {
	line := lineAt(src, start)

	if m := unifiedHeaderRe.FindStringSubmatch(line); m != nil {
		h.Style = diffedit.Unified
		h.Old = parseRange(m[1], m[3], false)
		h.New = parseRange(m[4], m[6], false)
		return h, lineEnd(src, start), nil
	}

	if contextBannerRe.MatchString(line) {
		oldStart := lineEnd(src, start)
		if oldStart >= len(src) {
			return h, 0, diffedit.Malformed(start, "context banner at end of document")
		}
		m := contextOldRe.FindStringSubmatch(lineAt(src, oldStart))
		if m == nil {
			return h, 0, diffedit.Malformed(oldStart, "expected *** a,b **** after banner")
		}
		h.Style = diffedit.Context
		h.Old = parseRange(m[1], m[3], true)
		headerEnd = lineEnd(src, oldStart)
		// The new-side range lives in the mid-hunk header further down.
		if mid := findMidHeader(src, headerEnd); mid >= 0 {
			mm := contextMidRe.FindStringSubmatch(lineAt(src, mid))
			h.New = parseRange(mm[1], mm[3], true)
		} else {
			return h, 0, diffedit.Malformed(start, "context hunk has no --- c,d ---- header")
		}
		return h, headerEnd, nil
	}

	if m := normalHeaderRe.FindStringSubmatch(line); m != nil {
		h.Style = diffedit.Normal
		h.Old = parseRange(m[1], m[3], true)
		h.New = parseRange(m[5], m[7], true)
		// An add has no old lines, a delete no new lines.
		switch m[4] {
		case "a":
			h.Old.Count = 0
		case "d":
			h.New.Count = 0
		}
		return h, lineEnd(src, start), nil
	}

	return h, 0, diffedit.Malformed(start, "no hunk header grammar matches %q", line)
}

// findMidHeader returns the offset of the "--- c,d ----" line of the context
// hunk whose old half begins at pos, or -1. The search stops at the next
// banner or a line that cannot belong to a context hunk body.
func findMidHeader(src string, pos int) int {
	for pos < len(src) {
		line := lineAt(src, pos)
		if contextMidRe.MatchString(line) {
			return pos
		}
		if !isContextBody(line) {
			return -1
		}
		pos = lineEnd(src, pos)
	}
	return -1
}

func isContextBody(line string) bool {
	if line == "" {
		return true
	}
	switch {
	case strings.HasPrefix(line, "  "),
		strings.HasPrefix(line, "! "),
		strings.HasPrefix(line, "- "),
		strings.HasPrefix(line, "+ "),
		strings.HasPrefix(line, `\`):
		return true
	}
	return false
}

// headerStart reports whether the line at pos starts a hunk of any dialect,
// and which one. For context hunks only the banner line counts as the start.
func headerStart(src string, pos int) (diffedit.Style, bool) {
	line := lineAt(src, pos)
	switch {
	case unifiedHeaderRe.MatchString(line):
		return diffedit.Unified, true
	case contextBannerRe.MatchString(line):
		return diffedit.Context, true
	case normalHeaderRe.MatchString(line):
		return diffedit.Normal, true
	}
	return 0, false
}

// isFileHeader reports whether line begins a new file's diff (junk/header
// material between hunks). Context mid headers carry numeric ranges and are
// excluded explicitly.
func isFileHeader(line string) bool {
	switch {
	case strings.HasPrefix(line, "diff "),
		strings.HasPrefix(line, "Index: "),
		strings.HasPrefix(line, "==== "):
		return true
	case strings.HasPrefix(line, "--- "):
		return !contextMidRe.MatchString(line)
	case strings.HasPrefix(line, "+++ "):
		return true
	case strings.HasPrefix(line, "*** "):
		return !contextOldRe.MatchString(line)
	}
	return false
}

// FindBounds returns the span of the hunk enclosing pos, or of the next hunk
// after pos when pos sits in header/junk material. The end is computed by
// trusting the declared header counts.
func FindBounds(src string, pos int) (diffedit.Span, error) {
	ls := lineStart(src, pos)

	// Backward: look for the enclosing hunk's header.
	for p := ls; ; {
		if style, ok := headerStart(src, p); ok {
			return boundsAt(src, p, style)
		}
		line := lineAt(src, p)
		// A lone "*** a,b ****" whose banner is above: step up to it.
		if contextOldRe.MatchString(line) {
			if p > 0 {
				prev := lineStart(src, p-1)
				if contextBannerRe.MatchString(lineAt(src, prev)) {
					return boundsAt(src, prev, diffedit.Context)
				}
			}
		}
		if p == 0 || isFileHeader(line) {
			break
		}
		p = lineStart(src, p-1)
	}

	// Forward: next hunk after pos.
	for p := ls; p < len(src); p = lineEnd(src, p) {
		if style, ok := headerStart(src, p); ok {
			return boundsAt(src, p, style)
		}
	}
	return diffedit.Span{}, diffedit.Malformed(pos, "no hunk found around position")
}

func boundsAt(src string, start int, style diffedit.Style) (diffedit.Span, error) {
	end, err := EndOfHunk(src, start, style, true)
	if err != nil {
		return diffedit.Span{}, err
	}
	return diffedit.Span{Start: start, End: end}, nil
}

// EndOfHunk computes where the body of the hunk starting at start ends.
// With trustHeader, the declared counts drive the scan (the authoritative
// original extent, used to detect drift after edits); without it, the scan
// relies purely on line content, and ambiguous trailing blank lines are
// trimmed (the mode callers want after hand edits, before fixup runs).
func EndOfHunk(src string, start int, style diffedit.Style, trustHeader bool) (int, error) {
	h, headerEnd, err := ParseHeader(src, start)
	if err != nil {
		return 0, err
	}
	if h.Style != style {
		return 0, diffedit.Malformed(start, "hunk is %s, not %s", h.Style, style)
	}

	switch style {
	case diffedit.Unified:
		if trustHeader {
			return endUnifiedTrusted(src, headerEnd, h), nil
		}
		return endByContent(src, headerEnd, isUnifiedBody), nil
	case diffedit.Context:
		// The banner and mid header make context hunks self-delimiting.
		return endByContent(src, headerEnd, func(line string) bool {
			return isContextBody(line) || contextMidRe.MatchString(line)
		}), nil
	case diffedit.Normal:
		if trustHeader {
			return endNormalTrusted(src, headerEnd, h), nil
		}
		return endByContent(src, headerEnd, isNormalBody), nil
	}
	return 0, diffedit.Malformed(start, "unknown style")
}

func isUnifiedBody(line string) bool {
	if line == "" {
		return true
	}
	switch line[0] {
	case ' ', '+', '-', '\\':
		return true
	}
	return false
}

func isNormalBody(line string) bool {
	return strings.HasPrefix(line, "< ") || strings.HasPrefix(line, "> ") ||
		line == "---" || line == "<" || line == ">" ||
		strings.HasPrefix(line, `\`)
}

// endUnifiedTrusted scans exactly the declared number of old-marked and
// new-marked lines, taking the max extent, then swallows a trailing
// no-newline marker.
func endUnifiedTrusted(src string, pos int, h diffedit.HunkHeader) int {
	oldLeft, newLeft := h.Old.Count, h.New.Count
	for pos < len(src) && (oldLeft > 0 || newLeft > 0) {
		line := lineAt(src, pos)
		if !isUnifiedBody(line) {
			break
		}
		switch Classify(diffedit.Unified, line) {
		case diffedit.LineAdded:
			newLeft--
		case diffedit.LineRemoved:
			oldLeft--
		case diffedit.LineContext:
			oldLeft--
			newLeft--
		}
		pos = lineEnd(src, pos)
	}
	for pos < len(src) && strings.HasPrefix(lineAt(src, pos), `\`) {
		pos = lineEnd(src, pos)
	}
	return pos
}

func endNormalTrusted(src string, pos int, h diffedit.HunkHeader) int {
	oldLeft, newLeft := h.Old.Count, h.New.Count
	for pos < len(src) {
		line := lineAt(src, pos)
		if !isNormalBody(line) {
			break
		}
		switch Classify(diffedit.Normal, line) {
		case diffedit.LineRemoved:
			if oldLeft == 0 {
				return pos
			}
			oldLeft--
		case diffedit.LineAdded:
			if newLeft == 0 {
				return pos
			}
			newLeft--
		default:
			// "---" half separator and no-newline markers consume no counts.
		}
		pos = lineEnd(src, pos)
	}
	return pos
}

// endByContent scans forward while lines satisfy body, then trims trailing
// blank lines (valid empty context lines are indistinguishable from
// unrelated blanks, so the ambiguous tail is excluded).
func endByContent(src string, pos int, body func(string) bool) int {
	end := pos
	for pos < len(src) {
		line := lineAt(src, pos)
		if !body(line) {
			break
		}
		pos = lineEnd(src, pos)
		if line != "" {
			end = pos
		}
	}
	return end
}

// Lines derives the body lines of h as kind+content pairs with the marker
// prefixes stripped. Header lines (the unified header, the context old and
// mid headers, the normal "---" half separator) are not included.
func Lines(h *diffedit.Hunk) []diffedit.Line {
	style := h.Header.Style
	pos := lineEnd(h.Body, 0)
	if style == diffedit.Context {
		// Past the *** a,b **** line that follows the banner.
		pos = lineEnd(h.Body, pos)
	}
	prefix := 1
	if style != diffedit.Unified {
		prefix = 2
	}

	var out []diffedit.Line
	for pos < len(h.Body) {
		le := lineEnd(h.Body, pos)
		raw := h.Body[pos:le]
		line := strings.TrimSuffix(raw, "\n")
		if style == diffedit.Context && contextMidRe.MatchString(line) {
			pos = le
			continue
		}
		if style == diffedit.Normal && line == "---" {
			pos = le
			continue
		}
		kind := Classify(style, raw)
		content := raw
		if kind != diffedit.LineNoNewline {
			if len(line) >= prefix {
				content = raw[prefix:]
			} else {
				// Bare marker or empty line: only the newline remains.
				content = "\n"
			}
		}
		out = append(out, diffedit.Line{Kind: kind, Content: content})
		pos = le
	}
	return out
}

// Parse reads the hunk starting at start into a Hunk value, trusting the
// declared header counts for its extent.
func Parse(src string, start int) (*diffedit.Hunk, error) {
	h, _, err := ParseHeader(src, start)
	if err != nil {
		return nil, err
	}
	end, err := EndOfHunk(src, start, h.Style, true)
	if err != nil {
		return nil, err
	}
	return &diffedit.Hunk{
		Header: h,
		Span:   diffedit.Span{Start: start, End: end},
		Body:   src[start:end],
	}, nil
}
