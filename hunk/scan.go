package hunk

import (
	"strconv"
	"strings"

	"github.com/mrtimdog/diffedit"
)

// Scan splits a diff document into file sections with their hunks. Junk and
// header lines (Index:, diff --git, mode changes) preceding a file's first
// hunk belong to that file's section span. Hunks inside a section appear in
// document order.
func Scan(src string) (*diffedit.Document, error) {
	doc := &diffedit.Document{Text: src}
	var cur *diffedit.FileSection
	sectionStart := 0

	flush := func(end int) {
		if cur != nil {
			cur.Span.End = end
			doc.Sections = append(doc.Sections, *cur)
			cur = nil
		}
		sectionStart = end
	}

	pos := 0
	for pos < len(src) {
		if _, ok := headerStart(src, pos); ok {
			h, err := Parse(src, pos)
			if err != nil {
				return nil, err
			}
			if cur == nil {
				cur = &diffedit.FileSection{Span: diffedit.Span{Start: sectionStart}}
			}
			cur.Hunks = append(cur.Hunks, *h)
			pos = h.Span.End
			continue
		}

		line := lineAt(src, pos)
		if startsNewSection(line, cur) {
			flush(pos)
		}
		if isFileHeader(line) || isGitMetadata(line) {
			if cur == nil {
				cur = &diffedit.FileSection{Span: diffedit.Span{Start: sectionStart}}
			}
			recordHeader(cur, line)
		}
		pos = lineEnd(src, pos)
	}
	flush(len(src))
	return doc, nil
}

// startsNewSection reports whether line opens the next file's section.
// "diff" and "Index:" lines always do; an old-side file header does only
// once the current section already holds hunks.
func startsNewSection(line string, cur *diffedit.FileSection) bool {
	if cur == nil {
		return false
	}
	if strings.HasPrefix(line, "diff ") || strings.HasPrefix(line, "Index: ") {
		return true
	}
	if len(cur.Hunks) == 0 {
		return false
	}
	return isFileHeader(line) &&
		(strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "*** "))
}

func isGitMetadata(line string) bool {
	switch {
	case strings.HasPrefix(line, "new file mode "),
		strings.HasPrefix(line, "deleted file mode "),
		strings.HasPrefix(line, "old mode "),
		strings.HasPrefix(line, "new mode "),
		strings.HasPrefix(line, "Binary files "):
		return true
	}
	return false
}

func recordHeader(sec *diffedit.FileSection, line string) {
	switch {
	case strings.HasPrefix(line, "diff --git "):
		// Fallback names; the ---/+++ lines override when present.
		fields := strings.Fields(line[len("diff --git "):])
		if len(fields) == 2 {
			if sec.OldName == "" {
				sec.OldName = cleanName(fields[0])
			}
			if sec.NewName == "" {
				sec.NewName = cleanName(fields[1])
			}
		}
	case strings.HasPrefix(line, "--- "):
		// Old file header in unified style; new file header in context
		// style, where it follows the "*** oldfile" line.
		if sec.OldName != "" && sec.NewName == "" {
			sec.NewName = cleanName(line[4:])
			if sec.NewName == "/dev/null" {
				sec.IsDelete = true
			}
		} else {
			sec.OldName = cleanName(line[4:])
			if sec.OldName == "/dev/null" {
				sec.IsNew = true
			}
		}
	case strings.HasPrefix(line, "+++ "):
		sec.NewName = cleanName(line[4:])
		if sec.NewName == "/dev/null" {
			sec.IsDelete = true
		}
	case strings.HasPrefix(line, "*** "):
		// Context-style old file header.
		sec.OldName = cleanName(line[4:])
	case strings.HasPrefix(line, "new file mode "):
		sec.IsNew = true
		sec.NewMode = parseMode(line[len("new file mode "):])
	case strings.HasPrefix(line, "deleted file mode "):
		sec.IsDelete = true
		sec.OldMode = parseMode(line[len("deleted file mode "):])
	case strings.HasPrefix(line, "old mode "):
		sec.OldMode = parseMode(line[len("old mode "):])
	case strings.HasPrefix(line, "new mode "):
		sec.NewMode = parseMode(line[len("new mode "):])
	case strings.HasPrefix(line, "Binary files "):
		sec.IsBinary = true
	}
}

// cleanName strips the timestamp after a tab and the git a/ b/ prefixes.
func cleanName(name string) string {
	if i := strings.IndexByte(name, '\t'); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "/dev/null" {
		return name
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		name = name[2:]
	}
	return name
}

func parseMode(s string) uint32 {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 8, 32)
	if err != nil {
		return 0
	}
	return uint32(n)
}

// Stats counts the added and removed lines across a section's hunk bodies.
// A changed-bang line counts as a removal in a context hunk's old half and
// as an addition in its new half.
func Stats(sec *diffedit.FileSection) (added, removed int) {
	for i := range sec.Hunks {
		h := &sec.Hunks[i]
		newHalf := false
		pos := lineEnd(h.Body, 0)
		for pos < len(h.Body) {
			le := lineEnd(h.Body, pos)
			line := strings.TrimSuffix(h.Body[pos:le], "\n")
			if h.Header.Style == diffedit.Context && contextMidRe.MatchString(line) {
				newHalf = true
				pos = le
				continue
			}
			switch Classify(h.Header.Style, line) {
			case diffedit.LineAdded:
				added++
			case diffedit.LineRemoved:
				removed++
			case diffedit.LineChanged:
				if newHalf {
					added++
				} else {
					removed++
				}
			}
			pos = le
		}
	}
	return added, removed
}
