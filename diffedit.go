// Package diffedit provides domain types for a diff/patch engine: parsing
// unified, context, and normal diff text into hunks, locating hunk text in
// target files, applying and reversing hunks, converting between dialects,
// and repairing hunk headers after hand edits.
package diffedit

import "context"

// Style identifies the diff dialect of a hunk or document.
type Style int

// Diff dialects.
const (
	Unified Style = iota // @@ -a,b +c,d @@
	Context              // *** a,b **** / --- c,d ----
	Normal               // NaN / NcN / NdN
)

// String returns the conventional name of the dialect.
func (s Style) String() string {
	switch s {
	case Unified:
		return "unified"
	case Context:
		return "context"
	case Normal:
		return "normal"
	default:
		return "unknown"
	}
}

// LineKind classifies a single hunk body line. Classification happens in one
// place (hunk.Classify); everything else switches on the enum.
type LineKind int

// Hunk body line kinds.
const (
	LineContext   LineKind = iota // unchanged line present on both sides
	LineAdded                     // "+" (unified), "+ " (context), "> " (normal)
	LineRemoved                   // "-" (unified), "- " (context), "< " (normal)
	LineChanged                   // "! " in context-style hunks
	LineNoNewline                 // "\ No newline at end of file"
)

// Span is a half-open byte range [Start, End) into a document or target text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Range is a line range as declared in a hunk header: 1-based starting line
// and line count. Headers may omit the count, which defaults to 1.
type Range struct {
	Start int
	Count int
}

// End returns the 1-based line just past the range.
func (r Range) End() int { return r.Start + r.Count }

// HunkHeader holds the parsed header fields of a hunk.
type HunkHeader struct {
	Style Style
	Old   Range // lines in the old file
	New   Range // lines in the new file
}

// Line is a single hunk body line with its prefix stripped. Hunks store raw
// body text; hunk.Lines derives these on demand.
type Line struct {
	Kind    LineKind
	Content string // without the prefix character(s), with trailing newline
}

// Hunk is the unit of change: a header plus the raw body text. The old-side
// and new-side file texts are derived on demand (hunk.ExtractSide), never
// stored.
type Hunk struct {
	Header HunkHeader
	Span   Span   // byte span in the owning document, header included
	Body   string // raw hunk text, header line(s) included
}

// FileSection represents one file's portion of a diff document.
type FileSection struct {
	OldName  string
	NewName  string
	IsNew    bool // old side is /dev/null or "new file mode" seen
	IsDelete bool // new side is /dev/null or "deleted file mode" seen
	IsBinary bool
	OldMode  uint32 // 0 if unknown/unchanged
	NewMode  uint32
	Span     Span // full section span, leading junk/header lines included
	Hunks    []Hunk
}

// TargetPath returns the working-tree path this section patches.
func (s *FileSection) TargetPath() string {
	if s.IsDelete || s.NewName == "" || s.NewName == "/dev/null" {
		return s.OldName
	}
	return s.NewName
}

// Document is a diff document: the raw text plus the file sections found by
// scanning it. Sections hold byte spans into Text, never copies of it.
type Document struct {
	Text     string
	Sections []FileSection
}

// Hunks returns all hunks of all sections in document order.
func (d *Document) Hunks() []Hunk {
	var out []Hunk
	for i := range d.Sections {
		out = append(out, d.Sections[i].Hunks...)
	}
	return out
}

// SourceLocation is the result of locating a hunk in a target text. It is
// computed fresh per lookup and must never be cached across edits.
type SourceLocation struct {
	Target     string // path or buffer identity the span refers to
	Span       Span   // matched byte span in the target text
	LineOffset int    // signed lines between declared and found position
	Switched   bool   // new-side text found: patch appears already applied
	Fuzzy      bool   // match came from the whitespace-insensitive fallback
	OldText    string // literal old-side text of the hunk
	NewText    string // literal new-side text of the hunk
}

// PlannedEdit is one element of a two-phase-commit plan: a replacement to
// perform on a target, produced without side effects during the plan phase.
type PlannedEdit struct {
	Target      string
	Span        Span
	Replacement string
}

// HunkStatus reports the outcome of applying or testing a single hunk.
type HunkStatus int

// Hunk outcomes.
const (
	StatusApplied        HunkStatus = iota // change performed (or would be, in a dry run)
	StatusAlreadyApplied                   // other side's text found; no-op without force
	StatusNotFound                         // neither side located, even fuzzily
	StatusMalformed                        // header or body did not parse
)

// String returns a short human-readable status name.
func (s HunkStatus) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusAlreadyApplied:
		return "already applied"
	case StatusNotFound:
		return "not found"
	case StatusMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ApplyResult describes what happened to one hunk.
type ApplyResult struct {
	Status     HunkStatus
	Target     string
	LineOffset int
	Fuzzy      bool
	Deleted    bool // the target file was (or would be) removed entirely
}

// BatchResult aggregates an apply-all run. When Failures is non-zero no
// target was mutated.
type BatchResult struct {
	Results  []ApplyResult
	Failures int
	Touched  []string // targets persisted during the commit phase
}

// FileStore gives the engine access to target file text. Open returns the
// current content; Save persists replacement content; Remove deletes the
// file (used when a patch deletes its target).
type FileStore interface {
	Open(path string) (string, error)
	Save(path string, text string) error
	Remove(path string) error
}

// RevisionReader retrieves the text of a path at a VCS revision. The engine
// delegates all VCS knowledge to this collaborator.
type RevisionReader interface {
	Read(ctx context.Context, path, revision string) (string, error)
}

// Segment is a portion of text within a compared pair of lines, marking
// whether it differs between the old and new versions.
type Segment struct {
	Text    string
	Changed bool
}

// WordDiffer computes fine-grained differences between two texts. The
// refinement engine delegates all pairing/diffing to this collaborator.
type WordDiffer interface {
	// Diff returns segments for both texts, marking which portions changed.
	Diff(old, new string) (oldSegs, newSegs []Segment)
}
