// Package gitdiff parses git-style unified diff documents using
// bluekeyes/go-gitdiff, layering the metadata only git headers carry (file
// modes, rename/copy detection, binary flags) onto the positional scan the
// hunk package performs.
package gitdiff

import (
	"io"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/mrtimdog/diffedit"
	"github.com/mrtimdog/diffedit/hunk"
)

// Parser parses git/unified diff documents.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads a diff document, scans it into sections with byte-accurate
// hunk spans, and enriches the sections with git metadata.
func (p *Parser) Parse(r io.Reader) (*diffedit.Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc, err := hunk.Scan(string(raw))
	if err != nil {
		return nil, err
	}
	if err := Enrich(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Enrich fills in git header metadata on doc's sections by reparsing the
// document text with go-gitdiff and matching files to sections by path.
// Documents without git headers (plain, context, or normal diffs) are left
// unchanged.
func Enrich(doc *diffedit.Document) error {
	files, _, err := gitdiff.Parse(strings.NewReader(doc.Text))
	if err != nil {
		// Not a git-style document; the positional scan stands alone.
		return nil
	}

	byPath := make(map[string]*gitdiff.File, len(files))
	for _, f := range files {
		if f.NewName != "" {
			byPath[f.NewName] = f
		}
		if f.OldName != "" {
			byPath[f.OldName] = f
		}
	}

	for i := range doc.Sections {
		sec := &doc.Sections[i]
		f := byPath[sec.TargetPath()]
		if f == nil {
			f = byPath[sec.OldName]
		}
		if f == nil {
			continue
		}
		sec.IsNew = sec.IsNew || f.IsNew
		sec.IsDelete = sec.IsDelete || f.IsDelete
		sec.IsBinary = f.IsBinary
		if f.OldMode != 0 {
			sec.OldMode = uint32(f.OldMode)
		}
		if f.NewMode != 0 {
			sec.NewMode = uint32(f.NewMode)
		}
		if f.IsRename || f.IsCopy {
			sec.OldName, sec.NewName = f.OldName, f.NewName
		}
	}
	return nil
}
