// Package worddiff implements the fine-grained diff primitive used by hunk
// refinement: a token-level LCS differ that marks which portions of a pair
// of texts changed.
package worddiff

import (
	"strings"
	"unicode/utf8"

	"github.com/mrtimdog/diffedit"
)

// Compile-time interface verification.
var _ diffedit.WordDiffer = (*Differ)(nil)

// similarityThreshold is the minimum token-overlap ratio below which a pair
// is reported as a complete replacement instead of a word-level diff.
const similarityThreshold = 0.4

// Differ tokenizes texts and computes token-level diffs.
type Differ struct{}

// NewDiffer creates a new Differ.
func NewDiffer() *Differ {
	return &Differ{}
}

// Diff returns segments for both texts, marking which portions changed.
func (d *Differ) Diff(old, new string) (oldSegs, newSegs []diffedit.Segment) {
	if old == "" && new == "" {
		return nil, nil
	}
	if old == "" {
		return nil, []diffedit.Segment{{Text: new, Changed: true}}
	}
	if new == "" {
		return []diffedit.Segment{{Text: old, Changed: true}}, nil
	}
	if old == new {
		seg := diffedit.Segment{Text: old, Changed: false}
		return []diffedit.Segment{seg}, []diffedit.Segment{seg}
	}

	oldToks := Tokenize(old)
	newToks := Tokenize(new)
	if !similar(oldToks, newToks) {
		return []diffedit.Segment{{Text: old, Changed: true}},
			[]diffedit.Segment{{Text: new, Changed: true}}
	}

	oldKeep, newKeep := lcsKeep(oldToks, newToks)
	return merge(oldToks, oldKeep), merge(newToks, newKeep)
}

// Tokenize splits s into identifier, number, string-literal, operator,
// punctuation, and whitespace tokens.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}
	toks := make([]string, 0, len(s)/3+1)
	i := 0
	for i < len(s) {
		start := i
		c := s[i]
		switch {
		case isIdentStart(c):
			i = scan(s, i+1, isIdent)
		case isDigit(c):
			i = scan(s, i+1, isDigit)
			if i+1 < len(s) && s[i] == '.' && isDigit(s[i+1]) {
				i = scan(s, i+1, isDigit)
			}
		case c == '"' || c == '\'':
			i = scanQuoted(s, i)
		case isOperator(c):
			i = scan(s, i+1, isOperator)
		case isSpace(c):
			i = scan(s, i+1, isSpace)
		default:
			_, size := utf8.DecodeRuneInString(s[i:])
			i += size
		}
		toks = append(toks, s[start:i])
	}
	return toks
}

// scan advances while pred holds.
func scan(s string, i int, pred func(byte) bool) int {
	for i < len(s) && pred(s[i]) {
		i++
	}
	return i
}

// scanQuoted consumes a quoted literal starting at i, honoring backslash
// escapes; an unterminated literal runs to the end of s.
func scanQuoted(s string, i int) int {
	quote := s[i]
	i++
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		default:
			i++
		}
	}
	return len(s)
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isOperator(c byte) bool {
	return strings.IndexByte("+-*/=<>!&|^%:", c) >= 0
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// similar estimates token overlap; ratio = 2*common/(len(a)+len(b)).
func similar(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, t := range a {
		counts[t]++
	}
	common := 0
	for _, t := range b {
		if counts[t] > 0 {
			counts[t]--
			common++
		}
	}
	return float64(2*common)/float64(len(a)+len(b)) >= similarityThreshold
}

// lcsKeep marks which tokens of each sequence belong to a longest common
// subsequence. Flat DP table, single allocation.
func lcsKeep(a, b []string) (aKeep, bKeep []bool) {
	m, n := len(a), len(b)
	stride := n + 1
	table := make([]int, (m+1)*stride)
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			switch {
			case a[i-1] == b[j-1]:
				table[i*stride+j] = table[(i-1)*stride+j-1] + 1
			case table[(i-1)*stride+j] >= table[i*stride+j-1]:
				table[i*stride+j] = table[(i-1)*stride+j]
			default:
				table[i*stride+j] = table[i*stride+j-1]
			}
		}
	}

	aKeep = make([]bool, m)
	bKeep = make([]bool, n)
	for i, j := m, n; i > 0 && j > 0; {
		switch {
		case a[i-1] == b[j-1]:
			aKeep[i-1], bKeep[j-1] = true, true
			i--
			j--
		case table[(i-1)*stride+j] >= table[i*stride+j-1]:
			i--
		default:
			j--
		}
	}
	return aKeep, bKeep
}

// merge folds tokens into segments, coalescing neighbors with the same
// changed status.
func merge(toks []string, keep []bool) []diffedit.Segment {
	var segs []diffedit.Segment
	var b strings.Builder
	cur := false
	have := false
	for i, t := range toks {
		changed := !keep[i]
		if have && changed != cur {
			segs = append(segs, diffedit.Segment{Text: b.String(), Changed: cur})
			b.Reset()
		}
		b.WriteString(t)
		cur = changed
		have = true
	}
	if have {
		segs = append(segs, diffedit.Segment{Text: b.String(), Changed: cur})
	}
	return segs
}
