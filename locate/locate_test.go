package locate_test

import (
	"testing"

	"github.com/mrtimdog/diffedit"
	"github.com/mrtimdog/diffedit/hunk"
	"github.com/mrtimdog/diffedit/locate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *diffedit.Hunk {
	t.Helper()
	h, err := hunk.Parse(src, 0)
	require.NoError(t, err)
	return h
}

func TestLocate_ExactAtDeclaredLine(t *testing.T) {
	t.Parallel()

	l := locate.New()
	h := mustParse(t, "@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n")

	loc, err := l.Locate(h, "t", "foo\nbaz\n", true, false)

	require.NoError(t, err)
	assert.Equal(t, diffedit.Span{Start: 0, End: 8}, loc.Span)
	assert.Equal(t, 0, loc.LineOffset)
	assert.False(t, loc.Switched)
	assert.False(t, loc.Fuzzy)
	assert.Equal(t, "foo\nbaz\n", loc.OldText)
	assert.Equal(t, "bar\nbaz\n", loc.NewText)
}

func TestLocate_NewSideMeansSwitched(t *testing.T) {
	t.Parallel()

	l := locate.New()
	h := mustParse(t, "@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n")

	loc, err := l.Locate(h, "t", "bar\nbaz\n", true, false)

	require.NoError(t, err)
	assert.True(t, loc.Switched)
	assert.Equal(t, diffedit.Span{Start: 0, End: 8}, loc.Span)
}

func TestLocate_FuzzyWhitespace(t *testing.T) {
	t.Parallel()

	l := locate.New()
	h := mustParse(t, "@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n")

	loc, err := l.Locate(h, "t", "foo   \nbaz\n", true, false)

	require.NoError(t, err)
	assert.True(t, loc.Fuzzy)
	assert.False(t, loc.Switched)
	assert.Equal(t, 0, loc.LineOffset)
	assert.Equal(t, diffedit.Span{Start: 0, End: len("foo   \nbaz\n")}, loc.Span)
}

func TestLocate_ClosestMatchWins(t *testing.T) {
	t.Parallel()

	l := locate.New()
	h := mustParse(t, "@@ -6,2 +6,2 @@\n-foo\n+bar\n baz\n")
	text := "foo\nbaz\nx\nx\nx\nfoo\nbaz\n"

	loc, err := l.Locate(h, "t", text, true, false)

	require.NoError(t, err)
	assert.Equal(t, diffedit.Span{Start: 14, End: 22}, loc.Span, "the block at line 6 beats the one at line 1")
	assert.Equal(t, 0, loc.LineOffset)
}

func TestLocate_BackwardSearchReportsNegativeOffset(t *testing.T) {
	t.Parallel()

	l := locate.New()
	h := mustParse(t, "@@ -5,2 +5,2 @@\n-foo\n+bar\n baz\n")
	text := "foo\nbaz\nx\n"

	loc, err := l.Locate(h, "t", text, true, false)

	require.NoError(t, err)
	assert.Equal(t, diffedit.Span{Start: 0, End: 8}, loc.Span)
	assert.Equal(t, -3, loc.LineOffset)
}

func TestLocate_BothSidesPresent(t *testing.T) {
	t.Parallel()

	l := locate.New()
	h := mustParse(t, "@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n")
	text := "foo\nbaz\nbar\nbaz\n"

	t.Run("forward prefers the new side", func(t *testing.T) {
		t.Parallel()

		loc, err := l.Locate(h, "t", text, true, false)

		require.NoError(t, err)
		assert.True(t, loc.Switched)
		assert.Equal(t, diffedit.Span{Start: 8, End: 16}, loc.Span)
	})

	t.Run("reverse prefers the old side", func(t *testing.T) {
		t.Parallel()

		loc, err := l.Locate(h, "t", text, false, true)

		require.NoError(t, err)
		assert.False(t, loc.Switched)
		assert.Equal(t, diffedit.Span{Start: 0, End: 8}, loc.Span)
	})
}

func TestLocate_NotFound(t *testing.T) {
	t.Parallel()

	l := locate.New()
	h := mustParse(t, "@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n")

	_, err := l.Locate(h, "t", "completely different\ncontent\n", true, false)

	assert.ErrorIs(t, err, diffedit.ErrNotFound)
}

func TestLocate_Idempotent(t *testing.T) {
	t.Parallel()

	l := locate.New()
	h := mustParse(t, "@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n")
	text := "x\nfoo\nbaz\n"

	first, err := l.Locate(h, "t", text, true, false)
	require.NoError(t, err)
	second, err := l.Locate(h, "t", text, true, false)
	require.NoError(t, err)

	assert.Equal(t, first, second, "locating is read-only; repeated lookups agree")
}

func TestLocate_FuzzyReusesCachedPattern(t *testing.T) {
	t.Parallel()

	l := locate.New()
	h := mustParse(t, "@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n")

	for i := 0; i < 3; i++ {
		loc, err := l.Locate(h, "t", "foo\t\nbaz\n", true, false)
		require.NoError(t, err)
		assert.True(t, loc.Fuzzy)
	}
}
