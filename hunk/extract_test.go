package hunk_test

import (
	"strings"
	"testing"

	"github.com/mrtimdog/diffedit/hunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSide_Unified(t *testing.T) {
	t.Parallel()

	h, err := hunk.Parse("@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n", 0)
	require.NoError(t, err)

	old, err := hunk.ExtractSide(h, false)
	require.NoError(t, err)
	new, err := hunk.ExtractSide(h, true)
	require.NoError(t, err)

	assert.Equal(t, "foo\nbaz\n", old.Text)
	assert.Equal(t, "bar\nbaz\n", new.Text)
}

func TestExtractSide_MapOffset(t *testing.T) {
	t.Parallel()

	h, err := hunk.Parse("@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n", 0)
	require.NoError(t, err)
	old, err := hunk.ExtractSide(h, false)
	require.NoError(t, err)
	new, err := hunk.ExtractSide(h, true)
	require.NoError(t, err)

	fooContent := strings.Index(h.Body, "-foo") + 1
	bazContent := strings.Index(h.Body, " baz") + 1

	assert.Equal(t, 0, old.MapOffset(fooContent))
	assert.Equal(t, len("foo\n"), old.MapOffset(bazContent))
	assert.Equal(t, len("bar\n"), new.MapOffset(bazContent))
	// Offsets past the last kept line clamp to the text length.
	assert.Equal(t, len(old.Text), old.MapOffset(len(h.Body)+10))
}

func TestExtractSide_NoNewlineMarker(t *testing.T) {
	t.Parallel()

	src := "@@ -1 +1 @@\n-old\n\\ No newline at end of file\n+new\n"
	h, err := hunk.Parse(src, 0)
	require.NoError(t, err)

	old, err := hunk.ExtractSide(h, false)
	require.NoError(t, err)
	new, err := hunk.ExtractSide(h, true)
	require.NoError(t, err)

	assert.Equal(t, "old", old.Text, "marker trims the newline of the removed line")
	assert.Equal(t, "new\n", new.Text)
}

func TestExtractSide_Context(t *testing.T) {
	t.Parallel()

	start := strings.Index(contextDoc, "***************")
	h, err := hunk.Parse(contextDoc, start)
	require.NoError(t, err)

	old, err := hunk.ExtractSide(h, false)
	require.NoError(t, err)
	new, err := hunk.ExtractSide(h, true)
	require.NoError(t, err)

	assert.Equal(t, "a\nb\nc\n", old.Text)
	assert.Equal(t, "a\nd\nc\n", new.Text)
}

func TestExtractSide_ContextOmittedHalf(t *testing.T) {
	t.Parallel()

	src := "***************\n*** 1,2 ****\n--- 1,3 ----\n  a\n+ b\n  c\n"
	h, err := hunk.Parse(src, 0)
	require.NoError(t, err)

	old, err := hunk.ExtractSide(h, false)
	require.NoError(t, err)
	new, err := hunk.ExtractSide(h, true)
	require.NoError(t, err)

	assert.Equal(t, "a\nc\n", old.Text, "omitted half rebuilt from the other half's context lines")
	assert.Equal(t, "a\nb\nc\n", new.Text)
}

func TestExtractSide_Normal(t *testing.T) {
	t.Parallel()

	h, err := hunk.Parse("2c2\n< b\n---\n> d\n", 0)
	require.NoError(t, err)

	old, err := hunk.ExtractSide(h, false)
	require.NoError(t, err)
	new, err := hunk.ExtractSide(h, true)
	require.NoError(t, err)

	assert.Equal(t, "b\n", old.Text)
	assert.Equal(t, "d\n", new.Text)
}
