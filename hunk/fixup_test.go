package hunk_test

import (
	"testing"

	"github.com/mrtimdog/diffedit/hunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixup_UnifiedCounts(t *testing.T) {
	t.Parallel()

	src := "--- a.txt\n+++ b.txt\n@@ -1,9 +1,9 @@\n foo\n-bar\n+baz\n qux\n"

	out, err := hunk.Fixup(src, 0, len(src))

	require.NoError(t, err)
	assert.Equal(t, "--- a.txt\n+++ b.txt\n@@ -1,3 +1,3 @@\n foo\n-bar\n+baz\n qux\n", out)
}

func TestFixup_PreservesHeaderTail(t *testing.T) {
	t.Parallel()

	src := "@@ -1,9 +1,9 @@ func main()\n foo\n+bar\n"

	out, err := hunk.Fixup(src, 0, len(src))

	require.NoError(t, err)
	assert.Equal(t, "@@ -1,1 +1,2 @@ func main()\n foo\n+bar\n", out)
}

func TestFixup_ContextCounts(t *testing.T) {
	t.Parallel()

	src := `***************
*** 1,9 ****
  a
- b
  c
--- 1,9 ----
  a
+ d
  c
`
	want := `***************
*** 1,3 ****
  a
- b
  c
--- 1,3 ----
  a
+ d
  c
`

	out, err := hunk.Fixup(src, 0, len(src))

	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestFixup_GitSignatureNotARemoval(t *testing.T) {
	t.Parallel()

	src := "@@ -1,3 +1,3 @@\n a\n-- \n b\n"

	out, err := hunk.Fixup(src, 0, len(src))

	require.NoError(t, err)
	assert.Equal(t, "@@ -1,2 +1,2 @@\n a\n-- \n b\n", out)
}

func TestFixup_CorrectHeaderUnchanged(t *testing.T) {
	t.Parallel()

	src := "@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n"

	out, err := hunk.Fixup(src, 0, len(src))

	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestFixup_Idempotent(t *testing.T) {
	t.Parallel()

	src := "@@ -1,9 +2,9 @@\n a\n-b\n+c\n+d\n e\n"

	once, err := hunk.Fixup(src, 0, len(src))
	require.NoError(t, err)
	twice, err := hunk.Fixup(once, 0, len(once))
	require.NoError(t, err)

	assert.Equal(t, "@@ -1,3 +2,4 @@\n a\n-b\n+c\n+d\n e\n", once)
	assert.Equal(t, once, twice)
}
