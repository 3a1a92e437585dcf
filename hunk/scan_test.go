package hunk_test

import (
	"testing"

	"github.com/mrtimdog/diffedit"
	"github.com/mrtimdog/diffedit/hunk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_GitDiff(t *testing.T) {
	t.Parallel()

	src := `diff --git a/main.go b/main.go
index 1234567..89abcde 100644
--- a/main.go
+++ b/main.go
@@ -1,2 +1,2 @@
-foo
+bar
 baz
`

	doc, err := hunk.Scan(src)

	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	sec := doc.Sections[0]
	assert.Equal(t, "main.go", sec.OldName)
	assert.Equal(t, "main.go", sec.NewName)
	assert.Equal(t, "main.go", sec.TargetPath())
	require.Len(t, sec.Hunks, 1)
	assert.Equal(t, diffedit.Range{Start: 1, Count: 2}, sec.Hunks[0].Header.Old)
	assert.Equal(t, diffedit.Span{Start: 0, End: len(src)}, sec.Span)
}

func TestScan_MultipleFiles(t *testing.T) {
	t.Parallel()

	src := `diff --git a/one.go b/one.go
--- a/one.go
+++ b/one.go
@@ -1 +1 @@
-a
+b
diff --git a/two.go b/two.go
--- a/two.go
+++ b/two.go
@@ -5 +5 @@
-x
+y
`

	doc, err := hunk.Scan(src)

	require.NoError(t, err)
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "one.go", doc.Sections[0].TargetPath())
	assert.Equal(t, "two.go", doc.Sections[1].TargetPath())
	assert.Len(t, doc.Hunks(), 2)
}

func TestScan_PlainUnifiedWithoutGitHeaders(t *testing.T) {
	t.Parallel()

	doc, err := hunk.Scan(unifiedDoc)

	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	sec := doc.Sections[0]
	assert.Equal(t, "a.txt", sec.OldName)
	assert.Equal(t, "b.txt", sec.NewName)
	assert.Len(t, sec.Hunks, 2)
}

func TestScan_NewAndDeletedFiles(t *testing.T) {
	t.Parallel()

	t.Run("new file", func(t *testing.T) {
		t.Parallel()

		src := "--- /dev/null\n+++ b/new.txt\n@@ -0,0 +1 @@\n+hi\n"

		doc, err := hunk.Scan(src)

		require.NoError(t, err)
		require.Len(t, doc.Sections, 1)
		assert.True(t, doc.Sections[0].IsNew)
		assert.Equal(t, "new.txt", doc.Sections[0].TargetPath())
	})

	t.Run("deleted file", func(t *testing.T) {
		t.Parallel()

		src := "--- a/old.txt\n+++ /dev/null\n@@ -1 +0,0 @@\n-bye\n"

		doc, err := hunk.Scan(src)

		require.NoError(t, err)
		require.Len(t, doc.Sections, 1)
		assert.True(t, doc.Sections[0].IsDelete)
		assert.Equal(t, "old.txt", doc.Sections[0].TargetPath())
	})

	t.Run("new file mode line", func(t *testing.T) {
		t.Parallel()

		src := "diff --git a/x.sh b/x.sh\nnew file mode 100755\n--- /dev/null\n+++ b/x.sh\n@@ -0,0 +1 @@\n+echo hi\n"

		doc, err := hunk.Scan(src)

		require.NoError(t, err)
		require.Len(t, doc.Sections, 1)
		assert.True(t, doc.Sections[0].IsNew)
		assert.Equal(t, uint32(0o100755), doc.Sections[0].NewMode)
	})
}

func TestScan_BinaryFile(t *testing.T) {
	t.Parallel()

	src := "diff --git a/img.png b/img.png\nBinary files a/img.png and b/img.png differ\n"

	doc, err := hunk.Scan(src)

	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	assert.True(t, doc.Sections[0].IsBinary)
	assert.Empty(t, doc.Sections[0].Hunks)
}

func TestScan_ContextStyle(t *testing.T) {
	t.Parallel()

	doc, err := hunk.Scan(contextDoc)

	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	sec := doc.Sections[0]
	assert.Equal(t, "a.txt", sec.OldName)
	assert.Equal(t, "b.txt", sec.NewName, "the --- line names the new file in context style")
	require.Len(t, sec.Hunks, 1)
	assert.Equal(t, diffedit.Context, sec.Hunks[0].Header.Style)
}

func TestScan_NormalStyle(t *testing.T) {
	t.Parallel()

	src := "5c5\n< old line\n---\n> new line\n"

	doc, err := hunk.Scan(src)

	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	require.Len(t, doc.Sections[0].Hunks, 1)
	h := doc.Sections[0].Hunks[0]
	assert.Equal(t, diffedit.Normal, h.Header.Style)
	assert.Equal(t, diffedit.Range{Start: 5, Count: 1}, h.Header.Old)
}

func TestStats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		src            string
		added, removed int
	}{
		{
			// A 1-for-1 substitution counts on both sides.
			name:    "unified",
			src:     unifiedDoc,
			added:   2,
			removed: 1,
		},
		{
			name:    "context",
			src:     contextDoc,
			added:   1,
			removed: 1,
		},
		{
			// Changed-bang lines count per half.
			name: "context bang halves",
			src: "***************\n*** 1,2 ****\n! old\n  x\n" +
				"--- 1,3 ----\n! new1\n! new2\n  x\n",
			added:   2,
			removed: 1,
		},
		{
			name:    "normal",
			src:     "2c2\n< b\n---\n> d\n",
			added:   1,
			removed: 1,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := hunk.Scan(tt.src)
			require.NoError(t, err)
			require.Len(t, doc.Sections, 1)

			added, removed := hunk.Stats(&doc.Sections[0])

			assert.Equal(t, tt.added, added, "added")
			assert.Equal(t, tt.removed, removed, "removed")
		})
	}
}
