package convert_test

import (
	"testing"

	"github.com/mrtimdog/diffedit/convert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverse_Unified(t *testing.T) {
	t.Parallel()

	src := "--- a.txt\n+++ b.txt\n@@ -1,2 +3,2 @@\n-foo\n+bar\n baz\n"

	out, err := convert.Reverse(src)

	require.NoError(t, err)
	assert.Equal(t, "--- b.txt\n+++ a.txt\n@@ -3,2 +1,2 @@\n-bar\n+foo\n baz\n", out)
}

func TestReverse_UnifiedKeepsHeaderTail(t *testing.T) {
	t.Parallel()

	src := "@@ -1,2 +1,3 @@ func main()\n foo\n+new\n"

	out, err := convert.Reverse(src)

	require.NoError(t, err)
	assert.Equal(t, "@@ -1,3 +1,2 @@ func main()\n foo\n-new\n", out)
}

func TestReverse_Context(t *testing.T) {
	t.Parallel()

	src := `*** a.txt
--- b.txt
***************
*** 1,3 ****
  a
- b
  c
--- 1,3 ----
  a
+ d
  c
`
	want := `*** b.txt
--- a.txt
***************
*** 1,3 ****
  a
- d
  c
--- 1,3 ----
  a
+ b
  c
`

	out, err := convert.Reverse(src)

	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestReverse_Normal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "add becomes delete",
			src:  "5a6,7\n> x\n> y\n",
			want: "6,7d5\n< x\n< y\n",
		},
		{
			name: "delete becomes add",
			src:  "1,2d0\n< a\n< b\n",
			want: "0a1,2\n> a\n> b\n",
		},
		{
			name: "change swaps halves",
			src:  "2c2\n< old\n---\n> new\n",
			want: "2c2\n< new\n---\n> old\n",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := convert.Reverse(tt.src)

			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestReverse_TwiceRestoresDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"unified", "--- a.txt\n+++ b.txt\n@@ -1,2 +3,2 @@\n-foo\n+bar\n baz\n"},
		{"normal", "5a6,7\n> x\n> y\n"},
		{
			"context",
			"*** a.txt\n--- b.txt\n***************\n*** 1,3 ****\n  a\n- b\n  c\n--- 1,3 ----\n  a\n+ d\n  c\n",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			once, err := convert.Reverse(tt.src)
			require.NoError(t, err)
			twice, err := convert.Reverse(once)
			require.NoError(t, err)

			assert.Equal(t, tt.src, twice)
		})
	}
}

func TestReverse_NoNewlineMarkerTravelsWithItsRun(t *testing.T) {
	t.Parallel()

	src := "@@ -1 +1 @@\n-old\n+new\n\\ No newline at end of file\n"

	out, err := convert.Reverse(src)

	require.NoError(t, err)
	assert.Equal(t, "@@ -1 +1 @@\n-new\n\\ No newline at end of file\n+old\n", out)
}
