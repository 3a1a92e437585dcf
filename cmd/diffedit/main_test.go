package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The root command and its flag state are shared; these tests run serially.

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestConvertCommand(t *testing.T) {
	diff := writeTemp(t, "change.diff", "--- a.txt\n+++ b.txt\n@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n")

	out := runCommand(t, "convert", "-t", "context", diff)

	assert.Contains(t, out, "***************\n")
	assert.Contains(t, out, "*** 1,2 ****\n")
	assert.Contains(t, out, "! bar\n")
}

func TestReverseCommandInPlace(t *testing.T) {
	diff := writeTemp(t, "change.diff", "--- a.txt\n+++ b.txt\n@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n")

	runCommand(t, "reverse", "-i", diff)

	b, err := os.ReadFile(diff)
	require.NoError(t, err)
	assert.Equal(t, "--- b.txt\n+++ a.txt\n@@ -1,2 +1,2 @@\n-bar\n+foo\n baz\n", string(b))
}

func TestFixupCommand(t *testing.T) {
	diff := writeTemp(t, "edited.diff", "@@ -1,9 +1,9 @@\n foo\n+bar\n")

	out := runCommand(t, "fixup", diff)

	assert.Equal(t, "@@ -1,1 +1,2 @@\n foo\n+bar\n", out)
}

func TestApplyCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.txt"), []byte("foo\nbaz\n"), 0o644))
	diff := writeTemp(t, "change.diff", "--- a/f.txt\n+++ b/f.txt\n@@ -1,2 +1,2 @@\n-foo\n+bar\n baz\n")

	runCommand(t, "apply", "-C", dir, diff)

	b, err := os.ReadFile(filepath.Join(dir, "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bar\nbaz\n", string(b))
}
