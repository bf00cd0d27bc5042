package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("MYSA_DATA_FILE", filepath.Join(dir, "data.json"))
	t.Setenv("MYSA_OPENER", "log")
	t.Setenv("MYSA_PRETTY_LOG", "false")
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, out)
	return out
}

func TestEntryLifecycle(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "list")
	assert.Contains(t, out, "No entries")

	out = mustRun(t, "add", "url", "https://example.com")
	assert.Contains(t, out, "added url https://example.com")
	mustRun(t, "add", "file", "/tmp/notes.txt", "--every", "5")

	out = mustRun(t, "list")
	assert.Contains(t, out, "https://example.com")
	assert.Contains(t, out, "/tmp/notes.txt")
	assert.Contains(t, out, "once")
	assert.Contains(t, out, "5m")

	mustRun(t, "edit", "#2", "/tmp/other.txt", "-e", "10")
	out = mustRun(t, "list")
	assert.Contains(t, out, "/tmp/other.txt")
	assert.Contains(t, out, "10m")
	assert.NotContains(t, out, "/tmp/notes.txt")

	out = mustRun(t, "rm", "#1", "#2")
	assert.Contains(t, out, "deleted 2 entries")

	out = mustRun(t, "list")
	assert.Contains(t, out, "No entries")
}

func TestAddRejectsInvalidInput(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "add", "url", "   ")
	assert.Error(t, err)

	_, err = run(t, "add", "file", "/tmp/x", "--every", "-3")
	assert.Error(t, err)

	out := mustRun(t, "list")
	assert.Contains(t, out, "No entries", "nothing is written on validation errors")
}

func TestRowOutOfRange(t *testing.T) {
	setupEnv(t)
	mustRun(t, "add", "url", "https://example.com")

	_, err := run(t, "rm", "#9")
	assert.Error(t, err)

	_, err = run(t, "rm", "#zero")
	assert.Error(t, err)

	_, err = run(t, "edit", "missing-id", "/tmp/x")
	assert.Error(t, err)
}

func TestOpenOnceReturns(t *testing.T) {
	setupEnv(t)
	mustRun(t, "add", "url", "https://example.com")
	mustRun(t, "add", "file", "/tmp/notes.txt")

	out := mustRun(t, "open")
	assert.Contains(t, out, "https://example.com (once)")
	assert.Contains(t, out, "/tmp/notes.txt (once)")

	out = mustRun(t, "open", "#2")
	assert.Contains(t, out, "/tmp/notes.txt")
	assert.NotContains(t, out, "https://example.com")
}

func TestOpenEmptyList(t *testing.T) {
	setupEnv(t)

	out := mustRun(t, "open")
	assert.Contains(t, out, "Nothing to open")
}

func TestImportSeed(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entries:
  - url: https://a.example
    every: 5
  - file: /tmp/b.pdf
  - {}
`), 0o644))

	out := mustRun(t, "import", path)
	assert.Contains(t, out, "imported 2 entries")

	out = mustRun(t, "list")
	assert.Contains(t, out, "https://a.example")
	assert.Contains(t, out, "/tmp/b.pdf")
}

func TestVersion(t *testing.T) {
	out := mustRun(t, "version")
	assert.Contains(t, out, "mysa dev")
}
