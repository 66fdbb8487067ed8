package writeback

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l10nbox/l10nbox/flatjson"
	"github.com/l10nbox/l10nbox/resource"
)

func TestWriteFileCreatesParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "de.lproj", "Localizable.strings")

	require.NoError(t, WriteFile(path, []byte("\"a\" = \"1\";\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"a\" = \"1\";\n", string(data))
}

func TestWriteFileReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en.json")

	require.NoError(t, os.WriteFile(path, []byte("old"), 0644))
	require.NoError(t, WriteFile(path, []byte("new")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestWriteFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en.json")

	require.NoError(t, WriteFile(path, []byte("{}\n")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestWriteFileRenameFailureLeavesDestination(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en.json")

	// Occupy the destination with a non-empty directory: the temp file
	// is written and synced, but the final rename onto it fails.
	inner := filepath.Join(path, "keep.json")
	require.NoError(t, os.MkdirAll(path, 0755))
	require.NoError(t, os.WriteFile(inner, []byte("untouched"), 0644))

	err := WriteFile(path, []byte("new"))
	require.Error(t, err)

	// Destination unmodified, temp file cleaned up.
	data, err := os.ReadFile(inner)
	require.NoError(t, err)
	assert.Equal(t, "untouched", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func TestWriteFilePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en.json")

	require.NoError(t, WriteFile(path, []byte("{}\n")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestCommitThroughAdapter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "de.json")

	m := resource.NewModel("de", resource.RoleDerived)
	m.Append(resource.Entry{Key: "greeting", Value: "Hallo"})

	require.NoError(t, Commit(path, m, flatjson.New()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"@@locale": "de"`)
	assert.Contains(t, string(data), `"greeting": "Hallo"`)
}

func TestChanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "en.json")

	assert.True(t, Changed(path, []byte("x")), "missing file always counts as changed")

	require.NoError(t, os.WriteFile(path, []byte("same"), 0644))
	assert.False(t, Changed(path, []byte("same")))
	assert.True(t, Changed(path, []byte("different")))
}
