package bundle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		full := filepath.Join(dir, n)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("content"), 0o644))
	}
}

func TestResolve_LiteralPaths(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "b.txt")

	files, err := Resolve(context.Background(), []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "b.txt"),
	}, Options{})

	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestResolve_GlobPattern(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "x.go", "y.go", "z.txt")

	files, err := Resolve(context.Background(), []string{filepath.Join(dir, "*.go")}, Options{})

	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestResolve_DirectoryWalksRecursively(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "top.txt", "nested/deep.txt")

	files, err := Resolve(context.Background(), []string{dir}, Options{})

	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestResolve_SkipsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt")

	files, err := Resolve(context.Background(), []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "does-not-exist.txt"),
	}, Options{})

	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestResolve_DeduplicatesRepeatedEntries(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt")
	path := filepath.Join(dir, "a.txt")

	files, err := Resolve(context.Background(), []string{path, path}, Options{})

	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestResolve_ShouldIgnoreFiltersFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "keep.txt", "skip.txt")

	files, err := Resolve(context.Background(), []string{dir}, Options{
		ShouldIgnore: func(path string) bool {
			return filepath.Base(path) == "skip.txt"
		},
	})

	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "keep.txt", filepath.Base(files[0]))
}

func TestResolve_MaxFilesBoundsDirectoryWalk(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.txt", "b.txt", "c.txt")

	files, err := Resolve(context.Background(), []string{dir}, Options{MaxFiles: 2})

	require.NoError(t, err)
	assert.LessOrEqual(t, len(files), 2)
}
