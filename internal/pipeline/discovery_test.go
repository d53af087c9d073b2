package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	return p
}

func TestDiscoverImageFilesExplicitFile(t *testing.T) {
	dir := t.TempDir()
	p := writeTempFile(t, dir, "a.png")

	files, err := discoverImageFiles([]string{p}, false, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{p}, files)
}

func TestDiscoverImageFilesDirectoryNonRecursive(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.png")
	writeTempFile(t, dir, "b.txt")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o750))
	writeTempFile(t, sub, "c.png")

	files, err := discoverImageFiles([]string{dir}, false, nil, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestDiscoverImageFilesDirectoryRecursive(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.png")
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o750))
	writeTempFile(t, sub, "c.jpg")

	files, err := discoverImageFiles([]string{dir}, true, nil, nil)
	require.NoError(t, err)
	require.Len(t, files, 2)
}

func TestDiscoverImageFilesExcludePattern(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "a.png")
	writeTempFile(t, dir, "skip_me.png")

	files, err := discoverImageFiles([]string{dir}, false, nil, []string{"skip_*"})
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestDiscoverImageFilesIncludePattern(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "keep.png")
	writeTempFile(t, dir, "drop.bmp")

	files, err := discoverImageFiles([]string{dir}, false, []string{"keep*"}, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestDiscoverImageFilesMissingPath(t *testing.T) {
	_, err := discoverImageFiles([]string{"/nonexistent/path"}, false, nil, nil)
	require.Error(t, err)
}
