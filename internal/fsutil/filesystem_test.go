package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_RoundTrip(t *testing.T) {
	fsys := OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "plots", "run")

	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	path := filepath.Join(dir, "lc.txt")
	w, err := fsys.Create(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("0 20.0 g\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := fsys.Open(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "0 20.0 g\n", string(data))

	_, err = fsys.Open(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMemoryFileSystem_CreateAndOpen(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/a.csv")
	require.NoError(t, err)
	_, _ = w.Write([]byte("hello"))

	// Content is only published on Close.
	data, ok := mfs.Bytes("/out/a.csv")
	require.True(t, ok)
	assert.Empty(t, data)

	require.NoError(t, w.Close())
	data, _ = mfs.Bytes("/out/a.csv")
	assert.Equal(t, "hello", string(data))

	f, err := mfs.Open("/out/a.csv")
	require.NoError(t, err)
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
	assert.Equal(t, "a.csv", info.Name())
}

func TestMemoryFileSystem_OpenMissing(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_, err := mfs.Open("/nope.dat")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystem_MkdirAllAndFiles(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/a/b/c", 0o755))
	assert.True(t, mfs.Exists("/a"))
	assert.True(t, mfs.Exists("/a/b"))
	assert.False(t, mfs.Exists("/x"))

	mfs.AddFile("/b.txt", []byte("b"))
	mfs.AddFile("/a.txt", []byte("a"))
	assert.Equal(t, []string{"/a.txt", "/b.txt"}, mfs.Files())
}
