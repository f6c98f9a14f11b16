package local

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
)

func seed(t *testing.T, l *FS) {
	t.Helper()
	bfs := l.Unwrap()
	require.NoError(t, bfs.MkdirAll("/home/alice/docs", 0o755))
	require.NoError(t, util.WriteFile(bfs, "/home/alice/notes.txt", []byte("hello"), 0o644))
	require.NoError(t, bfs.Symlink("/home/alice/docs", "/home/alice/docs-link"))
	require.NoError(t, bfs.Symlink("/home/alice/missing", "/home/alice/dangling"))
}

func TestMemory_ExistsAndIsDir(t *testing.T) {
	l := NewMemory()
	seed(t, l)

	tests := []struct {
		path       string
		wantExists bool
		wantDir    bool
	}{
		{"/home/alice", true, true},
		{"/home/alice/docs", true, true},
		{"/home/alice/notes.txt", true, false},
		{"/home/alice/docs-link", true, true},
		{"/home/alice/nope", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			exists, err := l.Exists(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantExists, exists)

			isDir, err := l.IsDir(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDir, isDir)
		})
	}
}

func TestMemory_List(t *testing.T) {
	l := NewMemory()
	seed(t, l)

	entries, err := l.List("/home/alice")
	require.NoError(t, err)

	kinds := make(map[string]core.Kind, len(entries))
	var names []string
	for _, e := range entries {
		kinds[e.Name] = e.Kind
		names = append(names, e.Name)
	}

	assert.Equal(t, []string{"dangling", "docs", "docs-link", "notes.txt"}, names)
	assert.Equal(t, core.KindDirectory, kinds["docs"])
	assert.Equal(t, core.KindDirectory, kinds["docs-link"])
	assert.Equal(t, core.KindFile, kinds["notes.txt"])
	assert.Equal(t, core.KindOther, kinds["dangling"])
}

func TestMemory_ListMissing(t *testing.T) {
	l := NewMemory()
	_, err := l.List("/nowhere")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestMemory_OpenAndCreateExclusive(t *testing.T) {
	l := NewMemory()
	seed(t, l)

	r, err := l.Open("/home/alice/notes.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "hello", string(data))

	w, err := l.CreateExclusive("/home/alice/out.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("world"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	got, err := util.ReadFile(l.Unwrap(), "/home/alice/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "world", string(got))

	_, err = l.CreateExclusive("/home/alice/out.txt")
	require.Error(t, err)
	assert.Equal(t, errors.CodeAlreadyExists, errors.CodeOf(err))
}

func TestMemory_OpenMissing(t *testing.T) {
	l := NewMemory()
	_, err := l.Open("/missing.txt")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.CodeOf(err))
}

func TestMemory_Abs(t *testing.T) {
	l := NewMemory()

	got, err := l.Abs("docs")
	require.NoError(t, err)
	assert.Equal(t, string(filepath.Separator)+"docs", got)

	got, err = l.Abs("/a/../b")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/b"), got)
}

func TestOS_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("abc"), 0o644))

	l := NewOS()
	assert.Equal(t, core.FSTypeLocal, l.Type())

	isDir, err := l.IsDir(filepath.Join(dir, "sub"))
	require.NoError(t, err)
	assert.True(t, isDir)

	entries, err := l.List(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, core.KindFile, entries[0].Kind)
	assert.Equal(t, int64(3), entries[0].Size)
	assert.Equal(t, "sub", entries[1].Name)
	assert.Equal(t, core.KindDirectory, entries[1].Kind)

	w, err := l.CreateExclusive(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	_, err = w.Write([]byte("xyz"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "xyz", string(data))
}
