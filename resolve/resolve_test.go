package resolve

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/local"
	"github.com/jmgilman/hdfsh/fs/memory"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		current, input, want string
	}{
		{"/user/alice", "reports", "/user/alice/reports"},
		{"/user/alice", "..", "/user"},
		{"/user/alice/reports", "../..", "/user"},
		{"/", "..", "/"},
		{"/user/alice", "/tmp", "/tmp"},
		{"/user/alice", "a/./b/../c", "/user/alice/a/c"},
		{"/user/alice", "/tmp/../etc", "/etc"},
	}

	for _, tt := range tests {
		t.Run(tt.current+"+"+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Join(tt.current, tt.input))
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	p, err = ParsePolicy("LAZY")
	require.NoError(t, err)
	assert.Equal(t, PolicyLazy, p)
	assert.Equal(t, "lazy", p.String())

	_, err = ParsePolicy("sometimes")
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func newRemote(t *testing.T) *memory.FS {
	t.Helper()
	m := memory.New(memory.WithHome("/user/alice"))
	bfs := m.Unwrap()
	require.NoError(t, bfs.MkdirAll("/user/alice/reports/2024", 0o755))
	require.NoError(t, bfs.MkdirAll("/tmp", 0o755))
	require.NoError(t, util.WriteFile(bfs, "/user/alice/notes.txt", []byte("n"), 0o644))
	return m
}

func TestRemote_Cd(t *testing.T) {
	ctx := context.Background()
	r := Remote{FS: newRemote(t)}

	tests := []struct {
		name     string
		current  string
		input    string
		want     string
		wantCode errors.ErrorCode
	}{
		{"empty keeps current", "/user/alice", "", "/user/alice", ""},
		{"relative child", "/user/alice", "reports", "/user/alice/reports", ""},
		{"nested relative", "/user/alice", "reports/2024", "/user/alice/reports/2024", ""},
		{"parent", "/user/alice/reports", "..", "/user/alice", ""},
		{"parent of root", "/", "..", "/", ""},
		{"absolute existing", "/user/alice", "/tmp", "/tmp", ""},
		{"relative file", "/user/alice", "notes.txt", "/user/alice", errors.CodeInvalidInput},
		{"relative missing", "/user/alice", "nope", "/user/alice", errors.CodeInvalidInput},
		{"absolute missing", "/user/alice", "/nope", "/user/alice", errors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Cd(ctx, tt.current, tt.input)
			assert.Equal(t, tt.want, got)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
		})
	}
}

func TestRemote_CdLazy(t *testing.T) {
	r := Remote{FS: newRemote(t), Policy: PolicyLazy}

	got, err := r.Cd(context.Background(), "/user/alice", "/nope/../nowhere")
	require.NoError(t, err)
	assert.Equal(t, "/nowhere", got)

	// Relative targets are still validated.
	got, err = r.Cd(context.Background(), "/user/alice", "nope")
	require.Error(t, err)
	assert.Equal(t, "/user/alice", got)
}

func TestRemote_Target(t *testing.T) {
	r := Remote{}

	got, err := r.Target("/user/alice", "reports/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "/user/alice/reports/a.txt", got)

	got, err = r.Target("/user/alice", "/data/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "/data/b.txt", got)

	_, err = r.Target("/user/alice", "  ")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func newLocal(t *testing.T) *local.FS {
	t.Helper()
	l := local.NewMemory()
	bfs := l.Unwrap()
	require.NoError(t, bfs.MkdirAll("/home/alice/docs", 0o755))
	require.NoError(t, bfs.MkdirAll("/srv", 0o755))
	require.NoError(t, util.WriteFile(bfs, "/home/alice/notes.txt", []byte("n"), 0o644))
	return l
}

func TestLocal_Cd(t *testing.T) {
	l := Local{FS: newLocal(t)}
	home := filepath.FromSlash("/home/alice")

	tests := []struct {
		name     string
		input    string
		want     string
		wantCode errors.ErrorCode
	}{
		{"empty keeps current", "", home, ""},
		{"relative child", "docs", filepath.Join(home, "docs"), ""},
		{"parent", "..", filepath.FromSlash("/home"), ""},
		{"absolute", filepath.FromSlash("/srv"), filepath.FromSlash("/srv"), ""},
		// Resolved relative to the process directory, which is "/" for memory.
		{"standalone", "srv", filepath.FromSlash("/srv"), ""},
		{"file", "notes.txt", home, errors.CodeInvalidInput},
		{"missing", "nope", home, errors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.Cd(home, tt.input)
			assert.Equal(t, tt.want, got)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err))
		})
	}
}

func TestLocal_CdDriveLetter(t *testing.T) {
	home := filepath.FromSlash("/home/alice")

	lazy := Local{FS: newLocal(t), Policy: PolicyLazy}
	got, err := lazy.Cd(home, "D:")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("D:"), got)

	strict := Local{FS: newLocal(t)}
	got, err = strict.Cd(home, "D:")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Equal(t, home, got)
}

func TestHasDriveLetter(t *testing.T) {
	assert.True(t, HasDriveLetter("C:"))
	assert.True(t, HasDriveLetter(`c:\Users`))
	assert.False(t, HasDriveLetter("C"))
	assert.False(t, HasDriveLetter(""))
	assert.False(t, HasDriveLetter("1:"))
	assert.False(t, HasDriveLetter("docs"))
}

func TestLocal_Target(t *testing.T) {
	l := Local{}
	home := filepath.FromSlash("/home/alice")

	got, err := l.Target(home, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "notes.txt"), got)

	got, err = l.Target(home, filepath.FromSlash("/srv/x.txt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/srv/x.txt"), got)

	_, err = l.Target(home, "")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
