package core_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmgilman/hdfsh/fs/core"
)

func TestFSType_String(t *testing.T) {
	tests := []struct {
		fsType core.FSType
		want   string
	}{
		{core.FSTypeUnknown, "unknown"},
		{core.FSTypeLocal, "local"},
		{core.FSTypeMemory, "memory"},
		{core.FSTypeWebHDFS, "webhdfs"},
		{core.FSTypeObjectStore, "objstore"},
		{core.FSType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fsType.String())
		})
	}
}

func TestKindFromMode(t *testing.T) {
	tests := []struct {
		name string
		mode fs.FileMode
		want core.Kind
	}{
		{"regular file", 0o644, core.KindFile},
		{"directory", fs.ModeDir | 0o755, core.KindDirectory},
		{"symlink", fs.ModeSymlink | 0o777, core.KindLink},
		{"named pipe", fs.ModeNamedPipe, core.KindOther},
		{"socket", fs.ModeSocket, core.KindOther},
		{"device", fs.ModeDevice, core.KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.KindFromMode(tt.mode)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "directory", core.KindDirectory.String())
	assert.Equal(t, "link", core.KindLink.String())
	assert.Equal(t, "file", core.KindFile.String())
	assert.Equal(t, "other", core.KindOther.String())
}

func TestEntry_IsDir(t *testing.T) {
	assert.True(t, core.Entry{Kind: core.KindDirectory}.IsDir())
	assert.False(t, core.Entry{Kind: core.KindLink}.IsDir())
}

func TestReexportedErrorsMatchStdlib(t *testing.T) {
	assert.True(t, errors.Is(core.ErrNotExist, fs.ErrNotExist))
	assert.True(t, errors.Is(core.ErrExist, fs.ErrExist))
	assert.True(t, errors.Is(core.ErrPermission, fs.ErrPermission))
	assert.True(t, errors.Is(core.ErrClosed, fs.ErrClosed))
	assert.NotNil(t, core.ErrUnsupported)
}
