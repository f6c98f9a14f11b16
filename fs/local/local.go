package local

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
)

// FS adapts a billy.Filesystem to core.LocalFS.
type FS struct {
	bfs    billy.Filesystem
	fsType core.FSType
	abs    func(string) (string, error)
}

// NewOS returns the disk of the current machine, rooted at "/".
func NewOS() *FS {
	return &FS{
		bfs:    osfs.New("/"),
		fsType: core.FSTypeLocal,
		abs:    filepath.Abs,
	}
}

// NewMemory returns an empty in-memory filesystem. Relative paths are
// resolved against the root.
func NewMemory() *FS {
	return &FS{
		bfs:    memfs.New(),
		fsType: core.FSTypeMemory,
		abs: func(p string) (string, error) {
			if filepath.IsAbs(p) {
				return filepath.Clean(p), nil
			}
			return filepath.Join(string(filepath.Separator), p), nil
		},
	}
}

// Unwrap returns the underlying billy.Filesystem, mainly so tests can seed
// content with billy's util helpers.
func (l *FS) Unwrap() billy.Filesystem {
	return l.bfs
}

// Type returns the underlying filesystem type.
func (l *FS) Type() core.FSType {
	return l.fsType
}

// normalize converts paths to use forward slashes consistently.
func normalize(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

// Stat returns file info for p, following symbolic links.
func (l *FS) Stat(p string) (fs.FileInfo, error) {
	info, err := l.bfs.Stat(normalize(p))
	if err != nil {
		return nil, translate(err, "stat", p)
	}
	return info, nil
}

// Exists reports whether p exists.
func (l *FS) Exists(p string) (bool, error) {
	_, err := l.bfs.Stat(normalize(p))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, translate(err, "stat", p)
}

// IsDir reports whether p is a directory.
func (l *FS) IsDir(p string) (bool, error) {
	info, err := l.bfs.Stat(normalize(p))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, translate(err, "stat", p)
	}
	return info.IsDir(), nil
}

// List returns the children of dir sorted by name. Symbolic links are
// classified by what they point to; dangling links are KindOther.
func (l *FS) List(dir string) ([]core.Entry, error) {
	infos, err := l.bfs.ReadDir(normalize(dir))
	if err != nil {
		return nil, translate(err, "list", dir)
	}

	entries := make([]core.Entry, 0, len(infos))
	for _, info := range infos {
		full := filepath.Join(dir, info.Name())
		kind := core.KindFromMode(info.Mode())
		if kind == core.KindLink {
			kind = core.KindOther
			if target, err := l.bfs.Stat(normalize(full)); err == nil {
				info = target
				kind = core.KindFromMode(target.Mode())
			}
		}
		entries = append(entries, core.Entry{
			Name:    filepath.Base(full),
			Path:    full,
			Kind:    kind,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Open opens p for reading.
func (l *FS) Open(p string) (io.ReadCloser, error) {
	f, err := l.bfs.Open(normalize(p))
	if err != nil {
		return nil, translate(err, "open", p)
	}
	return &file{file: f, name: p}, nil
}

// CreateExclusive creates p for writing and fails if it already exists.
func (l *FS) CreateExclusive(p string) (io.WriteCloser, error) {
	f, err := l.bfs.OpenFile(normalize(p), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, translate(err, "create", p)
	}
	return &file{file: f, name: p}, nil
}

// Abs makes p absolute.
func (l *FS) Abs(p string) (string, error) {
	a, err := l.abs(p)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeInvalidInput, "cannot make %s absolute", p)
	}
	return a, nil
}

func translate(err error, op, p string) error {
	code := errors.CodeOf(err)
	if code == errors.CodeUnknown {
		code = errors.CodeIO
	}
	return errors.WithContextMap(errors.Wrapf(err, code, "%s %s", op, p), map[string]interface{}{
		"op":   op,
		"path": p,
	})
}

// Compile-time interface checks.
var _ core.LocalFS = (*FS)(nil)
