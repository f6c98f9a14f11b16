package memory

import (
	"context"
	"io"
	"os"
	"path"
	"sort"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
)

const (
	defaultHome        = "/user/hdfs"
	defaultReplication = 3
)

// FS is an in-memory core.RemoteFS. It keeps a replication factor per file
// and simulates the writer lease: after an append finishes, the file reports
// itself open for a configurable number of IsFileClosed polls.
type FS struct {
	mu sync.Mutex

	bfs                billy.Filesystem
	home               string
	defaultReplication int
	leaseHold          int
	replication        map[string]int
	open               map[string]int
	closed             bool
}

// Option configures an FS.
type Option func(*FS)

// WithHome sets the home directory, created on construction.
func WithHome(home string) Option {
	return func(m *FS) { m.home = path.Clean("/" + home) }
}

// WithDefaultReplication sets the replication factor applied to new files.
func WithDefaultReplication(n int) Option {
	return func(m *FS) { m.defaultReplication = n }
}

// WithLeaseHold keeps appended files open for n IsFileClosed polls.
func WithLeaseHold(n int) Option {
	return func(m *FS) { m.leaseHold = n }
}

// New returns an empty in-memory remote containing only the home directory.
func New(opts ...Option) *FS {
	m := &FS{
		bfs:                memfs.New(),
		home:               defaultHome,
		defaultReplication: defaultReplication,
		replication:        make(map[string]int),
		open:               make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	_ = m.bfs.MkdirAll(m.home, 0o755)
	return m
}

// Unwrap returns the backing billy.Filesystem so tests can seed content.
func (m *FS) Unwrap() billy.Filesystem {
	return m.bfs
}

// Type returns core.FSTypeMemory.
func (m *FS) Type() core.FSType {
	return core.FSTypeMemory
}

// Close marks the filesystem closed. Later calls fail with core.ErrClosed.
func (m *FS) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *FS) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.CodeTimeout, "request cancelled")
	}
	if m.closed {
		return errors.Wrap(core.ErrClosed, errors.CodeUnavailable, "filesystem is closed")
	}
	return nil
}

// HomeDirectory returns the configured home directory.
func (m *FS) HomeDirectory(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return "", err
	}
	return m.home, nil
}

// Exists reports whether p exists.
func (m *FS) Exists(ctx context.Context, p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return false, err
	}
	_, err := m.bfs.Lstat(clean(p))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, translate(err, "exists", p)
}

// IsDirectory reports whether p is a directory.
func (m *FS) IsDirectory(ctx context.Context, p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return false, err
	}
	info, err := m.bfs.Stat(clean(p))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, translate(err, "stat", p)
	}
	return info.IsDir(), nil
}

// Stat describes p.
func (m *FS) Stat(ctx context.Context, p string) (core.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return core.Entry{}, err
	}
	p = clean(p)
	info, err := m.bfs.Lstat(p)
	if err != nil {
		return core.Entry{}, translate(err, "stat", p)
	}
	return m.entry(p, info), nil
}

// List returns the children of dir sorted by name.
func (m *FS) List(ctx context.Context, dir string) ([]core.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	dir = clean(dir)
	info, err := m.bfs.Stat(dir)
	if err != nil {
		return nil, translate(err, "list", dir)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.CodeNotDirectory, "%s is not a directory", dir)
	}

	infos, err := m.bfs.ReadDir(dir)
	if err != nil {
		return nil, translate(err, "list", dir)
	}
	entries := make([]core.Entry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, m.entry(path.Join(dir, fi.Name()), fi))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (m *FS) entry(p string, info os.FileInfo) core.Entry {
	e := core.Entry{
		Name:    path.Base(p),
		Path:    p,
		Kind:    core.KindFromMode(info.Mode()),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if e.Kind == core.KindFile {
		e.Replication = m.replicationOf(p)
	}
	return e
}

func (m *FS) replicationOf(p string) int {
	if r, ok := m.replication[p]; ok {
		return r
	}
	return m.defaultReplication
}

// Open opens p for reading.
func (m *FS) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	p = clean(p)
	info, err := m.bfs.Stat(p)
	if err != nil {
		return nil, translate(err, "open", p)
	}
	if info.IsDir() {
		return nil, errors.Newf(errors.CodeIsDirectory, "%s is a directory", p)
	}
	f, err := m.bfs.Open(p)
	if err != nil {
		return nil, translate(err, "open", p)
	}
	return f, nil
}

// MkdirAll creates dir and its parents.
func (m *FS) MkdirAll(ctx context.Context, dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	if err := m.bfs.MkdirAll(clean(dir), 0o755); err != nil {
		return translate(err, "mkdir", dir)
	}
	return nil
}

// Create creates p, failing if it exists.
func (m *FS) Create(ctx context.Context, p string) (io.WriteCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	p = clean(p)
	f, err := m.bfs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, translate(err, "create", p)
	}
	m.replication[p] = m.defaultReplication
	return &writer{file: f}, nil
}

// Append opens the existing file p for appending. Once the returned writer
// is closed the file stays open for the configured lease hold.
func (m *FS) Append(ctx context.Context, p string) (io.WriteCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	p = clean(p)
	info, err := m.bfs.Stat(p)
	if err != nil {
		return nil, translate(err, "append", p)
	}
	if info.IsDir() {
		return nil, errors.Newf(errors.CodeIsDirectory, "%s is a directory", p)
	}
	f, err := m.bfs.OpenFile(p, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, translate(err, "append", p)
	}
	return &writer{file: f, onClose: func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.leaseHold > 0 {
			m.open[p] = m.leaseHold
		}
	}}, nil
}

// Delete removes p.
func (m *FS) Delete(ctx context.Context, p string, recursive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	p = clean(p)
	info, err := m.bfs.Lstat(p)
	if err != nil {
		return translate(err, "delete", p)
	}
	if info.IsDir() {
		children, err := m.bfs.ReadDir(p)
		if err != nil {
			return translate(err, "delete", p)
		}
		if len(children) > 0 && !recursive {
			return errors.Newf(errors.CodeInvalidInput, "directory %s is not empty", p)
		}
	}
	if err := util.RemoveAll(m.bfs, p); err != nil {
		return translate(err, "delete", p)
	}
	for k := range m.replication {
		if k == p || isUnder(k, p) {
			delete(m.replication, k)
		}
	}
	for k := range m.open {
		if k == p || isUnder(k, p) {
			delete(m.open, k)
		}
	}
	return nil
}

// SetReplication records a replication factor for the file p.
func (m *FS) SetReplication(ctx context.Context, p string, replication int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	if replication < 1 {
		return errors.Newf(errors.CodeInvalidInput, "replication must be positive, got %d", replication)
	}
	p = clean(p)
	if _, err := m.bfs.Stat(p); err != nil {
		return translate(err, "setReplication", p)
	}
	m.replication[p] = replication
	return nil
}

// DefaultReplication returns the configured default factor.
func (m *FS) DefaultReplication(ctx context.Context, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return 0, err
	}
	return m.defaultReplication, nil
}

// RecoverLease reports whether p is already closed. Recovery itself is
// instantaneous bookkeeping; the hold still drains through IsFileClosed.
func (m *FS) RecoverLease(ctx context.Context, p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return false, err
	}
	p = clean(p)
	if _, err := m.bfs.Stat(p); err != nil {
		return false, translate(err, "recoverLease", p)
	}
	return m.open[p] == 0, nil
}

// IsFileClosed reports whether p is closed, consuming one poll of the hold.
func (m *FS) IsFileClosed(ctx context.Context, p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return false, err
	}
	p = clean(p)
	if _, err := m.bfs.Stat(p); err != nil {
		return false, translate(err, "isFileClosed", p)
	}
	if n := m.open[p]; n > 0 {
		m.open[p] = n - 1
		return false, nil
	}
	return true, nil
}

type writer struct {
	file    billy.File
	onClose func()
}

func (w *writer) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

func (w *writer) Close() error {
	if err := w.file.Close(); err != nil {
		return errors.Wrap(err, errors.CodeIO, "failed to close file")
	}
	if w.onClose != nil {
		w.onClose()
	}
	return nil
}

func clean(p string) string {
	return path.Clean("/" + p)
}

func isUnder(p, dir string) bool {
	if dir == "/" {
		return true
	}
	return len(p) > len(dir) && p[:len(dir)] == dir && p[len(dir)] == '/'
}

func translate(err error, op, p string) error {
	code := errors.CodeOf(err)
	if code == errors.CodeUnknown {
		code = errors.CodeIO
	}
	return errors.WithContext(errors.Wrapf(err, code, "%s %s", op, p), "path", p)
}

// Compile-time interface checks.
var _ core.RemoteFS = (*FS)(nil)
