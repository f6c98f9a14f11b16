// Package webhdfs implements core.RemoteFS over the WebHDFS REST API.
//
// Metadata operations go to the namenode. CREATE, APPEND and OPEN follow the
// two-step protocol: the namenode answers with a 307 redirect to a datanode
// and the data is streamed to or from that location.
package webhdfs

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"slices"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
	"github.com/jmgilman/hdfsh/logging"
)

const (
	apiPrefix   = "/webhdfs/v1"
	backendName = "webhdfs"

	defaultReplication = 3
)

// Options configures an FS.
type Options struct {
	Host string
	Port int
	// User is sent as user.name on every request (simple authentication).
	User string
	TLS  bool

	// Timeout bounds metadata requests. Data transfers are bounded only by
	// the caller's context. Zero means no timeout.
	Timeout time.Duration

	// DefaultReplication is reported when the namenode does not support
	// GETSERVERDEFAULTS.
	DefaultReplication int

	// Transport overrides the HTTP transport.
	Transport http.RoundTripper
}

// FS is a WebHDFS client.
type FS struct {
	base url.URL
	user string

	meta *http.Client
	data *http.Client

	defaultReplication int
	log                *zap.Logger
}

// New creates a client for the namenode at opts.Host:opts.Port. No request
// is made until the first operation.
func New(opts Options) (*FS, error) {
	if opts.Host == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "webhdfs: host is required")
	}
	if opts.Port < 1 || opts.Port > 65535 {
		return nil, errors.Newf(errors.CodeInvalidConfig, "webhdfs: port %d is out of range", opts.Port)
	}
	if opts.User == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "webhdfs: user is required")
	}

	scheme := "http"
	if opts.TLS {
		scheme = "https"
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	replication := opts.DefaultReplication
	if replication < 1 {
		replication = defaultReplication
	}

	// Redirects are followed by hand so the datanode request can carry a
	// streamed body.
	noRedirect := func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	return &FS{
		base: url.URL{Scheme: scheme, Host: net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))},
		user: opts.User,
		meta: &http.Client{Transport: transport, Timeout: opts.Timeout, CheckRedirect: noRedirect},
		data: &http.Client{Transport: transport, CheckRedirect: noRedirect},

		defaultReplication: replication,
		log:                logging.Named("webhdfs"),
	}, nil
}

// Type returns core.FSTypeWebHDFS.
func (f *FS) Type() core.FSType {
	return core.FSTypeWebHDFS
}

// Close releases idle connections.
func (f *FS) Close() error {
	f.meta.CloseIdleConnections()
	f.data.CloseIdleConnections()
	return nil
}

// HomeDirectory returns the user's home directory (GETHOMEDIRECTORY).
func (f *FS) HomeDirectory(ctx context.Context) (string, error) {
	var out pathResponse
	if err := f.getJSON(ctx, http.MethodGet, "/", "GETHOMEDIRECTORY", nil, &out); err != nil {
		return "", err
	}
	return out.Path, nil
}

// Stat returns the entry for p (GETFILESTATUS).
func (f *FS) Stat(ctx context.Context, p string) (core.Entry, error) {
	p = clean(p)
	var out fileStatusResponse
	if err := f.getJSON(ctx, http.MethodGet, p, "GETFILESTATUS", nil, &out); err != nil {
		return core.Entry{}, err
	}
	return out.FileStatus.entry(path.Dir(p), path.Base(p)), nil
}

// Exists reports whether p exists.
func (f *FS) Exists(ctx context.Context, p string) (bool, error) {
	_, err := f.Stat(ctx, p)
	if err == nil {
		return true, nil
	}
	if errors.CodeOf(err) == errors.CodeNotFound {
		return false, nil
	}
	return false, err
}

// IsDirectory reports whether p is a directory. A missing path is not.
func (f *FS) IsDirectory(ctx context.Context, p string) (bool, error) {
	e, err := f.Stat(ctx, p)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeNotFound {
			return false, nil
		}
		return false, err
	}
	return e.IsDir(), nil
}

// List returns the children of dir sorted by name (LISTSTATUS).
func (f *FS) List(ctx context.Context, dir string) ([]core.Entry, error) {
	dir = clean(dir)
	var out listStatusResponse
	if err := f.getJSON(ctx, http.MethodGet, dir, "LISTSTATUS", nil, &out); err != nil {
		return nil, err
	}

	statuses := out.FileStatuses.FileStatus
	// LISTSTATUS on a file lists the file itself with an empty suffix.
	if len(statuses) == 1 && statuses[0].PathSuffix == "" {
		return nil, errors.WithContext(
			errors.Newf(errors.CodeNotDirectory, "Path %s is not a directory", dir),
			"path", dir,
		)
	}

	entries := make([]core.Entry, 0, len(statuses))
	for _, s := range statuses {
		entries = append(entries, s.entry(dir, s.PathSuffix))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Open streams the content of p (OPEN).
func (f *FS) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	p = clean(p)
	e, err := f.Stat(ctx, p)
	if err != nil {
		return nil, err
	}
	if e.IsDir() {
		return nil, errors.WithContext(errors.Newf(errors.CodeIsDirectory, "open %s: is a directory", p), "path", p)
	}

	location, err := f.redirect(ctx, http.MethodGet, p, "OPEN", nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.do(ctx, f.data, http.MethodGet, location, "OPEN", p, nil, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// MkdirAll creates dir and any missing parents (MKDIRS).
func (f *FS) MkdirAll(ctx context.Context, dir string) error {
	dir = clean(dir)
	var out booleanResponse
	if err := f.getJSON(ctx, http.MethodPut, dir, "MKDIRS", nil, &out); err != nil {
		return err
	}
	if !out.Boolean {
		return errors.WithContext(errors.Newf(errors.CodeIO, "mkdirs %s: namenode refused", dir), "path", dir)
	}
	return nil
}

// Create starts a new file at p (CREATE, overwrite=false). The returned
// writer streams to the datanode; Close reports the upload result.
func (f *FS) Create(ctx context.Context, p string) (io.WriteCloser, error) {
	p = clean(p)
	exists, err := f.Exists(ctx, p)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.WithContext(errors.Newf(errors.CodeAlreadyExists, "create %s: file exists", p), "path", p)
	}

	params := url.Values{"overwrite": {"false"}}
	location, err := f.redirect(ctx, http.MethodPut, p, "CREATE", params)
	if err != nil {
		return nil, err
	}
	return newWriter(ctx, f, http.MethodPut, location, "CREATE", p, http.StatusCreated), nil
}

// Append opens p for appending (APPEND).
func (f *FS) Append(ctx context.Context, p string) (io.WriteCloser, error) {
	p = clean(p)
	e, err := f.Stat(ctx, p)
	if err != nil {
		return nil, err
	}
	if e.IsDir() {
		return nil, errors.WithContext(errors.Newf(errors.CodeIsDirectory, "append %s: is a directory", p), "path", p)
	}

	location, err := f.redirect(ctx, http.MethodPost, p, "APPEND", nil)
	if err != nil {
		return nil, err
	}
	return newWriter(ctx, f, http.MethodPost, location, "APPEND", p, http.StatusOK), nil
}

// Delete removes p (DELETE).
func (f *FS) Delete(ctx context.Context, p string, recursive bool) error {
	p = clean(p)
	params := url.Values{"recursive": {strconv.FormatBool(recursive)}}
	var out booleanResponse
	if err := f.getJSON(ctx, http.MethodDelete, p, "DELETE", params, &out); err != nil {
		return err
	}
	if !out.Boolean {
		return errors.WithContext(errors.Newf(errors.CodeNotFound, "delete %s: no such file or directory", p), "path", p)
	}
	return nil
}

// SetReplication sets the replication factor of p (SETREPLICATION).
func (f *FS) SetReplication(ctx context.Context, p string, replication int) error {
	p = clean(p)
	if replication < 1 {
		return errors.Newf(errors.CodeInvalidInput, "replication must be at least 1, got %d", replication)
	}
	params := url.Values{"replication": {strconv.Itoa(replication)}}
	var out booleanResponse
	if err := f.getJSON(ctx, http.MethodPut, p, "SETREPLICATION", params, &out); err != nil {
		return err
	}
	if out.Boolean {
		return nil
	}
	// The namenode answers false for missing paths and directories.
	e, err := f.Stat(ctx, p)
	if err != nil {
		return err
	}
	if e.IsDir() {
		return errors.WithContext(errors.Newf(errors.CodeIsDirectory, "setReplication %s: is a directory", p), "path", p)
	}
	return errors.WithContext(errors.Newf(errors.CodeIO, "setReplication %s: namenode refused", p), "path", p)
}

// DefaultReplication returns the namenode's default replication
// (GETSERVERDEFAULTS), or the configured default when the namenode does not
// support that operation.
func (f *FS) DefaultReplication(ctx context.Context, p string) (int, error) {
	var out serverDefaultsResponse
	err := f.getJSON(ctx, http.MethodGet, "/", "GETSERVERDEFAULTS", nil, &out)
	switch {
	case err == nil && out.ServerDefaults.Replication > 0:
		return out.ServerDefaults.Replication, nil
	case err == nil:
	case slices.Contains([]errors.ErrorCode{errors.CodeInvalidInput, errors.CodeNotImplemented, errors.CodeNotFound}, errors.CodeOf(err)):
		f.log.Debug("server defaults unavailable, using configured replication",
			zap.String("path", p), zap.Int("replication", f.defaultReplication), zap.Error(err))
	default:
		return 0, err
	}
	return f.defaultReplication, nil
}

// RecoverLease is not part of the REST API.
func (f *FS) RecoverLease(_ context.Context, p string) (bool, error) {
	return false, errors.WithContext(
		errors.Wrap(core.ErrUnsupported, errors.CodeNotImplemented, "webhdfs has no lease recovery"),
		"path", p,
	)
}

// IsFileClosed reports a file closed once its status is readable: the
// datanode acknowledges an APPEND only after the write pipeline is closed.
func (f *FS) IsFileClosed(ctx context.Context, p string) (bool, error) {
	if _, err := f.Stat(ctx, p); err != nil {
		return false, err
	}
	return true, nil
}

func clean(p string) string {
	return path.Clean("/" + p)
}

var _ core.RemoteFS = (*FS)(nil)
