package objstore

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
	"github.com/jmgilman/hdfsh/fs/objstore/internal/errs"
	"github.com/jmgilman/hdfsh/fs/objstore/internal/pathutil"
	"github.com/jmgilman/hdfsh/logging"
	"github.com/jmgilman/hdfsh/metrics"
)

const (
	backendName = "objstore"

	// stagingSuffix marks the object an append is written to before it
	// replaces the original.
	stagingSuffix = ".__appending__"

	// metaReplication is the user metadata key holding a file's replication
	// factor.
	metaReplication = "Replication"

	dirContentType = "application/x-directory"
)

// FS is a core.RemoteFS over one bucket.
type FS struct {
	client *minio.Client
	bucket string
	prefix string
	home   string

	defaultReplication int
	threshold          int
	partSize           uint64

	log *zap.Logger
}

// New creates an object store client. No request is made until the first
// operation; HomeDirectory doubles as the connectivity probe.
func New(cfg Config) (*FS, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client := cfg.Client
	if client == nil {
		var err error
		client, err = minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.UseSSL,
			Region: cfg.Region,
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "objstore: failed to create client")
		}
	}

	f := &FS{
		client:             client,
		bucket:             cfg.Bucket,
		prefix:             pathutil.NormalizePrefix(cfg.Prefix),
		home:               path.Join("/user", cfg.Username),
		defaultReplication: cfg.DefaultReplication,
		threshold:          cfg.Threshold,
		partSize:           cfg.PartSize,
		log:                logging.Named("objstore"),
	}
	if f.defaultReplication < 1 {
		f.defaultReplication = defaultReplication
	}
	if f.threshold <= 0 {
		f.threshold = defaultThreshold
	}
	if f.partSize == 0 {
		f.partSize = defaultPartSize
	}
	return f, nil
}

// Type returns core.FSType ObjectStore.
func (f *FS) Type() core.FSType {
	return core.FSTypeObjectStore
}

// Close is a no-op; the MinIO client holds no resources of its own.
func (f *FS) Close() error {
	return nil
}

func (f *FS) key(p string) string {
	return pathutil.JoinPath(f.prefix, p)
}

// observe records one storage call. Missing paths count as successful calls.
func (f *FS) observe(op, p string, start time.Time, err error) {
	ok := err == nil || errors.CodeOf(err) == errors.CodeNotFound
	metrics.RecordRemoteOperation(backendName, op, time.Since(start), ok)
	if err != nil {
		f.log.Debug("operation failed", zap.String("op", op), zap.String("path", p), zap.Error(err))
	}
}

// HomeDirectory checks that the bucket is reachable and returns
// /user/<username>.
func (f *FS) HomeDirectory(ctx context.Context) (h string, err error) {
	defer func(start time.Time) { f.observe("home", f.bucket, start, err) }(time.Now())

	ok, err := f.client.BucketExists(ctx, f.bucket)
	if err != nil {
		return "", errs.Translate(err, "bucketExists", f.bucket)
	}
	if !ok {
		return "", errors.WithContext(
			errors.Newf(errors.CodeUnavailable, "bucket %s does not exist", f.bucket),
			"bucket", f.bucket,
		)
	}
	return f.home, nil
}

// Stat describes p. Objects are files; marker objects and non-empty
// prefixes are directories.
func (f *FS) Stat(ctx context.Context, p string) (e core.Entry, err error) {
	p = clean(p)
	defer func(start time.Time) { f.observe("stat", p, start, err) }(time.Now())
	return f.lookup(ctx, p)
}

func (f *FS) lookup(ctx context.Context, p string) (core.Entry, error) {
	if p == "/" {
		return core.Entry{Name: "/", Path: "/", Kind: core.KindDirectory}, nil
	}

	key := f.key(p)
	info, err := f.client.StatObject(ctx, f.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return f.fileEntry(p, info), nil
	}
	if !errs.IsNotFound(err) {
		return core.Entry{}, errs.Translate(err, "stat", p)
	}

	isDir, err := f.hasPrefix(ctx, pathutil.DirKey(key))
	if err != nil {
		return core.Entry{}, errs.Translate(err, "stat", p)
	}
	if isDir {
		return core.Entry{Name: path.Base(p), Path: p, Kind: core.KindDirectory}, nil
	}
	return core.Entry{}, notFound("stat", p)
}

// hasPrefix reports whether any object key starts with prefix, including a
// directory marker equal to it.
func (f *FS) hasPrefix(ctx context.Context, prefix string) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range f.client.ListObjects(ctx, f.bucket, minio.ListObjectsOptions{Prefix: prefix, MaxKeys: 1}) {
		if obj.Err != nil {
			return false, obj.Err
		}
		return true, nil
	}
	return false, nil
}

func (f *FS) fileEntry(p string, info minio.ObjectInfo) core.Entry {
	return core.Entry{
		Name:        path.Base(p),
		Path:        p,
		Kind:        core.KindFile,
		Size:        info.Size,
		Replication: f.replicationOf(info),
		ModTime:     info.LastModified,
	}
}

func (f *FS) replicationOf(info minio.ObjectInfo) int {
	raw, ok := info.UserMetadata[metaReplication]
	if !ok {
		// Listings with metadata keep the header prefix.
		raw, ok = info.UserMetadata["X-Amz-Meta-"+metaReplication]
	}
	if !ok {
		return f.defaultReplication
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return f.defaultReplication
	}
	return n
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

// List returns the children of dir sorted by name. Staging objects of
// in-progress appends are hidden.
func (f *FS) List(ctx context.Context, dir string) (entries []core.Entry, err error) {
	dir = clean(dir)
	defer func(start time.Time) { f.observe("list", dir, start, err) }(time.Now())

	e, err := f.lookup(ctx, dir)
	if err != nil {
		return nil, err
	}
	if !e.IsDir() {
		return nil, errors.WithContext(
			errors.Newf(errors.CodeNotDirectory, "Path %s is not a directory", dir),
			"path", dir,
		)
	}

	dirKey := pathutil.DirKey(f.key(dir))
	seen := make(map[string]bool)
	for obj := range f.client.ListObjects(ctx, f.bucket, minio.ListObjectsOptions{
		Prefix:       dirKey,
		Recursive:    false,
		WithMetadata: true,
	}) {
		if obj.Err != nil {
			return nil, errs.Translate(obj.Err, "list", dir)
		}
		if obj.Key == dirKey {
			continue
		}

		name, isDir := pathutil.ChildName(dirKey, obj.Key)
		if name == "" || seen[name] {
			continue
		}
		if !isDir && strings.HasSuffix(name, stagingSuffix) {
			continue
		}
		seen[name] = true

		child := path.Join(dir, name)
		if isDir {
			entries = append(entries, core.Entry{Name: name, Path: child, Kind: core.KindDirectory})
			continue
		}
		entries = append(entries, f.fileEntry(child, obj))
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Open streams the object at p.
func (f *FS) Open(ctx context.Context, p string) (rc io.ReadCloser, err error) {
	p = clean(p)
	defer func(start time.Time) { f.observe("open", p, start, err) }(time.Now())

	e, err := f.lookup(ctx, p)
	if err != nil {
		return nil, err
	}
	if e.IsDir() {
		return nil, errors.WithContext(errors.Newf(errors.CodeIsDirectory, "open %s: is a directory", p), "path", p)
	}

	obj, err := f.client.GetObject(ctx, f.bucket, f.key(p), minio.GetObjectOptions{})
	if err != nil {
		return nil, errs.Translate(err, "open", p)
	}
	return obj, nil
}

// MkdirAll writes a marker for dir and every missing parent. A file on the
// way fails with CodeNotDirectory.
func (f *FS) MkdirAll(ctx context.Context, dir string) (err error) {
	dir = clean(dir)
	defer func(start time.Time) { f.observe("mkdirs", dir, start, err) }(time.Now())
	return f.mkdirAll(ctx, dir)
}

func (f *FS) mkdirAll(ctx context.Context, dir string) error {
	if dir == "/" {
		return nil
	}

	cur := "/"
	for _, part := range strings.Split(strings.TrimPrefix(dir, "/"), "/") {
		cur = path.Join(cur, part)
		key := f.key(cur)

		_, err := f.client.StatObject(ctx, f.bucket, key, minio.StatObjectOptions{})
		if err == nil {
			return errors.WithContext(
				errors.Newf(errors.CodeNotDirectory, "mkdirs %s: %s is a file", dir, cur),
				"path", dir,
			)
		}
		if !errs.IsNotFound(err) {
			return errs.Translate(err, "mkdirs", dir)
		}

		_, err = f.client.PutObject(ctx, f.bucket, pathutil.DirKey(key), bytes.NewReader(nil), 0,
			minio.PutObjectOptions{ContentType: dirContentType})
		if err != nil {
			return errs.Translate(err, "mkdirs", dir)
		}
	}
	return nil
}

// Create starts a new object at p, creating parent markers as needed. It
// fails with CodeAlreadyExists if p exists. The object becomes visible when
// the writer is closed.
func (f *FS) Create(ctx context.Context, p string) (w io.WriteCloser, err error) {
	p = clean(p)
	defer func(start time.Time) { f.observe("create", p, start, err) }(time.Now())

	_, err = f.lookup(ctx, p)
	switch {
	case err == nil:
		return nil, errors.WithContext(errors.Newf(errors.CodeAlreadyExists, "create %s: file exists", p), "path", p)
	case errors.CodeOf(err) != errors.CodeNotFound:
		return nil, err
	}

	if err := f.mkdirAll(ctx, path.Dir(p)); err != nil {
		return nil, err
	}
	return newUploader(ctx, f, f.key(p), p, f.defaultReplication), nil
}

// Append opens p for appending. The existing content and the new bytes are
// streamed into a staging object which replaces p when the writer closes.
// Until then IsFileClosed reports the file as open.
func (f *FS) Append(ctx context.Context, p string) (w io.WriteCloser, err error) {
	p = clean(p)
	defer func(start time.Time) { f.observe("append", p, start, err) }(time.Now())

	e, err := f.lookup(ctx, p)
	if err != nil {
		return nil, err
	}
	if e.IsDir() {
		return nil, errors.WithContext(errors.Newf(errors.CodeIsDirectory, "append %s: is a directory", p), "path", p)
	}

	key := f.key(p)
	staging := key + stagingSuffix
	_, err = f.client.StatObject(ctx, f.bucket, staging, minio.StatObjectOptions{})
	switch {
	case err == nil:
		return nil, errors.WithContext(
			errors.Newf(errors.CodeAlreadyExists, "append %s: another append is in progress", p),
			"path", p,
		)
	case !errs.IsNotFound(err):
		return nil, errs.Translate(err, "append", p)
	}

	head, err := f.client.GetObject(ctx, f.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errs.Translate(err, "append", p)
	}

	u := newUploader(ctx, f, staging, p, e.Replication)
	u.head = head
	u.commit = func(ctx context.Context) error {
		return f.promote(ctx, key, staging, p)
	}
	return u, nil
}

// promote replaces key with staging and removes staging.
func (f *FS) promote(ctx context.Context, key, staging, p string) error {
	_, err := f.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: f.bucket, Object: key},
		minio.CopySrcOptions{Bucket: f.bucket, Object: staging},
	)
	if err != nil {
		return errs.Translate(err, "append", p)
	}
	if err := f.client.RemoveObject(ctx, f.bucket, staging, minio.RemoveObjectOptions{}); err != nil {
		return errs.Translate(err, "append", p)
	}
	return nil
}

// Delete removes p. Directories are removed with a batch delete of every key
// under them; without recursive, a directory with children is refused.
func (f *FS) Delete(ctx context.Context, p string, recursive bool) (err error) {
	p = clean(p)
	defer func(start time.Time) { f.observe("delete", p, start, err) }(time.Now())

	if p == "/" {
		return errors.New(errors.CodeInvalidInput, "delete /: refusing to delete the root")
	}

	e, err := f.lookup(ctx, p)
	if err != nil {
		return err
	}

	key := f.key(p)
	if !e.IsDir() {
		if err := f.client.RemoveObject(ctx, f.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return errs.Translate(err, "delete", p)
		}
		// A leftover staging object would otherwise resurface on recovery.
		if err := f.client.RemoveObject(ctx, f.bucket, key+stagingSuffix, minio.RemoveObjectOptions{}); err != nil && !errs.IsNotFound(err) {
			return errs.Translate(err, "delete", p)
		}
		return nil
	}

	dirKey := pathutil.DirKey(key)
	if !recursive {
		children, err := f.List(ctx, p)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return errors.WithContext(
				errors.Newf(errors.CodeInvalidInput, "delete %s: directory is not empty", p),
				"path", p,
			)
		}
	}
	return f.removePrefix(ctx, dirKey, p)
}

// removePrefix batch deletes every object under prefix.
func (f *FS) removePrefix(ctx context.Context, prefix, p string) error {
	objectsCh := make(chan minio.ObjectInfo, 100)

	var listErr error
	go func() {
		defer close(objectsCh)
		for obj := range f.client.ListObjects(ctx, f.bucket, minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}) {
			if obj.Err != nil {
				listErr = obj.Err
				return
			}
			select {
			case objectsCh <- obj:
			case <-ctx.Done():
				listErr = ctx.Err()
				return
			}
		}
	}()

	var removeErr error
	for rerr := range f.client.RemoveObjects(ctx, f.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil && removeErr == nil {
			removeErr = rerr.Err
		}
	}

	if listErr != nil {
		return errs.Translate(listErr, "delete", p)
	}
	if removeErr != nil {
		return errs.Translate(removeErr, "delete", p)
	}
	return nil
}

// SetReplication records replication in the object's metadata with an
// in-place copy.
func (f *FS) SetReplication(ctx context.Context, p string, replication int) (err error) {
	p = clean(p)
	defer func(start time.Time) { f.observe("setReplication", p, start, err) }(time.Now())

	if replication < 1 {
		return errors.Newf(errors.CodeInvalidInput, "replication must be at least 1, got %d", replication)
	}
	e, err := f.lookup(ctx, p)
	if err != nil {
		return err
	}
	if e.IsDir() {
		return errors.WithContext(errors.Newf(errors.CodeIsDirectory, "setReplication %s: is a directory", p), "path", p)
	}

	key := f.key(p)
	_, err = f.client.CopyObject(ctx,
		minio.CopyDestOptions{
			Bucket:          f.bucket,
			Object:          key,
			UserMetadata:    replicationMeta(replication),
			ReplaceMetadata: true,
		},
		minio.CopySrcOptions{Bucket: f.bucket, Object: key},
	)
	if err != nil {
		return errs.Translate(err, "setReplication", p)
	}
	return nil
}

// DefaultReplication returns the configured default; object stores have no
// server-side notion of it.
func (f *FS) DefaultReplication(_ context.Context, _ string) (int, error) {
	return f.defaultReplication, nil
}

// IsFileClosed reports whether no append to p is in progress.
func (f *FS) IsFileClosed(ctx context.Context, p string) (closed bool, err error) {
	p = clean(p)
	defer func(start time.Time) { f.observe("isFileClosed", p, start, err) }(time.Now())

	if _, err := f.lookup(ctx, p); err != nil {
		return false, err
	}
	_, err = f.client.StatObject(ctx, f.bucket, f.key(p)+stagingSuffix, minio.StatObjectOptions{})
	switch {
	case err == nil:
		return false, nil
	case errs.IsNotFound(err):
		return true, nil
	default:
		return false, errs.Translate(err, "isFileClosed", p)
	}
}

// RecoverLease settles an abandoned append. A staging object only exists
// once its upload completed, so it is promoted in place of p. It returns true
// once no staging object remains.
func (f *FS) RecoverLease(ctx context.Context, p string) (closed bool, err error) {
	p = clean(p)
	defer func(start time.Time) { f.observe("recoverLease", p, start, err) }(time.Now())

	if _, err := f.lookup(ctx, p); err != nil {
		return false, err
	}
	key := f.key(p)
	staging := key + stagingSuffix
	_, err = f.client.StatObject(ctx, f.bucket, staging, minio.StatObjectOptions{})
	switch {
	case errs.IsNotFound(err):
		return true, nil
	case err != nil:
		return false, errs.Translate(err, "recoverLease", p)
	}

	f.log.Info("promoting abandoned append", zap.String("path", p))
	if err := f.promote(ctx, key, staging, p); err != nil {
		return false, err
	}
	return true, nil
}

func replicationMeta(replication int) map[string]string {
	return map[string]string{metaReplication: strconv.Itoa(replication)}
}

func notFound(op, p string) error {
	return errors.WithContext(
		errors.Wrapf(core.ErrNotExist, errors.CodeNotFound, "%s %s", op, p),
		"path", p,
	)
}

func clean(p string) string {
	return path.Clean("/" + p)
}

var _ core.RemoteFS = (*FS)(nil)
