package objstore

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"golang.org/x/sync/errgroup"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
	"github.com/jmgilman/hdfsh/fs/objstore/internal/errs"
)

// uploader buffers writes up to the threshold and uploads them with a single
// PutObject on Close. Larger content switches to a streamed multipart upload
// through a pipe.
type uploader struct {
	ctx   context.Context
	fs    *FS
	key   string
	name  string
	opts  minio.PutObjectOptions
	limit int

	// head is prepended to the written bytes (the existing content when
	// appending).
	head io.ReadCloser
	// commit runs after a successful upload.
	commit func(ctx context.Context) error

	buffer *bytes.Buffer
	pw     *io.PipeWriter
	g      *errgroup.Group
	closed bool
}

func newUploader(ctx context.Context, f *FS, key, name string, replication int) *uploader {
	return &uploader{
		ctx:  ctx,
		fs:   f,
		key:  key,
		name: name,
		opts: minio.PutObjectOptions{
			ContentType:  "application/octet-stream",
			UserMetadata: replicationMeta(replication),
			PartSize:     f.partSize,
		},
		limit:  f.threshold,
		buffer: new(bytes.Buffer),
	}
}

func (u *uploader) Write(p []byte) (int, error) {
	if u.closed {
		return 0, errors.Wrapf(core.ErrClosed, errors.CodeInvalidInput, "write %s", u.name)
	}
	if u.pw == nil && u.buffer.Len()+len(p) <= u.limit {
		return u.buffer.Write(p)
	}
	if u.pw == nil {
		if err := u.stream(); err != nil {
			return 0, err
		}
	}

	n, err := u.pw.Write(p)
	if err != nil {
		// Prefer the upload's error over io.ErrClosedPipe.
		if werr := u.g.Wait(); werr != nil {
			return n, werr
		}
		return n, errs.Translate(err, "write", u.name)
	}
	return n, nil
}

// stream starts the background upload and flushes the buffer into it.
func (u *uploader) stream() error {
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(u.ctx)
	u.pw, u.g = pw, g

	g.Go(func() error {
		_, err := u.fs.client.PutObject(gctx, u.fs.bucket, u.key, u.body(pr), -1, u.opts)
		if err != nil {
			err = errs.Translate(err, "write", u.name)
			_ = pr.CloseWithError(err)
			return err
		}
		return pr.Close()
	})

	buffered := u.buffer.Bytes()
	u.buffer = nil
	if len(buffered) == 0 {
		return nil
	}
	if _, err := pw.Write(buffered); err != nil {
		if werr := g.Wait(); werr != nil {
			return werr
		}
		return errs.Translate(err, "write", u.name)
	}
	return nil
}

func (u *uploader) body(r io.Reader) io.Reader {
	if u.head == nil {
		return r
	}
	return io.MultiReader(u.head, r)
}

// Close finishes the upload and runs the commit step. It is safe to call
// more than once.
func (u *uploader) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	if u.head != nil {
		defer func() { _ = u.head.Close() }()
	}

	if err := u.finish(); err != nil {
		return err
	}
	if u.commit != nil {
		return u.commit(u.ctx)
	}
	return nil
}

func (u *uploader) finish() error {
	if u.pw != nil {
		_ = u.pw.Close()
		return u.g.Wait()
	}

	var body io.Reader = bytes.NewReader(u.buffer.Bytes())
	size := int64(u.buffer.Len())
	if u.head != nil {
		body, size = u.body(body), -1
	}
	if _, err := u.fs.client.PutObject(u.ctx, u.fs.bucket, u.key, body, size, u.opts); err != nil {
		return errs.Translate(err, "write", u.name)
	}
	return nil
}
