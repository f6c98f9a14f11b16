package webhdfs

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"
)

// writer streams everything written to it as the body of one datanode
// request. Close waits for the datanode's answer.
type writer struct {
	pw     *io.PipeWriter
	g      *errgroup.Group
	closed bool
}

func newWriter(ctx context.Context, f *FS, method, location, op, p string, want int) *writer {
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resp, err := f.do(gctx, f.data, method, location, op, p, pr, want)
		if err != nil {
			_ = pr.CloseWithError(err)
			return err
		}
		_ = pr.Close()
		drainClose(resp.Body)
		return nil
	})

	return &writer{pw: pw, g: g}
}

func (w *writer) Write(b []byte) (int, error) {
	n, err := w.pw.Write(b)
	if err != nil {
		// Prefer the request's error over io.ErrClosedPipe.
		if werr := w.g.Wait(); werr != nil {
			return n, werr
		}
	}
	return n, err
}

func (w *writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.pw.Close()
	return w.g.Wait()
}
