package webhdfs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/metrics"
)

// endpoint returns the namenode URL for op on p.
func (f *FS) endpoint(p, op string, params url.Values) string {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("op", op)
	q.Set("user.name", f.user)

	u := f.base
	u.Path = apiPrefix + clean(p)
	u.RawQuery = q.Encode()
	return u.String()
}

// do sends one request and returns the response if its status is in want.
// Any other status is decoded into an error and the body is closed.
func (f *FS) do(ctx context.Context, client *http.Client, method, target, op, p string, body io.Reader, want ...int) (resp *http.Response, err error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		metrics.RecordRemoteOperation(backendName, op, elapsed, err == nil)
		if err != nil {
			f.log.Debug("request failed", zap.String("op", op), zap.String("path", p), zap.Duration("elapsed", elapsed), zap.Error(err))
			return
		}
		f.log.Debug("request", zap.String("op", op), zap.String("path", p), zap.Int("status", resp.StatusCode), zap.Duration("elapsed", elapsed))
	}()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "%s %s: failed to build request", op, p)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err = client.Do(req)
	if err != nil {
		return nil, transportError(ctx, err, op, p)
	}
	if !slices.Contains(want, resp.StatusCode) {
		defer drainClose(resp.Body)
		return nil, remoteError(resp, op, p)
	}
	return resp, nil
}

// getJSON runs a metadata operation on the namenode and decodes its reply.
func (f *FS) getJSON(ctx context.Context, method, p, op string, params url.Values, out interface{}) error {
	resp, err := f.do(ctx, f.meta, method, f.endpoint(p, op, params), op, p, nil, http.StatusOK)
	if err != nil {
		return err
	}
	defer drainClose(resp.Body)

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WithContext(
			errors.Wrapf(err, errors.CodeInternal, "%s %s: malformed response", op, p),
			"path", p,
		)
	}
	return nil
}

// redirect runs the namenode half of a data operation and returns the
// datanode location.
func (f *FS) redirect(ctx context.Context, method, p, op string, params url.Values) (string, error) {
	resp, err := f.do(ctx, f.meta, method, f.endpoint(p, op, params), op, p, nil, http.StatusTemporaryRedirect)
	if err != nil {
		return "", err
	}
	defer drainClose(resp.Body)

	location := resp.Header.Get("Location")
	if location == "" {
		return "", errors.Newf(errors.CodeInternal, "%s %s: redirect without a location", op, p)
	}
	u, err := resp.Request.URL.Parse(location)
	if err != nil {
		return "", errors.Wrapf(err, errors.CodeInternal, "%s %s: invalid redirect location", op, p)
	}
	return u.String(), nil
}

func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	_ = body.Close()
}
