// Package transfer moves bytes between the local machine and the remote
// service.
//
// An Engine streams every transfer through one reusable buffer, refuses to
// overwrite existing destinations, and finishes appends by resetting the
// replication factor and waiting for the service to close the file.
package transfer

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
	"github.com/jmgilman/hdfsh/logging"
	"github.com/jmgilman/hdfsh/metrics"
)

// DefaultBufferSize is the size of the copy buffer.
const DefaultBufferSize = 64 * 1024

// Mode is the direction of a transfer.
type Mode int

const (
	ModePut Mode = iota
	ModeGet
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModePut:
		return "put"
	case ModeGet:
		return "get"
	case ModeAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Request names both ends of a transfer.
type Request struct {
	Source string
	Dest   string
	Mode   Mode
}

// Result describes a finished transfer.
type Result struct {
	Request
	Bytes int64
	// Lease is set for appends.
	Lease *LeaseResult
	// Warnings are problems that did not fail the transfer.
	Warnings []string
}

// Config configures an Engine.
type Config struct {
	BufferSize int
}

// Engine runs transfers.
type Engine struct {
	remote core.RemoteFS
	local  core.LocalFS
	waiter *LeaseWaiter
	buf    []byte
	log    *zap.Logger
}

// NewEngine creates an Engine. A nil waiter gets a default one.
func NewEngine(remote core.RemoteFS, local core.LocalFS, waiter *LeaseWaiter, cfg Config) *Engine {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if waiter == nil {
		waiter = NewLeaseWaiter(remote, DefaultLeaseConfig())
	}
	return &Engine{
		remote: remote,
		local:  local,
		waiter: waiter,
		buf:    make([]byte, cfg.BufferSize),
		log:    logging.Named("transfer"),
	}
}

// Put uploads localSource into remoteDir under its base name.
func (e *Engine) Put(ctx context.Context, localSource, remoteDir string) (res Result, err error) {
	res.Request = Request{
		Source: localSource,
		Dest:   path.Join(remoteDir, filepath.Base(localSource)),
		Mode:   ModePut,
	}
	defer e.record(&res, &err)

	if err := e.checkLocalSource(localSource); err != nil {
		return res, err
	}
	exists, err := e.remote.Exists(ctx, res.Dest)
	if err != nil {
		return res, err
	}
	if exists {
		return res, errAlreadyExists(res.Dest)
	}

	src, err := e.local.Open(localSource)
	if err != nil {
		return res, err
	}
	defer func() { _ = src.Close() }()

	dst, err := e.remote.Create(ctx, res.Dest)
	if err != nil {
		return res, err
	}
	res.Bytes, err = e.copy(dst, src, res.Request)
	return res, err
}

// Get downloads remoteSource into localDir under its base name.
func (e *Engine) Get(ctx context.Context, remoteSource, localDir string) (res Result, err error) {
	res.Request = Request{
		Source: remoteSource,
		Dest:   filepath.Join(localDir, path.Base(remoteSource)),
		Mode:   ModeGet,
	}
	defer e.record(&res, &err)

	entry, err := e.remote.Stat(ctx, remoteSource)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeNotFound {
			return res, errNotFound(remoteSource)
		}
		return res, err
	}
	if entry.Kind == core.KindDirectory {
		return res, errors.Newf(errors.CodeIsDirectory, "%s is a directory", remoteSource)
	}
	exists, err := e.local.Exists(res.Dest)
	if err != nil {
		return res, err
	}
	if exists {
		return res, errAlreadyExists(res.Dest)
	}

	src, err := e.remote.Open(ctx, remoteSource)
	if err != nil {
		return res, err
	}
	defer func() { _ = src.Close() }()

	dst, err := e.local.CreateExclusive(res.Dest)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeAlreadyExists {
			return res, errAlreadyExists(res.Dest)
		}
		return res, err
	}
	res.Bytes, err = e.copy(dst, src, res.Request)
	return res, err
}

// Append appends localSource onto the existing remote file remoteDest, resets
// its replication to the service default and waits for the file to close.
// Replication and lease problems become warnings on the result.
func (e *Engine) Append(ctx context.Context, localSource, remoteDest string) (res Result, err error) {
	res.Request = Request{Source: localSource, Dest: remoteDest, Mode: ModeAppend}
	defer e.record(&res, &err)

	if err := e.checkLocalSource(localSource); err != nil {
		return res, err
	}
	entry, err := e.remote.Stat(ctx, remoteDest)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeNotFound {
			return res, errNotFound(remoteDest)
		}
		return res, err
	}
	if entry.Kind == core.KindDirectory {
		return res, errors.Newf(errors.CodeIsDirectory, "%s is a directory", remoteDest)
	}

	src, err := e.local.Open(localSource)
	if err != nil {
		return res, err
	}
	defer func() { _ = src.Close() }()

	dst, err := e.remote.Append(ctx, remoteDest)
	if err != nil {
		return res, err
	}
	if res.Bytes, err = e.copy(dst, src, res.Request); err != nil {
		return res, err
	}

	if err := e.resetReplication(ctx, remoteDest); err != nil {
		e.log.Warn("failed to reset replication", zap.String("path", remoteDest), zap.Error(err))
		res.Warnings = append(res.Warnings, fmt.Sprintf("could not reset replication of %s: %s", remoteDest, errors.MessageOf(err)))
	}

	lease := e.waiter.Wait(ctx, remoteDest)
	res.Lease = &lease
	switch {
	case lease.TimedOut:
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s was still open after %s; the append may not be visible yet", remoteDest, lease.Elapsed))
	case lease.Err != nil:
		res.Warnings = append(res.Warnings, fmt.Sprintf("could not confirm %s was closed: %s", remoteDest, errors.MessageOf(lease.Err)))
	}
	return res, nil
}

func (e *Engine) resetReplication(ctx context.Context, p string) error {
	n, err := e.remote.DefaultReplication(ctx, p)
	if err != nil {
		return err
	}
	return e.remote.SetReplication(ctx, p, n)
}

func (e *Engine) checkLocalSource(p string) error {
	info, err := e.local.Stat(p)
	if err != nil {
		if errors.CodeOf(err) == errors.CodeNotFound {
			return errNotFound(p)
		}
		return err
	}
	if info.IsDir() {
		return errors.Newf(errors.CodeIsDirectory, "%s is a directory", p)
	}
	return nil
}

// copy streams src into dst through the engine buffer and closes dst. The
// transfer only counts as done once dst closes cleanly.
func (e *Engine) copy(dst io.WriteCloser, src io.Reader, req Request) (int64, error) {
	n, err := io.CopyBuffer(struct{ io.Writer }{dst}, struct{ io.Reader }{src}, e.buf)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return n, errors.WithContextMap(
			errors.Wrapf(err, errors.CodeIO, "%s of %s failed after %d bytes", req.Mode, req.Source, n),
			map[string]interface{}{"source": req.Source, "dest": req.Dest},
		)
	}
	return n, nil
}

func (e *Engine) record(res *Result, err *error) {
	metrics.RecordTransfer(res.Mode.String(), res.Bytes, *err == nil)
	if *err != nil {
		e.log.Debug("transfer failed",
			zap.String("mode", res.Mode.String()),
			zap.String("source", res.Source),
			zap.String("dest", res.Dest),
			zap.Error(*err),
		)
		return
	}
	e.log.Debug("transfer finished",
		zap.String("mode", res.Mode.String()),
		zap.String("source", res.Source),
		zap.String("dest", res.Dest),
		zap.Int64("bytes", res.Bytes),
	)
}

func errNotFound(p string) error {
	return errors.WithContext(errors.Newf(errors.CodeNotFound, "File %s does not exist", p), "path", p)
}

func errAlreadyExists(p string) error {
	return errors.WithContext(errors.Newf(errors.CodeAlreadyExists, "File %s already exists", p), "path", p)
}
