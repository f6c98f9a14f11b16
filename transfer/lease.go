package transfer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
	"github.com/jmgilman/hdfsh/logging"
	"github.com/jmgilman/hdfsh/metrics"
)

const (
	// DefaultLeaseTimeout bounds how long Wait polls.
	DefaultLeaseTimeout = 60 * time.Second
	// DefaultPollInterval is the pause between IsFileClosed polls.
	DefaultPollInterval = time.Second
)

// State is the position of a lease wait.
type State int

const (
	StateRequesting State = iota
	StatePolling
	StateDone
)

func (s State) String() string {
	switch s {
	case StateRequesting:
		return "requesting"
	case StatePolling:
		return "polling"
	default:
		return "done"
	}
}

// LeaseConfig configures a LeaseWaiter.
type LeaseConfig struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

// DefaultLeaseConfig returns a 60s timeout polled every second.
func DefaultLeaseConfig() LeaseConfig {
	return LeaseConfig{Timeout: DefaultLeaseTimeout, PollInterval: DefaultPollInterval}
}

// LeaseResult is the outcome of a wait.
type LeaseResult struct {
	Path  string
	State State
	// Closed is true when the service reported the file closed.
	Closed bool
	// TimedOut is true when the wait gave up with the file still open.
	TimedOut bool
	Polls    int
	Elapsed  time.Duration
	// RecoverErr is the error returned by the lease recovery request, if any.
	// It never stops the wait.
	RecoverErr error
	// Err is set when the wait was cut short by its context or by a
	// permanent polling failure.
	Err error
}

// LeaseWaiter waits for a file to be closed after an append. It first asks
// the service to recover the lease, then polls IsFileClosed until the file is
// closed or the timeout elapses.
type LeaseWaiter struct {
	fs    core.LeaseFS
	cfg   LeaseConfig
	clock Clock
	log   *zap.Logger
}

// LeaseOption configures a LeaseWaiter.
type LeaseOption func(*LeaseWaiter)

// WithClock replaces the wall clock.
func WithClock(c Clock) LeaseOption {
	return func(w *LeaseWaiter) { w.clock = c }
}

// NewLeaseWaiter creates a waiter. Zero config values take the defaults.
func NewLeaseWaiter(lfs core.LeaseFS, cfg LeaseConfig, opts ...LeaseOption) *LeaseWaiter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLeaseTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	w := &LeaseWaiter{
		fs:    lfs,
		cfg:   cfg,
		clock: SystemClock{},
		log:   logging.Named("lease"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wait runs the wait for p. Failures of the service are logged and folded
// into the result; Wait never returns an error of its own.
func (w *LeaseWaiter) Wait(ctx context.Context, p string) LeaseResult {
	res := LeaseResult{Path: p, State: StateRequesting}

	if _, err := w.fs.RecoverLease(ctx, p); err != nil {
		res.RecoverErr = err
		if errors.Is(err, core.ErrUnsupported) {
			w.log.Debug("lease recovery not supported", zap.String("path", p))
		} else {
			w.log.Warn("lease recovery failed", zap.String("path", p), zap.Error(err))
		}
	}

	res.State = StatePolling
	start := w.clock.Now()
poll:
	for {
		res.Polls++
		metrics.RecordLeasePoll()
		closed, err := w.fs.IsFileClosed(ctx, p)
		switch {
		case errors.Is(err, core.ErrUnsupported):
			closed = true
		case err != nil && permanent(err):
			w.log.Warn("lease poll failed", zap.String("path", p), zap.Int("poll", res.Polls), zap.Error(err))
			res.Err = err
			res.Elapsed = w.clock.Now().Sub(start)
			break poll
		case err != nil:
			w.log.Debug("lease poll failed", zap.String("path", p), zap.Int("poll", res.Polls), zap.Error(err))
			closed = false
		}

		res.Elapsed = w.clock.Now().Sub(start)
		if closed {
			res.Closed = true
			break
		}
		if res.Elapsed >= w.cfg.Timeout {
			res.TimedOut = true
			w.log.Warn("file still open after lease timeout",
				zap.String("path", p),
				zap.Duration("timeout", w.cfg.Timeout),
				zap.Int("polls", res.Polls),
			)
			break
		}

		pause := w.cfg.PollInterval
		if remaining := w.cfg.Timeout - res.Elapsed; remaining < pause {
			pause = remaining
		}
		if err := w.clock.Sleep(ctx, pause); err != nil {
			res.Err = err
			res.Elapsed = w.clock.Now().Sub(start)
			break
		}
	}

	res.State = StateDone
	metrics.RecordLeaseWait(res.Elapsed, res.TimedOut)
	w.log.Debug("lease wait finished",
		zap.String("path", p),
		zap.Bool("closed", res.Closed),
		zap.Bool("timed_out", res.TimedOut),
		zap.Int("polls", res.Polls),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res
}

// permanent reports whether a poll error will not go away by polling again.
// Errors without a code are treated as transient.
func permanent(err error) bool {
	return errors.GetCode(err) != errors.CodeUnknown && !errors.IsRetryable(err)
}
