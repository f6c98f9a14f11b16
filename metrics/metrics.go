// Package metrics provides Prometheus metrics for hdfsh.
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmgilman/hdfsh/errors"
)

var (
	// Command metrics
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hdfsh_commands_total",
			Help: "Total number of shell commands dispatched",
		},
		[]string{"command", "status"},
	)

	commandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hdfsh_command_duration_seconds",
			Help:    "Shell command duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// Transfer metrics
	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hdfsh_transfers_total",
			Help: "Total number of put, get and append transfers",
		},
		[]string{"mode", "status"},
	)

	transferBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hdfsh_transfer_bytes_total",
			Help: "Total bytes copied by transfers",
		},
		[]string{"mode"},
	)

	// Lease metrics
	leaseWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hdfsh_lease_wait_duration_seconds",
			Help:    "Time spent waiting for appended files to close",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 30, 45, 60, 90},
		},
	)

	leasePollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hdfsh_lease_polls_total",
			Help: "Total IsFileClosed polls issued by the lease waiter",
		},
	)

	leaseTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hdfsh_lease_timeouts_total",
			Help: "Total lease waits that gave up before the file closed",
		},
	)

	// Remote backend metrics
	remoteOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hdfsh_remote_operation_duration_seconds",
			Help:    "Remote backend operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	remoteOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hdfsh_remote_operations_total",
			Help: "Total remote backend operations",
		},
		[]string{"backend", "operation", "status"},
	)
)

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCommand records one dispatched shell command.
func RecordCommand(command string, duration time.Duration, success bool) {
	commandsTotal.WithLabelValues(command, status(success)).Inc()
	commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordTransfer records a finished transfer and the bytes it moved.
func RecordTransfer(mode string, bytes int64, success bool) {
	transfersTotal.WithLabelValues(mode, status(success)).Inc()
	if bytes > 0 {
		transferBytes.WithLabelValues(mode).Add(float64(bytes))
	}
}

// RecordLeasePoll records one IsFileClosed poll.
func RecordLeasePoll() {
	leasePollsTotal.Inc()
}

// RecordLeaseWait records a finished lease wait.
func RecordLeaseWait(duration time.Duration, timedOut bool) {
	leaseWaitDuration.Observe(duration.Seconds())
	if timedOut {
		leaseTimeoutsTotal.Inc()
	}
}

// RecordRemoteOperation records a remote backend call.
func RecordRemoteOperation(backend, operation string, duration time.Duration, success bool) {
	remoteOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	remoteOperationsTotal.WithLabelValues(backend, operation, status(success)).Inc()
}

// Server exposes /metrics over HTTP.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen binds addr and starts serving /metrics in the background.
func Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidConfig, "failed to listen on %s", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	s := &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}
	go func() { _ = s.srv.Serve(ln) }()
	return s, nil
}

// Addr returns the address the server is bound to.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
