package webhdfs

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
	"github.com/jmgilman/hdfsh/fs/memory"
)

// namenode is a WebHDFS server for tests. It keeps its namespace in a
// memory.FS and plays both the namenode and the datanode: data operations
// redirect back to itself with datanode=true.
type namenode struct {
	fs  *memory.FS
	srv *httptest.Server

	// noServerDefaults makes GETSERVERDEFAULTS fail like older namenodes.
	noServerDefaults bool

	mu       sync.Mutex
	requests []*http.Request
}

func newNamenode(t *testing.T, opts ...memory.Option) *namenode {
	t.Helper()
	opts = append([]memory.Option{memory.WithHome("/user/alice")}, opts...)
	n := &namenode{fs: memory.New(opts...)}
	n.srv = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.srv.Close)
	return n
}

// client returns an FS talking to n.
func (n *namenode) client(t *testing.T) *FS {
	t.Helper()
	host, port, err := net.SplitHostPort(strings.TrimPrefix(n.srv.URL, "http://"))
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	f, err := New(Options{Host: host, Port: portNum, User: "alice", Timeout: 5 * time.Second, DefaultReplication: 2})
	require.NoError(t, err)
	return f
}

// ops returns the op parameter of every request seen, in order.
func (n *namenode) ops() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.requests))
	for _, r := range n.requests {
		op := r.URL.Query().Get("op")
		if r.URL.Query().Get("datanode") == "true" {
			op += "@datanode"
		}
		out = append(out, op)
	}
	return out
}

func (n *namenode) request(i int) *http.Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.requests[i]
}

func (n *namenode) last() *http.Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.requests[len(n.requests)-1]
}

func (n *namenode) serve(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	n.requests = append(n.requests, r.Clone(r.Context()))
	n.mu.Unlock()

	if !strings.HasPrefix(r.URL.Path, apiPrefix) {
		http.NotFound(w, r)
		return
	}
	p := clean(strings.TrimPrefix(r.URL.Path, apiPrefix))
	q := r.URL.Query()
	ctx := r.Context()

	if q.Get("user.name") == "" {
		writeException(w, http.StatusUnauthorized, "SecurityException", "no user.name")
		return
	}
	dataStep := q.Get("datanode") == "true"

	switch q.Get("op") {
	case "GETHOMEDIRECTORY":
		h, err := n.fs.HomeDirectory(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, pathResponse{Path: h})

	case "GETFILESTATUS":
		e, err := n.fs.Stat(ctx, p)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, fileStatusResponse{FileStatus: statusOf(e, "")})

	case "LISTSTATUS":
		e, err := n.fs.Stat(ctx, p)
		if err != nil {
			writeError(w, err)
			return
		}
		var resp listStatusResponse
		if !e.IsDir() {
			resp.FileStatuses.FileStatus = []fileStatus{statusOf(e, "")}
			writeJSON(w, resp)
			return
		}
		entries, err := n.fs.List(ctx, p)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.FileStatuses.FileStatus = []fileStatus{}
		for _, c := range entries {
			resp.FileStatuses.FileStatus = append(resp.FileStatuses.FileStatus, statusOf(c, c.Name))
		}
		writeJSON(w, resp)

	case "MKDIRS":
		if err := n.fs.MkdirAll(ctx, p); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, booleanResponse{Boolean: true})

	case "CREATE":
		if !dataStep {
			n.redirect(w, r)
			return
		}
		wc, err := n.fs.Create(ctx, p)
		if err != nil {
			writeError(w, err)
			return
		}
		if !copyBody(w, wc, r.Body) {
			return
		}
		w.WriteHeader(http.StatusCreated)

	case "APPEND":
		if !dataStep {
			n.redirect(w, r)
			return
		}
		wc, err := n.fs.Append(ctx, p)
		if err != nil {
			writeError(w, err)
			return
		}
		if !copyBody(w, wc, r.Body) {
			return
		}
		w.WriteHeader(http.StatusOK)

	case "OPEN":
		if !dataStep {
			n.redirect(w, r)
			return
		}
		rc, err := n.fs.Open(ctx, p)
		if err != nil {
			writeError(w, err)
			return
		}
		defer func() { _ = rc.Close() }()
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.Copy(w, rc)

	case "DELETE":
		exists, err := n.fs.Exists(ctx, p)
		if err != nil {
			writeError(w, err)
			return
		}
		if !exists {
			writeJSON(w, booleanResponse{Boolean: false})
			return
		}
		if err := n.fs.Delete(ctx, p, q.Get("recursive") == "true"); err != nil {
			if errors.CodeOf(err) == errors.CodeInvalidInput {
				writeException(w, http.StatusForbidden, "PathIsNotEmptyDirectoryException", "`"+p+" is non empty': Directory is not empty")
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, booleanResponse{Boolean: true})

	case "SETREPLICATION":
		replication, err := strconv.Atoi(q.Get("replication"))
		if err != nil {
			writeException(w, http.StatusBadRequest, "IllegalArgumentException", "bad replication")
			return
		}
		e, err := n.fs.Stat(ctx, p)
		if err != nil || e.IsDir() {
			writeJSON(w, booleanResponse{Boolean: false})
			return
		}
		if err := n.fs.SetReplication(ctx, p, replication); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, booleanResponse{Boolean: true})

	case "GETSERVERDEFAULTS":
		if n.noServerDefaults {
			writeException(w, http.StatusBadRequest, "IllegalArgumentException", `Invalid value for webhdfs parameter "op"`)
			return
		}
		replication, err := n.fs.DefaultReplication(ctx, p)
		if err != nil {
			writeError(w, err)
			return
		}
		var resp serverDefaultsResponse
		resp.ServerDefaults.Replication = replication
		writeJSON(w, resp)

	default:
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", `Invalid value for webhdfs parameter "op"`)
	}
}

func (n *namenode) redirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	q.Set("datanode", "true")
	u := *r.URL
	u.RawQuery = q.Encode()
	// Relative, as some gateways send it.
	w.Header().Set("Location", u.RequestURI())
	w.WriteHeader(http.StatusTemporaryRedirect)
}

func copyBody(w http.ResponseWriter, dst io.WriteCloser, body io.Reader) bool {
	_, err := io.Copy(dst, body)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		writeException(w, http.StatusInternalServerError, "IOException", err.Error())
		return false
	}
	return true
}

func statusOf(e core.Entry, suffix string) fileStatus {
	t := typeFile
	switch e.Kind {
	case core.KindDirectory:
		t = typeDirectory
	case core.KindLink:
		t = typeSymlink
	}
	return fileStatus{
		PathSuffix:       suffix,
		Type:             t,
		Length:           e.Size,
		Replication:      e.Replication,
		ModificationTime: e.ModTime.UnixMilli(),
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeException(w http.ResponseWriter, status int, exception, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(remoteExceptionResponse{RemoteException: remoteException{
		Exception:     exception,
		JavaClassName: "org.apache.hadoop." + exception,
		Message:       message,
	}})
}

func writeError(w http.ResponseWriter, err error) {
	switch errors.CodeOf(err) {
	case errors.CodeNotFound:
		writeException(w, http.StatusNotFound, "FileNotFoundException", err.Error())
	case errors.CodeAlreadyExists:
		writeException(w, http.StatusForbidden, "FileAlreadyExistsException", err.Error())
	case errors.CodeNotDirectory:
		writeException(w, http.StatusForbidden, "ParentNotDirectoryException", err.Error())
	case errors.CodeInvalidInput:
		writeException(w, http.StatusBadRequest, "IllegalArgumentException", err.Error())
	case errors.CodeUnavailable:
		writeException(w, http.StatusServiceUnavailable, "StandbyException", err.Error())
	default:
		writeException(w, http.StatusForbidden, "IOException", err.Error())
	}
}
