package shell

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/local"
	"github.com/jmgilman/hdfsh/fs/memory"
	"github.com/jmgilman/hdfsh/resolve"
	"github.com/jmgilman/hdfsh/transfer"
)

type instantClock struct {
	now time.Time
}

func (c *instantClock) Now() time.Time { return c.now }

func (c *instantClock) Sleep(_ context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return nil
}

type harness struct {
	remote  *memory.FS
	local   *local.FS
	out     *bytes.Buffer
	session *Session
}

func newHarness(t *testing.T, policy resolve.Policy, opts ...memory.Option) *harness {
	t.Helper()
	opts = append([]memory.Option{memory.WithHome("/home/alice")}, opts...)
	h := &harness{
		remote: memory.New(opts...),
		local:  local.NewMemory(),
		out:    &bytes.Buffer{},
	}
	require.NoError(t, h.local.Unwrap().MkdirAll("/work/sub", 0o755))

	clock := &instantClock{now: time.Unix(0, 0)}
	waiter := transfer.NewLeaseWaiter(h.remote, transfer.LeaseConfig{Timeout: 3 * time.Second, PollInterval: time.Second}, transfer.WithClock(clock))
	engine := transfer.NewEngine(h.remote, h.local, waiter, transfer.Config{})

	s, err := NewSession(context.Background(), h.remote, h.local, Options{
		LocalDir: "/work",
		Policy:   policy,
		Engine:   engine,
		Out:      h.out,
	})
	require.NoError(t, err)
	h.session = s
	return h
}

// run dispatches line and returns what it printed.
func (h *harness) run(t *testing.T, line string) string {
	t.Helper()
	h.out.Reset()
	exit := h.session.Dispatch(context.Background(), line)
	assert.False(t, exit, "unexpected exit for %q", line)
	return h.out.String()
}

func (h *harness) readRemote(t *testing.T, p string) []byte {
	t.Helper()
	r, err := h.remote.Open(context.Background(), p)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

func TestNewSession(t *testing.T) {
	h := newHarness(t, resolve.PolicyStrict)
	assert.Equal(t, "/home/alice", h.session.RemoteCwd())
	assert.Equal(t, "/work", h.session.LocalCwd())
}

func TestNewSession_RemoteDirOverride(t *testing.T) {
	remote := memory.New()
	loc := local.NewMemory()
	s, err := NewSession(context.Background(), remote, loc, Options{LocalDir: "/", RemoteDir: "/tmp/../data/"})
	require.NoError(t, err)
	assert.Equal(t, "/data", s.RemoteCwd())
}

func TestNewSession_MissingLocalDir(t *testing.T) {
	_, err := NewSession(context.Background(), memory.New(), local.NewMemory(), Options{LocalDir: "/nowhere"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestNewSession_RemoteUnavailable(t *testing.T) {
	remote := memory.New()
	require.NoError(t, remote.Close())

	_, err := NewSession(context.Background(), remote, local.NewMemory(), Options{LocalDir: "/"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeUnavailable, errors.GetCode(err))
}

func TestSession_MkdirAndCd(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, resolve.PolicyStrict)

	assert.Empty(t, h.run(t, `mkdir "reports"`))
	assert.Equal(t, "/home/alice", h.session.RemoteCwd())
	isDir, err := h.remote.IsDirectory(ctx, "/home/alice/reports")
	require.NoError(t, err)
	assert.True(t, isDir)

	assert.Empty(t, h.run(t, `cd "reports"`))
	assert.Equal(t, "/home/alice/reports", h.session.RemoteCwd())

	assert.Empty(t, h.run(t, `cd ".."`))
	assert.Equal(t, "/home/alice", h.session.RemoteCwd())

	assert.Equal(t, "/home/alice\n", h.run(t, "cd"))
}

func TestSession_MkdirExisting(t *testing.T) {
	h := newHarness(t, resolve.PolicyStrict)
	h.run(t, `mkdir "reports"`)
	assert.Equal(t, "Dir /home/alice/reports already exists\n", h.run(t, `mkdir "reports"`))
}

func TestSession_MkdirNested(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, resolve.PolicyStrict)
	assert.Empty(t, h.run(t, `mkdir "a/b/c"`))
	isDir, err := h.remote.IsDirectory(ctx, "/home/alice/a/b/c")
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestSession_CdRules(t *testing.T) {
	ctx := context.Background()

	t.Run("relative missing is rejected", func(t *testing.T) {
		h := newHarness(t, resolve.PolicyStrict)
		out := h.run(t, `cd "nope"`)
		assert.Contains(t, out, "Wrong input!")
		assert.Equal(t, "/home/alice", h.session.RemoteCwd())
	})

	t.Run("absolute missing under strict", func(t *testing.T) {
		h := newHarness(t, resolve.PolicyStrict)
		out := h.run(t, `cd "/nope"`)
		assert.NotEmpty(t, out)
		assert.Equal(t, "/home/alice", h.session.RemoteCwd())
	})

	t.Run("absolute missing under lazy", func(t *testing.T) {
		h := newHarness(t, resolve.PolicyLazy)
		assert.Empty(t, h.run(t, `cd "/nope"`))
		assert.Equal(t, "/nope", h.session.RemoteCwd())
		assert.Equal(t, "Path /nope is not a directory\n", h.run(t, "ls"))
	})

	t.Run("absolute existing", func(t *testing.T) {
		h := newHarness(t, resolve.PolicyStrict)
		require.NoError(t, h.remote.MkdirAll(ctx, "/data/raw"))
		assert.Empty(t, h.run(t, `cd "/data/raw"`))
		assert.Equal(t, "/data/raw", h.session.RemoteCwd())
	})

	t.Run("root parent stays at root", func(t *testing.T) {
		h := newHarness(t, resolve.PolicyStrict)
		h.run(t, `cd "/"`)
		h.run(t, `cd ".."`)
		assert.Equal(t, "/", h.session.RemoteCwd())
	})
}

func TestSession_Lcd(t *testing.T) {
	h := newHarness(t, resolve.PolicyStrict)

	assert.Equal(t, "/work\n", h.run(t, "lcd"))
	assert.Empty(t, h.run(t, `lcd "sub"`))
	assert.Equal(t, "/work/sub", h.session.LocalCwd())
	assert.Empty(t, h.run(t, `lcd ".."`))
	assert.Equal(t, "/work", h.session.LocalCwd())

	assert.Contains(t, h.run(t, `lcd "missing"`), "Wrong input!")
	assert.Equal(t, "/work", h.session.LocalCwd())
}

func TestSession_PutMissing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, resolve.PolicyStrict)

	out := h.run(t, `put "notes.txt"`)
	assert.Contains(t, out, "does not exist")

	entries, err := h.remote.List(ctx, "/home/alice")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSession_PutGet(t *testing.T) {
	h := newHarness(t, resolve.PolicyStrict)
	require.NoError(t, util.WriteFile(h.local.Unwrap(), "/work/notes.txt", []byte("hello"), 0o644))

	assert.Empty(t, h.run(t, `put "notes.txt"`))
	assert.Equal(t, []byte("hello"), h.readRemote(t, "/home/alice/notes.txt"))

	assert.Equal(t, "File /home/alice/notes.txt already exists\n", h.run(t, `put "notes.txt"`))

	h.run(t, `lcd "sub"`)
	assert.Empty(t, h.run(t, `get "notes.txt"`))
	data, err := util.ReadFile(h.local.Unwrap(), "/work/sub/notes.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestSession_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("closes in time", func(t *testing.T) {
		h := newHarness(t, resolve.PolicyStrict, memory.WithLeaseHold(1))
		require.NoError(t, util.WriteFile(h.remote.Unwrap(), "/home/alice/log.txt", []byte("a"), 0o644))
		require.NoError(t, util.WriteFile(h.local.Unwrap(), "/work/more.txt", []byte("b"), 0o644))

		assert.Empty(t, h.run(t, `append "more.txt" "log.txt"`))
		assert.Equal(t, []byte("ab"), h.readRemote(t, "/home/alice/log.txt"))
		closed, err := h.remote.IsFileClosed(ctx, "/home/alice/log.txt")
		require.NoError(t, err)
		assert.True(t, closed)
	})

	t.Run("lease timeout warns", func(t *testing.T) {
		h := newHarness(t, resolve.PolicyStrict, memory.WithLeaseHold(50))
		require.NoError(t, util.WriteFile(h.remote.Unwrap(), "/home/alice/log.txt", []byte("a"), 0o644))
		require.NoError(t, util.WriteFile(h.local.Unwrap(), "/work/more.txt", []byte("b"), 0o644))

		out := h.run(t, `append "more.txt" "log.txt"`)
		assert.Contains(t, out, "Warning: ")
		assert.Contains(t, out, "still open")
		assert.Equal(t, []byte("ab"), h.readRemote(t, "/home/alice/log.txt"))
	})

	t.Run("missing remote", func(t *testing.T) {
		h := newHarness(t, resolve.PolicyStrict)
		require.NoError(t, util.WriteFile(h.local.Unwrap(), "/work/more.txt", []byte("b"), 0o644))
		assert.Equal(t, "File /home/alice/log.txt does not exist\n", h.run(t, `append "more.txt" "log.txt"`))
	})
}

func TestSession_Delete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, resolve.PolicyStrict)
	require.NoError(t, util.WriteFile(h.remote.Unwrap(), "/home/alice/reports/q1.csv", []byte("x"), 0o644))

	assert.Empty(t, h.run(t, `delete "reports"`))
	exists, err := h.remote.Exists(ctx, "/home/alice/reports")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, "File /home/alice/reports does not exist\n", h.run(t, `delete "reports"`))
}

func TestSession_Ls(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, resolve.PolicyStrict)
	require.NoError(t, util.WriteFile(h.remote.Unwrap(), "/home/alice/b.txt", []byte("b"), 0o644))
	require.NoError(t, util.WriteFile(h.remote.Unwrap(), "/home/alice/a.txt", []byte("a"), 0o644))
	require.NoError(t, h.remote.MkdirAll(ctx, "/home/alice/zeta"))

	want := "    📁 zeta\n" +
		"    📄 a.txt\n" +
		"    📄 b.txt\n"
	assert.Equal(t, want, h.run(t, "ls"))
}

func TestSession_Lls(t *testing.T) {
	h := newHarness(t, resolve.PolicyStrict)
	require.NoError(t, util.WriteFile(h.local.Unwrap(), "/work/data.bin", []byte("x"), 0o644))

	want := "    📁 sub\n" +
		"    📄 data.bin\n"
	assert.Equal(t, want, h.run(t, "lls"))
}

func TestSession_InputErrors(t *testing.T) {
	h := newHarness(t, resolve.PolicyStrict)

	assert.Equal(t, "Command not recognized: frobnicate\n", h.run(t, "frobnicate"))
	assert.Equal(t, "Command not recognized: cd reports\n", h.run(t, "cd reports"))
	assert.Equal(t, "Wrong input! Usage: mkdir \"directory name\"\n", h.run(t, "mkdir"))
	assert.Equal(t, "Wrong input! Usage: ls\n", h.run(t, `ls "x"`))
	assert.Equal(t, "Wrong input! unterminated quote\n", h.run(t, `put "notes.txt`))
	assert.Contains(t, h.run(t, `mkdir ""`), "Wrong input!")
	assert.Empty(t, h.run(t, "   "))
}

func TestSession_HelpAndExit(t *testing.T) {
	h := newHarness(t, resolve.PolicyStrict)
	assert.Equal(t, HelpText+"\n", h.run(t, "help"))

	h.out.Reset()
	assert.True(t, h.session.Dispatch(context.Background(), "exit"))
	assert.Empty(t, h.out.String())
}

func TestSession_RemoteFailureIsRendered(t *testing.T) {
	h := newHarness(t, resolve.PolicyStrict)
	require.NoError(t, h.remote.Close())

	out := h.run(t, "ls")
	assert.Contains(t, out, "Remote service unavailable")
}
