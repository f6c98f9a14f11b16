package remotetest

import (
	"context"
	"testing"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
)

// TestReplication tests SetReplication and DefaultReplication.
func TestReplication(t *testing.T, filesystem core.RemoteFS) {
	TestReplicationWithConfig(t, filesystem, DefaultConfig())
}

// TestReplicationWithConfig tests replication with behavior configuration.
func TestReplicationWithConfig(t *testing.T, filesystem core.RemoteFS, config SuiteConfig) {
	ctx := context.Background()
	h := home(t, filesystem)
	p := join(h, "replicated.txt")
	writeFile(t, filesystem, p, []byte("data"))

	config.run(t, "Replication", "Default", func(t *testing.T) {
		n, err := filesystem.DefaultReplication(ctx, p)
		if err != nil {
			t.Fatalf("DefaultReplication(%q): got error %v, want nil", p, err)
		}
		if n < 1 {
			t.Errorf("DefaultReplication(%q) = %d, want >= 1", p, n)
		}
	})

	config.run(t, "Replication", "Set", func(t *testing.T) {
		if err := filesystem.SetReplication(ctx, p, 2); err != nil {
			t.Fatalf("SetReplication(%q, 2): got error %v, want nil", p, err)
		}
		e, err := filesystem.Stat(ctx, p)
		if err != nil {
			t.Fatalf("Stat(%q): got error %v, want nil", p, err)
		}
		if e.Replication != 2 {
			t.Errorf("Stat(%q).Replication = %d, want 2", p, e.Replication)
		}
	})

	config.run(t, "Replication", "SetNotExist", func(t *testing.T) {
		err := filesystem.SetReplication(ctx, join(h, "ghost"), 2)
		if errors.CodeOf(err) != errors.CodeNotFound {
			t.Errorf("SetReplication(ghost): got error %v, want NOT_FOUND", err)
		}
	})
}

// TestLease tests RecoverLease and IsFileClosed.
func TestLease(t *testing.T, filesystem core.RemoteFS) {
	TestLeaseWithConfig(t, filesystem, DefaultConfig())
}

// TestLeaseWithConfig tests lease polling with behavior configuration.
func TestLeaseWithConfig(t *testing.T, filesystem core.RemoteFS, config SuiteConfig) {
	ctx := context.Background()
	h := home(t, filesystem)

	config.run(t, "Lease", "ClosedAfterCreate", func(t *testing.T) {
		p := join(h, "fresh.txt")
		writeFile(t, filesystem, p, []byte("x"))
		closed, err := filesystem.IsFileClosed(ctx, p)
		if err != nil && !errors.Is(err, core.ErrUnsupported) {
			t.Fatalf("IsFileClosed(%q): got error %v, want nil", p, err)
		}
		if err == nil && !closed {
			t.Errorf("IsFileClosed(%q) after Create/Close = false, want true", p)
		}
	})

	config.run(t, "Lease", "RecoverClosedFile", func(t *testing.T) {
		p := join(h, "recover.txt")
		writeFile(t, filesystem, p, []byte("x"))
		closed, err := filesystem.RecoverLease(ctx, p)
		if errors.Is(err, core.ErrUnsupported) {
			t.Skip("provider does not support lease recovery")
			return
		}
		if err != nil {
			t.Fatalf("RecoverLease(%q): got error %v, want nil", p, err)
		}
		if !closed {
			t.Errorf("RecoverLease(%q) on closed file = false, want true", p)
		}
	})

	config.run(t, "Lease", "ClosesAfterAppend", func(t *testing.T) {
		p := join(h, "appended.txt")
		writeFile(t, filesystem, p, []byte("a"))
		w, err := filesystem.Append(ctx, p)
		if err != nil {
			t.Fatalf("Append(%q): got error %v, want nil", p, err)
		}
		if _, err := w.Write([]byte("b")); err != nil {
			t.Fatalf("Write(): got error %v, want nil", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close(): got error %v, want nil", err)
		}
		waitClosed(t, filesystem, p, config.LeaseHold)
	})
}

// waitClosed polls IsFileClosed, expecting the file to close within hold+1 polls.
func waitClosed(t *testing.T, filesystem core.RemoteFS, p string, hold int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i <= hold; i++ {
		closed, err := filesystem.IsFileClosed(ctx, p)
		if errors.Is(err, core.ErrUnsupported) {
			return
		}
		if err != nil {
			t.Fatalf("IsFileClosed(%q): got error %v, want nil", p, err)
		}
		if closed {
			if i < hold {
				t.Errorf("IsFileClosed(%q) closed after %d polls, want %d", p, i, hold)
			}
			return
		}
	}
	t.Errorf("IsFileClosed(%q) still open after %d polls", p, hold+1)
}
