// Package remotetest provides a conformance suite for core.RemoteFS providers.
//
// Every backend the shell can connect to runs the same suite, so the session
// can rely on identical semantics for existence checks, exclusive creation,
// appends, recursive deletes, replication and lease polling.
//
// Example usage:
//
//	func TestMyProvider(t *testing.T) {
//	    remotetest.TestSuite(t, func() core.RemoteFS {
//	        return myprovider.New()
//	    })
//	}
package remotetest

import (
	"context"
	"io"
	"path"
	"testing"

	"github.com/jmgilman/hdfsh/fs/core"
)

// SuiteConfig adapts the suite to backend characteristics.
type SuiteConfig struct {
	// LeaseHold is the number of IsFileClosed polls an appended file is
	// expected to stay open for. Zero means the file is closed as soon as the
	// append writer is.
	LeaseHold int

	// SkipTests lists group or subtest names to skip, e.g. "Lease" or
	// "WriteFS/DeleteNonEmptyWithoutRecursive".
	SkipTests []string
}

// DefaultConfig returns the configuration for backends that close files
// synchronously.
func DefaultConfig() SuiteConfig {
	return SuiteConfig{}
}

// TestSuite runs every group with DefaultConfig.
func TestSuite(t *testing.T, newFS func() core.RemoteFS) {
	TestSuiteWithConfig(t, newFS, DefaultConfig())
}

// TestSuiteWithConfig runs every group. newFS must return a fresh, empty
// filesystem for each call.
func TestSuiteWithConfig(t *testing.T, newFS func() core.RemoteFS, config SuiteConfig) {
	groups := []struct {
		name string
		run  func(*testing.T, core.RemoteFS, SuiteConfig)
	}{
		{"ReadFS", TestReadFSWithConfig},
		{"WriteFS", TestWriteFSWithConfig},
		{"Replication", TestReplicationWithConfig},
		{"Lease", TestLeaseWithConfig},
	}

	for _, g := range groups {
		t.Run(g.name, func(t *testing.T) {
			if config.shouldSkip(g.name) {
				t.Skip("Skipped by provider configuration")
				return
			}
			filesystem := newFS()
			defer func() { _ = filesystem.Close() }()
			g.run(t, filesystem, config)
		})
	}
}

func (c SuiteConfig) shouldSkip(name string) bool {
	for _, skip := range c.SkipTests {
		if skip == name {
			return true
		}
	}
	return false
}

func (c SuiteConfig) run(t *testing.T, group, name string, fn func(t *testing.T)) {
	t.Run(name, func(t *testing.T) {
		if c.shouldSkip(group + "/" + name) {
			t.Skip("Skipped by provider configuration")
			return
		}
		fn(t)
	})
}

// home returns the provider's home directory, failing the test if it is not
// usable as a working directory.
func home(t *testing.T, filesystem core.RemoteFS) string {
	t.Helper()
	ctx := context.Background()
	h, err := filesystem.HomeDirectory(ctx)
	if err != nil {
		t.Fatalf("HomeDirectory(): setup failed: %v", err)
	}
	if err := filesystem.MkdirAll(ctx, h); err != nil {
		t.Fatalf("MkdirAll(%q): setup failed: %v", h, err)
	}
	return h
}

func writeFile(t *testing.T, filesystem core.RemoteFS, p string, data []byte) {
	t.Helper()
	w, err := filesystem.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create(%q): setup failed: %v", p, err)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		t.Fatalf("Write(%q): setup failed: %v", p, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close(%q): setup failed: %v", p, err)
	}
}

func readFile(t *testing.T, filesystem core.RemoteFS, p string) []byte {
	t.Helper()
	r, err := filesystem.Open(context.Background(), p)
	if err != nil {
		t.Fatalf("Open(%q): got error %v, want nil", p, err)
	}
	defer func() { _ = r.Close() }()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll(%q): got error %v, want nil", p, err)
	}
	return data
}

func join(elem ...string) string {
	return path.Join(elem...)
}
