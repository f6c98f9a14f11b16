package remotetest

import (
	"bytes"
	"context"
	"testing"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
)

// TestWriteFS tests MkdirAll, Create, Append and Delete.
func TestWriteFS(t *testing.T, filesystem core.RemoteFS) {
	TestWriteFSWithConfig(t, filesystem, DefaultConfig())
}

// TestWriteFSWithConfig tests write operations with behavior configuration.
func TestWriteFSWithConfig(t *testing.T, filesystem core.RemoteFS, config SuiteConfig) {
	ctx := context.Background()
	h := home(t, filesystem)

	config.run(t, "WriteFS", "MkdirAll", func(t *testing.T) {
		p := join(h, "a", "b", "c")
		if err := filesystem.MkdirAll(ctx, p); err != nil {
			t.Fatalf("MkdirAll(%q): got error %v, want nil", p, err)
		}
		for _, d := range []string{join(h, "a"), join(h, "a", "b"), p} {
			if ok, err := filesystem.IsDirectory(ctx, d); err != nil || !ok {
				t.Errorf("IsDirectory(%q) after MkdirAll: got (%v, %v), want (true, nil)", d, ok, err)
			}
		}
		if err := filesystem.MkdirAll(ctx, p); err != nil {
			t.Errorf("MkdirAll(%q) twice: got error %v, want nil", p, err)
		}
	})

	config.run(t, "WriteFS", "Create", func(t *testing.T) {
		p := join(h, "created.txt")
		writeFile(t, filesystem, p, []byte("created"))
		if got := readFile(t, filesystem, p); string(got) != "created" {
			t.Errorf("content of %q = %q, want %q", p, got, "created")
		}
	})

	config.run(t, "WriteFS", "CreateExisting", func(t *testing.T) {
		p := join(h, "existing.txt")
		writeFile(t, filesystem, p, []byte("one"))
		w, err := filesystem.Create(ctx, p)
		if err == nil {
			_ = w.Close()
		}
		if errors.CodeOf(err) != errors.CodeAlreadyExists {
			t.Errorf("Create(%q) on existing file: got error %v, want ALREADY_EXISTS", p, err)
		}
		if got := readFile(t, filesystem, p); string(got) != "one" {
			t.Errorf("content of %q after refused create = %q, want %q", p, got, "one")
		}
	})

	config.run(t, "WriteFS", "CreateEmpty", func(t *testing.T) {
		p := join(h, "empty.txt")
		writeFile(t, filesystem, p, nil)
		e, err := filesystem.Stat(ctx, p)
		if err != nil {
			t.Fatalf("Stat(%q): got error %v, want nil", p, err)
		}
		if e.Size != 0 || e.Kind != core.KindFile {
			t.Errorf("Stat(%q) = %+v, want empty file", p, e)
		}
	})

	config.run(t, "WriteFS", "Append", func(t *testing.T) {
		p := join(h, "log.txt")
		writeFile(t, filesystem, p, []byte("hello "))

		w, err := filesystem.Append(ctx, p)
		if err != nil {
			t.Fatalf("Append(%q): got error %v, want nil", p, err)
		}
		if _, err := w.Write([]byte("world")); err != nil {
			t.Fatalf("Write(): got error %v, want nil", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close(): got error %v, want nil", err)
		}

		waitClosed(t, filesystem, p, config.LeaseHold)
		if got := readFile(t, filesystem, p); !bytes.Equal(got, []byte("hello world")) {
			t.Errorf("content of %q after append = %q, want %q", p, got, "hello world")
		}
	})

	config.run(t, "WriteFS", "AppendNotExist", func(t *testing.T) {
		p := join(h, "missing.txt")
		w, err := filesystem.Append(ctx, p)
		if err == nil {
			_ = w.Close()
		}
		if errors.CodeOf(err) != errors.CodeNotFound {
			t.Errorf("Append(%q): got error %v, want NOT_FOUND", p, err)
		}
	})

	config.run(t, "WriteFS", "DeleteFile", func(t *testing.T) {
		p := join(h, "doomed.txt")
		writeFile(t, filesystem, p, []byte("x"))
		if err := filesystem.Delete(ctx, p, false); err != nil {
			t.Fatalf("Delete(%q): got error %v, want nil", p, err)
		}
		if ok, _ := filesystem.Exists(ctx, p); ok {
			t.Errorf("Exists(%q) after Delete = true, want false", p)
		}
	})

	config.run(t, "WriteFS", "DeleteRecursive", func(t *testing.T) {
		d := join(h, "tree")
		if err := filesystem.MkdirAll(ctx, join(d, "sub")); err != nil {
			t.Fatalf("MkdirAll: setup failed: %v", err)
		}
		writeFile(t, filesystem, join(d, "sub", "leaf.txt"), []byte("leaf"))
		writeFile(t, filesystem, join(d, "top.txt"), []byte("top"))

		if err := filesystem.Delete(ctx, d, true); err != nil {
			t.Fatalf("Delete(%q, recursive): got error %v, want nil", d, err)
		}
		for _, p := range []string{d, join(d, "sub"), join(d, "top.txt"), join(d, "sub", "leaf.txt")} {
			if ok, _ := filesystem.Exists(ctx, p); ok {
				t.Errorf("Exists(%q) after recursive Delete = true, want false", p)
			}
		}
		if ok, _ := filesystem.IsDirectory(ctx, h); !ok {
			t.Errorf("IsDirectory(%q) after deleting a child = false, want true", h)
		}
	})

	config.run(t, "WriteFS", "DeleteNonEmptyWithoutRecursive", func(t *testing.T) {
		d := join(h, "full")
		writeFile(t, filesystem, join(d, "f.txt"), []byte("f"))
		if err := filesystem.Delete(ctx, d, false); err == nil {
			t.Errorf("Delete(%q, non-recursive) on non-empty dir: got nil, want error", d)
		}
		if ok, _ := filesystem.Exists(ctx, join(d, "f.txt")); !ok {
			t.Errorf("child removed by refused non-recursive delete")
		}
	})

	config.run(t, "WriteFS", "DeleteNotExist", func(t *testing.T) {
		err := filesystem.Delete(ctx, join(h, "ghost"), true)
		if errors.CodeOf(err) != errors.CodeNotFound {
			t.Errorf("Delete(ghost): got error %v, want NOT_FOUND", err)
		}
	})
}
