package remotetest

import (
	"bytes"
	"context"
	"testing"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
)

// TestReadFS tests Exists, IsDirectory, Stat, List, Open and HomeDirectory.
func TestReadFS(t *testing.T, filesystem core.RemoteFS) {
	TestReadFSWithConfig(t, filesystem, DefaultConfig())
}

// TestReadFSWithConfig tests read operations with behavior configuration.
func TestReadFSWithConfig(t *testing.T, filesystem core.RemoteFS, config SuiteConfig) {
	ctx := context.Background()
	h := home(t, filesystem)
	content := []byte("test file content")

	dir := join(h, "testdir")
	file := join(dir, "testfile.txt")
	if err := filesystem.MkdirAll(ctx, join(dir, "nested")); err != nil {
		t.Fatalf("MkdirAll(%q): setup failed: %v", dir, err)
	}
	writeFile(t, filesystem, file, content)

	config.run(t, "ReadFS", "HomeIsDirectory", func(t *testing.T) {
		isDir, err := filesystem.IsDirectory(ctx, h)
		if err != nil || !isDir {
			t.Errorf("IsDirectory(%q): got (%v, %v), want (true, nil)", h, isDir, err)
		}
	})

	config.run(t, "ReadFS", "Exists", func(t *testing.T) {
		for p, want := range map[string]bool{
			file:                  true,
			dir:                   true,
			join(dir, "missing"):  false,
			join(h, "nope", "no"): false,
		} {
			got, err := filesystem.Exists(ctx, p)
			if err != nil {
				t.Errorf("Exists(%q): got error %v, want nil", p, err)
				continue
			}
			if got != want {
				t.Errorf("Exists(%q): got %v, want %v", p, got, want)
			}
		}
	})

	config.run(t, "ReadFS", "IsDirectory", func(t *testing.T) {
		for p, want := range map[string]bool{
			file:                 false,
			dir:                  true,
			join(dir, "nested"):  true,
			join(dir, "missing"): false,
		} {
			got, err := filesystem.IsDirectory(ctx, p)
			if err != nil {
				t.Errorf("IsDirectory(%q): got error %v, want nil", p, err)
				continue
			}
			if got != want {
				t.Errorf("IsDirectory(%q): got %v, want %v", p, got, want)
			}
		}
	})

	config.run(t, "ReadFS", "StatFile", func(t *testing.T) {
		e, err := filesystem.Stat(ctx, file)
		if err != nil {
			t.Fatalf("Stat(%q): got error %v, want nil", file, err)
		}
		if e.Kind != core.KindFile {
			t.Errorf("Stat(%q).Kind = %v, want file", file, e.Kind)
		}
		if e.Size != int64(len(content)) {
			t.Errorf("Stat(%q).Size = %d, want %d", file, e.Size, len(content))
		}
		if e.Name != "testfile.txt" {
			t.Errorf("Stat(%q).Name = %q, want testfile.txt", file, e.Name)
		}
	})

	config.run(t, "ReadFS", "StatNotExist", func(t *testing.T) {
		_, err := filesystem.Stat(ctx, join(dir, "missing"))
		if errors.CodeOf(err) != errors.CodeNotFound {
			t.Errorf("Stat(missing): got error %v, want NOT_FOUND", err)
		}
	})

	config.run(t, "ReadFS", "List", func(t *testing.T) {
		entries, err := filesystem.List(ctx, dir)
		if err != nil {
			t.Fatalf("List(%q): got error %v, want nil", dir, err)
		}
		if len(entries) != 2 {
			t.Fatalf("List(%q): got %d entries, want 2: %+v", dir, len(entries), entries)
		}
		if entries[0].Name != "nested" || entries[0].Kind != core.KindDirectory {
			t.Errorf("List(%q)[0] = %+v, want directory nested", dir, entries[0])
		}
		if entries[1].Name != "testfile.txt" || entries[1].Kind != core.KindFile {
			t.Errorf("List(%q)[1] = %+v, want file testfile.txt", dir, entries[1])
		}
		if entries[1].Path != file {
			t.Errorf("List(%q)[1].Path = %q, want %q", dir, entries[1].Path, file)
		}
	})

	config.run(t, "ReadFS", "ListNotExist", func(t *testing.T) {
		_, err := filesystem.List(ctx, join(dir, "missing"))
		if errors.CodeOf(err) != errors.CodeNotFound {
			t.Errorf("List(missing): got error %v, want NOT_FOUND", err)
		}
	})

	config.run(t, "ReadFS", "Open", func(t *testing.T) {
		got := readFile(t, filesystem, file)
		if !bytes.Equal(got, content) {
			t.Errorf("Open(%q): read %q, want %q", file, got, content)
		}
	})

	config.run(t, "ReadFS", "OpenNotExist", func(t *testing.T) {
		_, err := filesystem.Open(ctx, join(dir, "missing"))
		if errors.CodeOf(err) != errors.CodeNotFound {
			t.Errorf("Open(missing): got error %v, want NOT_FOUND", err)
		}
	})
}
