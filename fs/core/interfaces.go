package core

import (
	"context"
	"io"
	"io/fs"
)

// RemoteFS is the remote storage service a shell session is connected to.
//
// Paths are absolute and slash separated. All methods may block on the
// network and honour ctx. Errors carry codes from the errors package or wrap
// fs.ErrNotExist, fs.ErrExist or ErrUnsupported.
type RemoteFS interface {
	RemoteReadFS
	RemoteWriteFS
	ReplicationFS
	LeaseFS

	// Close releases the connection. Calls after Close fail.
	io.Closer

	// Type returns the underlying filesystem type.
	Type() FSType
}

// RemoteReadFS defines read-only remote operations.
type RemoteReadFS interface {
	// Exists reports whether p names anything at all.
	Exists(ctx context.Context, p string) (bool, error)

	// IsDirectory reports whether p is a directory. A missing path is not an
	// error; it returns false.
	IsDirectory(ctx context.Context, p string) (bool, error)

	// Stat describes p.
	Stat(ctx context.Context, p string) (Entry, error)

	// List returns the children of dir sorted by name.
	List(ctx context.Context, dir string) ([]Entry, error)

	// Open opens p for streaming reads.
	Open(ctx context.Context, p string) (io.ReadCloser, error)

	// HomeDirectory returns the working directory a new session starts in.
	HomeDirectory(ctx context.Context) (string, error)
}

// RemoteWriteFS defines remote mutations.
type RemoteWriteFS interface {
	// MkdirAll creates dir and any missing parents.
	MkdirAll(ctx context.Context, dir string) error

	// Create creates a new file at p and returns a writer for its content.
	// It fails with an already-exists error if p exists. The file is complete
	// once the writer is closed without error.
	Create(ctx context.Context, p string) (io.WriteCloser, error)

	// Append opens the existing file p for appending.
	Append(ctx context.Context, p string) (io.WriteCloser, error)

	// Delete removes p. Non-empty directories require recursive.
	Delete(ctx context.Context, p string, recursive bool) error
}

// ReplicationFS exposes the replication factor of remote files.
type ReplicationFS interface {
	// SetReplication changes the replication factor of p.
	SetReplication(ctx context.Context, p string, replication int) error

	// DefaultReplication returns the factor the service applies to new files at p.
	DefaultReplication(ctx context.Context, p string) (int, error)
}

// LeaseFS exposes the single-writer lease the service holds on files being
// written.
type LeaseFS interface {
	// RecoverLease asks the service to release the lease on p. It returns true
	// if the file is already closed.
	RecoverLease(ctx context.Context, p string) (bool, error)

	// IsFileClosed reports whether the last writer of p has finished.
	IsFileClosed(ctx context.Context, p string) (bool, error)
}

// LocalFS is the filesystem of the machine the shell runs on.
// Paths use the host separator and are absolute.
type LocalFS interface {
	// Stat returns file info, following symbolic links.
	Stat(p string) (fs.FileInfo, error)

	// Exists reports whether p exists.
	Exists(p string) (bool, error)

	// IsDir reports whether p is a directory. A missing path returns false.
	IsDir(p string) (bool, error)

	// List returns the children of dir sorted by name.
	List(dir string) ([]Entry, error)

	// Open opens p for reading.
	Open(p string) (io.ReadCloser, error)

	// CreateExclusive creates p for writing, failing if it already exists.
	CreateExclusive(p string) (io.WriteCloser, error)

	// Abs makes p absolute against the process working directory.
	Abs(p string) (string, error)

	// Type returns the underlying filesystem type.
	Type() FSType
}
