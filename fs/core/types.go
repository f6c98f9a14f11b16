package core

import (
	"io/fs"
	"time"
)

// FSType represents the underlying type of filesystem implementation.
type FSType int

const (
	// FSTypeUnknown indicates the filesystem type is unknown or unspecified.
	FSTypeUnknown FSType = iota
	// FSTypeLocal indicates a disk-backed local filesystem.
	FSTypeLocal
	// FSTypeMemory indicates an in-memory filesystem.
	FSTypeMemory
	// FSTypeWebHDFS indicates an HDFS cluster reached over WebHDFS.
	FSTypeWebHDFS
	// FSTypeObjectStore indicates S3-compatible object storage.
	FSTypeObjectStore
)

// String returns a string representation of the FSType.
func (t FSType) String() string {
	switch t {
	case FSTypeLocal:
		return "local"
	case FSTypeMemory:
		return "memory"
	case FSTypeWebHDFS:
		return "webhdfs"
	case FSTypeObjectStore:
		return "objstore"
	default:
		return "unknown"
	}
}

// Kind classifies a directory entry.
type Kind int

const (
	// KindOther is anything that is neither a file, a directory nor a link.
	KindOther Kind = iota
	// KindDirectory is a directory.
	KindDirectory
	// KindLink is a symbolic link.
	KindLink
	// KindFile is a regular file.
	KindFile
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindLink:
		return "link"
	case KindFile:
		return "file"
	default:
		return "other"
	}
}

// KindFromMode maps file mode type bits to a Kind.
func KindFromMode(mode fs.FileMode) Kind {
	switch {
	case mode.IsDir():
		return KindDirectory
	case mode&fs.ModeSymlink != 0:
		return KindLink
	case mode.IsRegular():
		return KindFile
	default:
		return KindOther
	}
}

// Entry describes one child of a listed directory, or the result of Stat.
type Entry struct {
	// Name is the final path element.
	Name string
	// Path is the full path of the entry in its filesystem.
	Path string
	Kind Kind
	Size int64
	// Replication is the replication factor reported by the remote service.
	// Zero when the filesystem has no such notion.
	Replication int
	ModTime     time.Time
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory
}
