// Package core defines the filesystem contracts the shell works against.
//
// There are two sides. RemoteFS is the hierarchical storage service being
// browsed: every call takes a context and may cross the network. LocalFS is
// the machine the shell runs on. Both list directories as []Entry whose Kind
// is a closed enumeration, so callers never need to guess what a type flag
// means for a particular backend.
//
// # Interface Hierarchy
//
// RemoteFS is composed of four sub-interfaces:
//
//   - RemoteReadFS: Exists, IsDirectory, Stat, List, Open, HomeDirectory
//   - RemoteWriteFS: MkdirAll, Create, Append, Delete
//   - ReplicationFS: SetReplication, DefaultReplication
//   - LeaseFS: RecoverLease, IsFileClosed
//
// Backends that cannot provide an operation return an error wrapping
// ErrUnsupported rather than leaving the method out, so that a single
// RemoteFS value is always enough to run every shell command.
//
// # Provider Implementations
//
//   - github.com/jmgilman/hdfsh/fs/webhdfs - HDFS over the WebHDFS REST API
//   - github.com/jmgilman/hdfsh/fs/objstore - S3-compatible object storage via MinIO
//   - github.com/jmgilman/hdfsh/fs/memory - in-memory remote for tests and demos
//   - github.com/jmgilman/hdfsh/fs/local - go-billy backed LocalFS
package core
