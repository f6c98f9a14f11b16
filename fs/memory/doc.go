// Package memory provides an in-memory core.RemoteFS.
//
// It backs the shell's unit tests and the offline "memory" backend. Storage
// is a go-billy memfs tree; replication factors and writer leases are kept
// alongside it. WithLeaseHold makes appended files look open for a number of
// IsFileClosed polls, which is how the lease waiter's polling path is tested
// without a cluster.
package memory
