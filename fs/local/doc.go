// Package local implements core.LocalFS on top of go-billy.
//
// NewOS serves the real disk through osfs rooted at "/", and NewMemory serves
// a memfs tree for tests. Both classify listed symbolic links by their target,
// so a link to a directory is listed as a directory and a dangling link falls
// into core.KindOther.
//
//	lfs := local.NewOS()
//	entries, err := lfs.List("/home/alice")
package local
