// Command hdfsh is an interactive shell for browsing and transferring files
// to and from HDFS and HDFS-like remote storage.
//
// Usage:
//
//	hdfsh <host> <port> <username> [flags]
package main

import (
	"os"
)

func main() {
	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
