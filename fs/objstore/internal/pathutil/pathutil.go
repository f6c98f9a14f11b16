// Package pathutil maps absolute remote paths onto S3 object keys.
package pathutil

import (
	"path"
	"strings"
)

// Normalize cleans an absolute remote path into a key fragment with no
// leading or trailing slash. The root becomes "".
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.Trim(p, "/")
}

// NormalizePrefix normalizes a configured key prefix the same way.
func NormalizePrefix(prefix string) string {
	if prefix == "" || prefix == "." {
		return ""
	}
	return Normalize(prefix)
}

// JoinPath returns the object key for remote path p under prefix.
func JoinPath(prefix, p string) string {
	name := Normalize(p)
	switch {
	case name == "":
		return prefix
	case prefix == "":
		return name
	default:
		return prefix + "/" + name
	}
}

// DirKey returns the key of the directory marker for key, which is also the
// listing prefix of its children. The bucket root has no marker.
func DirKey(key string) string {
	if key == "" {
		return ""
	}
	return key + "/"
}

// ChildName returns the first path element of key below dirKey and whether
// that element is itself a directory.
func ChildName(dirKey, key string) (name string, isDir bool) {
	rel := strings.TrimPrefix(key, dirKey)
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		return rel[:i], true
	}
	return rel, false
}
