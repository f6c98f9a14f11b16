package resolve

import (
	"context"
	"path"
	"strings"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
)

// Remote resolves paths on the remote service.
type Remote struct {
	FS     core.RemoteReadFS
	Policy Policy
}

// Join joins input onto current. An absolute input replaces current. The
// result is cleaned, so ".." from the root stays at the root.
func Join(current, input string) string {
	if path.IsAbs(input) {
		return path.Clean(input)
	}
	return path.Clean(path.Join("/", current, input))
}

// Target resolves a command argument against current.
func (r Remote) Target(current, arg string) (string, error) {
	if strings.TrimSpace(arg) == "" {
		return "", errEmptyArgument()
	}
	return Join(current, arg), nil
}

// Cd returns the directory a "cd" with input moves to. An empty input returns
// current unchanged. Relative input is tried against current first; an
// absolute input is accepted subject to the Policy. Anything else fails with
// CodeInvalidInput, or CodeNotFound for an absolute directory that does not
// exist.
func (r Remote) Cd(ctx context.Context, current, input string) (string, error) {
	if input == "" {
		return current, nil
	}

	joined := Join(current, input)
	isDir, err := r.FS.IsDirectory(ctx, joined)
	if err != nil {
		return current, err
	}
	if isDir {
		return joined, nil
	}

	if !path.IsAbs(input) {
		return current, errBadTarget(input)
	}
	if r.Policy == PolicyLazy {
		return path.Clean(input), nil
	}
	// joined == Clean(input) here, and it was just checked.
	return current, errors.WithContext(
		errors.Newf(errors.CodeNotFound, "directory %s does not exist", path.Clean(input)),
		"input", input,
	)
}
