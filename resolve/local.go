package resolve

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
)

var driveLetter = regexp.MustCompile(`^[A-Za-z]:`)

// HasDriveLetter reports whether input starts with a drive designator such as "C:".
func HasDriveLetter(input string) bool {
	return len(input) >= 2 && driveLetter.MatchString(input)
}

// Local resolves paths on the local machine.
type Local struct {
	FS     core.LocalFS
	Policy Policy
}

// isAbs treats drive-letter input as absolute on every host.
func isAbs(input string) bool {
	return filepath.IsAbs(input) || HasDriveLetter(input)
}

// Target resolves a command argument against current.
func (l Local) Target(current, arg string) (string, error) {
	if strings.TrimSpace(arg) == "" {
		return "", errEmptyArgument()
	}
	if isAbs(arg) {
		return filepath.Clean(arg), nil
	}
	return filepath.Join(current, arg), nil
}

// Cd returns the directory an "lcd" with input moves to. Drive-letter input
// is taken as given (checked only under PolicyStrict). Otherwise input is
// tried joined onto current, then on its own relative to the process
// working directory. Anything else fails with CodeInvalidInput.
func (l Local) Cd(current, input string) (string, error) {
	if input == "" {
		return current, nil
	}

	if HasDriveLetter(input) {
		target := filepath.Clean(input)
		if l.Policy == PolicyLazy {
			return target, nil
		}
		ok, err := l.FS.IsDir(target)
		if err != nil {
			return current, err
		}
		if !ok {
			return current, errors.WithContext(
				errors.Newf(errors.CodeNotFound, "directory %s does not exist", target),
				"input", input,
			)
		}
		return target, nil
	}

	candidates := []string{filepath.Join(current, input)}
	if filepath.IsAbs(input) {
		candidates = []string{filepath.Clean(input)}
	} else if standalone, err := l.FS.Abs(input); err == nil {
		candidates = append(candidates, standalone)
	}

	for _, candidate := range candidates {
		ok, err := l.FS.IsDir(candidate)
		if err != nil {
			return current, err
		}
		if ok {
			return candidate, nil
		}
	}

	return current, errBadTarget(input)
}
