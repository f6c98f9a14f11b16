// Package resolve turns what the user typed after cd, lcd or a transfer
// command into a concrete path, given the session's current directory.
//
// Remote paths follow slash semantics (package path). Local paths follow the
// host's rules (package path/filepath), with an extra drive-letter form so
// "C:" style input is recognised as absolute.
package resolve

import (
	"strings"

	"github.com/jmgilman/hdfsh/errors"
)

// Policy controls whether absolute cd/lcd targets are validated up front.
type Policy int

const (
	// PolicyStrict validates absolute targets before accepting them, so the
	// current directory always names a directory that existed when set.
	PolicyStrict Policy = iota
	// PolicyLazy accepts absolute targets without checking them; a bad target
	// surfaces on the next command that uses it.
	PolicyLazy
)

// String returns the name used in configuration.
func (p Policy) String() string {
	if p == PolicyLazy {
		return "lazy"
	}
	return "strict"
}

// ParsePolicy parses "strict" or "lazy". The empty string means strict.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return PolicyStrict, nil
	case "lazy":
		return PolicyLazy, nil
	default:
		return PolicyStrict, errors.Newf(errors.CodeInvalidConfig, "unknown path policy %q (want strict or lazy)", s)
	}
}

// errBadTarget is returned when no resolution rule accepts the input.
func errBadTarget(input string) error {
	return errors.WithContext(
		errors.Newf(errors.CodeInvalidInput, "something is wrong with input %q", input),
		"input", input,
	)
}

func errEmptyArgument() error {
	return errors.New(errors.CodeInvalidInput, "argument must not be empty")
}
