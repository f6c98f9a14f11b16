package shell

import (
	"strings"

	"github.com/jmgilman/hdfsh/errors"
)

// MaxArgs is the largest number of quoted arguments a command line may carry.
const MaxArgs = 2

// Command is one tokenized input line.
type Command struct {
	Name string
	Args []string
}

// Empty reports whether the line held nothing to run.
func (c Command) Empty() bool {
	return c.Name == ""
}

// Tokenize splits a line into a command name and its quoted arguments.
//
// A line without any double quote is taken whole (trimmed) as the command
// name. Otherwise the name is the text before the first quote and up to
// MaxArgs quoted arguments follow, separated by whitespace. Quoted text is
// taken verbatim and may be empty. Unterminated quotes, unquoted text after
// the name, and extra arguments are rejected with CodeInvalidInput.
func Tokenize(line string) (Command, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{}, nil
	}

	first := strings.IndexByte(trimmed, '"')
	if first < 0 {
		return Command{Name: trimmed}, nil
	}

	name := strings.TrimSpace(trimmed[:first])
	if name == "" {
		return Command{}, errors.New(errors.CodeInvalidInput, "missing command name")
	}

	var args []string
	rest := trimmed[first:]
	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			break
		}
		if rest[0] != '"' {
			return Command{Name: name}, errors.Newf(errors.CodeInvalidInput, "unexpected text %q outside quotes", rest)
		}
		end := strings.IndexByte(rest[1:], '"')
		if end < 0 {
			return Command{Name: name}, errors.New(errors.CodeInvalidInput, "unterminated quote")
		}
		if len(args) == MaxArgs {
			return Command{Name: name}, errors.Newf(errors.CodeInvalidInput, "at most %d quoted arguments are allowed", MaxArgs)
		}
		args = append(args, rest[1:1+end])
		rest = rest[end+2:]
	}

	return Command{Name: name, Args: args}, nil
}
