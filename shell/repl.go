package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/jmgilman/hdfsh/errors"
)

const (
	prompt       = "> "
	maxLineBytes = 1 << 20
)

// REPL reads lines and feeds them to a Session until "exit" or end of input.
type REPL struct {
	session *Session
	in      io.Reader
	out     io.Writer
	// Prompt controls whether "> " is printed before each line.
	Prompt bool
}

// NewREPL creates a REPL printing prompts and help to out.
func NewREPL(session *Session, in io.Reader, out io.Writer) *REPL {
	return &REPL{session: session, in: in, out: out, Prompt: true}
}

// Run prints the help text and processes input. It returns nil on "exit" or
// end of input, and an error only if reading input fails.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, HelpText)

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for {
		if r.Prompt {
			fmt.Fprint(r.out, prompt)
		}
		if !scanner.Scan() {
			if r.Prompt {
				fmt.Fprintln(r.out)
			}
			if err := scanner.Err(); err != nil {
				return errors.Wrap(err, errors.CodeIO, "failed to read input")
			}
			return nil
		}
		if r.session.Dispatch(ctx, scanner.Text()) {
			return nil
		}
	}
}
