package shell

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/resolve"
)

func TestREPL_Run(t *testing.T) {
	h := newHarness(t, resolve.PolicyStrict)
	var out bytes.Buffer
	h.session.out = &out

	input := strings.NewReader("mkdir \"reports\"\ncd \"reports\"\ncd\nexit\nls\n")
	repl := NewREPL(h.session, input, &out)
	require.NoError(t, repl.Run(context.Background()))

	got := out.String()
	assert.True(t, strings.HasPrefix(got, HelpText+"\n"))
	assert.Contains(t, got, "> /home/alice/reports\n")
	// ls after exit never runs.
	assert.Equal(t, 4, strings.Count(got, prompt))
	assert.Equal(t, "/home/alice/reports", h.session.RemoteCwd())
}

func TestREPL_EOF(t *testing.T) {
	h := newHarness(t, resolve.PolicyStrict)
	var out bytes.Buffer
	h.session.out = &out

	repl := NewREPL(h.session, strings.NewReader("cd"), &out)
	repl.Prompt = false
	require.NoError(t, repl.Run(context.Background()))

	assert.Equal(t, HelpText+"\n/home/alice\n", out.String())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, stderrors.New("terminal gone") }

func TestREPL_ReadError(t *testing.T) {
	h := newHarness(t, resolve.PolicyStrict)
	repl := NewREPL(h.session, failingReader{}, &bytes.Buffer{})
	err := repl.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeIO, errors.GetCode(err))
}
