// Package shell implements the interactive session: it keeps the remote and
// local working directories, parses command lines and runs them against the
// remote service and the local disk.
package shell

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
	"github.com/jmgilman/hdfsh/logging"
	"github.com/jmgilman/hdfsh/metrics"
	"github.com/jmgilman/hdfsh/resolve"
	"github.com/jmgilman/hdfsh/transfer"
)

type handler func(ctx context.Context, args []string) error

// Options configures a Session.
type Options struct {
	// LocalDir is the initial local working directory. Required.
	LocalDir string
	// RemoteDir overrides the remote home directory as the initial remote
	// working directory.
	RemoteDir string
	Policy    resolve.Policy
	// Engine runs transfers. Nil builds one with default settings.
	Engine *transfer.Engine
	Out    io.Writer
}

// Session is one interactive session. It is not safe for concurrent use.
type Session struct {
	remote core.RemoteFS
	local  core.LocalFS

	remoteCwd string
	localCwd  string

	remoteResolver resolve.Remote
	localResolver  resolve.Local
	engine         *transfer.Engine

	out      io.Writer
	log      *zap.Logger
	handlers map[string]handler
}

// NewSession starts a session in the remote home directory (or
// opts.RemoteDir) and opts.LocalDir. Both must be directories.
func NewSession(ctx context.Context, remote core.RemoteFS, local core.LocalFS, opts Options) (*Session, error) {
	remoteDir := opts.RemoteDir
	if remoteDir == "" {
		home, err := remote.HomeDirectory(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnavailable, "failed to get remote home directory")
		}
		remoteDir = home
	}
	remoteDir = resolve.Join("/", remoteDir)

	localDir, err := local.Abs(opts.LocalDir)
	if err != nil {
		return nil, err
	}
	ok, err := local.IsDir(localDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Newf(errors.CodeInvalidConfig, "local directory %s does not exist", localDir)
	}

	engine := opts.Engine
	if engine == nil {
		engine = transfer.NewEngine(remote, local, nil, transfer.Config{})
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	s := &Session{
		remote:         remote,
		local:          local,
		remoteCwd:      remoteDir,
		localCwd:       localDir,
		remoteResolver: resolve.Remote{FS: remote, Policy: opts.Policy},
		localResolver:  resolve.Local{FS: local, Policy: opts.Policy},
		engine:         engine,
		out:            out,
		log:            logging.Named("shell"),
	}
	s.handlers = map[string]handler{
		"mkdir":  s.mkdir,
		"put":    s.put,
		"get":    s.get,
		"append": s.appendFile,
		"delete": s.deleteFile,
		"ls":     s.ls,
		"cd":     s.cd,
		"lls":    s.lls,
		"lcd":    s.lcd,
		"help":   s.help,
	}
	return s, nil
}

// RemoteCwd returns the remote working directory.
func (s *Session) RemoteCwd() string {
	return s.remoteCwd
}

// LocalCwd returns the local working directory.
func (s *Session) LocalCwd() string {
	return s.localCwd
}

// Dispatch runs one input line and reports whether the session should end.
// Every outcome is written to the session output; nothing is returned.
func (s *Session) Dispatch(ctx context.Context, line string) (exit bool) {
	cmd, err := Tokenize(line)
	if err != nil {
		s.println(Render(err))
		return false
	}
	if cmd.Empty() {
		return false
	}

	def, ok := lookupCommand(cmd.Name)
	if !ok {
		s.println("Command not recognized: " + cmd.Name)
		return false
	}
	if n := len(cmd.Args); n < def.minArgs || n > def.maxArgs {
		s.println("Wrong input! Usage: " + def.usage)
		return false
	}
	if def.name == "exit" {
		metrics.RecordCommand(def.name, 0, true)
		return true
	}

	start := time.Now()
	err = s.handlers[def.name](ctx, cmd.Args)
	metrics.RecordCommand(def.name, time.Since(start), err == nil)
	if err != nil {
		s.log.Debug("command failed", zap.String("command", def.name), zap.Strings("args", cmd.Args), zap.Error(err))
		s.println(Render(err))
	}
	return false
}

func (s *Session) println(line string) {
	fmt.Fprintln(s.out, line)
}

func (s *Session) warn(warnings []string) {
	for _, w := range warnings {
		s.println("Warning: " + w)
	}
}

func (s *Session) mkdir(ctx context.Context, args []string) error {
	target, err := s.remoteResolver.Target(s.remoteCwd, args[0])
	if err != nil {
		return err
	}
	exists, err := s.remote.Exists(ctx, target)
	if err != nil {
		return err
	}
	if exists {
		return errors.Newf(errors.CodeAlreadyExists, "Dir %s already exists", target)
	}
	return s.remote.MkdirAll(ctx, target)
}

func (s *Session) put(ctx context.Context, args []string) error {
	source, err := s.localResolver.Target(s.localCwd, args[0])
	if err != nil {
		return err
	}
	res, err := s.engine.Put(ctx, source, s.remoteCwd)
	s.warn(res.Warnings)
	return err
}

func (s *Session) get(ctx context.Context, args []string) error {
	source, err := s.remoteResolver.Target(s.remoteCwd, args[0])
	if err != nil {
		return err
	}
	res, err := s.engine.Get(ctx, source, s.localCwd)
	s.warn(res.Warnings)
	return err
}

func (s *Session) appendFile(ctx context.Context, args []string) error {
	source, err := s.localResolver.Target(s.localCwd, args[0])
	if err != nil {
		return err
	}
	dest, err := s.remoteResolver.Target(s.remoteCwd, args[1])
	if err != nil {
		return err
	}
	res, err := s.engine.Append(ctx, source, dest)
	s.warn(res.Warnings)
	return err
}

func (s *Session) deleteFile(ctx context.Context, args []string) error {
	target, err := s.remoteResolver.Target(s.remoteCwd, args[0])
	if err != nil {
		return err
	}
	exists, err := s.remote.Exists(ctx, target)
	if err != nil {
		return err
	}
	if !exists {
		return errors.Newf(errors.CodeNotFound, "File %s does not exist", target)
	}
	return s.remote.Delete(ctx, target, true)
}

func (s *Session) ls(ctx context.Context, _ []string) error {
	isDir, err := s.remote.IsDirectory(ctx, s.remoteCwd)
	if err != nil {
		return err
	}
	if !isDir {
		return errors.Newf(errors.CodeNotDirectory, "Path %s is not a directory", s.remoteCwd)
	}
	entries, err := s.remote.List(ctx, s.remoteCwd)
	if err != nil {
		return err
	}
	WriteListing(s.out, entries)
	return nil
}

func (s *Session) cd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		s.println(s.remoteCwd)
		return nil
	}
	next, err := s.remoteResolver.Cd(ctx, s.remoteCwd, args[0])
	if err != nil {
		return err
	}
	s.remoteCwd = next
	return nil
}

func (s *Session) lls(_ context.Context, _ []string) error {
	isDir, err := s.local.IsDir(s.localCwd)
	if err != nil {
		return err
	}
	if !isDir {
		return errors.Newf(errors.CodeNotDirectory, "Path %s is not a directory", s.localCwd)
	}
	entries, err := s.local.List(s.localCwd)
	if err != nil {
		return err
	}
	WriteListing(s.out, entries)
	return nil
}

func (s *Session) lcd(_ context.Context, args []string) error {
	if len(args) == 0 {
		s.println(s.localCwd)
		return nil
	}
	next, err := s.localResolver.Cd(s.localCwd, args[0])
	if err != nil {
		return err
	}
	s.localCwd = next
	return nil
}

func (s *Session) help(_ context.Context, _ []string) error {
	s.println(HelpText)
	return nil
}
