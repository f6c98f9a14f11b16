package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/jmgilman/hdfsh/config"
	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
	"github.com/jmgilman/hdfsh/fs/local"
	"github.com/jmgilman/hdfsh/fs/memory"
	"github.com/jmgilman/hdfsh/fs/objstore"
	"github.com/jmgilman/hdfsh/fs/webhdfs"
	"github.com/jmgilman/hdfsh/logging"
	"github.com/jmgilman/hdfsh/metrics"
	"github.com/jmgilman/hdfsh/shell"
	"github.com/jmgilman/hdfsh/transfer"
)

// newRootCmd builds the hdfsh command. Argument errors print usage; every
// other failure is rendered like a shell error and exits 1.
func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hdfsh <host> <port> <username>",
		Short: "Interactive shell for HDFS and HDFS-like remote storage",
		Long: `hdfsh connects to a remote storage service and opens an interactive
shell with mkdir, put, get, append, delete, ls, cd, lls and lcd commands.

Settings are read from $HOME/` + config.DefaultFileName + ` (or --config), then
` + config.EnvPrefix + `* environment variables, then flags.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(3)(cmd, args); err != nil {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), cmd.UsageString())
				return err
			}
			return nil
		},
		// Usage is printed by Args only.
		SilenceUsage: true,
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := config.RegisterFlags(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		// Errors are rendered below instead of cobra's "Error:" line.
		cmd.SilenceErrors = true

		err := run(cmd.Context(), flags, args, stdin, stdout)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, shell.Render(err))
		}
		return err
	}
	return cmd
}

func run(ctx context.Context, flags *config.Flags, args []string, stdin io.Reader, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(flags, args)
	if err != nil {
		return err
	}

	if err := logging.Init(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.Output,
	}); err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "failed to initialize logging")
	}
	defer func() { _ = logging.Sync() }()
	log := logging.Named("main")

	if cfg.Metrics.Addr != "" {
		srv, err := metrics.Listen(cfg.Metrics.Addr)
		if err != nil {
			return err
		}
		log.Info("serving metrics", zap.String("addr", srv.Addr()))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	remote, err := openRemote(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := remote.Close(); err != nil {
			log.Warn("failed to close remote", zap.Error(err))
		}
	}()

	// The home directory lookup doubles as the connectivity check.
	home, err := remote.HomeDirectory(ctx)
	if err != nil {
		return errors.Wrapf(err, errors.CodeUnavailable, "failed to reach %s at %s",
			remote.Type(), net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	}
	log.Info("connected",
		zap.String("backend", remote.Type().String()),
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("user", cfg.Username),
		zap.String("home", home),
	)

	localDir := cfg.LocalDir
	if localDir == "" {
		if localDir, err = os.UserHomeDir(); err != nil {
			return errors.Wrap(err, errors.CodeInvalidConfig, "failed to find home directory; set --local-dir")
		}
	}

	localFS := local.NewOS()
	waiter := transfer.NewLeaseWaiter(remote, transfer.LeaseConfig{
		Timeout:      cfg.Lease.Timeout,
		PollInterval: cfg.Lease.PollInterval,
	})
	engine := transfer.NewEngine(remote, localFS, waiter, transfer.Config{BufferSize: cfg.BufferSize})

	session, err := shell.NewSession(ctx, remote, localFS, shell.Options{
		LocalDir:  localDir,
		RemoteDir: home,
		Policy:    cfg.Policy(),
		Engine:    engine,
		Out:       stdout,
	})
	if err != nil {
		return err
	}

	repl := shell.NewREPL(session, stdin, stdout)
	repl.Prompt = isTerminal(stdin)
	return repl.Run(ctx)
}

// loadConfig layers the config file, environment and flags, then takes the
// connection from the positional arguments.
func loadConfig(flags *config.Flags, args []string) (config.Config, error) {
	cfg, err := config.Load(flags.ConfigPath())
	if err != nil {
		return cfg, err
	}
	flags.Apply(&cfg)

	port, err := strconv.Atoi(args[1])
	if err != nil || port < 1 || port > 65535 {
		return cfg, errors.WithContext(
			errors.Newf(errors.CodeInvalidInput, "invalid port %q: must be a number between 1 and 65535", args[1]),
			"port", args[1],
		)
	}
	cfg.Host, cfg.Port, cfg.Username = args[0], port, args[2]

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// openRemote creates the backend selected by cfg.Backend.
func openRemote(cfg config.Config) (core.RemoteFS, error) {
	switch cfg.Backend {
	case config.BackendWebHDFS:
		return webhdfs.New(webhdfs.Options{
			Host:               cfg.Host,
			Port:               cfg.Port,
			User:               cfg.Username,
			TLS:                cfg.HTTP.TLS,
			Timeout:            cfg.HTTP.Timeout,
			DefaultReplication: cfg.DefaultReplication,
		})
	case config.BackendS3:
		return objstore.New(objstore.Config{
			Endpoint:           net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Bucket:             cfg.S3.Bucket,
			Prefix:             cfg.S3.Prefix,
			Region:             cfg.S3.Region,
			AccessKey:          cfg.S3.AccessKey,
			SecretKey:          cfg.S3.SecretKey,
			UseSSL:             cfg.HTTP.TLS,
			Username:           cfg.Username,
			DefaultReplication: cfg.DefaultReplication,
		})
	case config.BackendMemory:
		return memory.New(
			memory.WithHome("/user/"+cfg.Username),
			memory.WithDefaultReplication(cfg.DefaultReplication),
		), nil
	default:
		return nil, errors.Newf(errors.CodeInvalidConfig, "unknown backend %q", cfg.Backend)
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
