// Package config loads hdfsh settings from an optional YAML file, HDFSH_*
// environment variables and command-line flags, in that order of precedence
// (later wins).
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/resolve"
)

// Backend names accepted by --backend.
const (
	BackendWebHDFS = "webhdfs"
	BackendS3      = "s3"
	BackendMemory  = "memory"
)

// DefaultFileName is looked up in the user's home directory when no
// --config is given.
const DefaultFileName = ".hdfsh.yaml"

// Config holds all hdfsh settings.
type Config struct {
	// Connection, normally from the positional arguments.
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`

	Backend    string `yaml:"backend"`
	LocalDir   string `yaml:"local_dir"`
	PathPolicy string `yaml:"path_policy"`

	Log     LogConfig   `yaml:"log"`
	Metrics MetricsConf `yaml:"metrics"`
	Lease   LeaseConfig `yaml:"lease"`

	BufferSize         int `yaml:"buffer_size"`
	DefaultReplication int `yaml:"default_replication"`

	HTTP HTTPConfig `yaml:"http"`
	S3   S3Config   `yaml:"s3"`
}

// LogConfig configures the logging package.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// MetricsConf configures the metrics endpoint. An empty Addr disables it.
type MetricsConf struct {
	Addr string `yaml:"addr"`
}

// LeaseConfig bounds the post-append lease wait.
type LeaseConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// HTTPConfig applies to the WebHDFS client.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	TLS     bool          `yaml:"tls"`
}

// S3Config applies to the object store backend.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Backend:    BackendWebHDFS,
		PathPolicy: resolve.PolicyStrict.String(),
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
			Output: "stderr",
		},
		Lease: LeaseConfig{
			Timeout:      60 * time.Second,
			PollInterval: time.Second,
		},
		BufferSize:         64 * 1024,
		DefaultReplication: 3,
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		S3: S3Config{
			Bucket: "hdfsh",
			Region: "us-east-1",
		},
	}
}

// Load builds a Config from the defaults, the YAML file at path and the
// environment. An empty path falls back to $HOME/.hdfsh.yaml, which may be
// absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, DefaultFileName)
		}
	}
	if path != "" {
		if err := cfg.mergeFile(path, explicit); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.WithContext(
			errors.Wrapf(err, errors.CodeInvalidConfig, "failed to read config file %s", path),
			"path", path,
		)
	}
	return c.Merge(data)
}

// Merge overlays YAML data onto c. Keys absent from data keep their values.
func (c *Config) Merge(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse config file")
	}
	return nil
}

// Validate checks the settings needed to start a session.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New(errors.CodeInvalidConfig, "host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Newf(errors.CodeInvalidConfig, "port %d is out of range 1-65535", c.Port)
	}
	if c.Username == "" {
		return errors.New(errors.CodeInvalidConfig, "username is required")
	}

	switch c.Backend {
	case BackendWebHDFS, BackendMemory:
	case BackendS3:
		if c.S3.Bucket == "" {
			return errors.New(errors.CodeInvalidConfig, "s3 backend requires a bucket")
		}
	default:
		return errors.Newf(errors.CodeInvalidConfig, "unknown backend %q", c.Backend)
	}

	if _, err := resolve.ParsePolicy(c.PathPolicy); err != nil {
		return err
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.Newf(errors.CodeInvalidConfig, "unknown log format %q", c.Log.Format)
	}
	if c.Lease.Timeout <= 0 {
		return errors.New(errors.CodeInvalidConfig, "lease timeout must be positive")
	}
	if c.Lease.PollInterval <= 0 {
		return errors.New(errors.CodeInvalidConfig, "lease poll interval must be positive")
	}
	if c.BufferSize <= 0 {
		return errors.New(errors.CodeInvalidConfig, "buffer size must be positive")
	}
	if c.DefaultReplication < 1 {
		return errors.New(errors.CodeInvalidConfig, "default replication must be at least 1")
	}
	if c.HTTP.Timeout < 0 {
		return errors.New(errors.CodeInvalidConfig, "http timeout must not be negative")
	}
	return nil
}

// Policy returns the parsed path policy. Call Validate first.
func (c Config) Policy() resolve.Policy {
	p, _ := resolve.ParsePolicy(c.PathPolicy)
	return p
}
