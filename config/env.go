package config

import (
	"os"
	"strconv"
	"time"

	"github.com/jmgilman/hdfsh/errors"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "HDFSH_"

// applyEnv overlays HDFSH_* variables onto c. Unset or empty variables keep
// the current value; unparsable ones are an error.
func (c *Config) applyEnv() error {
	e := &envReader{}

	c.Host = e.str("HOST", c.Host)
	c.Port = e.int("PORT", c.Port)
	c.Username = e.str("USERNAME", c.Username)
	c.Backend = e.str("BACKEND", c.Backend)
	c.LocalDir = e.str("LOCAL_DIR", c.LocalDir)
	c.PathPolicy = e.str("PATH_POLICY", c.PathPolicy)

	c.Log.Level = e.str("LOG_LEVEL", c.Log.Level)
	c.Log.Format = e.str("LOG_FORMAT", c.Log.Format)
	c.Log.Output = e.str("LOG_OUTPUT", c.Log.Output)
	c.Metrics.Addr = e.str("METRICS_ADDR", c.Metrics.Addr)

	c.Lease.Timeout = e.duration("LEASE_TIMEOUT", c.Lease.Timeout)
	c.Lease.PollInterval = e.duration("LEASE_POLL_INTERVAL", c.Lease.PollInterval)
	c.BufferSize = e.int("BUFFER_SIZE", c.BufferSize)
	c.DefaultReplication = e.int("DEFAULT_REPLICATION", c.DefaultReplication)

	c.HTTP.Timeout = e.duration("HTTP_TIMEOUT", c.HTTP.Timeout)
	c.HTTP.TLS = e.bool("TLS", c.HTTP.TLS)

	c.S3.Bucket = e.str("S3_BUCKET", c.S3.Bucket)
	c.S3.Prefix = e.str("S3_PREFIX", c.S3.Prefix)
	c.S3.Region = e.str("S3_REGION", c.S3.Region)
	c.S3.AccessKey = e.str("S3_ACCESS_KEY", c.S3.AccessKey)
	c.S3.SecretKey = e.str("S3_SECRET_KEY", c.S3.SecretKey)

	return e.err
}

// envReader reads typed variables and keeps the first parse error.
type envReader struct {
	err error
}

func (e *envReader) lookup(key string) (string, string, bool) {
	name := EnvPrefix + key
	v := os.Getenv(name)
	return name, v, v != ""
}

func (e *envReader) fail(name, value string, err error) {
	if e.err != nil {
		return
	}
	e.err = errors.WithContext(
		errors.Wrapf(err, errors.CodeInvalidConfig, "invalid value %q for %s", value, name),
		"variable", name,
	)
}

func (e *envReader) str(key, fallback string) string {
	if _, v, ok := e.lookup(key); ok {
		return v
	}
	return fallback
}

func (e *envReader) int(key string, fallback int) int {
	name, v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, v, err)
		return fallback
	}
	return i
}

func (e *envReader) bool(key string, fallback bool) bool {
	name, v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(name, v, err)
		return fallback
	}
	return b
}

func (e *envReader) duration(key string, fallback time.Duration) time.Duration {
	name, v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, v, err)
		return fallback
	}
	return d
}
