package config

import (
	"github.com/spf13/pflag"
)

// Flag names.
const (
	FlagConfig             = "config"
	FlagBackend            = "backend"
	FlagLocalDir           = "local-dir"
	FlagPathPolicy         = "path-policy"
	FlagLogLevel           = "log-level"
	FlagLogFormat          = "log-format"
	FlagLogOutput          = "log-output"
	FlagMetricsAddr        = "metrics-addr"
	FlagLeaseTimeout       = "lease-timeout"
	FlagLeasePollInterval  = "lease-poll-interval"
	FlagBufferSize         = "buffer-size"
	FlagDefaultReplication = "default-replication"
	FlagHTTPTimeout        = "http-timeout"
	FlagTLS                = "tls"
	FlagS3Bucket           = "s3-bucket"
	FlagS3Prefix           = "s3-prefix"
	FlagS3Region           = "s3-region"
	FlagS3AccessKey        = "s3-access-key"
	FlagS3SecretKey        = "s3-secret-key"
)

// Flags holds command-line overrides. Only flags the user actually set are
// applied, so file and environment values survive unset flags.
type Flags struct {
	set        *pflag.FlagSet
	configPath string
	values     Config
}

// RegisterFlags adds every setting to fs, showing the built-in defaults.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	d := Default()
	f := &Flags{set: fs}
	v := &f.values

	fs.StringVar(&f.configPath, FlagConfig, "", "config file (default $HOME/"+DefaultFileName+")")
	fs.StringVar(&v.Backend, FlagBackend, d.Backend, "remote backend: webhdfs, s3 or memory")
	fs.StringVar(&v.LocalDir, FlagLocalDir, "", "initial local working directory (default $HOME)")
	fs.StringVar(&v.PathPolicy, FlagPathPolicy, d.PathPolicy, "absolute cd/lcd targets: strict checks them, lazy accepts them")
	fs.StringVar(&v.Log.Level, FlagLogLevel, d.Log.Level, "log level: debug, info, warn or error")
	fs.StringVar(&v.Log.Format, FlagLogFormat, d.Log.Format, "log format: console or json")
	fs.StringVar(&v.Log.Output, FlagLogOutput, d.Log.Output, "log destination: stderr, stdout or a file path")
	fs.StringVar(&v.Metrics.Addr, FlagMetricsAddr, "", "serve Prometheus metrics on this address")
	fs.DurationVar(&v.Lease.Timeout, FlagLeaseTimeout, d.Lease.Timeout, "how long to wait for an appended file to close")
	fs.DurationVar(&v.Lease.PollInterval, FlagLeasePollInterval, d.Lease.PollInterval, "delay between lease polls")
	fs.IntVar(&v.BufferSize, FlagBufferSize, d.BufferSize, "transfer buffer size in bytes")
	fs.IntVar(&v.DefaultReplication, FlagDefaultReplication, d.DefaultReplication, "replication used when the service does not report one")
	fs.DurationVar(&v.HTTP.Timeout, FlagHTTPTimeout, d.HTTP.Timeout, "timeout for metadata requests (0 disables)")
	fs.BoolVar(&v.HTTP.TLS, FlagTLS, d.HTTP.TLS, "connect over TLS")
	fs.StringVar(&v.S3.Bucket, FlagS3Bucket, d.S3.Bucket, "bucket for the s3 backend")
	fs.StringVar(&v.S3.Prefix, FlagS3Prefix, d.S3.Prefix, "key prefix for the s3 backend")
	fs.StringVar(&v.S3.Region, FlagS3Region, d.S3.Region, "region for the s3 backend")
	fs.StringVar(&v.S3.AccessKey, FlagS3AccessKey, "", "access key for the s3 backend")
	fs.StringVar(&v.S3.SecretKey, FlagS3SecretKey, "", "secret key for the s3 backend")

	return f
}

// ConfigPath returns the --config value.
func (f *Flags) ConfigPath() string {
	return f.configPath
}

// Apply copies every flag the user set onto cfg.
func (f *Flags) Apply(cfg *Config) {
	v := f.values
	set := func(name string, apply func()) {
		if f.set.Changed(name) {
			apply()
		}
	}

	set(FlagBackend, func() { cfg.Backend = v.Backend })
	set(FlagLocalDir, func() { cfg.LocalDir = v.LocalDir })
	set(FlagPathPolicy, func() { cfg.PathPolicy = v.PathPolicy })
	set(FlagLogLevel, func() { cfg.Log.Level = v.Log.Level })
	set(FlagLogFormat, func() { cfg.Log.Format = v.Log.Format })
	set(FlagLogOutput, func() { cfg.Log.Output = v.Log.Output })
	set(FlagMetricsAddr, func() { cfg.Metrics.Addr = v.Metrics.Addr })
	set(FlagLeaseTimeout, func() { cfg.Lease.Timeout = v.Lease.Timeout })
	set(FlagLeasePollInterval, func() { cfg.Lease.PollInterval = v.Lease.PollInterval })
	set(FlagBufferSize, func() { cfg.BufferSize = v.BufferSize })
	set(FlagDefaultReplication, func() { cfg.DefaultReplication = v.DefaultReplication })
	set(FlagHTTPTimeout, func() { cfg.HTTP.Timeout = v.HTTP.Timeout })
	set(FlagTLS, func() { cfg.HTTP.TLS = v.HTTP.TLS })
	set(FlagS3Bucket, func() { cfg.S3.Bucket = v.S3.Bucket })
	set(FlagS3Prefix, func() { cfg.S3.Prefix = v.S3.Prefix })
	set(FlagS3Region, func() { cfg.S3.Region = v.S3.Region })
	set(FlagS3AccessKey, func() { cfg.S3.AccessKey = v.S3.AccessKey })
	set(FlagS3SecretKey, func() { cfg.S3.SecretKey = v.S3.SecretKey })
}
