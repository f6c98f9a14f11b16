// Package objstore implements core.RemoteFS on S3-compatible object storage
// through the MinIO client.
//
// Remote paths map to keys under an optional prefix. Directories are
// zero-byte marker objects whose key ends in "/"; a prefix with children but
// no marker still counts as a directory. Appends are staged in a sibling
// object and promoted with a server-side copy, and the file counts as open
// while the staging object exists.
package objstore

import (
	"github.com/minio/minio-go/v7"

	"github.com/jmgilman/hdfsh/errors"
)

// Config holds object store settings.
type Config struct {
	// Endpoint is the server address (e.g., "localhost:9000").
	Endpoint string

	// Bucket is the bucket holding the namespace. It must already exist.
	Bucket string

	// Prefix is an optional key prefix for every object.
	Prefix string

	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool

	// Username picks the home directory, /user/<Username>.
	Username string

	// DefaultReplication is recorded on new files. Default: 3.
	DefaultReplication int

	// Threshold is the size up to which Create buffers in memory before
	// switching to a streaming multipart upload. Default: 5MB.
	Threshold int

	// PartSize is the multipart part size for streamed uploads. Default: 16MB.
	PartSize uint64

	// Client is an optional pre-configured client. If provided, Endpoint and
	// the credentials are ignored.
	Client *minio.Client
}

const (
	defaultReplication = 3
	defaultThreshold   = 5 * 1024 * 1024
	defaultPartSize    = 16 * 1024 * 1024
)

// validate checks that either Client or Endpoint and credentials are set.
func (c *Config) validate() error {
	if c.Bucket == "" {
		return errors.New(errors.CodeInvalidConfig, "objstore: bucket is required")
	}
	if c.Username == "" {
		return errors.New(errors.CodeInvalidConfig, "objstore: username is required")
	}
	if c.Client != nil {
		return nil
	}
	if c.Endpoint == "" {
		return errors.New(errors.CodeInvalidConfig, "objstore: endpoint is required when client is not provided")
	}
	if c.AccessKey == "" {
		return errors.New(errors.CodeInvalidConfig, "objstore: access key is required when client is not provided")
	}
	if c.SecretKey == "" {
		return errors.New(errors.CodeInvalidConfig, "objstore: secret key is required when client is not provided")
	}
	return nil
}
