// Package errs converts MinIO client errors into coded errors.
package errs

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"

	"github.com/minio/minio-go/v7"

	"github.com/jmgilman/hdfsh/errors"
)

var s3Codes = map[string]errors.ErrorCode{
	"NoSuchKey":                  errors.CodeNotFound,
	"NoSuchBucket":               errors.CodeNotFound,
	"NoSuchUpload":               errors.CodeNotFound,
	"AccessDenied":               errors.CodeForbidden,
	"InvalidAccessKeyId":         errors.CodeForbidden,
	"SignatureDoesNotMatch":      errors.CodeForbidden,
	"InvalidArgument":            errors.CodeInvalidInput,
	"InvalidObjectName":          errors.CodeInvalidInput,
	"SlowDown":                   errors.CodeUnavailable,
	"ServiceUnavailable":         errors.CodeUnavailable,
	"XMinioServerNotInitialized": errors.CodeUnavailable,
	"RequestTimeout":             errors.CodeTimeout,
	"NotImplemented":             errors.CodeNotImplemented,
}

// Code classifies err.
func Code(err error) errors.ErrorCode {
	if err == nil {
		return errors.CodeUnknown
	}
	if code := errors.GetCode(err); code != errors.CodeUnknown {
		return code
	}

	resp := minio.ToErrorResponse(err)
	if code, ok := s3Codes[resp.Code]; ok {
		return code
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return errors.CodeNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return errors.CodeForbidden
	case http.StatusServiceUnavailable:
		return errors.CodeUnavailable
	}

	var netErr net.Error
	switch {
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, context.Canceled):
		return errors.CodeTimeout
	case stderrors.As(err, &netErr) && netErr.Timeout():
		return errors.CodeTimeout
	case stderrors.As(err, &netErr):
		return errors.CodeUnavailable
	}
	if resp.Code == "" && resp.StatusCode == 0 {
		if code := errors.CodeOf(err); code != errors.CodeUnknown {
			return code
		}
		return errors.CodeIO
	}
	return errors.CodeUnknown
}

// Translate wraps err with its code and the operation and path that failed.
// It returns nil for a nil error.
func Translate(err error, op, p string) error {
	if err == nil {
		return nil
	}
	return errors.WithContextMap(
		errors.Wrapf(err, Code(err), "%s %s", op, p),
		map[string]interface{}{"op": op, "path": p},
	)
}

// IsNotFound reports whether err means the object or bucket is missing.
func IsNotFound(err error) bool {
	return err != nil && Code(err) == errors.CodeNotFound
}
