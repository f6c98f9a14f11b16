package webhdfs

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"path"
	"time"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
)

// WebHDFS JSON schemas. Only the fields the client reads are declared.

type fileStatus struct {
	PathSuffix       string `json:"pathSuffix"`
	Type             string `json:"type"`
	Length           int64  `json:"length"`
	Replication      int    `json:"replication"`
	ModificationTime int64  `json:"modificationTime"`
}

type fileStatusResponse struct {
	FileStatus fileStatus `json:"FileStatus"`
}

type listStatusResponse struct {
	FileStatuses struct {
		FileStatus []fileStatus `json:"FileStatus"`
	} `json:"FileStatuses"`
}

type booleanResponse struct {
	Boolean bool `json:"boolean"`
}

type pathResponse struct {
	Path string `json:"Path"`
}

type serverDefaultsResponse struct {
	ServerDefaults struct {
		Replication int `json:"replication"`
	} `json:"ServerDefaults"`
}

type remoteException struct {
	Exception     string `json:"exception"`
	JavaClassName string `json:"javaClassName"`
	Message       string `json:"message"`
}

type remoteExceptionResponse struct {
	RemoteException remoteException `json:"RemoteException"`
}

// Type values in FileStatus.
const (
	typeDirectory = "DIRECTORY"
	typeFile      = "FILE"
	typeSymlink   = "SYMLINK"
)

func kindOf(t string) core.Kind {
	switch t {
	case typeDirectory:
		return core.KindDirectory
	case typeFile:
		return core.KindFile
	case typeSymlink:
		return core.KindLink
	default:
		return core.KindOther
	}
}

func (s fileStatus) entry(dir, name string) core.Entry {
	return core.Entry{
		Name:        name,
		Path:        path.Join(dir, name),
		Kind:        kindOf(s.Type),
		Size:        s.Length,
		Replication: s.Replication,
		ModTime:     time.UnixMilli(s.ModificationTime),
	}
}

// exceptionCodes maps RemoteException names to error codes.
var exceptionCodes = map[string]errors.ErrorCode{
	"FileNotFoundException":            errors.CodeNotFound,
	"FileAlreadyExistsException":       errors.CodeAlreadyExists,
	"AlreadyBeingCreatedException":     errors.CodeAlreadyExists,
	"ParentNotDirectoryException":      errors.CodeNotDirectory,
	"PathIsNotEmptyDirectoryException": errors.CodeInvalidInput,
	"IllegalArgumentException":         errors.CodeInvalidInput,
	"AccessControlException":           errors.CodeForbidden,
	"SecurityException":                errors.CodeForbidden,
	"UnsupportedOperationException":    errors.CodeNotImplemented,
	"StandbyException":                 errors.CodeUnavailable,
	"RetriableException":               errors.CodeUnavailable,
	"SafeModeException":                errors.CodeUnavailable,
}

// statusCodes maps HTTP statuses to error codes when the body carries no
// known exception.
var statusCodes = map[int]errors.ErrorCode{
	http.StatusBadRequest:          errors.CodeInvalidInput,
	http.StatusUnauthorized:        errors.CodeForbidden,
	http.StatusForbidden:           errors.CodeForbidden,
	http.StatusNotFound:            errors.CodeNotFound,
	http.StatusConflict:            errors.CodeAlreadyExists,
	http.StatusNotImplemented:      errors.CodeNotImplemented,
	http.StatusServiceUnavailable:  errors.CodeUnavailable,
	http.StatusBadGateway:          errors.CodeUnavailable,
	http.StatusGatewayTimeout:      errors.CodeTimeout,
	http.StatusInternalServerError: errors.CodeInternal,
}

// remoteError converts a non-success response into a coded error.
func remoteError(resp *http.Response, op, p string) error {
	var body remoteExceptionResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	_ = json.Unmarshal(data, &body)
	ex := body.RemoteException

	code, ok := exceptionCodes[ex.Exception]
	if !ok {
		code, ok = statusCodes[resp.StatusCode]
	}
	if !ok {
		code = errors.CodeUnknown
	}

	msg := ex.Message
	if msg == "" {
		msg = resp.Status
	}

	fields := map[string]interface{}{
		"op":     op,
		"path":   p,
		"status": resp.StatusCode,
	}
	if ex.Exception != "" {
		fields["exception"] = ex.Exception
	}
	return errors.WithContextMap(errors.Newf(code, "%s %s: %s", op, p, msg), fields)
}

// transportError classifies a failure to get any response at all.
func transportError(ctx context.Context, err error, op, p string) error {
	code := errors.CodeUnavailable
	var netErr net.Error
	switch {
	case ctx.Err() != nil:
		code = errors.CodeTimeout
	case stderrors.As(err, &netErr) && netErr.Timeout():
		code = errors.CodeTimeout
	}
	return errors.WithContextMap(
		errors.Wrapf(err, code, "%s %s: request failed", op, p),
		map[string]interface{}{"op": op, "path": p},
	)
}
