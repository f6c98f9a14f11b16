package errors

import (
	stderrors "errors"
	"fmt"
)

// New creates a CodedError with the default classification for code.
//
// Example:
//
//	err := errors.New(errors.CodeInvalidInput, "wrong number of arguments")
func New(code ErrorCode, message string) CodedError {
	return &codedError{
		code:           code,
		classification: getDefaultClassification(code),
		message:        message,
	}
}

// Newf creates a CodedError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) CodedError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code and message. The classification of a wrapped
// CodedError is preserved. Returns nil if err is nil.
//
// Example:
//
//	if err := resp.Body.Close(); err != nil {
//	    return errors.Wrap(err, errors.CodeIO, "failed to finish upload")
//	}
func Wrap(err error, code ErrorCode, message string) CodedError {
	if err == nil {
		return nil
	}

	classification := getDefaultClassification(code)
	var coded CodedError
	if stderrors.As(err, &coded) {
		classification = coded.Classification()
	}

	return &codedError{
		code:           code,
		classification: classification,
		message:        message,
		cause:          err,
	}
}

// Wrapf wraps err with a formatted message. Returns nil if err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) CodedError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}
