package errors

import (
	"context"
	stderrors "errors"
	"io/fs"
)

// CodedError extends the standard error interface with a code, a retry
// classification and optional context fields.
type CodedError interface {
	error

	// Code returns the error code identifying the type of error.
	Code() ErrorCode

	// Classification returns whether the error is retryable or permanent.
	Classification() ErrorClassification

	// Message returns the human-readable message without the cause.
	Message() string

	// Context returns attached metadata as a read-only copy.
	// Returns nil if no context has been attached.
	Context() map[string]interface{}

	// Unwrap returns the wrapped error, or nil.
	Unwrap() error
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if any.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// GetCode extracts the ErrorCode of the outermost CodedError in err's chain.
// Returns CodeUnknown if the error is nil or carries no code.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	var coded CodedError
	if stderrors.As(err, &coded) {
		return coded.Code()
	}

	return CodeUnknown
}

// CodeOf is GetCode extended with the standard library sentinels, so errors
// coming straight from io/fs or a cancelled context still map to a code.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}
	if code := GetCode(err); code != CodeUnknown {
		return code
	}

	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return CodeNotFound
	case stderrors.Is(err, fs.ErrExist):
		return CodeAlreadyExists
	case stderrors.Is(err, fs.ErrPermission):
		return CodeForbidden
	case stderrors.Is(err, fs.ErrInvalid):
		return CodeInvalidInput
	case stderrors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	}

	return CodeUnknown
}

// GetClassification extracts the classification of err.
// Returns ClassificationPermanent if the error is nil or carries no code.
func GetClassification(err error) ErrorClassification {
	if err == nil {
		return ClassificationPermanent
	}

	var coded CodedError
	if stderrors.As(err, &coded) {
		return coded.Classification()
	}

	return ClassificationPermanent
}

// IsRetryable returns true if the error is classified as retryable.
func IsRetryable(err error) bool {
	return GetClassification(err).IsRetryable()
}

// MessageOf returns the message of the outermost CodedError, or err.Error()
// when there is none.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}

	var coded CodedError
	if stderrors.As(err, &coded) {
		return coded.Message()
	}

	return err.Error()
}
