package errors

import stderrors "errors"

// WithContext returns a copy of err with one more context field.
// Errors without a code are converted using CodeOf. Returns nil if err is nil.
//
// Example:
//
//	err = errors.WithContext(err, "path", "/user/alice/reports")
func WithContext(err error, key string, value interface{}) CodedError {
	return WithContextMap(err, map[string]interface{}{key: value})
}

// WithContextMap returns a copy of err with the given fields merged into its
// context. New fields override existing ones with the same key.
func WithContextMap(err error, fields map[string]interface{}) CodedError {
	if err == nil {
		return nil
	}

	var coded CodedError
	if !stderrors.As(err, &coded) {
		code := CodeOf(err)
		coded = &codedError{
			code:           code,
			classification: getDefaultClassification(code),
			message:        err.Error(),
			cause:          err,
		}
	}

	merged := make(map[string]interface{}, len(fields))
	for k, v := range coded.Context() {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return &codedError{
		code:           coded.Code(),
		classification: coded.Classification(),
		message:        coded.Message(),
		context:        merged,
		cause:          coded.Unwrap(),
	}
}
