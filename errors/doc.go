// Package errors provides the coded errors used throughout hdfsh.
//
// Every failure that crosses a package boundary carries an ErrorCode that the
// shell uses to choose the line it prints, and a classification that tells
// callers whether trying again could help. Errors stay compatible with the
// standard library (errors.Is, errors.As, errors.Unwrap) so that io/fs
// sentinels and driver errors remain visible underneath.
//
// Creating errors:
//
//	err := errors.New(errors.CodeNotFound, "file does not exist")
//	err := errors.Newf(errors.CodeAlreadyExists, "file %s already exists", p)
//
// Wrapping driver errors:
//
//	if err != nil {
//	    return errors.Wrap(err, errors.CodeUnavailable, "failed to reach namenode")
//	}
//
// Attaching context:
//
//	err = errors.WithContext(err, "path", p)
//
// Deciding what happened:
//
//	switch errors.CodeOf(err) {
//	case errors.CodeNotFound:
//	    ...
//	}
//
// CodeOf differs from GetCode in that it also recognises io/fs sentinels and
// context errors that were never wrapped into a coded error.
package errors
