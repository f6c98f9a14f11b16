package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmgilman/hdfsh/errors"
	"github.com/jmgilman/hdfsh/fs/core"
)

// Render turns an error into the single line shown to the user.
func Render(err error) string {
	if err == nil {
		return ""
	}
	msg := errors.MessageOf(err)

	switch errors.CodeOf(err) {
	case errors.CodeNotFound, errors.CodeAlreadyExists, errors.CodeNotDirectory, errors.CodeIsDirectory:
		return msg
	case errors.CodeInvalidInput:
		return "Wrong input! " + msg
	case errors.CodeForbidden:
		return "Permission denied: " + msg
	case errors.CodeUnavailable, errors.CodeNetwork:
		return "Remote service unavailable: " + detail(err)
	case errors.CodeTimeout:
		return "Timed out: " + detail(err)
	case errors.CodeIO:
		return "Transfer failed: " + detail(err)
	case errors.CodeNotImplemented:
		return "Not supported by this backend: " + msg
	default:
		return "Error: " + err.Error()
	}
}

// detail is the message plus the innermost cause, which is usually the part
// that tells the user what broke.
func detail(err error) string {
	msg := errors.MessageOf(err)
	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}
	if root == err || strings.Contains(msg, root.Error()) {
		return msg
	}
	return fmt.Sprintf("%s (%s)", msg, root.Error())
}

var kindOrder = []core.Kind{core.KindDirectory, core.KindLink, core.KindFile, core.KindOther}

// WriteListing prints entries grouped by kind: directories, links, files,
// then anything else. Order within a group is preserved.
func WriteListing(w io.Writer, entries []core.Entry) {
	for _, kind := range kindOrder {
		for _, e := range entries {
			if e.Kind != kind {
				continue
			}
			switch kind {
			case core.KindDirectory:
				fmt.Fprintf(w, "    📁 %s\n", e.Name)
			case core.KindLink:
				fmt.Fprintf(w, "    📂 %s\n", e.Name)
			case core.KindFile:
				fmt.Fprintf(w, "    📄 %s\n", e.Name)
			default:
				fmt.Fprintf(w, "    This is neither file or directory: %s\n", e.Name)
			}
		}
	}
}
