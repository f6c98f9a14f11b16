package local

import (
	"io"

	"github.com/go-git/go-billy/v5"
)

// file wraps billy.File so callers only see the stream they asked for while
// errors keep the path they were opened with.
type file struct {
	file billy.File
	name string
}

func (f *file) Read(p []byte) (int, error) {
	n, err := f.file.Read(p)
	if err != nil && err != io.EOF {
		return n, translate(err, "read", f.name)
	}
	return n, err
}

func (f *file) Write(p []byte) (int, error) {
	n, err := f.file.Write(p)
	if err != nil {
		return n, translate(err, "write", f.name)
	}
	return n, nil
}

func (f *file) Close() error {
	if err := f.file.Close(); err != nil {
		return translate(err, "close", f.name)
	}
	return nil
}

// Name returns the path the file was opened with.
func (f *file) Name() string {
	return f.name
}

var (
	_ io.ReadCloser  = (*file)(nil)
	_ io.WriteCloser = (*file)(nil)
)
