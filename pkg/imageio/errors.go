package imageio

import (
	"errors"
	"fmt"
)

// ErrUnknownFormat is returned for output format names that have no encoder
var ErrUnknownFormat = errors.New("unknown image format")

// WriteError reports a failed stream or file operation while writing an image
type WriteError struct {
	Op   string // Operation that failed: "create", "header", "row", "encode", "flush", "close"
	Path string // File path, empty for plain streams
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("imageio: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("imageio: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// wrapWriteError tags err with op and path, keeping an existing WriteError's op
func wrapWriteError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var we *WriteError
	if errors.As(err, &we) {
		if we.Path == "" {
			we.Path = path
		}
		return we
	}
	return &WriteError{Op: op, Path: path, Err: err}
}
