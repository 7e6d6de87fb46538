package tokenizer

import (
	"errors"
	"fmt"

	"github.com/example/go-tokwalk/internal/registry"
)

// Resolution errors.
var (
	ErrUnknownModel           = errors.New("unknown model")
	ErrUnknownEncoding        = errors.New("unknown encoding")
	ErrModelEncodingMismatch  = errors.New("model does not use encoding")
	ErrEncodingHandleMismatch = errors.New("encoding handle mismatch")
	ErrNoEncodingSpecified    = errors.New("no model, encoding name or encoding handle given")
)

// File errors.
var (
	ErrFileNotFound            = errors.New("file not found")
	ErrNotAFile                = errors.New("not a regular file")
	ErrUnsupportedFileEncoding = errors.New("unsupported file encoding")
)

// ErrInvalidArgument is returned for arguments rejected before any I/O.
var ErrInvalidArgument = errors.New("invalid argument")

// FileError records which path a file-level failure belongs to.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

func unknownModel(model string) error {
	return fmt.Errorf("%w %q\n\nValid models:\n%s", ErrUnknownModel, model, registry.ListModels())
}

func unknownEncoding(name string) error {
	return fmt.Errorf("%w %q\n\nValid encodings:\n%s", ErrUnknownEncoding, name, registry.ListEncodings())
}
