package tokenizer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/example/go-tokwalk/internal/text"
)

// TokenizeText encodes s with enc.
func TokenizeText(s string, enc Encoder) ([]int, error) {
	if enc == nil {
		return nil, fmt.Errorf("%w: nil encoder", ErrInvalidArgument)
	}
	return enc.Encode(s), nil
}

// FileTokenizer reads whole files, decodes them to text and encodes the text.
type FileTokenizer struct {
	decoder *text.Decoder
}

// NewFileTokenizer returns a FileTokenizer that tries UTF-8, UTF-16 and then
// the named fallback text codecs.
func NewFileTokenizer(fallbackCodecs ...string) (*FileTokenizer, error) {
	d, err := text.NewDecoder(fallbackCodecs...)
	if err != nil {
		return nil, err
	}
	return &FileTokenizer{decoder: d}, nil
}

// ReadText returns the decoded contents of the regular file at path.
func (f *FileTokenizer) ReadText(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty file path", ErrInvalidArgument)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &FileError{Path: path, Err: ErrFileNotFound}
		}
		return "", &FileError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return "", &FileError{Path: path, Err: ErrNotAFile}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &FileError{Path: path, Err: ErrFileNotFound}
		}
		return "", &FileError{Path: path, Err: fmt.Errorf("read: %w", err)}
	}

	s, _, err := f.decoder.Decode(raw)
	if err != nil {
		return "", &FileError{Path: path, Err: fmt.Errorf("%w: %w", ErrUnsupportedFileEncoding, err)}
	}
	return s, nil
}

// TokenizeFile encodes the contents of the file at path with enc.
func (f *FileTokenizer) TokenizeFile(path string, enc Encoder) ([]int, error) {
	if enc == nil {
		return nil, fmt.Errorf("%w: nil encoder", ErrInvalidArgument)
	}
	s, err := f.ReadText(path)
	if err != nil {
		return nil, err
	}
	return enc.Encode(s), nil
}

var defaultFileTokenizer = &FileTokenizer{decoder: mustDecoder()}

func mustDecoder() *text.Decoder {
	d, err := text.NewDecoder()
	if err != nil {
		panic(err)
	}
	return d
}

// TokenizeFile encodes the file at path using the default UTF-8, UTF-16 codec chain.
func TokenizeFile(path string, enc Encoder) ([]int, error) {
	return defaultFileTokenizer.TokenizeFile(path, enc)
}
