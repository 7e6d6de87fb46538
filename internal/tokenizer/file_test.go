package tokenizer

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	p := filepath.Join(dir, name)

	err := os.WriteFile(p, data, 0o644)
	if err != nil {
		t.Fatalf("WriteFile(%s): %v", p, err)
	}

	return p
}

func TestTokenizeText_NilEncoder(t *testing.T) {
	_, err := TokenizeText("hi", nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
}

func TestTokenizeFile_ReadsWholeFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.txt", []byte("abc"))

	got, err := TokenizeFile(p, byteEncoder{name: "stub"})
	if err != nil {
		t.Fatalf("TokenizeFile: %v", err)
	}

	want := []int{'a', 'b', 'c'}
	if !slices.Equal(got, want) {
		t.Errorf("TokenizeFile = %v; want %v", got, want)
	}
}

func TestTokenizeFile_EmptyFile(t *testing.T) {
	p := writeFile(t, t.TempDir(), "empty.txt", nil)

	got, err := TokenizeFile(p, byteEncoder{name: "stub"})
	if err != nil {
		t.Fatalf("TokenizeFile: %v", err)
	}

	if len(got) != 0 {
		t.Errorf("TokenizeFile(empty) = %v; want empty", got)
	}
}

func TestTokenizeFile_Errors(t *testing.T) {
	dir := t.TempDir()
	binary := writeFile(t, dir, "blob.bin", []byte{0x00, 0xFF, 0x10, 0x80})

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{"missing", filepath.Join(dir, "nope.txt"), ErrFileNotFound},
		{"directory", dir, ErrNotAFile},
		{"binary", binary, ErrUnsupportedFileEncoding},
		{"empty path", "", ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TokenizeFile(tt.path, byteEncoder{name: "stub"})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TokenizeFile(%q) err = %v; want %v", tt.path, err, tt.wantErr)
			}

			if tt.path == "" {
				return
			}

			var fe *FileError
			if !errors.As(err, &fe) {
				t.Fatalf("want *FileError, got %T", err)
			}

			if fe.Path != tt.path {
				t.Errorf("FileError.Path = %q; want %q", fe.Path, tt.path)
			}
		})
	}
}

func TestFileTokenizer_FallbackCodec(t *testing.T) {
	p := writeFile(t, t.TempDir(), "latin1.txt", []byte{'c', 'a', 'f', 0xE9})

	_, err := TokenizeFile(p, byteEncoder{name: "stub"})
	if !errors.Is(err, ErrUnsupportedFileEncoding) {
		t.Fatalf("default chain: want ErrUnsupportedFileEncoding, got %v", err)
	}

	ft, err := NewFileTokenizer("windows-1252")
	if err != nil {
		t.Fatalf("NewFileTokenizer: %v", err)
	}

	got, err := ft.ReadText(p)
	if err != nil {
		t.Fatalf("ReadText: %v", err)
	}

	if got != "café" {
		t.Errorf("ReadText = %q; want %q", got, "café")
	}
}
