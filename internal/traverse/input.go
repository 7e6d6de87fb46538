// Package traverse tokenizes a file, a list of files or a directory tree and
// returns a result shaped like the input. Per-entry failures in list and
// directory walks are handled by a Policy: fail fast or skip and continue.
package traverse

import (
	"errors"
	"fmt"

	"github.com/example/go-tokwalk/internal/tokenizer"
)

var (
	ErrNotADirectory = errors.New("not a directory")
	ErrSymlinkCycle  = errors.New("directory symlink cycle")
	ErrInvalidInput  = errors.New("invalid traversal input")

	// Re-exported so callers of this package need only one import for the
	// whole traversal error taxonomy.
	ErrNotAFile                = tokenizer.ErrNotAFile
	ErrFileNotFound            = tokenizer.ErrFileNotFound
	ErrUnsupportedFileEncoding = tokenizer.ErrUnsupportedFileEncoding
)

// Kind selects the shape of a traversal.
type Kind int

const (
	KindFile Kind = iota
	KindFileList
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFileList:
		return "file-list"
	case KindDirectory:
		return "directory"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Input describes what to traverse. Build it with SingleFile, FileList or Directory.
type Input struct {
	Kind      Kind
	Paths     []string
	Recursive bool
}

// SingleFile traverses one file; the result is a leaf.
func SingleFile(path string) Input {
	return Input{Kind: KindFile, Paths: []string{path}}
}

// FileList traverses files in order; the result is a node keyed by file name.
func FileList(paths ...string) Input {
	return Input{Kind: KindFileList, Paths: paths}
}

// Directory traverses the entries of root; subdirectories are nested when
// recursive and left out otherwise.
func Directory(root string, recursive bool) Input {
	return Input{Kind: KindDirectory, Paths: []string{root}, Recursive: recursive}
}

func (in Input) validate() error {
	switch in.Kind {
	case KindFile, KindDirectory:
		if len(in.Paths) != 1 {
			return fmt.Errorf("%w: %s takes exactly one path, got %d", ErrInvalidInput, in.Kind, len(in.Paths))
		}
	case KindFileList:
		if len(in.Paths) == 0 {
			return fmt.Errorf("%w: empty file list", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown %s", ErrInvalidInput, in.Kind)
	}
	for i, p := range in.Paths {
		if p == "" {
			return fmt.Errorf("%w: path %d is empty", ErrInvalidInput, i)
		}
	}
	return nil
}

// Policy decides what a per-entry failure does to a list or directory walk.
type Policy int

const (
	// FailFast aborts the whole traversal on the first failing entry.
	FailFast Policy = iota
	// SkipAndContinue leaves failing entries out of the result and records them.
	SkipAndContinue
)

// PolicyFor maps an exit-on-list-error flag to a Policy.
func PolicyFor(exitOnListError bool) Policy {
	if exitOnListError {
		return FailFast
	}
	return SkipAndContinue
}

func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail_fast"
	case SkipAndContinue:
		return "skip_and_continue"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}
