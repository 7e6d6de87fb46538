package traverse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-tokwalk/internal/tokenizer"
)

// Options configures an Engine. The zero value is a sequential, fail-fast
// walk using the default text codecs.
type Options struct {
	Policy Policy
	// Quiet suppresses progress lines and skip warnings. It never changes
	// the result.
	Quiet bool
	// Workers bounds concurrent file reads within one directory or list.
	Workers int
	// ExcludeDirs are subdirectory base names never descended into.
	ExcludeDirs []string
	Files       *tokenizer.FileTokenizer
	Progress    io.Writer
	// Logger receives skip warnings; nil means slog.Default().
	Logger *slog.Logger
}

// Skipped is one entry left out of a SkipAndContinue traversal.
type Skipped struct {
	Path string
	Err  error
}

// Result is the tree produced by a traversal plus the entries it skipped.
type Result struct {
	Tree    *Tree
	Skipped []Skipped
}

// Engine runs traversals. It is safe for concurrent use.
type Engine struct {
	policy   Policy
	quiet    bool
	workers  int
	exclude  map[string]struct{}
	files    *tokenizer.FileTokenizer
	progress io.Writer
	log      *slog.Logger
}

// New returns an Engine configured by opts.
func New(opts Options) (*Engine, error) {
	files := opts.Files
	if files == nil {
		var err error
		files, err = tokenizer.NewFileTokenizer()
		if err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exclude := make(map[string]struct{}, len(opts.ExcludeDirs))
	for _, name := range opts.ExcludeDirs {
		name = strings.Trim(strings.TrimSpace(name), `/\`)
		if name != "" {
			exclude[strings.ToLower(name)] = struct{}{}
		}
	}
	return &Engine{
		policy:   opts.Policy,
		quiet:    opts.Quiet,
		workers:  opts.Workers,
		exclude:  exclude,
		files:    files,
		progress: opts.Progress,
		log:      logger,
	}, nil
}

// Traverse tokenizes in with enc using a one-off Engine.
func Traverse(ctx context.Context, in Input, enc tokenizer.Encoder, opts Options) (*Result, error) {
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	return e.Traverse(ctx, in, enc)
}

// walk carries the per-call state of one traversal.
type walk struct {
	*Engine
	ctx     context.Context
	enc     tokenizer.Encoder
	skipped []Skipped
}

// Traverse tokenizes in with enc. Resolution and top-level shape errors are
// always returned; per-entry errors follow the engine's Policy.
func (e *Engine) Traverse(ctx context.Context, in Input, enc tokenizer.Encoder) (*Result, error) {
	if enc == nil {
		return nil, fmt.Errorf("%w: nil encoder", tokenizer.ErrInvalidArgument)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	w := &walk{Engine: e, ctx: ctx, enc: enc}

	var (
		tree *Tree
		err  error
	)
	switch in.Kind {
	case KindFile:
		tree, err = w.file(in.Paths[0])
	case KindFileList:
		tree, err = w.list(in.Paths)
	case KindDirectory:
		tree, err = w.directory(in.Paths[0], in.Recursive)
	}
	if err != nil {
		return nil, err
	}
	return &Result{Tree: tree, Skipped: w.skipped}, nil
}

func (w *walk) file(path string) (*Tree, error) {
	tokens, err := w.files.TokenizeFile(path, w.enc)
	if err != nil {
		return nil, err
	}
	w.report(path, len(tokens))
	return Leaf(tokens), nil
}

type outcome struct {
	tokens []int
	err    error
}

func (w *walk) list(paths []string) (*Tree, error) {
	keys := listKeys(paths)
	pre, err := w.prefetch(paths)
	if err != nil {
		return nil, err
	}

	node := Node()
	seen := make(map[string]struct{}, len(paths))
	for i, p := range paths {
		if err := w.ctx.Err(); err != nil {
			return nil, err
		}
		if _, dup := seen[keys[i]]; dup {
			continue
		}
		seen[keys[i]] = struct{}{}

		res := w.fetch(pre, i, p)
		if res.err != nil {
			if err := w.fail(p, res.err); err != nil {
				return nil, err
			}
			continue
		}
		w.report(p, len(res.tokens))
		node.add(keys[i], Leaf(res.tokens))
	}
	return node, nil
}

// listKeys names list entries by base name, falling back to the cleaned path
// for base names that occur more than once.
func listKeys(paths []string) []string {
	count := make(map[string]int, len(paths))
	for _, p := range paths {
		count[filepath.Base(p)]++
	}
	keys := make([]string, len(paths))
	for i, p := range paths {
		base := filepath.Base(p)
		if count[base] > 1 {
			keys[i] = filepath.Clean(p)
		} else {
			keys[i] = base
		}
	}
	return keys
}

func (w *walk) directory(root string, recursive bool) (*Tree, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, &tokenizer.FileError{Path: root, Err: ErrNotADirectory}
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &tokenizer.FileError{Path: root, Err: fmt.Errorf("read dir: %w", err)}
	}
	return w.dir(root, entries, recursive, []os.FileInfo{info})
}

type slotKind int

const (
	slotFile slotKind = iota
	slotDir
	slotBad
)

type slot struct {
	kind slotKind
	name string
	path string
	info os.FileInfo
	err  error
	// index into the prefetched file outcomes
	file int
}

// dir tokenizes one directory's entries. os.ReadDir returns entries sorted
// by name, which fixes the order of the resulting node.
func (w *walk) dir(path string, entries []os.DirEntry, recursive bool, ancestors []os.FileInfo) (*Tree, error) {
	slots := make([]slot, 0, len(entries))
	var filePaths []string

	for _, de := range entries {
		full := filepath.Join(path, de.Name())
		s := slot{name: de.Name(), path: full}

		info, err := os.Stat(full)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			s.kind, s.err = slotBad, &tokenizer.FileError{Path: full, Err: ErrFileNotFound}
		case err != nil:
			s.kind, s.err = slotBad, &tokenizer.FileError{Path: full, Err: fmt.Errorf("%w: %w", ErrNotAFile, err)}
		case info.IsDir():
			if !recursive || w.excluded(de.Name()) {
				continue
			}
			s.kind, s.info = slotDir, info
		case info.Mode().IsRegular():
			s.kind, s.file = slotFile, len(filePaths)
			filePaths = append(filePaths, full)
		default:
			s.kind, s.err = slotBad, &tokenizer.FileError{Path: full, Err: ErrNotAFile}
		}
		slots = append(slots, s)
	}

	pre, err := w.prefetch(filePaths)
	if err != nil {
		return nil, err
	}

	node := Node()
	for _, s := range slots {
		if err := w.ctx.Err(); err != nil {
			return nil, err
		}
		switch s.kind {
		case slotBad:
			if err := w.fail(s.path, s.err); err != nil {
				return nil, err
			}
		case slotFile:
			res := w.fetch(pre, s.file, s.path)
			if res.err != nil {
				if err := w.fail(s.path, res.err); err != nil {
					return nil, err
				}
				continue
			}
			w.report(s.path, len(res.tokens))
			node.add(s.name, Leaf(res.tokens))
		case slotDir:
			sub, err := w.subdir(s, ancestors)
			if err != nil {
				return nil, err
			}
			if sub != nil {
				node.add(s.name, sub)
			}
		}
	}
	return node, nil
}

// subdir returns nil, nil when the directory was skipped under the policy.
func (w *walk) subdir(s slot, ancestors []os.FileInfo) (*Tree, error) {
	for _, a := range ancestors {
		if os.SameFile(a, s.info) {
			return nil, w.fail(s.path, &tokenizer.FileError{Path: s.path, Err: ErrSymlinkCycle})
		}
	}
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, w.fail(s.path, &tokenizer.FileError{Path: s.path, Err: fmt.Errorf("read dir: %w", err)})
	}
	chain := append(ancestors[:len(ancestors):len(ancestors)], s.info)
	return w.dir(s.path, entries, true, chain)
}

func (w *walk) excluded(name string) bool {
	_, ok := w.exclude[strings.ToLower(name)]
	return ok
}

// prefetch tokenizes paths concurrently when more than one worker is
// configured. It returns nil when files should be read lazily in order.
func (w *walk) prefetch(paths []string) ([]outcome, error) {
	if w.workers <= 1 || len(paths) < 2 {
		return nil, nil
	}
	out := make([]outcome, len(paths))
	g, gctx := errgroup.WithContext(w.ctx)
	g.SetLimit(w.workers)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tokens, err := w.files.TokenizeFile(p, w.enc)
			out[i] = outcome{tokens: tokens, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (w *walk) fetch(pre []outcome, i int, path string) outcome {
	if pre != nil {
		return pre[i]
	}
	tokens, err := w.files.TokenizeFile(path, w.enc)
	return outcome{tokens: tokens, err: err}
}

// fail applies the policy to a per-entry error: it returns err to abort, or
// records the entry and returns nil to continue.
func (w *walk) fail(path string, err error) error {
	if w.policy == FailFast {
		return err
	}
	w.skipped = append(w.skipped, Skipped{Path: path, Err: err})
	if !w.quiet {
		w.log.Warn("skipping entry", slog.String("path", path), slog.String("error", cause(err).Error()))
	}
	return nil
}

// cause strips the path wrapper so log lines do not repeat the path attribute.
func cause(err error) error {
	var fe *tokenizer.FileError
	if errors.As(err, &fe) && fe.Err != nil {
		return fe.Err
	}
	return err
}

func (w *walk) report(path string, tokens int) {
	if w.quiet || w.progress == nil {
		return
	}
	fmt.Fprintf(w.progress, "tokenized %s (%d tokens)\n", path, tokens)
}
