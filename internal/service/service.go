// Package service combines encoding resolution, traversal and counting into
// single calls. It adds no semantics of its own; each method resolves the
// request, runs the tokenizer or the traversal engine and reduces the result.
package service

import (
	"context"
	"os"

	"github.com/example/go-tokwalk/internal/tokenizer"
	"github.com/example/go-tokwalk/internal/traverse"
)

// Option configures a Service.
type Option func(*Service)

// WithCache resolves requests against c instead of the process-wide cache.
func WithCache(c *tokenizer.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// WithFileTokenizer reads files through f, e.g. one with extra fallback codecs.
func WithFileTokenizer(f *tokenizer.FileTokenizer) Option {
	return func(s *Service) {
		s.files = f
	}
}

// WithTraversal sets the policy, workers and reporting of batch calls.
func WithTraversal(opts traverse.Options) Option {
	return func(s *Service) {
		s.traversal = opts
	}
}

// Service is safe for concurrent use.
type Service struct {
	cache     *tokenizer.Cache
	files     *tokenizer.FileTokenizer
	traversal traverse.Options
	engine    *traverse.Engine
}

// New builds a Service.
func New(opts ...Option) (*Service, error) {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}

	if s.files == nil {
		files, err := tokenizer.NewFileTokenizer()
		if err != nil {
			return nil, err
		}

		s.files = files
	}

	topts := s.traversal
	topts.Files = s.files

	engine, err := traverse.New(topts)
	if err != nil {
		return nil, err
	}

	s.engine = engine

	return s, nil
}

// Resolve returns the handle req names.
func (s *Service) Resolve(req tokenizer.Request) (tokenizer.Encoder, error) {
	if s.cache != nil {
		return s.cache.Resolve(req)
	}

	return tokenizer.Resolve(req)
}

// TokenizeStr encodes text.
func (s *Service) TokenizeStr(req tokenizer.Request, text string) ([]int, error) {
	enc, err := s.Resolve(req)
	if err != nil {
		return nil, err
	}

	return tokenizer.TokenizeText(text, enc)
}

// CountStr returns the number of tokens in text.
func (s *Service) CountStr(req tokenizer.Request, text string) (int, error) {
	tokens, err := s.TokenizeStr(req, text)
	if err != nil {
		return 0, err
	}

	return len(tokens), nil
}

// TokenizeFile encodes the contents of one file.
func (s *Service) TokenizeFile(req tokenizer.Request, path string) ([]int, error) {
	enc, err := s.Resolve(req)
	if err != nil {
		return nil, err
	}

	return s.files.TokenizeFile(path, enc)
}

// CountFile returns the number of tokens in one file.
func (s *Service) CountFile(req tokenizer.Request, path string) (int, error) {
	tokens, err := s.TokenizeFile(req, path)
	if err != nil {
		return 0, err
	}

	return len(tokens), nil
}

// TokenizeFiles traverses in and returns the token tree.
func (s *Service) TokenizeFiles(ctx context.Context, req tokenizer.Request, in traverse.Input) (*traverse.Result, error) {
	enc, err := s.Resolve(req)
	if err != nil {
		return nil, err
	}

	return s.engine.Traverse(ctx, in, enc)
}

// FlattenFiles traverses in and concatenates every file's tokens in
// traversal order.
func (s *Service) FlattenFiles(ctx context.Context, req tokenizer.Request, in traverse.Input) ([]int, error) {
	res, err := s.TokenizeFiles(ctx, req, in)
	if err != nil {
		return nil, err
	}

	return traverse.Flatten(res.Tree), nil
}

// CountResult is the reduced form of a traversal.
type CountResult struct {
	Total   int
	Tree    *traverse.CountTree
	Skipped []traverse.Skipped
}

// CountFiles traverses in and sums the tokens of every file.
func (s *Service) CountFiles(ctx context.Context, req tokenizer.Request, in traverse.Input) (*CountResult, error) {
	res, err := s.TokenizeFiles(ctx, req, in)
	if err != nil {
		return nil, err
	}

	return &CountResult{
		Total:   traverse.Count(res.Tree),
		Tree:    traverse.Counts(res.Tree),
		Skipped: res.Skipped,
	}, nil
}

// Decode turns token IDs back into text.
func (s *Service) Decode(req tokenizer.Request, tokens []int) (string, error) {
	enc, err := s.Resolve(req)
	if err != nil {
		return "", err
	}

	return enc.Decode(tokens), nil
}

// InputFor picks the traversal shape for command-line paths: one existing
// directory is walked as a Directory, anything else is a FileList.
func InputFor(paths []string, recursive bool) traverse.Input {
	if len(paths) == 1 {
		if info, err := os.Stat(paths[0]); err == nil && info.IsDir() {
			return traverse.Directory(paths[0], recursive)
		}
	}

	return traverse.FileList(paths...)
}
