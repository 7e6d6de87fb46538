// Package tokenizer converts text into token IDs for a named encoding.
// Encoders are backed by tiktoken rank tables and cached process-wide by
// encoding name, so building one is paid at most once per process.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/sync/singleflight"

	"github.com/example/go-tokwalk/internal/registry"
)

// Encoder is a handle bound to one encoding. Implementations are immutable
// and safe for concurrent use.
type Encoder interface {
	// Name returns the encoding name the handle is bound to.
	Name() string
	// Encode tokenizes text. Special-token text is encoded as ordinary text.
	Encode(text string) []int
	// Decode turns token IDs back into text.
	Decode(tokens []int) string
}

type tiktokenEncoder struct {
	name string
	enc  *tiktoken.Tiktoken
}

func (e *tiktokenEncoder) Name() string { return e.name }

func (e *tiktokenEncoder) Encode(text string) []int {
	if text == "" {
		return []int{}
	}
	return e.enc.EncodeOrdinary(text)
}

func (e *tiktokenEncoder) Decode(tokens []int) string {
	if len(tokens) == 0 {
		return ""
	}
	return e.enc.Decode(tokens)
}

// Cache builds encoders on first use and hands out the same instance afterwards.
// Builds run outside the lock: concurrent callers for one name share a single
// build, and a slow build never blocks other names. Failed builds are retried
// on the next call.
type Cache struct {
	mu       sync.Mutex
	encoders map[string]Encoder
	inflight singleflight.Group
	build    func(name string) (Encoder, error)
}

// NewCache returns a cache that builds tiktoken encoders.
func NewCache() *Cache {
	return NewCacheWith(buildTiktoken)
}

// NewCacheWith returns a cache that uses build to construct encoders.
func NewCacheWith(build func(name string) (Encoder, error)) *Cache {
	return &Cache{
		encoders: make(map[string]Encoder),
		build:    build,
	}
}

func buildTiktoken(name string) (Encoder, error) {
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("load encoding %q: %w", name, err)
	}
	return &tiktokenEncoder{name: name, enc: enc}, nil
}

// Get returns the encoder for a registered encoding name.
func (c *Cache) Get(name string) (Encoder, error) {
	if !registry.IsEncoding(name) {
		return nil, unknownEncoding(name)
	}

	if e, ok := c.lookup(name); ok {
		return e, nil
	}

	v, err, _ := c.inflight.Do(name, func() (any, error) {
		if e, ok := c.lookup(name); ok {
			return e, nil
		}
		e, err := c.build(name)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.encoders[name] = e
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Encoder), nil
}

func (c *Cache) lookup(name string) (Encoder, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.encoders[name]
	return e, ok
}

// Reset drops every cached encoder.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoders = make(map[string]Encoder)
}

var defaultCache = NewCache()

// Get returns the process-wide encoder for name.
func Get(name string) (Encoder, error) {
	return defaultCache.Get(name)
}

// SetLoader installs the source of BPE rank files and clears the process-wide
// cache. The library keeps ranks it has already loaded, so call it once at
// startup before the first encoder is built.
func SetLoader(loader tiktoken.BpeLoader) {
	if loader == nil {
		loader = tiktoken.NewDefaultBpeLoader()
	}
	tiktoken.SetBpeLoader(loader)
	defaultCache.Reset()
}
