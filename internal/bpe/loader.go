package bpe

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Loader kinds accepted by NewLoader.
const (
	LoaderDefault = "default"
	LoaderOffline = "offline"
	LoaderCache   = "cache"
)

// NormalizeLoader canonicalises a loader kind; empty means LoaderDefault.
func NormalizeLoader(raw string) (string, error) {
	kind := strings.ToLower(strings.TrimSpace(raw))
	switch kind {
	case "":
		return LoaderDefault, nil
	case LoaderDefault, LoaderOffline, LoaderCache:
		return kind, nil
	default:
		return "", fmt.Errorf(
			"invalid loader %q (expected %s|%s|%s)",
			raw,
			LoaderDefault,
			LoaderOffline,
			LoaderCache,
		)
	}
}

// NewLoader returns the rank-file source for kind:
//   - default: the library's own loader, downloading on first use
//   - offline: rank files embedded in the binary
//   - cache:   verified files from cacheDir, falling back to default
func NewLoader(kind, cacheDir string) (tiktoken.BpeLoader, error) {
	kind, err := NormalizeLoader(kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case LoaderOffline:
		return tiktoken_loader.NewOfflineLoader(), nil
	case LoaderCache:
		if cacheDir == "" {
			return nil, fmt.Errorf("loader %q requires a cache dir", LoaderCache)
		}
		return &CacheLoader{Dir: cacheDir, Fallback: tiktoken.NewDefaultBpeLoader()}, nil
	default:
		return tiktoken.NewDefaultBpeLoader(), nil
	}
}

// CacheLoader serves rank files from a local cache populated by Fetch. A file
// is only used when its checksum matches the pinned manifest.
type CacheLoader struct {
	Dir      string
	Fallback tiktoken.BpeLoader
	Logger   *slog.Logger
}

// LoadTiktokenBpe implements tiktoken.BpeLoader.
func (l *CacheLoader) LoadTiktokenBpe(location string) (map[string]int, error) {
	log := l.Logger
	if log == nil {
		log = slog.Default()
	}

	f, known := fileForLocation(location)
	if known {
		res := verifyFile(l.Dir, f)
		if res.Status == StatusOK {
			ranks, err := readRankFile(res.Path)
			if err == nil {
				return ranks, nil
			}
			log.Warn("cached rank file unreadable", slog.String("path", res.Path), slog.String("error", err.Error()))
		} else {
			log.Debug("rank file not usable from cache",
				slog.String("encoding", f.Encoding),
				slog.String("status", string(res.Status)),
			)
		}
	}

	if l.Fallback == nil {
		return nil, fmt.Errorf("rank file %s not in cache %s", location, l.Dir)
	}
	return l.Fallback.LoadTiktokenBpe(location)
}

func readRankFile(path string) (map[string]int, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read rank file: %w", err)
	}
	return ParseRanks(bytes.NewReader(b))
}

// ParseRanks reads the tiktoken rank format: one "<base64 token> <rank>" per line.
func ParseRanks(r io.Reader) (map[string]int, error) {
	ranks := make(map[string]int)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		tok, rankStr, ok := strings.Cut(raw, " ")
		if !ok {
			return nil, fmt.Errorf("rank line %d: missing rank", line)
		}
		token, err := base64.StdEncoding.DecodeString(tok)
		if err != nil {
			return nil, fmt.Errorf("rank line %d: %w", line, err)
		}
		rank, err := strconv.Atoi(rankStr)
		if err != nil {
			return nil, fmt.Errorf("rank line %d: %w", line, err)
		}
		ranks[string(token)] = rank
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan ranks: %w", err)
	}
	return ranks, nil
}
