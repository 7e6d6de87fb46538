// Package testutil provides shared fixtures and skip helpers for tests.
//
// Skip helpers call t.Skip with a clear reason when a prerequisite is
// absent, so integration tests stay runnable in partial environments.
//
// Typical usage:
//
//	func TestFetchIntegration(t *testing.T) {
//	    testutil.RequireNetwork(t)
//	    root := testutil.WriteTree(t, map[string]string{"a.txt": "hello"})
//	    ...
//	}
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// NetworkEnv enables tests that reach the public rank-file store.
const NetworkEnv = "TOKWALK_NETWORK_TESTS"

// RequireNetwork skips the test unless NetworkEnv is set to a non-empty value.
func RequireNetwork(tb testing.TB) {
	tb.Helper()

	if os.Getenv(NetworkEnv) == "" {
		tb.Skipf("network tests disabled; set %s=1 to enable", NetworkEnv)
	}
}

// WriteTree creates files under a fresh temp dir and returns its path. Keys
// are slash-separated relative paths; a key ending in "/" creates an empty
// directory.
func WriteTree(tb testing.TB, files map[string]string) string {
	tb.Helper()

	root := tb.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(p, 0o755); err != nil {
				tb.Fatalf("MkdirAll(%s): %v", p, err)
			}

			continue
		}

		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			tb.Fatalf("MkdirAll(%s): %v", filepath.Dir(p), err)
		}

		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			tb.Fatalf("WriteFile(%s): %v", p, err)
		}
	}

	return root
}

// ByteEncoder is a deterministic stand-in for a real encoding: one token
// per byte, token ID equal to the byte value.
type ByteEncoder struct {
	Encoding string
}

// Name implements tokenizer.Encoder.
func (b ByteEncoder) Name() string { return b.Encoding }

// Encode implements tokenizer.Encoder.
func (b ByteEncoder) Encode(s string) []int {
	out := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int(s[i])
	}

	return out
}

// Decode implements tokenizer.Encoder.
func (b ByteEncoder) Decode(tokens []int) string {
	buf := make([]byte, len(tokens))
	for i, t := range tokens {
		buf[i] = byte(t)
	}

	return string(buf)
}
