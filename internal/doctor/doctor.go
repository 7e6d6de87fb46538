// Package doctor provides environment preflight checks for tokwalk.
package doctor

import (
	"fmt"
	"io"

	"github.com/example/go-tokwalk/internal/bpe"
	"github.com/example/go-tokwalk/internal/text"
	"github.com/example/go-tokwalk/internal/tokenizer"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// probeText is encoded and decoded by every encoding check.
const probeText = "hello world <|endoftext|> ünïcödé"

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// Loader is the configured rank-file source, reported only.
	Loader string
	// Encodings are checked in order.
	Encodings []string
	// LoadEncoding builds a handle, usually tokenizer.Get.
	LoadEncoding func(name string) (tokenizer.Encoder, error)
	// VerifyCache hashes cached rank files. Nil skips the cache check.
	VerifyCache func() ([]bpe.VerifyResult, error)
	// FallbackCodecs must all be known to the text codec index.
	FallbackCodecs []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	fmt.Fprintf(w, "%s loader: %s\n", PassMark, cfg.Loader)

	// ---- rank cache -------------------------------------------------------
	if cfg.VerifyCache == nil {
		fmt.Fprintf(w, "%s rank cache: skipped\n", PassMark)
	} else {
		results, err := cfg.VerifyCache()
		if err != nil {
			res.fail(fmt.Sprintf("rank cache: %v", err))
			fmt.Fprintf(w, "%s rank cache: %v\n", FailMark, err)
		}
		for _, r := range results {
			if r.Status == bpe.StatusOK {
				fmt.Fprintf(w, "%s rank cache %s: ok\n", PassMark, r.Encoding)
				continue
			}
			res.fail(fmt.Sprintf("rank cache %s: %s", r.Encoding, r.Status))
			fmt.Fprintf(w, "%s rank cache %s: %s (%s)\n", FailMark, r.Encoding, r.Status, r.Path)
		}
	}

	// ---- encodings --------------------------------------------------------
	for _, name := range cfg.Encodings {
		n, err := probeEncoding(cfg.LoadEncoding, name)
		if err != nil {
			res.fail(fmt.Sprintf("encoding %s: %v", name, err))
			fmt.Fprintf(w, "%s encoding %s: %v\n", FailMark, name, err)
		} else {
			fmt.Fprintf(w, "%s encoding %s: ok (%d probe tokens)\n", PassMark, name, n)
		}
	}

	// ---- text codecs ------------------------------------------------------
	for _, name := range cfg.FallbackCodecs {
		c, err := text.Lookup(name)
		if err != nil {
			res.fail(fmt.Sprintf("text codec %q: %v", name, err))
			fmt.Fprintf(w, "%s text codec %s: %v\n", FailMark, name, err)
		} else {
			fmt.Fprintf(w, "%s text codec: %s\n", PassMark, c.Name)
		}
	}

	return res
}

// probeEncoding loads name and checks that probeText survives a round trip.
func probeEncoding(load func(string) (tokenizer.Encoder, error), name string) (int, error) {
	if load == nil {
		return 0, fmt.Errorf("no encoding loader configured")
	}
	enc, err := load(name)
	if err != nil {
		return 0, err
	}
	tokens := enc.Encode(probeText)
	if len(tokens) == 0 {
		return 0, fmt.Errorf("probe text produced no tokens")
	}
	if got := enc.Decode(tokens); got != probeText {
		return 0, fmt.Errorf("round trip mismatch: got %q", got)
	}
	return len(tokens), nil
}
