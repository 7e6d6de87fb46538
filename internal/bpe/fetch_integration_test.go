package bpe

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/example/go-tokwalk/internal/registry"
	"github.com/example/go-tokwalk/internal/testutil"
)

func TestFetchIntegration_DefaultBaseURL(t *testing.T) {
	testutil.RequireNetwork(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dir := t.TempDir()

	var out bytes.Buffer
	if err := Fetch(ctx, FetchOptions{
		Encodings: []string{registry.R50kBase},
		CacheDir:  dir,
		Stdout:    &out,
	}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	results, err := Verify(dir, registry.R50kBase)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !AllOK(results) {
		t.Fatalf("verify after fetch = %+v", results)
	}

	loader := &CacheLoader{Dir: dir}
	ranks, err := loader.LoadTiktokenBpe(DefaultBaseURL + "r50k_base.tiktoken")
	if err != nil {
		t.Fatalf("LoadTiktokenBpe: %v", err)
	}
	if len(ranks) < 50000 {
		t.Errorf("r50k_base has %d ranks; want >= 50000", len(ranks))
	}

	if !strings.Contains(out.String(), "r50k_base") {
		t.Errorf("fetch output does not mention the encoding:\n%s", out.String())
	}
}
