// Package bpe manages the BPE rank files tiktoken encodings are built from:
// a pinned manifest, a checksum-verified local cache and the loaders that
// feed rank tables to tiktoken.
package bpe

import (
	"fmt"
	"path"
	"strings"

	"github.com/example/go-tokwalk/internal/registry"
)

// DefaultBaseURL is where the public rank files are published.
const DefaultBaseURL = "https://openaipublic.blob.core.windows.net/encodings/"

// RankFile describes one rank file and its expected checksum.
type RankFile struct {
	Encoding string `json:"encoding"`
	Filename string `json:"filename"`
	SHA256   string `json:"sha256"`
}

var pinned = []RankFile{
	{
		Encoding: registry.O200kBase,
		Filename: "o200k_base.tiktoken",
		SHA256:   "446a9538cb6c348e3516120d7c08b09f57c36495e2acfffe59a5bf8b0cfb1a2d",
	},
	{
		Encoding: registry.Cl100kBase,
		Filename: "cl100k_base.tiktoken",
		SHA256:   "223921b76ee99bde995b7ff738513eef100fb51d18c93597a113bcffe865b2a7",
	},
	{
		Encoding: registry.P50kBase,
		Filename: "p50k_base.tiktoken",
		SHA256:   "94b5ca7dff4d00767bc256fdd1b27e5b17361d7b8a5f968547f9f23eb70d2069",
	},
	{
		Encoding: registry.R50kBase,
		Filename: "r50k_base.tiktoken",
		SHA256:   "306cd27f03c1a714eca7108e03d66b7dc042abe8c258b44c199a7ed9838dd930",
	},
}

// PinnedFiles returns the rank file manifest in registry order.
func PinnedFiles() []RankFile {
	return append([]RankFile(nil), pinned...)
}

// PinnedFile returns the manifest entry for encoding.
func PinnedFile(encoding string) (RankFile, error) {
	for _, f := range pinned {
		if f.Encoding == encoding {
			return f, nil
		}
	}
	return RankFile{}, fmt.Errorf("no pinned rank file for encoding %q", encoding)
}

// fileForLocation maps a rank file URL or path, as tiktoken passes it to a
// loader, back to the manifest entry.
func fileForLocation(location string) (RankFile, bool) {
	base := path.Base(strings.ReplaceAll(location, "\\", "/"))
	for _, f := range pinned {
		if f.Filename == base {
			return f, true
		}
	}
	return RankFile{}, false
}

func selectFiles(encodings []string) ([]RankFile, error) {
	if len(encodings) == 0 {
		return PinnedFiles(), nil
	}
	out := make([]RankFile, 0, len(encodings))
	for _, enc := range encodings {
		f, err := PinnedFile(enc)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
