// Package registry holds the closed table of model names and the token
// encodings they consume. The table is built once at package init and is
// read-only afterwards; all access goes through the lookup functions.
package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Encoding names known to the registry.
const (
	O200kBase  = "o200k_base"
	Cl100kBase = "cl100k_base"
	P50kBase   = "p50k_base"
	R50kBase   = "r50k_base"
)

// ErrNotFound is returned when a model or encoding name is not in the registry.
var ErrNotFound = errors.New("not found in registry")

type modelRecord struct {
	model    string
	encoding string
}

// records is ordered newest encoding first; listing functions preserve it.
var records = []modelRecord{
	{"gpt-4o", O200kBase},
	{"gpt-4o-mini", O200kBase},
	{"gpt-4-turbo", Cl100kBase},
	{"gpt-4", Cl100kBase},
	{"gpt-3.5-turbo", Cl100kBase},
	{"text-embedding-ada-002", Cl100kBase},
	{"text-embedding-3-small", Cl100kBase},
	{"text-embedding-3-large", Cl100kBase},
	{"code-davinci-002", P50kBase},
	{"code-cushman-001", P50kBase},
	{"text-davinci-002", P50kBase},
	{"text-davinci-003", P50kBase},
	{"davinci", R50kBase},
	{"curie", R50kBase},
	{"babbage", R50kBase},
	{"ada", R50kBase},
}

var encodings = []string{O200kBase, Cl100kBase, P50kBase, R50kBase}

var (
	modelIndex    map[string]string
	encodingIndex map[string][]string
)

func init() {
	modelIndex = make(map[string]string, len(records))
	encodingIndex = make(map[string][]string, len(encodings))
	for _, enc := range encodings {
		encodingIndex[enc] = nil
	}
	for _, r := range records {
		if _, ok := encodingIndex[r.encoding]; !ok {
			panic(fmt.Sprintf("registry: model %q references unregistered encoding %q", r.model, r.encoding))
		}
		modelIndex[r.model] = r.encoding
		encodingIndex[r.encoding] = append(encodingIndex[r.encoding], r.model)
	}
}

// EncodingForModel returns the encoding consumed by model.
func EncodingForModel(model string) (string, error) {
	enc, ok := modelIndex[model]
	if !ok {
		return "", fmt.Errorf("model %q: %w", model, ErrNotFound)
	}
	return enc, nil
}

// ModelsForEncoding returns every model that consumes encoding. The result
// may be empty for a known encoding; an unknown encoding is an error.
func ModelsForEncoding(encoding string) ([]string, error) {
	models, ok := encodingIndex[encoding]
	if !ok {
		return nil, fmt.Errorf("encoding %q: %w", encoding, ErrNotFound)
	}
	return append([]string{}, models...), nil
}

// ValidModels returns all registered model names in registry order.
func ValidModels() []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.model
	}
	return out
}

// ValidEncodings returns all registered encoding names in registry order.
func ValidEncodings() []string {
	return append([]string(nil), encodings...)
}

// IsModel reports whether model is registered.
func IsModel(model string) bool {
	_, ok := modelIndex[model]
	return ok
}

// IsEncoding reports whether encoding is registered.
func IsEncoding(encoding string) bool {
	_, ok := encodingIndex[encoding]
	return ok
}

// ListModels formats the registered models one per line, for error messages.
func ListModels() string {
	return strings.Join(ValidModels(), "\n")
}

// ListEncodings formats the registered encodings one per line.
func ListEncodings() string {
	return strings.Join(encodings, "\n")
}
