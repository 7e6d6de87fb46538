package tokenizer

import (
	"fmt"

	"github.com/example/go-tokwalk/internal/registry"
)

// Request carries the optional hints an encoder is resolved from. Any
// combination may be set; whatever is set has to agree.
type Request struct {
	Model    string
	Encoding string
	Handle   Encoder
}

// Empty reports whether no hint is set.
func (r Request) Empty() bool {
	return r.Model == "" && r.Encoding == "" && r.Handle == nil
}

// Resolve returns exactly one encoder for req using the process-wide cache.
func Resolve(req Request) (Encoder, error) {
	return defaultCache.Resolve(req)
}

// Resolve returns exactly one encoder for req. Precedence is encoding name,
// then model; a supplied handle is only checked against the result, or
// returned as-is when it is the sole hint.
func (c *Cache) Resolve(req Request) (Encoder, error) {
	if req.Model == "" && req.Encoding == "" {
		if req.Handle == nil {
			return nil, fmt.Errorf("%w\n\nValid models:\n%s\n\nValid encodings:\n%s",
				ErrNoEncodingSpecified, registry.ListModels(), registry.ListEncodings())
		}
		return req.Handle, nil
	}

	name, err := resolveName(req.Model, req.Encoding)
	if err != nil {
		return nil, err
	}

	if req.Handle != nil {
		if req.Handle.Name() != name {
			return nil, fmt.Errorf("%w: handle is bound to %q but %s resolves to %q",
				ErrEncodingHandleMismatch, req.Handle.Name(), describe(req), name)
		}
		return req.Handle, nil
	}

	return c.Get(name)
}

func resolveName(model, encoding string) (string, error) {
	if encoding != "" {
		if !registry.IsEncoding(encoding) {
			return "", unknownEncoding(encoding)
		}
		if model == "" {
			return encoding, nil
		}
		modelEnc, err := registry.EncodingForModel(model)
		if err != nil {
			return "", unknownModel(model)
		}
		if modelEnc != encoding {
			return "", fmt.Errorf("%w: model %q uses %q, not %q",
				ErrModelEncodingMismatch, model, modelEnc, encoding)
		}
		return encoding, nil
	}

	modelEnc, err := registry.EncodingForModel(model)
	if err != nil {
		return "", unknownModel(model)
	}
	return modelEnc, nil
}

func describe(req Request) string {
	switch {
	case req.Model != "" && req.Encoding != "":
		return fmt.Sprintf("model %q with encoding %q", req.Model, req.Encoding)
	case req.Encoding != "":
		return fmt.Sprintf("encoding %q", req.Encoding)
	default:
		return fmt.Sprintf("model %q", req.Model)
	}
}
