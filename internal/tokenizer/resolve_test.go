package tokenizer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/example/go-tokwalk/internal/registry"
)

// byteEncoder maps every byte to one token. Good enough to tell handles apart.
type byteEncoder struct{ name string }

func (b byteEncoder) Name() string { return b.name }

func (b byteEncoder) Encode(s string) []int {
	out := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = int(s[i])
	}
	return out
}

func (b byteEncoder) Decode(tokens []int) string {
	buf := make([]byte, len(tokens))
	for i, t := range tokens {
		buf[i] = byte(t)
	}
	return string(buf)
}

func newStubCache(builds *int) *Cache {
	return NewCacheWith(func(name string) (Encoder, error) {
		if builds != nil {
			*builds++
		}
		return byteEncoder{name: name}, nil
	})
}

func TestResolve(t *testing.T) {
	foreign := byteEncoder{name: registry.P50kBase}
	matching := byteEncoder{name: registry.Cl100kBase}

	tests := []struct {
		name     string
		req      Request
		wantName string
		wantErr  error
	}{
		{"model only", Request{Model: "gpt-4o"}, registry.O200kBase, nil},
		{"encoding only", Request{Encoding: registry.R50kBase}, registry.R50kBase, nil},
		{"model and matching encoding", Request{Model: "gpt-4", Encoding: registry.Cl100kBase}, registry.Cl100kBase, nil},
		{"handle only", Request{Handle: foreign}, registry.P50kBase, nil},
		{"model and matching handle", Request{Model: "gpt-4", Handle: matching}, registry.Cl100kBase, nil},
		{"all three agree", Request{Model: "gpt-4", Encoding: registry.Cl100kBase, Handle: matching}, registry.Cl100kBase, nil},
		{"nothing", Request{}, "", ErrNoEncodingSpecified},
		{"unknown model", Request{Model: "gpt-99"}, "", ErrUnknownModel},
		{"unknown encoding", Request{Encoding: "gpt2"}, "", ErrUnknownEncoding},
		{"unknown encoding wins over model", Request{Model: "gpt-4", Encoding: "gpt2"}, "", ErrUnknownEncoding},
		{"unknown model with encoding", Request{Model: "gpt-99", Encoding: registry.Cl100kBase}, "", ErrUnknownModel},
		{"model encoding mismatch", Request{Model: "gpt-4o", Encoding: registry.Cl100kBase}, "", ErrModelEncodingMismatch},
		{"encoding handle mismatch", Request{Encoding: registry.Cl100kBase, Handle: foreign}, "", ErrEncodingHandleMismatch},
		{"model handle mismatch", Request{Model: "gpt-4", Handle: foreign}, "", ErrEncodingHandleMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := newStubCache(nil).Resolve(tt.req)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, enc)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantName, enc.Name())
		})
	}
}

func TestResolve_HandleReturnedUnchanged(t *testing.T) {
	h := byteEncoder{name: registry.Cl100kBase}

	got, err := newStubCache(nil).Resolve(Request{Handle: h})
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestResolve_UnknownModelListsValidModels(t *testing.T) {
	_, err := newStubCache(nil).Resolve(Request{Model: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gpt-4o-mini")
}

func TestResolve_CachesPerEncoding(t *testing.T) {
	builds := 0
	c := newStubCache(&builds)

	a, err := c.Resolve(Request{Model: "gpt-4"})
	require.NoError(t, err)
	b, err := c.Resolve(Request{Encoding: registry.Cl100kBase})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, builds)

	c.Reset()
	_, err = c.Resolve(Request{Model: "gpt-3.5-turbo"})
	require.NoError(t, err)
	assert.Equal(t, 2, builds)
}

func TestResolve_ModelAndEncodingForModelAgree(t *testing.T) {
	models := registry.ValidModels()
	c := newStubCache(nil)

	rapid.Check(t, func(t *rapid.T) {
		m := rapid.SampledFrom(models).Draw(t, "model")
		enc, _ := registry.EncodingForModel(m)

		byModel, err := c.Resolve(Request{Model: m})
		if err != nil {
			t.Fatalf("Resolve(model=%q): %v", m, err)
		}

		byName, err := c.Resolve(Request{Encoding: enc})
		if err != nil {
			t.Fatalf("Resolve(encoding=%q): %v", enc, err)
		}

		if byModel.Name() != byName.Name() {
			t.Fatalf("model %q resolved to %q, encoding %q resolved to %q", m, byModel.Name(), enc, byName.Name())
		}
	})
}

func TestResolve_MismatchWheneverEncodingDiffers(t *testing.T) {
	models := registry.ValidModels()
	encodings := registry.ValidEncodings()
	c := newStubCache(nil)

	rapid.Check(t, func(t *rapid.T) {
		m := rapid.SampledFrom(models).Draw(t, "model")
		e := rapid.SampledFrom(encodings).Draw(t, "encoding")
		want, _ := registry.EncodingForModel(m)

		_, err := c.Resolve(Request{Model: m, Encoding: e})
		if want == e {
			if err != nil {
				t.Fatalf("Resolve(%q, %q) unexpected error: %v", m, e, err)
			}

			return
		}

		if !errors.Is(err, ErrModelEncodingMismatch) {
			t.Fatalf("Resolve(%q, %q) = %v; want ErrModelEncodingMismatch", m, e, err)
		}
	})
}
