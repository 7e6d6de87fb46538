// Package text turns raw file bytes into a Go string. It tries an ordered
// chain of text codecs (UTF-8 first, then UTF-16 with a byte order mark, then
// any configured fallbacks) and rejects content that looks binary.
//
// "Codec" here always means a character encoding of bytes on disk, never a
// token encoding.
package text

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

var (
	// ErrUndecodable is returned when no codec in the chain accepts the content.
	ErrUndecodable = errors.New("content is not decodable as text")
	// ErrUnknownCodec is returned for a fallback codec name the index does not know.
	ErrUnknownCodec = errors.New("unknown text codec")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Codec decodes bytes into text or reports that it cannot.
type Codec struct {
	Name   string
	decode func([]byte) (string, bool)
}

// UTF8 accepts valid UTF-8, with or without a leading byte order mark.
func UTF8() Codec {
	return Codec{Name: "utf-8", decode: func(b []byte) (string, bool) {
		b = bytes.TrimPrefix(b, utf8BOM)
		if !utf8.Valid(b) {
			return "", false
		}
		s := string(b)
		return s, !strings.ContainsRune(s, 0)
	}}
}

// UTF16 accepts UTF-16 content that starts with a byte order mark.
func UTF16() Codec {
	return fromEncoding("utf-16", unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM))
}

func fromEncoding(name string, enc encoding.Encoding) Codec {
	return Codec{Name: name, decode: func(b []byte) (string, bool) {
		out, err := enc.NewDecoder().Bytes(b)
		if err != nil {
			return "", false
		}
		s := string(out)
		if strings.ContainsRune(s, utf8.RuneError) || strings.ContainsRune(s, 0) {
			return "", false
		}
		return s, true
	}}
}

// Lookup resolves a codec by its WHATWG/IANA name, e.g. "windows-1252" or "shift_jis".
func Lookup(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return UTF8(), nil
	case "utf-16", "utf16":
		return UTF16(), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return Codec{}, fmt.Errorf("%w %q", ErrUnknownCodec, name)
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = strings.ToLower(name)
	}
	return fromEncoding(canonical, enc), nil
}

// Decoder tries its codecs in order; the first one that accepts wins.
type Decoder struct {
	codecs []Codec
}

// NewDecoder builds the default UTF-8, UTF-16 chain followed by the named fallbacks.
func NewDecoder(fallbacks ...string) (*Decoder, error) {
	codecs := []Codec{UTF8(), UTF16()}
	for _, name := range fallbacks {
		if strings.TrimSpace(name) == "" {
			continue
		}
		c, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		codecs = append(codecs, c)
	}
	return &Decoder{codecs: codecs}, nil
}

// Codecs returns the names in the order they are tried.
func (d *Decoder) Codecs() []string {
	names := make([]string, len(d.codecs))
	for i, c := range d.codecs {
		names[i] = c.Name
	}
	return names
}

// Decode returns the text and the name of the codec that produced it.
func (d *Decoder) Decode(b []byte) (string, string, error) {
	for _, c := range d.codecs {
		if s, ok := c.decode(b); ok {
			return s, c.Name, nil
		}
	}
	return "", "", fmt.Errorf("%w (tried %s)", ErrUndecodable, strings.Join(d.Codecs(), ", "))
}
