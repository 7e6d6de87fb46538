package text

import (
	"errors"
	"slices"
	"testing"
)

func mustDecoder(t *testing.T, fallbacks ...string) *Decoder {
	t.Helper()

	d, err := NewDecoder(fallbacks...)
	if err != nil {
		t.Fatalf("NewDecoder(%v): %v", fallbacks, err)
	}

	return d
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		fallbacks []string
		input     []byte
		want      string
		wantCodec string
		wantErr   bool
	}{
		{"ascii", nil, []byte("hello world"), "hello world", "utf-8", false},
		{"empty", nil, []byte{}, "", "utf-8", false},
		{"utf-8 multibyte", nil, []byte("héllo ✓"), "héllo ✓", "utf-8", false},
		{"utf-8 bom stripped", nil, []byte("\xEF\xBB\xBFhi"), "hi", "utf-8", false},
		{"utf-16le bom", nil, []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi", "utf-16", false},
		{"utf-16be bom", nil, []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "hi", "utf-16", false},
		{"latin-1 without fallback", nil, []byte{'c', 'a', 'f', 0xE9}, "", "", true},
		{"latin-1 with fallback", []string{"windows-1252"}, []byte{'c', 'a', 'f', 0xE9}, "café", "windows-1252", false},
		{"binary with nul", nil, []byte{'a', 0, 'b'}, "", "", true},
		{"binary with nul and fallback", []string{"windows-1252"}, []byte{0x00, 0x01, 0x02}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustDecoder(t, tt.fallbacks...)

			got, codec, err := d.Decode(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUndecodable) {
					t.Fatalf("Decode() err = %v; want ErrUndecodable", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("Decode() unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("Decode() = %q; want %q", got, tt.want)
			}

			if codec != tt.wantCodec {
				t.Errorf("codec = %q; want %q", codec, tt.wantCodec)
			}
		})
	}
}

func TestNewDecoder_UnknownFallback(t *testing.T) {
	_, err := NewDecoder("klingon-8")
	if !errors.Is(err, ErrUnknownCodec) {
		t.Fatalf("want ErrUnknownCodec, got %v", err)
	}
}

func TestDecoder_CodecOrder(t *testing.T) {
	d := mustDecoder(t, "", "shift_jis")

	want := []string{"utf-8", "utf-16", "shift_jis"}
	if got := d.Codecs(); !slices.Equal(got, want) {
		t.Errorf("Codecs() = %v; want %v", got, want)
	}
}

func TestLookup_Aliases(t *testing.T) {
	for _, name := range []string{"UTF8", "utf-8", " utf-16 "} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q): %v", name, err)
		}
	}
}
