package codec

import (
	"bytes"
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", []byte{}},
		{"nil", nil},
		{"text", []byte(`{"type":"FeatureCollection","features":[]}`)},
		{"single byte", []byte{0x00}},
		{"binary", []byte{0x49, 0x49, 0x2a, 0x00, 0xff, 0xfe, 0x00, 0x01}},
		{"non-utf8", []byte{0xc3, 0x28, 0xa0, 0xa1}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Decode(Encode(tt.raw))
			if err != nil {
				t.Fatalf("Decode(Encode(%v)) error = %v", tt.raw, err)
			}
			if !bytes.Equal(got, tt.raw) {
				t.Fatalf("round trip = %v, want %v", got, tt.raw)
			}
		})
	}
}

func TestRoundTrip_AllByteValues(t *testing.T) {
	t.Parallel()
	raw := make([]byte, 256)
	for i := range raw {
		raw[i] = byte(i)
	}
	got, err := Decode(Encode(raw))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatal("round trip of all byte values did not reproduce input")
	}
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()
	tests := []string{
		"not base64!!!",
		"a",
		"abc=def",
		"%%%%",
	}
	for _, encoded := range tests {
		_, err := Decode(encoded)
		if err == nil {
			t.Fatalf("Decode(%q) should error", encoded)
		}
		if !errors.Is(err, ErrMalformed) {
			t.Fatalf("Decode(%q) error = %v, want ErrMalformed", encoded, err)
		}
	}
}

func TestDecode_Empty(t *testing.T) {
	t.Parallel()
	got, err := Decode("")
	if err != nil {
		t.Fatalf("Decode(\"\") error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Decode(\"\") = %v, want empty", got)
	}
}
