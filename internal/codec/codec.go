// Package codec converts raw file payloads to and from the text-safe
// representation persisted in the database. The encoding is plain base64:
// reversible, 8-bit clean (TIFF uploads are binary), no compression.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrMalformed indicates stored content that is not valid base64. For a
// persisted record this means corruption, not a transient failure.
var ErrMalformed = errors.New("malformed encoding")

func Encode(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

// Decode reverses Encode. Decode(Encode(b)) == b for every byte sequence b,
// including empty input.
func Decode(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return raw, nil
}
