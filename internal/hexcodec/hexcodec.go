// Package hexcodec converts between raw byte buffers and the lowercase hexadecimal
// text used for every binary value in a persisted vault.
package hexcodec

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// ErrInvalidHex is returned when a string is not valid hexadecimal text.
var ErrInvalidHex = errors.New("invalid hex string")

// Encode returns lowercase hexadecimal representation of b.
func Encode(b []byte) string {
	return hex.EncodeToString(b)
}

// Decode parses hexadecimal text into bytes. Uppercase digits are accepted on input
// even though Encode only produces lowercase. Odd-length input or non-hex characters are rejected.
func Decode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, errors.Wrapf(ErrInvalidHex, "odd length %v", len(s))
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidHex, err.Error())
	}

	return b, nil
}

// DecodeFixed parses hexadecimal text and verifies that it decodes to exactly n bytes.
func DecodeFixed(s string, n int) ([]byte, error) {
	b, err := Decode(s)
	if err != nil {
		return nil, err
	}

	if len(b) != n {
		return nil, errors.Errorf("unexpected length %v, want %v bytes", len(b), n)
	}

	return b, nil
}
