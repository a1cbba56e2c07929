// Package bytecodec holds the hex and byte-order helpers shared by the decoders.
package bytecodec

import (
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// ErrFormat reports a malformed hex string.
var ErrFormat = errors.New("bytecodec: malformed hex")

// ToHex renders b as two lowercase hex digits per byte, in buffer order.
func ToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// SwapEndianWord swaps the two byte groups of a 4 digit hex word: "4c00" -> "004c".
func SwapEndianWord(word string) (string, error) {
	if len(word) != 4 {
		return "", errors.Wrapf(ErrFormat, "endian swap needs 4 hex digits, got %d", len(word))
	}
	if _, err := hex.DecodeString(word); err != nil {
		return "", errors.Wrapf(ErrFormat, "endian swap of %q", word)
	}
	return word[2:] + word[:2], nil
}

// DecodeHex parses a hex dump. Whitespace, a leading 0x and the separators
// ':', '|' and '_' are ignored.
func DecodeHex(s string) ([]byte, error) {
	clean := strip(s)
	if strings.HasPrefix(clean, "0x") || strings.HasPrefix(clean, "0X") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, errors.Wrapf(ErrFormat, "odd number of hex digits (%d)", len(clean))
	}
	out, err := hex.DecodeString(clean)
	if err != nil {
		return nil, errors.Wrapf(ErrFormat, "%v", err)
	}
	return out, nil
}

func strip(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == ':' || r == '|' || r == '_' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
