// Package textdec normalizes raw document bytes to UTF-8 per spec.md
// §4.5: strip a UTF-8 BOM, decode UTF-16 BE/LE via a BOM, and reject
// UTF-32. UTF-16 decoding is delegated to golang.org/x/text/encoding/unicode
// (already a teacher dependency) rather than a hand-rolled code-unit loop.
package textdec

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
)

// Decode normalizes data to UTF-8. If strict is true the result (after BOM
// stripping) is validated as UTF-8; if false, non-UTF-8-BOM, non-UTF-16-BOM
// input is passed through unchecked (OBJ/MTL files routinely carry
// partially non-UTF-8 comments or author names).
func Decode(data []byte, strict bool) ([]byte, error) {
	switch {
	case hasPrefix(data, bomUTF32BE), hasPrefix(data, bomUTF32LE):
		return nil, fmt.Errorf("textdec: UTF-32 is not supported")
	case hasPrefix(data, bomUTF16BE), hasPrefix(data, bomUTF16LE):
		// The BOM bytes are left in place: unicode.ExpectedBOM both
		// requires and consumes them, and uses them to pick the actual
		// endianness regardless of the default passed to UTF16.
		return decodeUTF16(data)
	case hasPrefix(data, bomUTF8):
		data = data[len(bomUTF8):]
	}
	if strict && !utf8.Valid(data) {
		return nil, fmt.Errorf("textdec: input is not valid UTF-8")
	}
	return data, nil
}

func decodeUTF16(data []byte) ([]byte, error) {
	// The x/text decoder replaces unpaired surrogates and a trailing odd
	// byte with U+FFFD instead of failing, so both are rejected here first.
	prevHigh := false
	for i := 2; i+1 < len(data); i += 2 {
		u := uint16(data[i])<<8 | uint16(data[i+1])
		if data[0] == 0xFF {
			u = u>>8 | u<<8
		}
		if isLow := u >= 0xDC00 && u <= 0xDFFF; isLow != prevHigh {
			return nil, fmt.Errorf("textdec: invalid UTF-16 (lone surrogate at byte %d)", i)
		}
		prevHigh = u >= 0xD800 && u <= 0xDBFF
	}
	if prevHigh || len(data)%2 != 0 {
		return nil, fmt.Errorf("textdec: invalid UTF-16 (lone surrogate or truncated code unit at end)")
	}
	dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectedBOM).NewDecoder()
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return nil, fmt.Errorf("textdec: invalid UTF-16 (lone surrogate or truncated code unit): %w", err)
	}
	return out, nil
}

func hasPrefix(data, prefix []byte) bool {
	if len(data) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if data[i] != b {
			return false
		}
	}
	return true
}
