// Package hexdec decodes the hex-encoded <image>/<hex> payloads COLLADA
// embeds, per spec.md §4.4: a 256-entry nibble table with an odd-length
// rejection, rather than encoding/hex (see DESIGN.md).
package hexdec

import "fmt"

var nibble [256]byte

func init() {
	for i := range nibble {
		nibble[i] = 0xFF
	}
	for d := byte(0); d <= 9; d++ {
		nibble['0'+d] = d
	}
	for d := byte(0); d <= 5; d++ {
		nibble['a'+d] = 10 + d
		nibble['A'+d] = 10 + d
	}
}

// Decode turns a hex string into bytes, rejecting odd-length input or any
// non-hex-digit byte.
func Decode(s []byte) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("hexdec: odd-length input (%d bytes)", len(s))
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi := nibble[s[2*i]]
		lo := nibble[s[2*i+1]]
		if hi == 0xFF || lo == 0xFF {
			return nil, fmt.Errorf("hexdec: invalid hex digit at byte %d", 2*i)
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}
