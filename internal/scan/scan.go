// Package scan is the shared byte scanner the STL and OBJ cores use: a
// classifying lookup table, branch-only memchr-style helpers, and a
// cold-path Location recovery function. See spec.md §4.1.
package scan

import "strconv"

// Class bits tag each of the 256 byte values. Space/LineEnd are shared by
// every format; the remaining bits are free for a format to assign to its
// own reserved starter characters (STL's s/e/f/o/v, OBJ's v/f/o/g/m/u/s).
const (
	ClassSpace byte = 1 << iota
	ClassLineEnd
)

// Table is a 256-entry classification table. NewTable builds one with the
// space/line-end bits set; callers needing format-specific starter-byte
// classes can set additional bits directly (Table is just a byte array).
type Table [256]byte

// NewTable returns a Table with ' ', '\t' tagged ClassSpace and '\n', '\r'
// tagged ClassLineEnd.
func NewTable() Table {
	var t Table
	t[' '] = ClassSpace
	t['\t'] = ClassSpace
	t['\n'] = ClassLineEnd
	t['\r'] = ClassLineEnd
	return t
}

// MemchrNaive returns the index of the first occurrence of b in s, or -1.
func MemchrNaive(b byte, s []byte) int {
	for i, c := range s {
		if c == b {
			return i
		}
	}
	return -1
}

// MemchrNaiveTable returns the index of the first byte in s whose table
// entry has any bit of mask set, or -1.
func MemchrNaiveTable(mask byte, table *Table, s []byte) int {
	for i, c := range s {
		if table[c]&mask != 0 {
			return i
		}
	}
	return -1
}

// MemrchrNaive returns the index of the last occurrence of b in s, or -1.
func MemrchrNaive(b byte, s []byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// BytecountNaive counts the occurrences of b in s.
func BytecountNaive(b byte, s []byte) int {
	n := 0
	for _, c := range s {
		if c == b {
			n++
		}
	}
	return n
}

// StartsWith reports whether s begins with needle. Needle-length brackets
// aren't meaningfully distinct in Go the way they are with fixed-width
// integer loads in the original (the compiler already lowers short,
// constant-length byte comparisons to register loads), so this is a
// single implementation rather than one specialized per length bracket.
func StartsWith(s, needle []byte) bool {
	if len(s) < len(needle) {
		return false
	}
	for i, b := range needle {
		if s[i] != b {
			return false
		}
	}
	return true
}

// SkipSpaces consumes leading tab/space bytes from s, and additionally
// treats a backslash immediately before CR or LF as a line continuation:
// the backslash and the line terminator (including a CRLF pair) are
// consumed and scanning continues onto the next line. Returns the
// remaining slice.
func SkipSpaces(s []byte) []byte {
	for len(s) > 0 {
		switch s[0] {
		case ' ', '\t':
			s = s[1:]
		case '\\':
			if len(s) >= 2 && s[1] == '\n' {
				s = s[2:]
				continue
			}
			if len(s) >= 2 && s[1] == '\r' {
				if len(s) >= 3 && s[2] == '\n' {
					s = s[3:]
				} else {
					s = s[2:]
				}
				continue
			}
			return s
		default:
			return s
		}
	}
	return s
}

// SkipSpacesUntilLine consumes spaces/tabs, then requires the next byte
// to be CR, LF, or EOF; on success that terminator (and its CRLF pair) is
// also consumed. ok is false if a non-space, non-terminator byte remained.
func SkipSpacesUntilLine(s []byte) (rest []byte, ok bool) {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	switch {
	case len(s) == 0:
		return s, true
	case s[0] == '\n':
		return s[1:], true
	case s[0] == '\r':
		if len(s) >= 2 && s[1] == '\n' {
			return s[2:], true
		}
		return s[1:], true
	default:
		return s, false
	}
}

// SkipAnyUntilLine consumes every byte up to and including the next line
// terminator (or to EOF if none remains).
func SkipAnyUntilLine(s []byte) []byte {
	for i, c := range s {
		switch c {
		case '\n':
			return s[i+1:]
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				return s[i+2:]
			}
			return s[i+1:]
		}
	}
	return s[len(s):]
}

// Location is a 1-based (line, column) position, rendered on the cold
// error path only.
type Location struct {
	Path string
	Line int
	Col  int
}

// Find computes the Location of a scanning cursor given the full original
// slice and the number of bytes still remaining (unconsumed) from that
// cursor onward; path is optional and included verbatim in String.
func Find(path string, all []byte, remainingLen int) Location {
	consumed := len(all) - remainingLen
	if consumed < 0 {
		consumed = 0
	}
	if consumed > len(all) {
		consumed = len(all)
	}
	prefix := all[:consumed]
	line := 1 + BytecountNaive('\n', prefix)
	col := consumed + 1
	if i := MemrchrNaive('\n', prefix); i >= 0 {
		col = consumed - i
	}
	return Location{Path: path, Line: line, Col: col}
}

func (l Location) String() string {
	line, col := strconv.Itoa(l.Line), strconv.Itoa(l.Col)
	if l.Path == "" {
		return line + ":" + col
	}
	return l.Path + ":" + line + ":" + col
}
