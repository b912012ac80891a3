package scan

import "testing"

func TestMemchrNaive(t *testing.T) {
	if i := MemchrNaive('c', []byte("abcde")); i != 2 {
		t.Errorf("got %d, want 2", i)
	}
	if i := MemchrNaive('z', []byte("abcde")); i != -1 {
		t.Errorf("got %d, want -1", i)
	}
}

func TestMemrchrNaive(t *testing.T) {
	if i := MemrchrNaive('a', []byte("abcabc")); i != 3 {
		t.Errorf("got %d, want 3", i)
	}
}

func TestBytecountNaive(t *testing.T) {
	if n := BytecountNaive('\n', []byte("a\nb\nc\n")); n != 3 {
		t.Errorf("got %d, want 3", n)
	}
}

func TestStartsWith(t *testing.T) {
	cases := []struct {
		s, needle string
		want      bool
	}{
		{"solid box", "solid", true},
		{"sol", "solid", false},
		{"", "solid", false},
		{"anything", "", true},
	}
	for _, c := range cases {
		if got := StartsWith([]byte(c.s), []byte(c.needle)); got != c.want {
			t.Errorf("StartsWith(%q, %q) = %v, want %v", c.s, c.needle, got, c.want)
		}
	}
}

func TestSkipSpaces(t *testing.T) {
	if rest := SkipSpaces([]byte("  \tabc")); string(rest) != "abc" {
		t.Errorf("got %q", rest)
	}
	if rest := SkipSpaces([]byte("abc")); string(rest) != "abc" {
		t.Errorf("got %q", rest)
	}
	// Line continuation: backslash-newline is consumed.
	if rest := SkipSpaces([]byte("\\\ncontinued")); string(rest) != "continued" {
		t.Errorf("got %q", rest)
	}
	if rest := SkipSpaces([]byte("\\\r\ncontinued")); string(rest) != "continued" {
		t.Errorf("got %q", rest)
	}
}

func TestSkipSpacesUntilLine(t *testing.T) {
	rest, ok := SkipSpacesUntilLine([]byte("  \nnext"))
	if !ok || string(rest) != "next" {
		t.Errorf("got %q, %v", rest, ok)
	}
	rest, ok = SkipSpacesUntilLine([]byte("  \r\nnext"))
	if !ok || string(rest) != "next" {
		t.Errorf("got %q, %v", rest, ok)
	}
	rest, ok = SkipSpacesUntilLine(nil)
	if !ok || len(rest) != 0 {
		t.Errorf("got %q, %v", rest, ok)
	}
	_, ok = SkipSpacesUntilLine([]byte("  garbage\n"))
	if ok {
		t.Error("expected failure on trailing non-space content")
	}
}

func TestSkipAnyUntilLine(t *testing.T) {
	if rest := SkipAnyUntilLine([]byte("junk here\nrest")); string(rest) != "rest" {
		t.Errorf("got %q", rest)
	}
	if rest := SkipAnyUntilLine([]byte("no newline")); len(rest) != 0 {
		t.Errorf("got %q, want empty", rest)
	}
}

func TestLocationFind(t *testing.T) {
	all := []byte("line one\nline two\nline three")
	// Cursor sits right after "line " on the second line ("two\nline three" remains).
	remaining := len("two\nline three")
	loc := Find("f.obj", all, remaining)
	if loc.Line != 2 || loc.Col != 6 {
		t.Errorf("got line=%d col=%d, want line=2 col=6", loc.Line, loc.Col)
	}
	if got, want := loc.String(), "f.obj:2:6"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLocationNoPath(t *testing.T) {
	loc := Find("", []byte("abc"), 0)
	if loc.String() != "1:4" {
		t.Errorf("got %q", loc.String())
	}
}
