package numeric

import (
	"fmt"
	"math"
	"testing"
)

func TestParseFloat32RoundTrip(t *testing.T) {
	values := []float32{0, 1, -1, 0.5, 3.14159, -273.15, 1e10, -1e-10, 123456.789}
	for _, x := range values {
		s := fmt.Sprintf("%v", x)
		got, ok := ParseFloat32([]byte(s))
		if !ok {
			t.Fatalf("ParseFloat32(%q) failed to parse", s)
		}
		if got != x {
			t.Errorf("ParseFloat32(%q) = %v, want %v", s, got, x)
		}
	}
}

func TestParseFloat64Basic(t *testing.T) {
	cases := map[string]float64{
		"0":        0,
		"1":        1,
		"-1":       -1,
		"3.14":     3.14,
		"1e10":     1e10,
		"-1.5e-3":  -1.5e-3,
		"1.":       1.0,
		"+2.5":     2.5,
		"0.000001": 0.000001,
	}
	for s, want := range cases {
		got, ok := ParseFloat64([]byte(s))
		if !ok || got != want {
			t.Errorf("ParseFloat64(%q) = %v, %v; want %v", s, got, ok, want)
		}
	}
}

func TestParseFloatInfNan(t *testing.T) {
	v, ok := ParseFloat64([]byte("inf"))
	if !ok || !math.IsInf(v, 1) {
		t.Errorf("inf: got %v, %v", v, ok)
	}
	v, ok = ParseFloat64([]byte("-infinity"))
	if !ok || !math.IsInf(v, -1) {
		t.Errorf("-infinity: got %v, %v", v, ok)
	}
	v, ok = ParseFloat64([]byte("NaN"))
	if !ok || !math.IsNaN(v) {
		t.Errorf("NaN: got %v, %v", v, ok)
	}
	v, ok = ParseFloat64([]byte("INF"))
	if !ok || !math.IsInf(v, 1) {
		t.Errorf("INF: got %v, %v", v, ok)
	}
}

func TestParseFloatPartial(t *testing.T) {
	v, n, ok := ParseFloat64Partial([]byte("3.14 rest"))
	if !ok || n != 4 || v != 3.14 {
		t.Errorf("got v=%v n=%d ok=%v", v, n, ok)
	}
}

func TestParseFloatRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", ".", "-", "e5", "abc"} {
		if _, ok := ParseFloat64([]byte(s)); ok {
			t.Errorf("ParseFloat64(%q) unexpectedly succeeded", s)
		}
	}
}
