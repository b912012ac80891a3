package stl

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// Scenario 1 from spec.md §8: minimal single-facet ASCII STL.
func TestParseASCIIMinimal(t *testing.T) {
	src := "solid box\n" +
		"facet normal 0 0 1\n" +
		"outer loop\n" +
		"vertex 0 0 0\n" +
		"vertex 1 0 0\n" +
		"vertex 0 1 0\n" +
		"endloop\n" +
		"endfacet\n" +
		"endsolid box\n"
	scene, err := Parse([]byte(src), Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(scene.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(scene.Meshes))
	}
	mesh := scene.Meshes[0]
	if mesh.Name != "box" {
		t.Errorf("got name %q, want box", mesh.Name)
	}
	if len(mesh.Faces) != 1 || mesh.Faces[0] != [3]uint32{0, 1, 2} {
		t.Errorf("got faces %v", mesh.Faces)
	}
	if len(mesh.Vertices) != 3 {
		t.Fatalf("got %d vertices, want 3", len(mesh.Vertices))
	}
	want := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	for i, v := range want {
		if mesh.Vertices[i] != v {
			t.Errorf("vertex %d = %v, want %v", i, mesh.Vertices[i], v)
		}
	}
	for _, n := range mesh.Normals {
		if n != [3]float32{0, 0, 1} {
			t.Errorf("normal = %v, want (0,0,1)", n)
		}
	}
}

func TestParseASCIIMultipleSolids(t *testing.T) {
	src := "solid a\n" +
		"facet normal 0 0 1\nouter loop\n" +
		"vertex 0 0 0\nvertex 1 0 0\nvertex 0 1 0\n" +
		"endloop\nendfacet\nendsolid a\n" +
		"solid b\n" +
		"facet normal 0 0 1\nouter loop\n" +
		"vertex 1 1 1\nvertex 2 1 1\nvertex 1 2 1\n" +
		"endloop\nendfacet\nendsolid b\n"
	scene, err := Parse([]byte(src), Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(scene.Meshes) != 2 {
		t.Fatalf("got %d meshes, want 2", len(scene.Meshes))
	}
}

func buildBinary(t *testing.T, header [80]byte, tris [][3][3]float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(header[:])
	binary.Write(&buf, binary.LittleEndian, uint32(len(tris)))
	for _, tri := range tris {
		var normal [3]float32
		binary.Write(&buf, binary.LittleEndian, normal)
		binary.Write(&buf, binary.LittleEndian, tri[0])
		binary.Write(&buf, binary.LittleEndian, tri[1])
		binary.Write(&buf, binary.LittleEndian, tri[2])
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}

func TestParseBinaryBasic(t *testing.T) {
	var header [80]byte
	tris := [][3][3]float32{
		{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		{{1, 1, 1}, {2, 1, 1}, {1, 2, 1}},
	}
	data := buildBinary(t, header, tris)
	scene, err := Parse(data, Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(scene.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(scene.Meshes))
	}
	mesh := scene.Meshes[0]
	if len(mesh.Faces) != 2 || len(mesh.Vertices) != 6 {
		t.Fatalf("got %d faces, %d vertices", len(mesh.Faces), len(mesh.Vertices))
	}
}

// Scenario 2 from spec.md §8: COLOR= header decoding.
func TestParseBinaryColor(t *testing.T) {
	var header [80]byte
	copy(header[:], "solid with color COLOR=")
	copy(header[len("solid with color COLOR="):], []byte{0xC0, 0xC0, 0xC0, 0xFF})

	tris := [][3][3]float32{{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}
	data := buildBinary(t, header, tris)
	scene, err := Parse(data, Options{ParseColor: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	mesh := scene.Meshes[0]
	if len(mesh.Colors[0]) != 3 {
		t.Fatalf("got %d colors, want 3", len(mesh.Colors[0]))
	}
	want := float32(0xC0) / 255
	for _, c := range mesh.Colors[0] {
		if math.Abs(float64(c[0]-want)) > 1e-6 || c[3] != 1.0 {
			t.Errorf("got color %v, want ~(%v,%v,%v,1)", c, want, want, want)
		}
	}
}

func TestParseBinaryTrailingNewlineTolerated(t *testing.T) {
	var header [80]byte
	tris := [][3][3]float32{{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}
	data := buildBinary(t, header, tris)
	data = append(data, '\n')
	if _, err := Parse(data, Options{}); err != nil {
		t.Fatalf("Parse failed on trailing newline: %v", err)
	}
}

func TestParseBinaryRejectsGarbageTrailer(t *testing.T) {
	var header [80]byte
	tris := [][3][3]float32{{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}
	data := buildBinary(t, header, tris)
	data = append(data, 'x', 'y', 'z')
	if _, err := Parse(data, Options{}); err == nil {
		t.Error("expected error on garbage trailer")
	}
}

func TestParseMissingEndsolid(t *testing.T) {
	src := "solid box\nfacet normal 0 0 1\nouter loop\n" +
		"vertex 0 0 0\nvertex 1 0 0\nvertex 0 1 0\nendloop\nendfacet\n"
	if _, err := Parse([]byte(src), Options{}); err == nil {
		t.Error("expected error on truncated solid")
	}
}
