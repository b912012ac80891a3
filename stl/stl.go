// Package stl parses binary and ASCII STL documents into a meshkit Scene,
// per spec.md §4.7. The representation is chosen before parsing starts
// (see Parse and isASCII); an ASCII parse that fails is returned as an
// error and is not retried as binary.
package stl

import (
	"encoding/binary"
	"fmt"
	"math"

	"meshkit/internal/errs"
	"meshkit/internal/model"
	"meshkit/internal/numeric"
	"meshkit/internal/scan"
)

const (
	headerSize         = 80
	triangleCountSize  = 4
	binaryTriangleSize = 50
)

// Options configures the STL parse.
type Options struct {
	// ParseColor requests decoding of the VisCAM/SolidView per-face color
	// extension (a COLOR= header plus the attribute word's high bit).
	ParseColor bool
	// Path is used only to annotate error locations.
	Path string
}

// Parse auto-detects ASCII vs binary representation and parses data into
// a Scene. Multiple "solid"/"endsolid" blocks in an ASCII file produce one
// Mesh each.
//
// A stated triangle count that matches the file size forces the binary
// path unconditionally, even when the header starts with "solid" --
// original_source/src/stl/mod.rs:21-30 makes this override decisive rather
// than just another ASCII-detection signal, since it's the only reliable
// way to resolve a binary STL whose 80-byte header legally happens to spell
// "solid".
func Parse(data []byte, opts Options) (*model.Scene, error) {
	maybeASCII, correctCount := probeBinaryHeader(data)
	if !maybeASCII || correctCount {
		return parseBinary(data, opts)
	}
	if isASCII(data, maybeASCII) {
		return parseASCII(data, opts)
	}
	return parseBinary(data, opts)
}

// probeBinaryHeader reports whether data starts with "solid" and whether a
// stated binary triangle count matches the file size, two cheap signals
// used to steer ASCII-vs-binary detection. maybeASCII only needs the first
// 5 bytes and is reported regardless of file length; correctCount needs a
// full 84-byte header+count to evaluate and is false for shorter input
// (too short to be a binary STL with any triangles, so the override in
// Parse never fires and detection falls through to the ASCII/content scan).
func probeBinaryHeader(data []byte) (maybeASCII, correctCount bool) {
	maybeASCII = scan.StartsWith(data, []byte("solid"))
	if len(data) < headerSize+triangleCountSize {
		return maybeASCII, false
	}
	stated := binary.LittleEndian.Uint32(data[headerSize : headerSize+triangleCountSize])
	size := uint64(len(data)-headerSize-triangleCountSize) / binaryTriangleSize
	correctCount = uint64(stated) == size
	return maybeASCII, correctCount
}

// isASCII applies the "solid" + all-ASCII-after heuristic from spec.md
// §4.7/§9: a binary header may legally start with "solid", so the bytes
// following it must also all be ASCII for the ASCII path to be attempted.
func isASCII(data []byte, maybeASCII bool) bool {
	if len(data) < 5 || !scan.StartsWith(data, []byte("solid")) {
		return false
	}
	if !maybeASCII {
		return false
	}
	for _, b := range data[5:] {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

func errAt(path string, data []byte, remaining int, format string, args ...interface{}) error {
	loc := scan.Find(path, data, remaining)
	return fmt.Errorf("%s: %s: %w", loc, fmt.Sprintf(format, args...), errs.ErrInvalidData)
}

// ---- binary ----

func parseBinary(data []byte, opts Options) (*model.Scene, error) {
	if len(data) < headerSize+triangleCountSize {
		return nil, errAt(opts.Path, data, len(data), "binary STL too small")
	}
	header := data[:headerSize]
	body := data[headerSize+triangleCountSize:]
	rest := len(body) % binaryTriangleSize
	if rest != 0 && !isTrailingNewline(body[len(body)-rest:]) {
		return nil, errAt(opts.Path, data, rest, "trailing bytes after last triangle record")
	}
	numTriangles := len(body) / binaryTriangleSize

	mesh := &model.Mesh{MaterialIndex: -1}
	mesh.Vertices = make([]model.Vec3, 0, numTriangles*3)
	mesh.Normals = make([]model.Vec3, 0, numTriangles*3)
	mesh.Faces = make([]model.Face, 0, numTriangles)

	defaultColor, hasColor := parseColorHeader(header, opts.ParseColor)
	if hasColor {
		mesh.Colors[0] = make([]model.Color, 0, numTriangles*3)
	}

	for t := 0; t < numTriangles; t++ {
		rec := body[t*binaryTriangleSize : (t+1)*binaryTriangleSize]
		normal := readVec3LE(rec[0:12])
		v0 := readVec3LE(rec[12:24])
		v1 := readVec3LE(rec[24:36])
		v2 := readVec3LE(rec[36:48])
		attr := binary.LittleEndian.Uint16(rec[48:50])

		base := uint32(len(mesh.Vertices))
		mesh.Vertices = append(mesh.Vertices, v0, v1, v2)
		mesh.Normals = append(mesh.Normals, normal, normal, normal)
		mesh.Faces = append(mesh.Faces, model.Face{base, base + 1, base + 2})

		if hasColor {
			c := faceColor(defaultColor, attr, opts.ParseColor)
			mesh.Colors[0] = append(mesh.Colors[0], c, c, c)
		}
	}
	return &model.Scene{Meshes: []*model.Mesh{mesh}, Materials: []*model.Material{{}}}, nil
}

func isTrailingNewline(b []byte) bool {
	return string(b) == "\n" || string(b) == "\r\n"
}

func readVec3LE(b []byte) model.Vec3 {
	return model.Vec3{
		math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])),
		math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
	}
}

// parseColorHeader looks for "COLOR=" in the 80-byte header followed by 4
// bytes of default RGBA, per spec.md §4.7.
func parseColorHeader(header []byte, enabled bool) (model.Color, bool) {
	if !enabled {
		return model.Color{}, false
	}
	idx := indexOf(header, []byte("COLOR="))
	if idx < 0 || idx+6+4 > len(header) {
		return model.Color{}, false
	}
	rgba := header[idx+6 : idx+6+4]
	return model.Color{
		float32(rgba[0]) / 255,
		float32(rgba[1]) / 255,
		float32(rgba[2]) / 255,
		float32(rgba[3]) / 255,
	}, true
}

func indexOf(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if scan.StartsWith(haystack[i:], needle) {
			return i
		}
	}
	return -1
}

// faceColor decodes the attribute word's face color bits: bit 15 marks a
// colored face, and the low 15 bits pack 5 bits each of B/G/R (or R/G/B
// in "reverse color" mode). If bit 15 is unset, the solid's default color
// is used instead.
func faceColor(def model.Color, attr uint16, _ bool) model.Color {
	const reverseColor = false // VisCAM's default; MAGICS sets bit 15 of COLOR= instead, not modeled here.
	if attr&0x8000 == 0 {
		return def
	}
	r5 := (attr >> 10) & 0x1F
	g5 := (attr >> 5) & 0x1F
	b5 := attr & 0x1F
	if reverseColor {
		r5, b5 = b5, r5
	}
	return model.Color{
		expand5(r5),
		expand5(g5),
		expand5(b5),
		1.0,
	}
}

func expand5(v uint16) float32 { return float32(v) / 31 }

// ---- ASCII ----

type asciiParser struct {
	path string
	full []byte
	rest []byte
}

func parseASCII(data []byte, opts Options) (*model.Scene, error) {
	p := &asciiParser{path: opts.Path, full: data, rest: data}
	var meshes []*model.Mesh

	for {
		p.rest = scan.SkipSpaces(leadingBlankLines(p.rest))
		if len(p.rest) == 0 {
			break
		}
		mesh, err := p.readSolid()
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, mesh)
	}
	if len(meshes) == 0 {
		return nil, p.errf("no solid blocks found")
	}
	materials := make([]*model.Material, len(meshes))
	for i := range materials {
		materials[i] = &model.Material{}
	}
	return &model.Scene{Meshes: meshes, Materials: materials}, nil
}

// leadingBlankLines skips over blank/whitespace-only lines between solid
// blocks (many writers emit a trailing newline after "endsolid").
func leadingBlankLines(s []byte) []byte {
	for {
		trimmed := scan.SkipSpaces(s)
		next, ok := scan.SkipSpacesUntilLine(trimmed)
		if !ok || len(next) == len(s) {
			return trimmed
		}
		s = next
	}
}

func (p *asciiParser) errf(format string, args ...interface{}) error {
	loc := scan.Find(p.path, p.full, len(p.rest))
	return fmt.Errorf("%s: %s: %w", loc, fmt.Sprintf(format, args...), errs.ErrInvalidData)
}

func (p *asciiParser) expect(tok string) error {
	if !scan.StartsWith(p.rest, []byte(tok)) {
		return p.errf("expected %q", tok)
	}
	p.rest = p.rest[len(tok):]
	return nil
}

func (p *asciiParser) line() []byte {
	i := scan.MemchrNaive('\n', p.rest)
	if i < 0 {
		return p.rest
	}
	return p.rest[:i]
}

func (p *asciiParser) advanceLine() {
	i := scan.MemchrNaive('\n', p.rest)
	if i < 0 {
		p.rest = p.rest[len(p.rest):]
		return
	}
	p.rest = p.rest[i+1:]
}

func (p *asciiParser) readSolid() (*model.Mesh, error) {
	if err := p.expect("solid"); err != nil {
		return nil, err
	}
	name := ""
	lineRest := p.line()
	lineRest = scan.SkipSpaces(lineRest)
	if len(lineRest) > 0 {
		nl := scan.MemchrNaive('\n', lineRest)
		text := lineRest
		if nl >= 0 {
			text = lineRest[:nl]
		}
		name = trimRight(string(text))
	}
	p.advanceLine()

	mesh := &model.Mesh{Name: name, MaterialIndex: -1}
	for {
		p.rest = scan.SkipSpaces(p.rest)
		peek, ok := scan.SkipSpacesUntilLine(p.rest)
		if ok && len(peek) != len(p.rest) {
			// blank line between facets
			p.rest = peek
			continue
		}
		if scan.StartsWith(p.rest, []byte("endsolid")) {
			p.advanceLine()
			break
		}
		if len(p.rest) == 0 {
			return nil, p.errf("unexpected eof inside solid %q", name)
		}
		v0, v1, v2, normal, err := p.readFacet()
		if err != nil {
			return nil, err
		}
		base := uint32(len(mesh.Vertices))
		mesh.Vertices = append(mesh.Vertices, v0, v1, v2)
		mesh.Normals = append(mesh.Normals, normal, normal, normal)
		mesh.Faces = append(mesh.Faces, model.Face{base, base + 1, base + 2})
	}
	return mesh, nil
}

func (p *asciiParser) readFacet() (v0, v1, v2, normal model.Vec3, err error) {
	if err = p.expect("facet"); err != nil {
		return
	}
	p.rest = scan.SkipSpaces(p.rest)
	if err = p.expect("normal"); err != nil {
		return
	}
	p.rest = scan.SkipSpaces(p.rest)
	if normal, err = p.readVec3(); err != nil {
		return
	}
	p.endOfLine()

	if err = p.expectLine("outer"); err != nil {
		return
	}
	p.rest = scan.SkipSpaces(p.rest)
	if err = p.expect("loop"); err != nil {
		return
	}
	p.endOfLine()

	if v0, err = p.readVertexLine(); err != nil {
		return
	}
	if v1, err = p.readVertexLine(); err != nil {
		return
	}
	if v2, err = p.readVertexLine(); err != nil {
		return
	}

	if err = p.expectLine("endloop"); err != nil {
		return
	}
	p.endOfLine()
	if err = p.expectLine("endfacet"); err != nil {
		return
	}
	p.endOfLine()
	return
}

func (p *asciiParser) expectLine(tok string) error {
	p.rest = scan.SkipSpaces(p.rest)
	return p.expect(tok)
}

func (p *asciiParser) endOfLine() {
	p.rest = scan.SkipSpaces(p.rest)
	p.advanceLine()
}

func (p *asciiParser) readVertexLine() (model.Vec3, error) {
	if err := p.expectLine("vertex"); err != nil {
		return model.Vec3{}, err
	}
	p.rest = scan.SkipSpaces(p.rest)
	v, err := p.readVec3()
	if err != nil {
		return model.Vec3{}, err
	}
	p.endOfLine()
	return v, nil
}

func (p *asciiParser) readVec3() (model.Vec3, error) {
	x, err := p.readFloat()
	if err != nil {
		return model.Vec3{}, err
	}
	p.rest = scan.SkipSpaces(p.rest)
	y, err := p.readFloat()
	if err != nil {
		return model.Vec3{}, err
	}
	p.rest = scan.SkipSpaces(p.rest)
	z, err := p.readFloat()
	if err != nil {
		return model.Vec3{}, err
	}
	return model.Vec3{x, y, z}, nil
}

func (p *asciiParser) readFloat() (float32, error) {
	v, n, ok := numeric.ParseFloat32Partial(p.rest)
	if !ok {
		return 0, p.errf("expected a number")
	}
	p.rest = p.rest[n:]
	return v, nil
}

func trimRight(s string) string {
	i := len(s)
	for i > 0 && (s[i-1] == ' ' || s[i-1] == '\t' || s[i-1] == '\r') {
		i--
	}
	return s[:i]
}
