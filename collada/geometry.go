package collada

import (
	"fmt"
	"strconv"
	"strings"

	"meshkit/collada/xmlnode"
	"meshkit/internal/numeric"
)

// source holds one <source>'s flat data array plus the accessor that
// describes how to slice it into fixed-stride records, per spec.md §4.9.
type source struct {
	id      string
	values  []float64
	count   int
	offset  int
	stride  int
}

// recordAt returns up to n components of the i-th record, zero-padded if
// the accessor stride is narrower than requested (e.g. a 2-component
// texcoord source read as a Vec2).
func (s *source) recordAt(i, n int) []float64 {
	out := make([]float64, n)
	base := s.offset + i*s.stride
	for j := 0; j < n && j < s.stride; j++ {
		if base+j < len(s.values) {
			out[j] = s.values[base+j]
		}
	}
	return out
}

func (s *source) vec2(i int) [2]float32 {
	r := s.recordAt(i, 2)
	return [2]float32{float32(r[0]), float32(r[1])}
}

func (s *source) vec3(i int) [3]float32 {
	r := s.recordAt(i, 3)
	return [3]float32{float32(r[0]), float32(r[1]), float32(r[2])}
}

func (s *source) color4(i int) [4]float32 {
	r := s.recordAt(i, 4)
	a := float32(1)
	if s.stride >= 4 {
		a = float32(r[3])
	}
	return [4]float32{float32(r[0]), float32(r[1]), float32(r[2]), a}
}

// parseSource reads a <source>'s array element and <accessor>, per
// spec.md §4.9: count*stride <= len(array); offset defaults to 0, stride
// to 1. Only <float_array> sources are read; a <source> holding an
// IDREF_array or Name_array yields a nil source and is not stored.
func parseSource(n *xmlnode.Node) (*source, error) {
	id, err := n.RequiredAttr("id")
	if err != nil {
		return nil, err
	}
	arr, ok := n.Element("float_array")
	if !ok {
		// Not a numeric source (e.g. backs an IDREF/Name array); the
		// caller treats a nil source as "no data available".
		return nil, nil
	}
	values, err := parseFloatArray(arr)
	if err != nil {
		return nil, fmt.Errorf("<source id=%q>: %w", id, err)
	}
	acc, ok := n.Element("technique_common")
	if !ok {
		return nil, fmt.Errorf("<source id=%q> has no <technique_common>", id)
	}
	accNode, ok := acc.Element("accessor")
	if !ok {
		return nil, fmt.Errorf("<source id=%q> has no <accessor>", id)
	}
	count, stride, offset, err := parseAccessorAttrs(accNode)
	if err != nil {
		return nil, fmt.Errorf("<source id=%q>: %w", id, err)
	}
	if count*stride > len(values) {
		return nil, fmt.Errorf("<source id=%q>: accessor count %d * stride %d exceeds array length %d", id, count, stride, len(values))
	}
	// The accessor's own source attribute is not resolved: values always
	// come from this <source>'s <float_array>.
	return &source{id: id, values: values, count: count, offset: offset, stride: stride}, nil
}

func parseAccessorAttrs(n *xmlnode.Node) (count, stride, offset int, err error) {
	countStr, err := n.RequiredAttr("count")
	if err != nil {
		return 0, 0, 0, err
	}
	count64, ok := numeric.ParseUint64([]byte(countStr))
	if !ok {
		return 0, 0, 0, fmt.Errorf("invalid accessor count %q", countStr)
	}
	stride = 1
	if s, ok := n.Attr("stride"); ok {
		v, ok := numeric.ParseUint64([]byte(s))
		if !ok {
			return 0, 0, 0, fmt.Errorf("invalid accessor stride %q", s)
		}
		stride = int(v)
	}
	if o, ok := n.Attr("offset"); ok {
		v, ok := numeric.ParseUint64([]byte(o))
		if !ok {
			return 0, 0, 0, fmt.Errorf("invalid accessor offset %q", o)
		}
		offset = int(v)
	}
	return int(count64), stride, offset, nil
}

// parseFloatArray reads a <float_array>'s whitespace-separated text
// content, rewriting a comma decimal separator to a dot first per
// spec.md's locale-robustness note.
func parseFloatArray(n *xmlnode.Node) ([]float64, error) {
	text := strings.ReplaceAll(n.Text(), ",", ".")
	fields := strings.Fields(text)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q in <float_array>", f)
		}
		out[i] = v
	}
	return out, nil
}

// parseIntArray reads a <p>/<vcount>'s whitespace-separated integer list.
func parseIntArray(text string) ([]int64, error) {
	fields := strings.Fields(text)
	out := make([]int64, len(fields))
	for i, f := range fields {
		v, ok := numeric.ParseInt64([]byte(f))
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", f)
		}
		out[i] = v
	}
	return out, nil
}

// vertices is the <vertices> element: named per-vertex streams, each an
// unshared reference (no offset/set) into a <source>.
type vertices struct {
	id       string
	position string
	normal   string
	texcoord string
	color    string
}

func parseVertices(n *xmlnode.Node) (*vertices, error) {
	id, err := n.RequiredAttr("id")
	if err != nil {
		return nil, err
	}
	v := &vertices{id: id}
	for _, in := range n.Elements("input") {
		semantic, _ := in.Attr("semantic")
		src, err := in.RequiredAttr("source")
		if err != nil {
			return nil, err
		}
		src = strings.TrimPrefix(src, "#")
		switch semantic {
		case "POSITION":
			v.position = src
		case "NORMAL":
			v.normal = src
		case "TEXCOORD":
			v.texcoord = src
		case "COLOR":
			v.color = src
		}
	}
	if v.position == "" {
		return nil, fmt.Errorf("<vertices id=%q> has no POSITION input", id)
	}
	return v, nil
}

// primitive is every <lines>/<linestrips>/<polygons>/<polylist>/
// <triangles>/<trifans>/<tristrips> normalized to an implicit polylist,
// per spec.md §4.9: a flat index stream p with record width stride, and
// a vcount entry per polygon (dropped for lines, which this parser never
// emits geometry for per the Non-goals list).
type primitive struct {
	material string

	vertexSrc   string // <vertices> id this primitive's VERTEX input targets
	normalSrc   string
	colorSrc    string
	texcoordSrc []string // sorted by set

	vertexOffset   int
	normalOffset   int
	colorOffset    int
	texcoordOffset []int

	stride int
	vcount []int
	p      []int32

	isLine bool
}

func parsePrimitive(n *xmlnode.Node, tag string) (*primitive, error) {
	countStr, err := n.RequiredAttr("count")
	if err != nil {
		return nil, err
	}
	count64, ok := numeric.ParseUint64([]byte(countStr))
	if !ok {
		return nil, fmt.Errorf("<%s>: invalid count %q", tag, countStr)
	}
	count := int(count64)
	material, _ := n.Attr("material")

	prim := &primitive{material: material, isLine: tag == "lines" || tag == "linestrips"}
	stride := 0
	var texcoordInputs []*xmlnode.Node

	for _, in := range n.Elements("input") {
		semantic, _ := in.Attr("semantic")
		offStr, _ := in.Attr("offset")
		off := 0
		if offStr != "" {
			v, _ := numeric.ParseUint64([]byte(offStr))
			off = int(v)
		}
		if off+1 > stride {
			stride = off + 1
		}
		set := 0
		if s, ok := in.Attr("set"); ok {
			v, _ := numeric.ParseUint64([]byte(s))
			set = int(v)
		}
		src, _ := in.Attr("source")
		src = strings.TrimPrefix(src, "#")
		switch semantic {
		case "VERTEX":
			prim.vertexSrc = src
			prim.vertexOffset = off
		case "NORMAL":
			if set == 0 {
				prim.normalSrc = src
				prim.normalOffset = off
			}
		case "COLOR":
			prim.colorSrc = src
			prim.colorOffset = off
		case "TEXCOORD":
			texcoordInputs = append(texcoordInputs, in)
			_ = set
		}
	}
	if stride == 0 {
		stride = 1
	}
	prim.stride = stride

	// Sort TEXCOORD inputs by set, as spec.md §4.9 requires.
	setOf := func(in *xmlnode.Node) uint64 {
		s, _ := in.Attr("set")
		v, _ := numeric.ParseUint64([]byte(s))
		return v
	}
	for i := 0; i < len(texcoordInputs); i++ {
		for j := i + 1; j < len(texcoordInputs); j++ {
			if setOf(texcoordInputs[j]) < setOf(texcoordInputs[i]) {
				texcoordInputs[i], texcoordInputs[j] = texcoordInputs[j], texcoordInputs[i]
			}
		}
	}
	for _, in := range texcoordInputs {
		offStr, _ := in.Attr("offset")
		off := 0
		if offStr != "" {
			v, _ := numeric.ParseUint64([]byte(offStr))
			off = int(v)
		}
		src, _ := in.Attr("source")
		prim.texcoordSrc = append(prim.texcoordSrc, strings.TrimPrefix(src, "#"))
		prim.texcoordOffset = append(prim.texcoordOffset, off)
	}

	vcountNode, hasVcount := n.Element("vcount")
	if hasVcount && tag == "polylist" {
		vals, err := parseIntArray(vcountNode.Text())
		if err != nil {
			return nil, fmt.Errorf("<vcount>: %w", err)
		}
		for _, v := range vals {
			prim.vcount = append(prim.vcount, int(v))
		}
	}

	var flatP []int32
	for _, pn := range n.Elements("p") {
		vals, err := parseIntArray(pn.Text())
		if err != nil {
			return nil, fmt.Errorf("<p>: %w", err)
		}
		start := len(flatP)
		for _, v := range vals {
			flatP = append(flatP, int32(v))
		}
		if tag != "polylist" && tag != "lines" && tag != "triangles" {
			// One <p> per polygon for strips/fans/polygons.
			added := len(flatP) - start
			if added%stride != 0 {
				return nil, fmt.Errorf("<%s>/<p>: index count %d is not a multiple of stride %d", tag, added, stride)
			}
			prim.vcount = append(prim.vcount, added/stride)
		}
	}
	prim.p = flatP

	switch tag {
	case "triangles":
		prim.vcount = repeatInt(3, count)
	case "lines":
		prim.vcount = repeatInt(2, count)
	}

	return prim, nil
}

func repeatInt(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// geometryMesh is a parsed <mesh>: its <vertices> declaration plus every
// normalized primitive.
type geometryMesh struct {
	id         string
	vertices   *vertices
	primitives []*primitive
	sources    map[string]*source
}
