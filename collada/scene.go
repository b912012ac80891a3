package collada

import (
	"strings"

	"meshkit/collada/xmlnode"
	"meshkit/internal/numeric"
)

// instanceGeometry is a <node>'s <instance_geometry>: a target geometry
// id plus the symbol -> material id bindings from its <bind_material>.
type instanceGeometry struct {
	geometryID string
	bindings   map[string]string
}

// sceneNode is one flattened <node>, with a parent back-link (-1 for a
// scene root) in place of the original's tree of children, matching
// spec.md §4.9's "flat vector of Nodes with parent-index back-links".
type sceneNode struct {
	id                 string
	parent             int
	localTransform     mat4
	instanceGeometries []instanceGeometry
}

func parseVisualScenes(root *xmlnode.Node) []sceneNode {
	var nodes []sceneNode
	for _, lib := range root.Elements("library_visual_scenes") {
		for _, vs := range lib.Elements("visual_scene") {
			for _, n := range vs.Elements("node") {
				appendNode(n, -1, &nodes)
			}
		}
	}
	return nodes
}

func appendNode(n *xmlnode.Node, parent int, nodes *[]sceneNode) {
	idx := len(*nodes)
	id, _ := n.Attr("id")
	sn := sceneNode{id: id, parent: parent, localTransform: parseNodeTransform(n)}
	for _, ig := range n.Elements("instance_geometry") {
		url, ok := ig.Attr("url")
		if !ok {
			continue
		}
		sn.instanceGeometries = append(sn.instanceGeometries, instanceGeometry{
			geometryID: strings.TrimPrefix(url, "#"),
			bindings:   parseBindMaterial(ig),
		})
	}
	*nodes = append(*nodes, sn)
	for _, child := range n.Elements("node") {
		appendNode(child, idx, nodes)
	}
}

// parseBindMaterial reads <instance_geometry>/<bind_material>/
// <technique_common>/<instance_material symbol="..." target="#..."/>,
// the symbol->material map a primitive's `material` attribute is looked
// up through.
func parseBindMaterial(ig *xmlnode.Node) map[string]string {
	bindings := map[string]string{}
	bm, ok := ig.Element("bind_material")
	if !ok {
		return bindings
	}
	tc, ok := bm.Element("technique_common")
	if !ok {
		return bindings
	}
	for _, im := range tc.Elements("instance_material") {
		symbol, _ := im.Attr("symbol")
		target, _ := im.Attr("target")
		bindings[symbol] = strings.TrimPrefix(target, "#")
	}
	return bindings
}

// parseNodeTransform composes a node's local transform from its
// <matrix>/<translate>/<rotate>/<scale>/<skew>/<lookat> children, which
// compose by post-multiplication in source order per spec.md §4.9: later
// elements apply "closer to the vertex", i.e. out = out * next.
func parseNodeTransform(n *xmlnode.Node) mat4 {
	out := identity4()
	for _, c := range n.Children {
		switch c.Tag {
		case "matrix":
			if f, ok := floats16(c.Text()); ok {
				out = mul4(out, mat4(f))
			}
		case "translate":
			if f, ok := floats3(c.Text()); ok {
				out = mul4(out, translateMat(f))
			}
		case "scale":
			if f, ok := floats3(c.Text()); ok {
				out = mul4(out, scaleMat(f))
			}
		case "rotate":
			if f, ok := floatsN(c.Text(), 4); ok {
				out = mul4(out, rotateMat([3]float32{f[0], f[1], f[2]}, f[3]))
			}
		case "lookat":
			if f, ok := floatsN(c.Text(), 9); ok {
				eye := [3]float32{f[0], f[1], f[2]}
				target := [3]float32{f[3], f[4], f[5]}
				up := [3]float32{f[6], f[7], f[8]}
				out = mul4(out, lookAtMat(eye, target, up))
			}
		case "skew":
			// Stubbed per spec.md §4.9: skew contributes no transform.
		}
	}
	return out
}

func floatsN(text string, n int) ([]float32, bool) {
	fields := strings.Fields(strings.ReplaceAll(text, ",", "."))
	if len(fields) < n {
		return nil, false
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		v, ok := numeric.ParseFloat32([]byte(fields[i]))
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func floats3(text string) ([3]float32, bool) {
	f, ok := floatsN(text, 3)
	if !ok {
		return [3]float32{}, false
	}
	return [3]float32{f[0], f[1], f[2]}, true
}

func floats16(text string) ([16]float32, bool) {
	f, ok := floatsN(text, 16)
	if !ok {
		return [16]float32{}, false
	}
	var out [16]float32
	copy(out[:], f)
	return out, true
}

// worldTransform climbs the parent chain, composing world = parent's
// world * local at each step, per spec.md §4.9's instance phase.
func worldTransform(nodes []sceneNode, idx int) mat4 {
	m := nodes[idx].localTransform
	p := nodes[idx].parent
	for p >= 0 {
		m = mul4(nodes[p].localTransform, m)
		p = nodes[p].parent
	}
	return m
}
