package collada

import (
	"meshkit/internal/model"
)

// materialTable dedups materials by their COLLADA <material> id across
// the whole document, mirroring obj.materialTable's insertion-ordered
// map.
type materialTable struct {
	index map[string]int
	order []*model.Material
}

func newMaterialTable() *materialTable {
	return &materialTable{index: map[string]int{}}
}

func (t *materialTable) indexFor(id string, build func() *model.Material) int {
	if i, ok := t.index[id]; ok {
		return i
	}
	i := len(t.order)
	t.index[id] = i
	t.order = append(t.order, build())
	return i
}

// instantiate runs the instance phase of spec.md §4.9: walk every scene
// node, compute its world transform, and for each <instance_geometry>
// flatten every primitive of the referenced geometry into triangles in
// world space. Each COLLADA primitive becomes one output Mesh, so a
// per-primitive material symbol maps directly to Mesh.MaterialIndex.
func instantiate(doc *document) *model.Scene {
	scene := &model.Scene{}
	mats := newMaterialTable()

	root := rootTransform(doc)

	for i := range doc.nodes {
		node := &doc.nodes[i]
		if len(node.instanceGeometries) == 0 {
			continue
		}
		world := mul4(root, worldTransform(doc.nodes, i))
		for _, ig := range node.instanceGeometries {
			gm, ok := doc.geometries[ig.geometryID]
			if !ok {
				continue // dangling URI: skip per spec.md §7's lookup-error policy
			}
			for _, prim := range gm.primitives {
				if prim.isLine {
					continue
				}
				mesh := flattenPrimitive(gm, prim, world)
				if mesh == nil {
					continue
				}
				mesh.MaterialIndex = -1
				if matID, ok := ig.bindings[prim.material]; ok {
					if cm, ok := doc.materials[matID]; ok {
						mesh.MaterialIndex = mats.indexFor(matID, func() *model.Material {
							return buildMaterial(matID, cm, doc.effects, doc.images)
						})
					}
				}
				mesh.Name = node.id
				scene.Meshes = append(scene.Meshes, mesh)
			}
		}
	}

	scene.Materials = mats.order
	if len(scene.Materials) == 0 {
		scene.Materials = []*model.Material{{}}
		for _, m := range scene.Meshes {
			m.MaterialIndex = 0
		}
	} else {
		for _, m := range scene.Meshes {
			if m.MaterialIndex < 0 {
				m.MaterialIndex = 0
			}
		}
	}
	return scene
}

// rootTransform folds the document's unit scale and up-axis convention
// into a single scene-root transform, per SPEC_FULL.md's supplemented
// feature (spec.md §4.9 only documents the unit-scale half).
func rootTransform(doc *document) mat4 {
	m := uniformScaleMat(doc.unitMeter)
	switch doc.upAxis {
	case "Z_UP":
		m = mul4(rotateMat([3]float32{1, 0, 0}, -90), m)
	case "X_UP":
		m = mul4(rotateMat([3]float32{0, 0, 1}, 90), m)
	}
	return m
}

func flattenPrimitive(gm *geometryMesh, prim *primitive, world mat4) *model.Mesh {
	posSrc := gm.sources[gm.vertices.position]
	if posSrc == nil {
		return nil
	}

	var normalSrc *source
	normalFromVertices := false
	if prim.normalSrc != "" {
		normalSrc = gm.sources[prim.normalSrc]
	} else if gm.vertices.normal != "" {
		normalSrc = gm.sources[gm.vertices.normal]
		normalFromVertices = true
	}

	var texSrcs []*source
	texFromVertices := false
	if len(prim.texcoordSrc) > 0 {
		for _, id := range prim.texcoordSrc {
			texSrcs = append(texSrcs, gm.sources[id])
		}
	} else if gm.vertices.texcoord != "" {
		texSrcs = []*source{gm.sources[gm.vertices.texcoord]}
		texFromVertices = true
	}

	var colorSrc *source
	colorFromVertices := false
	if prim.colorSrc != "" {
		colorSrc = gm.sources[prim.colorSrc]
	} else if gm.vertices.color != "" {
		colorSrc = gm.sources[gm.vertices.color]
		colorFromVertices = true
	}

	mesh := &model.Mesh{}
	stride := prim.stride
	cursor := 0

	cornerVertexIdx := func(base int) int { return int(prim.p[base+prim.vertexOffset]) }

	emit := func(base int) {
		vIdx := cornerVertexIdx(base)
		pos := transformPoint(world, posSrc.vec3(vIdx))
		mesh.Vertices = append(mesh.Vertices, pos)

		if normalSrc != nil {
			nIdx := vIdx
			if !normalFromVertices {
				nIdx = int(prim.p[base+prim.normalOffset])
			}
			n := transformDirection(world, normalSrc.vec3(nIdx))
			mesh.Normals = append(mesh.Normals, normalize3(n))
		}
		for ch, ts := range texSrcs {
			if ts == nil || ch >= model.MaxTexcoordChannels {
				continue
			}
			tIdx := vIdx
			if !texFromVertices {
				tIdx = int(prim.p[base+prim.texcoordOffset[ch]])
			}
			mesh.Texcoords[ch] = append(mesh.Texcoords[ch], ts.vec2(tIdx))
		}
		if colorSrc != nil {
			cIdx := vIdx
			if !colorFromVertices {
				cIdx = int(prim.p[base+prim.colorOffset])
			}
			mesh.Colors[0] = append(mesh.Colors[0], colorSrc.color4(cIdx))
		}
	}

	for _, n := range prim.vcount {
		if n < 3 {
			cursor += n * stride
			continue
		}
		corners := make([]int, n)
		for k := 0; k < n; k++ {
			corners[k] = cursor + k*stride
		}
		base0 := len(mesh.Vertices)
		for k := 0; k < n; k++ {
			emit(corners[k])
		}
		for k := 1; k < n-1; k++ {
			mesh.Faces = append(mesh.Faces, model.Face{
				uint32(base0), uint32(base0 + k), uint32(base0 + k + 1),
			})
		}
		cursor += n * stride
	}

	if len(mesh.Faces) == 0 {
		return nil
	}
	return mesh
}
