// Package collada parses COLLADA (.dae) documents into a meshkit Scene,
// per spec.md §4.9. Grounded on original_source/src/collada/{mod,scene,
// geometry,effect,material,instance}.rs for the source/accessor/vertices
// semantic model and the typed-URI resolution idea (reworked here as
// plain Go string-keyed maps, since Go lacks the original's PhantomData
// trick for compile-time-checked URI target types); the scene-graph
// transform composition and instance-flattening pass go beyond what that
// snapshot implements and are written directly from spec.md §4.9/§8.
package collada

import (
	"fmt"
	"strings"

	"meshkit/collada/xmlnode"
	"meshkit/internal/errs"
	"meshkit/internal/model"
	"meshkit/internal/numeric"
	"meshkit/internal/textdec"
)

// Parse decodes a COLLADA document into a Scene. path is used only for
// located error messages.
func Parse(data []byte, path string) (*model.Scene, error) {
	decoded, err := textdec.Decode(data, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, errs.ErrInvalidData, err)
	}

	root, err := xmlnode.Parse(decoded)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, errs.ErrInvalidData, err)
	}
	if root.Tag != "COLLADA" {
		return nil, fmt.Errorf("%s: %w: root element is <%s>, want <COLLADA>", path, errs.ErrInvalidData, root.Tag)
	}
	version, err := root.RequiredAttr("version")
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, errs.ErrInvalidData, err)
	}
	if !isSupportedVersion(version) {
		return nil, fmt.Errorf("%s: %w: unsupported COLLADA schema version %q", path, errs.ErrInvalidData, version)
	}

	doc, err := buildDocument(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, errs.ErrInvalidData, err)
	}
	return instantiate(doc), nil
}

// isSupportedVersion requires 1.X.Y with X >= 4, per spec.md §4.9 ("the
// parser explicitly targets 1.4 and tolerates 1.5 where behavior
// overlaps").
func isSupportedVersion(v string) bool {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 || parts[0] != "1" {
		return false
	}
	minor, ok := numeric.ParseUint64([]byte(parts[1]))
	return ok && minor >= 4
}

type document struct {
	unitMeter float32
	upAxis    string // "Y_UP" (default), "X_UP", "Z_UP"

	geometries map[string]*geometryMesh
	materials  map[string]*colladaMaterial
	effects    map[string]*effect
	images     map[string]*colladaImage
	nodes      []sceneNode
}

func buildDocument(root *xmlnode.Node) (*document, error) {
	doc := &document{
		unitMeter:  1,
		upAxis:     "Y_UP",
		geometries: map[string]*geometryMesh{},
	}
	if asset, ok := root.Element("asset"); ok {
		if unit, ok := asset.Element("unit"); ok {
			if m, ok := unit.Attr("meter"); ok {
				if v, ok := numeric.ParseFloat32([]byte(m)); ok {
					doc.unitMeter = v
				}
			}
		}
		if ax, ok := asset.Element("up_axis"); ok {
			if s := strings.TrimSpace(ax.Text()); s != "" {
				doc.upAxis = s
			}
		}
	}

	for _, lib := range root.Elements("library_geometries") {
		for _, gn := range lib.Elements("geometry") {
			gm, err := parseGeometry(gn)
			if err != nil {
				return nil, err
			}
			if gm != nil {
				doc.geometries[gm.id] = gm
			}
		}
	}
	doc.materials = parseLibraryMaterials(root)
	doc.effects = parseLibraryEffects(root)
	doc.images = parseLibraryImages(root)
	doc.nodes = parseVisualScenes(root)
	return doc, nil
}

func parseGeometry(gn *xmlnode.Node) (*geometryMesh, error) {
	id, err := gn.RequiredAttr("id")
	if err != nil {
		return nil, err
	}
	mn, ok := gn.Element("mesh")
	if !ok {
		// <convex_mesh>/<spline>/<brep> unsupported: skip per spec.md
		// Non-goals (mesh data this parser doesn't understand).
		return nil, nil
	}

	sources := map[string]*source{}
	for _, sn := range mn.Elements("source") {
		s, err := parseSource(sn)
		if err != nil {
			return nil, err
		}
		if s != nil {
			sources[s.id] = s
		}
	}
	vn, ok := mn.Element("vertices")
	if !ok {
		return nil, fmt.Errorf("<mesh id=%q> has no <vertices>", id)
	}
	v, err := parseVertices(vn)
	if err != nil {
		return nil, err
	}

	gm := &geometryMesh{id: id, vertices: v, sources: sources}
	for _, tag := range []string{"lines", "linestrips", "polygons", "polylist", "triangles", "trifans", "tristrips"} {
		for _, pn := range mn.Elements(tag) {
			p, err := parsePrimitive(pn, tag)
			if err != nil {
				return nil, fmt.Errorf("<%s> in geometry %q: %w", tag, id, err)
			}
			gm.primitives = append(gm.primitives, p)
		}
	}
	return gm, nil
}
