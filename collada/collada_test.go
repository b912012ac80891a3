package collada

import (
	"math"
	"testing"
)

const daeHeader = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">`

func triangleDoc(unitMeter string) string {
	unit := ""
	if unitMeter != "" {
		unit = `<asset><unit meter="` + unitMeter + `"/></asset>`
	}
	return daeHeader + unit + `
<library_geometries>
  <geometry id="tri-geom">
    <mesh>
      <source id="tri-positions">
        <float_array id="tri-positions-array" count="9">100 0 0 0 100 0 0 0 100</float_array>
        <technique_common><accessor source="#tri-positions-array" count="3" stride="3"/></technique_common>
      </source>
      <vertices id="tri-vertices">
        <input semantic="POSITION" source="#tri-positions"/>
      </vertices>
      <triangles count="1">
        <input semantic="VERTEX" source="#tri-vertices" offset="0"/>
        <p>0 1 2</p>
      </triangles>
    </mesh>
  </geometry>
</library_geometries>
<library_visual_scenes>
  <visual_scene id="scene" name="scene">
    <node id="node0">
      <instance_geometry url="#tri-geom"/>
    </node>
  </visual_scene>
</library_visual_scenes>
</COLLADA>`
}

// Scenario 6 from spec.md §8: unit scale applied at the scene root.
func TestParseUnitScaleAtRoot(t *testing.T) {
	scene, err := Parse([]byte(triangleDoc("0.01")), "scene.dae")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(scene.Meshes) != 1 {
		t.Fatalf("got %d meshes, want 1", len(scene.Meshes))
	}
	mesh := scene.Meshes[0]
	want := [][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, v := range want {
		for k := 0; k < 3; k++ {
			if math.Abs(float64(mesh.Vertices[i][k]-v[k])) > 1e-5 {
				t.Errorf("vertex %d = %v, want %v", i, mesh.Vertices[i], v)
			}
		}
	}
}

func TestParseNoUnitDefaultsToScaleOne(t *testing.T) {
	scene, err := Parse([]byte(triangleDoc("")), "scene.dae")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	mesh := scene.Meshes[0]
	if mesh.Vertices[0] != ([3]float32{100, 0, 0}) {
		t.Errorf("got %v, want (100,0,0) with default unit scale 1", mesh.Vertices[0])
	}
}

// Transform-composition property from spec.md §8: translate then scale
// composed by post-multiplication yields out = scale(v) then translate.
func TestNodeTransformComposition(t *testing.T) {
	doc := daeHeader + `
<library_geometries>
  <geometry id="g">
    <mesh>
      <source id="pos">
        <float_array id="pos-array" count="3">1 1 1</float_array>
        <technique_common><accessor source="#pos-array" count="1" stride="3"/></technique_common>
      </source>
      <vertices id="verts"><input semantic="POSITION" source="#pos"/></vertices>
      <triangles count="1">
        <input semantic="VERTEX" source="#verts" offset="0"/>
        <p>0 0 0</p>
      </triangles>
    </mesh>
  </geometry>
</library_geometries>
<library_visual_scenes>
  <visual_scene id="s">
    <node id="n">
      <translate>1 2 3</translate>
      <scale>2 2 2</scale>
      <instance_geometry url="#g"/>
    </node>
  </visual_scene>
</library_visual_scenes>
</COLLADA>`
	scene, err := Parse([]byte(doc), "xform.dae")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	// A degenerate single-point "triangle" still emits one vertex set via
	// the flatten loop, but with all three corners the same source index,
	// producing a zero-area face; only the transformed position matters here.
	got := scene.Meshes[0].Vertices[0]
	want := [3]float32{2*1 + 1, 2*1 + 2, 2*1 + 3}
	for k := 0; k < 3; k++ {
		if math.Abs(float64(got[k]-want[k])) > 1e-5 {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestParseRejectsUnsupportedVersion(t *testing.T) {
	doc := `<COLLADA version="1.3.0"></COLLADA>`
	if _, err := Parse([]byte(doc), "old.dae"); err == nil {
		t.Error("expected error for COLLADA version < 1.4")
	}
}

func TestParseRejectsWrongRoot(t *testing.T) {
	doc := `<NotCollada version="1.4.1"></NotCollada>`
	if _, err := Parse([]byte(doc), "bad.dae"); err == nil {
		t.Error("expected error for non-COLLADA root element")
	}
}

func TestParseDanglingGeometryURISkipped(t *testing.T) {
	doc := daeHeader + `
<library_visual_scenes>
  <visual_scene id="s">
    <node id="n"><instance_geometry url="#missing"/></node>
  </visual_scene>
</library_visual_scenes>
</COLLADA>`
	scene, err := Parse([]byte(doc), "dangling.dae")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(scene.Meshes) != 0 {
		t.Errorf("expected no meshes for a dangling geometry reference, got %d", len(scene.Meshes))
	}
}

func TestParsePolygonFanTriangulation(t *testing.T) {
	doc := daeHeader + `
<library_geometries>
  <geometry id="g">
    <mesh>
      <source id="pos">
        <float_array id="pos-array" count="12">0 0 0 1 0 0 1 1 0 0 1 0</float_array>
        <technique_common><accessor source="#pos-array" count="4" stride="3"/></technique_common>
      </source>
      <vertices id="verts"><input semantic="POSITION" source="#pos"/></vertices>
      <polylist count="1">
        <input semantic="VERTEX" source="#verts" offset="0"/>
        <vcount>4</vcount>
        <p>0 1 2 3</p>
      </polylist>
    </mesh>
  </geometry>
</library_geometries>
<library_visual_scenes>
  <visual_scene id="s">
    <node id="n"><instance_geometry url="#g"/></node>
  </visual_scene>
</library_visual_scenes>
</COLLADA>`
	scene, err := Parse([]byte(doc), "quad.dae")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(scene.Meshes[0].Faces) != 2 {
		t.Errorf("expected a quad polylist to fan-triangulate into 2 faces, got %d", len(scene.Meshes[0].Faces))
	}
}
