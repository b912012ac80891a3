package obj

import (
	"fmt"
	"testing"
)

func TestParseTriangleNoMaterial(t *testing.T) {
	data := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	scene, err := Parse(data, "tri.obj", "", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(scene.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(scene.Meshes))
	}
	m := scene.Meshes[0]
	if len(m.Vertices) != 3 || len(m.Faces) != 1 {
		t.Errorf("got %d vertices, %d faces", len(m.Vertices), len(m.Faces))
	}
	if len(scene.Materials) != 1 {
		t.Errorf("expected a default material, got %d", len(scene.Materials))
	}
}

// A quad must be fan-triangulated into two triangles sharing vertex 0.
func TestParseQuadTriangulation(t *testing.T) {
	data := []byte("v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n")
	scene, err := Parse(data, "quad.obj", "", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m := scene.Meshes[0]
	if len(m.Faces) != 2 {
		t.Fatalf("expected 2 faces from a fan-triangulated quad, got %d", len(m.Faces))
	}
	// Per spec.md §4.8, every face corner is a new output vertex: no
	// dedup, so 2 triangles means 6 emitted vertices.
	if len(m.Vertices) != 6 {
		t.Errorf("expected 6 emitted vertices (no dedup), got %d", len(m.Vertices))
	}
}

func TestParseNegativeFaceIndices(t *testing.T) {
	data := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n")
	scene, err := Parse(data, "neg.obj", "", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(scene.Meshes[0].Faces) != 1 {
		t.Errorf("relative indices should resolve to the 3 preceding vertices")
	}
}

func TestParseFaceIndexOutOfBounds(t *testing.T) {
	data := []byte("v 0 0 0\nf 1 2 3\n")
	if _, err := Parse(data, "bad.obj", "", nil); err == nil {
		t.Error("expected an out-of-bounds face index to be an error")
	}
}

func TestParseBackslashContinuation(t *testing.T) {
	data := []byte("v 0 0 \\\n0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	scene, err := Parse(data, "cont.obj", "", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(scene.Meshes[0].Vertices) != 3 {
		t.Errorf("continuation should join the split v line into one directive")
	}
}

func TestParseGroupSplitsIntoMeshes(t *testing.T) {
	data := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\ng a\nf 1 2 3\ng b\nf 1 2 3\n")
	scene, err := Parse(data, "groups.obj", "", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(scene.Meshes) != 2 {
		t.Fatalf("expected one mesh per group, got %d", len(scene.Meshes))
	}
	if scene.Meshes[0].Name != "a" || scene.Meshes[1].Name != "b" {
		t.Errorf("mesh names should track the g directive: got %q, %q", scene.Meshes[0].Name, scene.Meshes[1].Name)
	}
}

func TestParseMtllibBindsMaterial(t *testing.T) {
	mtl := []byte("newmtl red\nKd 1 0 0\n")
	reader := func(relPath string) ([]byte, error) {
		if relPath != "models/scene.mtl" {
			return nil, fmt.Errorf("unexpected path %q", relPath)
		}
		return mtl, nil
	}
	data := []byte("mtllib scene.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl red\nf 1 2 3\n")
	scene, err := Parse(data, "scene.obj", "models", reader)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(scene.Materials) != 1 || scene.Materials[0].Name != "red" {
		t.Fatalf("expected the red material to be resolved, got %+v", scene.Materials)
	}
	if scene.Meshes[0].MaterialIndex != 0 {
		t.Errorf("mesh should bind to material 0, got %d", scene.Meshes[0].MaterialIndex)
	}
}

func TestParseMissingMtllibIsNonFatal(t *testing.T) {
	reader := func(relPath string) ([]byte, error) {
		return nil, fmt.Errorf("not found")
	}
	data := []byte("mtllib missing.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	scene, err := Parse(data, "scene.obj", "", reader)
	if err != nil {
		t.Fatalf("a missing MTL file should not fail the OBJ parse: %v", err)
	}
	if len(scene.Meshes) != 1 {
		t.Errorf("the mesh itself should still load")
	}
}

// Per spec.md §4.8, once a global vt/vn array is non-empty every face
// corner must supply that slot; a corner that omits it is an error.
func TestParseFaceMissingTexcoordSlotIsError(t *testing.T) {
	data := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/1 2/1 3\n")
	if _, err := Parse(data, "missingvt.obj", "", nil); err == nil {
		t.Error("expected an error when a face corner omits vt while vt data exists")
	}
}

func TestParseFaceMissingNormalSlotIsError(t *testing.T) {
	data := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nvn 0 0 1\nf 1//1 2//1 3\n")
	if _, err := Parse(data, "missingvn.obj", "", nil); err == nil {
		t.Error("expected an error when a face corner omits vn while vn data exists")
	}
}

func TestParseVertexColorExtension(t *testing.T) {
	data := []byte("v 0 0 0 1 0 0\nv 1 0 0 0 1 0\nv 0 1 0 0 0 1\nf 1 2 3\n")
	scene, err := Parse(data, "vcolor.obj", "", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	colors := scene.Meshes[0].Colors[0]
	if len(colors) != 3 {
		t.Fatalf("expected a color per emitted vertex, got %d", len(colors))
	}
	if colors[0] != ([4]float32{1, 0, 0, 1}) {
		t.Errorf("first vertex color = %v, want red", colors[0])
	}
}
