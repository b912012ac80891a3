// Package meshkit loads triangle meshes and materials out of STL,
// Wavefront OBJ/MTL, and COLLADA documents into one uniform Scene.
//
// Use NewLoader to configure a Loader and one of its Load* methods to
// parse a file, a byte slice, or bytes obtained from a custom reader.
package meshkit

import "meshkit/internal/model"

// Scene, Mesh and Material are aliases of the internal model types so
// that format cores (stl, obj, collada) can build them directly without
// this package importing those cores back (which would be a cycle).
type (
	Scene    = model.Scene
	Mesh     = model.Mesh
	Material = model.Material
	Colors   = model.Colors
	Textures = model.Textures
	Texture  = model.Texture

	Vec2  = model.Vec2
	Vec3  = model.Vec3
	Color = model.Color
	Face  = model.Face

	ShadingModel = model.ShadingModel
)

// Shading model tags, re-exported from the internal model package.
const (
	ShadingUnknown = model.ShadingUnknown
	ShadingFlat    = model.ShadingFlat
	ShadingGouraud = model.ShadingGouraud
	ShadingPhong   = model.ShadingPhong
	ShadingBlinn   = model.ShadingBlinn
	ShadingNone    = model.ShadingNoShading
)

// MergeMeshes collapses a scene's meshes into a single mesh (face indices
// rebased by the running vertex count) and replaces the material table
// with a single default material, per spec.md §4.10.
func MergeMeshes(s *Scene) *Scene {
	if s == nil {
		return s
	}
	merged := model.Merge(s.Meshes)
	merged.MaterialIndex = 0
	return &Scene{
		Meshes:    []*Mesh{merged},
		Materials: []*Material{{Name: "default"}},
	}
}
