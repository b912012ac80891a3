package collada

import (
	"strings"

	"meshkit/collada/xmlnode"
	"meshkit/internal/hexdec"
	"meshkit/internal/model"
	"meshkit/internal/numeric"
)

// colorOrTexture mirrors a COLLADA fx_common_color_or_texture_type value:
// either (or both) a literal color and a sampler reference by name.
type colorOrTexture struct {
	color   *[4]float32
	texture string // surface/sampler name (resolved to an image path later)
}

// technique is a parsed profile_COMMON shader block, defaulted per
// spec.md §4.9's "Default technique parameters".
type technique struct {
	shadeType string // constant, lambert, phong, blinn

	emission   colorOrTexture
	ambient    colorOrTexture
	diffuse    colorOrTexture
	specular   colorOrTexture
	reflective colorOrTexture
	transparent colorOrTexture

	hasTransparency   bool
	rgbTransparency   bool
	invertTransparency bool

	shininess         float32
	reflectivity      float32
	transparency      float32
	indexOfRefraction float32
}

func defaultTechnique() technique {
	return technique{
		emission:         colorOrTexture{color: &[4]float32{0, 0, 0, 1}},
		ambient:          colorOrTexture{color: &[4]float32{0.1, 0.1, 0.1, 1}},
		diffuse:          colorOrTexture{color: &[4]float32{0.6, 0.6, 0.6, 1}},
		specular:         colorOrTexture{color: &[4]float32{0.4, 0.4, 0.4, 1}},
		reflective:       colorOrTexture{color: &[4]float32{0, 0, 0, 1}},
		transparent:      colorOrTexture{color: &[4]float32{1, 1, 1, 1}},
		shininess:         10,
		indexOfRefraction: 1,
		reflectivity:      0,
		transparency:      1,
	}
}

// effect is a parsed <effect>: its surfaces/samplers (name -> referenced
// image id) and its single profile_COMMON technique. Non-profile_COMMON
// effects are out of scope per spec.md's Non-goals and are skipped.
type effect struct {
	id        string
	samplers  map[string]string // sampler name -> image id
	technique *technique
}

func parseLibraryEffects(root *xmlnode.Node) map[string]*effect {
	effects := map[string]*effect{}
	for _, lib := range root.Elements("library_effects") {
		for _, en := range lib.Elements("effect") {
			id, ok := en.Attr("id")
			if !ok {
				continue
			}
			e := parseEffect(en)
			if e != nil {
				e.id = id
				effects[id] = e
			}
		}
	}
	return effects
}

func parseEffect(en *xmlnode.Node) *effect {
	profile, ok := en.Element("profile_COMMON")
	if !ok {
		return nil // non-profile_COMMON effect: out of scope
	}
	e := &effect{samplers: map[string]string{}}
	surfaces := map[string]string{} // surface sid -> image id

	for _, newparam := range profile.Elements("newparam") {
		sid, _ := newparam.Attr("sid")
		if sid == "" {
			continue
		}
		if surf, ok := newparam.Element("surface"); ok {
			if initFrom, ok := surf.Element("init_from"); ok {
				surfaces[sid] = strings.TrimSpace(initFrom.Text())
			}
		}
		if samp, ok := newparam.Element("sampler2D"); ok {
			if src, ok := samp.Element("source"); ok {
				surfaceSid := strings.TrimSpace(src.Text())
				if imageID, ok := surfaces[surfaceSid]; ok {
					e.samplers[sid] = imageID
				}
			}
		}
	}

	for _, tag := range []string{"constant", "lambert", "phong", "blinn"} {
		tn, ok := profile.Element(tag)
		if !ok {
			continue
		}
		t := parseTechnique(tn, tag)
		e.technique = &t
		break
	}
	if e.technique == nil {
		t := defaultTechnique()
		e.technique = &t
	}
	return e
}

func parseTechnique(n *xmlnode.Node, shadeType string) technique {
	t := defaultTechnique()
	t.shadeType = shadeType

	set := func(dst *colorOrTexture, child *xmlnode.Node) {
		parseEffectColor(child, dst)
	}
	if c, ok := n.Element("emission"); ok {
		set(&t.emission, c)
	}
	if c, ok := n.Element("ambient"); ok {
		set(&t.ambient, c)
	}
	if c, ok := n.Element("diffuse"); ok {
		set(&t.diffuse, c)
	}
	if c, ok := n.Element("specular"); ok {
		set(&t.specular, c)
	}
	if c, ok := n.Element("reflective"); ok {
		set(&t.reflective, c)
	}
	if c, ok := n.Element("transparent"); ok {
		t.hasTransparency = true
		if opaque, ok := c.Attr("opaque"); ok {
			t.rgbTransparency = opaque == "RGB_ZERO" || opaque == "RGB_ONE"
			t.invertTransparency = opaque == "RGB_ZERO" || opaque == "A_ZERO"
		}
		set(&t.transparent, c)
	}
	if v, ok := parseEffectFloat(n, "shininess"); ok {
		t.shininess = v
	}
	if v, ok := parseEffectFloat(n, "reflectivity"); ok {
		t.reflectivity = v
	}
	if v, ok := parseEffectFloat(n, "transparency"); ok {
		t.transparency = v
	}
	if v, ok := parseEffectFloat(n, "index_of_refraction"); ok {
		t.indexOfRefraction = v
	}
	return t
}

// parseEffectColor reads a fx_common_color_or_texture_type's <color> or
// <texture texture="sampler-name"/> child into dst.
func parseEffectColor(n *xmlnode.Node, dst *colorOrTexture) {
	if c, ok := n.Element("color"); ok {
		fields := strings.Fields(strings.ReplaceAll(c.Text(), ",", "."))
		var v [4]float32
		v[3] = 1
		for i := 0; i < len(fields) && i < 4; i++ {
			f, ok := numeric.ParseFloat32([]byte(fields[i]))
			if ok {
				v[i] = f
			}
		}
		dst.color = &v
	}
	if tx, ok := n.Element("texture"); ok {
		if name, ok := tx.Attr("texture"); ok {
			dst.texture = name
		}
	}
}

// parseEffectFloat reads a fx_common_float_or_param_type child's <float>
// value; a <param ref="..."/> (indirection to an effect parameter) is not
// resolved and is treated as absent.
func parseEffectFloat(n *xmlnode.Node, tag string) (float32, bool) {
	c, ok := n.Element(tag)
	if !ok {
		return 0, false
	}
	f, ok := c.Element("float")
	if !ok {
		return 0, false
	}
	v, ok := numeric.ParseFloat32([]byte(strings.TrimSpace(strings.ReplaceAll(f.Text(), ",", "."))))
	return v, ok
}

// colladaMaterial is a parsed <material>: just a name and the effect id
// it instances.
type colladaMaterial struct {
	id       string
	effectID string
}

func parseLibraryMaterials(root *xmlnode.Node) map[string]*colladaMaterial {
	out := map[string]*colladaMaterial{}
	for _, lib := range root.Elements("library_materials") {
		for _, mn := range lib.Elements("material") {
			id, ok := mn.Attr("id")
			if !ok {
				continue
			}
			ie, ok := mn.Element("instance_effect")
			if !ok {
				continue
			}
			url, ok := ie.Attr("url")
			if !ok {
				continue
			}
			out[id] = &colladaMaterial{id: id, effectID: strings.TrimPrefix(url, "#")}
		}
	}
	return out
}

// colladaImage is a parsed <image>: either a file reference or embedded
// hex-encoded data (spec.md §4.9's <image>/<hex> note).
type colladaImage struct {
	path string
	hex  []byte
}

func parseLibraryImages(root *xmlnode.Node) map[string]*colladaImage {
	out := map[string]*colladaImage{}
	for _, lib := range root.Elements("library_images") {
		for _, in := range lib.Elements("image") {
			id, ok := in.Attr("id")
			if !ok {
				continue
			}
			img := &colladaImage{}
			if initFrom, ok := in.Element("init_from"); ok {
				if hexNode, ok := initFrom.Element("hex"); ok {
					if data, err := hexdec.Decode([]byte(strings.TrimSpace(hexNode.Text()))); err == nil {
						img.hex = data
					}
				} else {
					img.path = strings.TrimSpace(initFrom.Text())
				}
			}
			out[id] = img
		}
	}
	return out
}

// buildMaterial resolves a colladaMaterial through its effect into a
// model.Material, computing the final opacity from the Opaque-mode
// transparency math of spec.md §4.9.
func buildMaterial(name string, mat *colladaMaterial, effects map[string]*effect, images map[string]*colladaImage) *model.Material {
	m := &model.Material{Name: name}
	eff, ok := effects[mat.effectID]
	if !ok || eff.technique == nil {
		return m
	}
	t := eff.technique

	resolveTexture := func(cot colorOrTexture) *model.Texture {
		if cot.texture == "" {
			return nil
		}
		imgID, ok := eff.samplers[cot.texture]
		if !ok {
			return nil
		}
		img, ok := images[imgID]
		if !ok {
			return nil
		}
		return &model.Texture{Path: img.path, EmbeddedData: img.hex}
	}

	m.Colors.Emissive = t.emission.color
	m.Colors.Ambient = t.ambient.color
	m.Colors.Diffuse = t.diffuse.color
	m.Colors.Specular = t.specular.color
	m.Colors.Reflective = t.reflective.color
	m.Colors.Transparent = t.transparent.color

	m.Textures.Emissive = resolveTexture(t.emission)
	m.Textures.Ambient = resolveTexture(t.ambient)
	m.Textures.Diffuse = resolveTexture(t.diffuse)
	m.Textures.Specular = resolveTexture(t.specular)
	m.Textures.Reflection = resolveTexture(t.reflective)

	shininess := t.shininess
	m.Shininess = &shininess
	reflectivity := t.reflectivity
	m.Reflectivity = &reflectivity
	ior := t.indexOfRefraction
	m.IndexOfRefraction = &ior

	opacity := computeOpacity(t)
	m.Opacity = &opacity

	switch t.shadeType {
	case "constant":
		m.Shading = model.ShadingNoShading
	case "lambert":
		m.Shading = model.ShadingGouraud
	case "phong":
		m.Shading = model.ShadingPhong
	case "blinn":
		m.Shading = model.ShadingBlinn
	}
	return m
}

// computeOpacity implements spec.md §4.9's Opaque-mode transparency
// formula: RGB modes convert the transparent color's RGB to a luminance
// weighting, A modes use its alpha; ZERO modes invert the result.
func computeOpacity(t *technique) float32 {
	if !t.hasTransparency {
		return 1
	}
	channel := float32(1)
	if c := t.transparent.color; c != nil {
		if t.rgbTransparency {
			channel = 0.212671*c[0] + 0.71516*c[1] + 0.072169*c[2]
		} else {
			channel = c[3]
		}
	}
	opacity := channel * t.transparency
	if t.invertTransparency {
		opacity = 1 - opacity
	}
	return opacity
}
