package obj

import (
	"path"
	"strings"

	"meshkit/internal/model"
	"meshkit/internal/numeric"
)

// parseMTL reads a Wavefront MTL material library, per spec.md §4.8: a
// sequence of `newmtl NAME` sections, each holding any subset of color,
// scalar, illumination-model, and texture-map directives. mtlDir is the
// directory the MTL file itself lives in, used to resolve texture paths.
//
// Grounded on the teacher's load/mtl.go (line-oriented, token[0] switch)
// generalized from Sscanf-based single-field parsing to the full field
// set and to multiple newmtl sections per file.
func parseMTL(data []byte, mtlDir string) ([]*model.Material, error) {
	var mats []*model.Material
	var cur *model.Material

	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimRight(raw, "\r")
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tok, rest := mtlToken(line)
		switch tok {
		case "newmtl":
			cur = &model.Material{Name: strings.TrimSpace(rest)}
			mats = append(mats, cur)
		}
		if cur == nil {
			continue
		}
		switch tok {
		case "Ka":
			cur.Colors.Ambient = parseMTLColor(rest)
		case "Kd":
			cur.Colors.Diffuse = parseMTLColor(rest)
		case "Ks":
			cur.Colors.Specular = parseMTLColor(rest)
		case "Ke":
			cur.Colors.Emissive = parseMTLColor(rest)
		case "Tf":
			cur.Colors.Transparent = parseMTLColor(rest)
		case "d":
			if v, ok := parseMTLFloat(rest); ok {
				cur.Opacity = &v
			}
		case "Tr":
			if v, ok := parseMTLFloat(rest); ok {
				opacity := 1 - v
				cur.Opacity = &opacity
			}
		case "Ns":
			if v, ok := parseMTLFloat(rest); ok {
				cur.Shininess = &v
			}
		case "Ni":
			if v, ok := parseMTLFloat(rest); ok {
				cur.IndexOfRefraction = &v
			}
		case "illum":
			if n, ok := numeric.ParseInt64([]byte(strings.TrimSpace(rest))); ok {
				switch n {
				case 0:
					cur.Shading = model.ShadingNoShading
				case 1:
					cur.Shading = model.ShadingGouraud
				case 2:
					cur.Shading = model.ShadingPhong
				default:
					cur.Shading = model.ShadingUnknown
				}
			}
		case "Pr":
			if v, ok := parseMTLFloat(rest); ok {
				cur.Roughness = &v
			}
		case "Pm":
			if v, ok := parseMTLFloat(rest); ok {
				cur.Metallic = &v
			}
		case "Ps":
			if v, ok := parseMTLFloat(rest); ok {
				cur.Sheen = &v
			}
		case "Pc":
			if v, ok := parseMTLFloat(rest); ok {
				cur.Clearcoat = &v
			}
		case "Pcr":
			if v, ok := parseMTLFloat(rest); ok {
				cur.ClearcoatRoughness = &v
			}
		case "a":
			if v, ok := parseMTLFloat(rest); ok {
				cur.Anisotropy = &v
			}
		case "map_Kd":
			cur.Textures.Diffuse = mtlTexture(rest, mtlDir)
		case "map_Ka":
			cur.Textures.Ambient = mtlTexture(rest, mtlDir)
		case "map_Ks":
			cur.Textures.Specular = mtlTexture(rest, mtlDir)
		case "map_Ke":
			cur.Textures.Emissive = mtlTexture(rest, mtlDir)
		case "map_d":
			cur.Textures.Opacity = mtlTexture(rest, mtlDir)
		case "map_Bump", "bump":
			cur.Textures.Height = mtlTexture(rest, mtlDir)
		case "map_Kn", "norm":
			cur.Textures.Normal = mtlTexture(rest, mtlDir)
		case "map_disp", "disp":
			cur.Textures.Displacement = mtlTexture(rest, mtlDir)
		case "map_Ns":
			cur.Textures.Shininess = mtlTexture(rest, mtlDir)
		case "map_Pr":
			cur.Textures.Roughness = mtlTexture(rest, mtlDir)
		case "map_Pm":
			cur.Textures.Metallic = mtlTexture(rest, mtlDir)
		case "map_Ps":
			cur.Textures.Sheen = mtlTexture(rest, mtlDir)
		case "refl":
			cur.Textures.Reflection = mtlTexture(rest, mtlDir)
		}
	}
	return mats, nil
}

// mtlToken splits "directive rest-of-line" on the first run of whitespace,
// the way splitToken does for OBJ lines, but on an already-trimmed string
// since MTL lines carry option flags (e.g. "-o 0 0" for map_Kd) inside rest.
func mtlToken(line string) (tok, rest string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

// parseMTLColor reads the leading 1 or 3 floats of a Ka/Kd/Ks/Ke/Tf
// directive. A single scalar is treated as a gray value, matching common
// MTL-writer output (e.g. "Ka 0.0"); alpha is always 1.
func parseMTLColor(rest string) *model.Color {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil
	}
	r, ok := numeric.ParseFloat32([]byte(fields[0]))
	if !ok {
		return nil
	}
	if len(fields) < 3 {
		return &model.Color{r, r, r, 1}
	}
	g, ok1 := numeric.ParseFloat32([]byte(fields[1]))
	b, ok2 := numeric.ParseFloat32([]byte(fields[2]))
	if !ok1 || !ok2 {
		return &model.Color{r, r, r, 1}
	}
	return &model.Color{r, g, b, 1}
}

func parseMTLFloat(rest string) (float32, bool) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, false
	}
	return numeric.ParseFloat32([]byte(fields[0]))
}

// mtlTexture resolves a texture map directive's trailing filename,
// skipping any leading "-option value" pairs (-o, -s, -t, -bm, -mm, ...),
// and normalizes the path per spec.md §4.8.
func mtlTexture(rest string, mtlDir string) *model.Texture {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil
	}
	name := fields[len(fields)-1]
	return &model.Texture{Path: normalizeMTLPath(name, mtlDir)}
}

// normalizeMTLPath rewrites backslashes to forward slashes, strips a
// leading "./" or a leading "/" that precedes "..", and resolves the
// result against the MTL file's own directory. Grounded on SPEC_FULL.md's
// resolution of the OBJ texture-path Open Question: authors routinely
// write Windows-style or absolute-looking relative paths that only make
// sense joined against the material library's location. These rules are
// a heuristic tailored to paths seen in real files, not a general URI
// resolution algorithm.
func normalizeMTLPath(p string, mtlDir string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	switch {
	case strings.HasPrefix(p, "./"):
		p = p[2:]
	case strings.HasPrefix(p, "/") && strings.Contains(p, ".."):
		p = strings.TrimPrefix(p, "/")
	}
	if mtlDir == "" || mtlDir == "." || path.IsAbs(p) {
		return p
	}
	return path.Join(mtlDir, p)
}
