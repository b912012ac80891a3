package meshkit

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"meshkit/collada"
	"meshkit/internal/model"
	"meshkit/obj"
	"meshkit/stl"
)

// Reader resolves a path to its bytes. The default Reader, used unless
// overridden with WithReader, reads directly from the OS file system —
// the same zip-or-disk convention load/locator.go used for engine
// assets, trimmed to "disk only" since this library has no packaged
// zip-resource story of its own.
type Reader func(path string) ([]byte, error)

func defaultReader(path string) ([]byte, error) { return os.ReadFile(path) }

// Option configures a Loader, mirroring the teacher's Attr func(*Config)
// functional-option shape (config.go) renamed to this package's types.
type Option func(*Loader)

// WithMergeMeshes requests that Load* collapse the returned Scene's
// meshes into one (see MergeMeshes), per spec.md §6 merge_meshes.
func WithMergeMeshes() Option {
	return func(l *Loader) { l.mergeMeshes = true }
}

// WithSTLColor requests that the STL core decode the VisCAM/SolidView
// COLOR= header and per-face color bits into per-vertex colors, per
// spec.md §6 stl_parse_color.
func WithSTLColor() Option {
	return func(l *Loader) { l.stlParseColor = true }
}

// WithReader overrides the byte-source callback used for the main file
// and for OBJ's mtllib resolution, per spec.md §6 custom_reader.
func WithReader(r Reader) Option {
	return func(l *Loader) { l.reader = r }
}

// Loader holds the configuration shared by every Load* call: whether to
// merge meshes, whether to decode STL per-face color, and which byte
// source to read through. The zero value is not usable; build one with
// NewLoader.
type Loader struct {
	mergeMeshes   bool
	stlParseColor bool
	reader        Reader
}

// NewLoader builds a Loader with the given options applied over the
// defaults (no merge, no STL color, OS file reads).
func NewLoader(opts ...Option) *Loader {
	l := &Loader{reader: defaultReader}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Format identifies one of the three supported mesh document types.
type Format int

const (
	FormatUnknown Format = iota
	FormatSTL
	FormatOBJ
	FormatCollada
)

// Load reads path, auto-detects its format (extension first, then a
// content sniff), and parses it, per spec.md §4.10.
func (l *Loader) Load(path string) (*model.Scene, error) {
	data, err := l.reader(path)
	if err != nil {
		return nil, err
	}
	switch detectFormat(path, data) {
	case FormatSTL:
		return l.parseSTL(data, path)
	case FormatOBJ:
		return l.parseOBJ(data, path)
	case FormatCollada:
		return l.parseCollada(data, path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnrecognizedFormat)
	}
}

// LoadSTL reads and parses path as STL, regardless of extension.
func (l *Loader) LoadSTL(path string) (*model.Scene, error) {
	data, err := l.reader(path)
	if err != nil {
		return nil, err
	}
	return l.parseSTL(data, path)
}

// LoadOBJ reads and parses path as OBJ, regardless of extension.
func (l *Loader) LoadOBJ(path string) (*model.Scene, error) {
	data, err := l.reader(path)
	if err != nil {
		return nil, err
	}
	return l.parseOBJ(data, path)
}

// LoadCollada reads and parses path as COLLADA, regardless of extension.
func (l *Loader) LoadCollada(path string) (*model.Scene, error) {
	data, err := l.reader(path)
	if err != nil {
		return nil, err
	}
	return l.parseCollada(data, path)
}

// LoadSTLFromSlice parses data as STL. path is used only to annotate
// error locations.
func (l *Loader) LoadSTLFromSlice(data []byte, path string) (*model.Scene, error) {
	return l.parseSTL(data, path)
}

// LoadOBJFromSlice parses data as OBJ. path is used for error locations
// and to resolve mtllib directives (relative to path's directory)
// through the Loader's reader.
func (l *Loader) LoadOBJFromSlice(data []byte, path string) (*model.Scene, error) {
	return l.parseOBJ(data, path)
}

// LoadColladaFromSlice parses data as COLLADA. path is used only to
// annotate error locations.
func (l *Loader) LoadColladaFromSlice(data []byte, path string) (*model.Scene, error) {
	return l.parseCollada(data, path)
}

func (l *Loader) parseSTL(data []byte, path string) (*model.Scene, error) {
	scene, err := stl.Parse(data, stl.Options{ParseColor: l.stlParseColor, Path: path})
	return l.finish(scene, err)
}

func (l *Loader) parseOBJ(data []byte, path string) (*model.Scene, error) {
	dir := filepath.Dir(path)
	readMTL := func(rel string) ([]byte, error) {
		b, err := l.reader(rel)
		if err != nil {
			log.Printf("meshkit: skipping unreadable mtllib %s: %v", rel, err)
			return nil, err
		}
		return b, nil
	}
	scene, err := obj.Parse(data, path, dir, readMTL)
	return l.finish(scene, err)
}

func (l *Loader) parseCollada(data []byte, path string) (*model.Scene, error) {
	scene, err := collada.Parse(data, path)
	return l.finish(scene, err)
}

func (l *Loader) finish(scene *model.Scene, err error) (*model.Scene, error) {
	if err != nil {
		return nil, err
	}
	if l.mergeMeshes {
		scene = MergeMeshes(scene)
	}
	return scene, nil
}

// Load is a package-level convenience equivalent to NewLoader(opts...).Load(path).
func Load(path string, opts ...Option) (*model.Scene, error) {
	return NewLoader(opts...).Load(path)
}

// LoadSTL is a package-level convenience for NewLoader(opts...).LoadSTL(path).
func LoadSTL(path string, opts ...Option) (*model.Scene, error) {
	return NewLoader(opts...).LoadSTL(path)
}

// LoadOBJ is a package-level convenience for NewLoader(opts...).LoadOBJ(path).
func LoadOBJ(path string, opts ...Option) (*model.Scene, error) {
	return NewLoader(opts...).LoadOBJ(path)
}

// LoadCollada is a package-level convenience for NewLoader(opts...).LoadCollada(path).
func LoadCollada(path string, opts ...Option) (*model.Scene, error) {
	return NewLoader(opts...).LoadCollada(path)
}

// detectFormat identifies a document's format, trying the path's
// extension first and falling back to sniffing the first 1024 bytes for
// "solid" (STL) or "<COLLADA" (COLLADA), per spec.md §4.10. Failing
// those, data whose size fits the binary STL layout is taken as STL, and
// a head with a line starting with an OBJ directive as OBJ; anything else
// is FormatUnknown.
func detectFormat(path string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return FormatSTL
	case ".dae":
		return FormatCollada
	case ".obj":
		return FormatOBJ
	}

	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("solid")) {
		return FormatSTL
	}
	if bytes.Contains(head, []byte("<COLLADA")) {
		return FormatCollada
	}
	if looksLikeBinarySTL(data) {
		return FormatSTL
	}
	if looksLikeOBJ(head) {
		return FormatOBJ
	}
	return FormatUnknown
}

// looksLikeBinarySTL reports whether data's size is consistent with the
// binary STL layout (an 84-byte header+count followed by whole 50-byte
// triangle records) — binary STL has no required magic token, so this
// structural check is the last resort after the "solid" text sniff
// fails, per spec.md §4.7's auto-detection policy.
func looksLikeBinarySTL(data []byte) bool {
	const header, rec = 84, 50
	if len(data) < header {
		return false
	}
	return (len(data)-header)%rec == 0
}

// looksLikeOBJ scans the sniffed head for a line starting with one of
// OBJ's reserved directive tokens (spec.md §4.1's OBJ starter-char
// class), which is the best content-only signal available since OBJ
// documents carry no file-level magic bytes.
func looksLikeOBJ(head []byte) bool {
	for _, line := range bytes.Split(head, []byte("\n")) {
		line = bytes.TrimSpace(line)
		for _, tok := range [][]byte{[]byte("v "), []byte("vt "), []byte("vn "), []byte("f "), []byte("o "), []byte("g "), []byte("usemtl "), []byte("mtllib ")} {
			if bytes.HasPrefix(line, tok) {
				return true
			}
		}
	}
	return false
}
