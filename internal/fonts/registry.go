// Package fonts maps font family names to font assets compiled into the
// binary, so text icons render the same on every host.
package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/gofont/gosmallcaps"
	"golang.org/x/image/font/opentype"
)

// Bundled asset names.
const (
	GoRegular   = "go-regular"
	GoMedium    = "go-medium"
	GoBold      = "go-bold"
	GoItalic    = "go-italic"
	GoMono      = "go-mono"
	GoSmallCaps = "go-smallcaps"
)

func defaultAssets() map[string][]byte {
	return map[string][]byte{
		GoRegular:   goregular.TTF,
		GoMedium:    gomedium.TTF,
		GoBold:      gobold.TTF,
		GoItalic:    goitalic.TTF,
		GoMono:      gomono.TTF,
		GoSmallCaps: gosmallcaps.TTF,
	}
}

// Each family lists candidate assets in preference order. The first
// candidates name faces a deployment may register itself; the Go fonts are
// the bundled stand-ins.
func defaultFamilies() map[string][]string {
	return map[string][]string{
		"Roboto":          {"roboto-regular", GoRegular},
		"Arial":           {"arial", GoRegular},
		"Verdana":         {"verdana", GoMedium},
		"Times New Roman": {"times", GoSmallCaps},
		"Helvetica":       {"helvetica", "arial", GoRegular},
		"Calibri":         {"calibri", GoRegular},
		"Garamond":        {"garamond", GoItalic},
		"Futura":          {"futura", "arial", GoMedium},
		"Franklin Gothic": {"franklin-gothic", GoBold},
		"Rockwell":        {"rockwell", GoMono},
	}
}

// Registry resolves family names to parsed fonts. Parsed fonts are immutable
// and shared; faces are created per call.
type Registry struct {
	mu       sync.Mutex
	assets   map[string][]byte
	parsed   map[string]*opentype.Font
	families map[string][]string
	names    map[string]string // lower-case family -> display name
	gen      uint64
}

// NewRegistry returns a registry holding the bundled Go fonts and the
// default family table.
func NewRegistry() *Registry {
	r := &Registry{
		assets:   defaultAssets(),
		parsed:   make(map[string]*opentype.Font),
		families: make(map[string][]string),
		names:    make(map[string]string),
	}
	for name, candidates := range defaultFamilies() {
		r.setFamily(name, candidates)
	}
	return r
}

// Register adds or replaces a TrueType/OpenType asset.
func (r *Registry) Register(asset string, data []byte) error {
	if _, err := opentype.Parse(data); err != nil {
		return fmt.Errorf("parse font %q: %w", asset, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(asset)
	r.assets[key] = data
	delete(r.parsed, key)
	r.gen++
	return nil
}

// Generation counts changes made by Register and SetFamily. A family may
// resolve differently once it moves.
func (r *Registry) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}

// LoadDir registers every .ttf and .otf file in dir under its lower-case
// base name, so "Arial.ttf" becomes the asset "arial". It returns the number
// of fonts registered; files that fail to parse abort the load.
func (r *Registry) LoadDir(dir string) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read font directory: %w", err)
	}
	n := 0
	for _, f := range files {
		if f.IsDir() || !isFontFile(f.Name()) {
			continue
		}
		if _, err := r.RegisterFile(filepath.Join(dir, f.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// RegisterFile registers the font at path under its lower-case base name
// and returns that name.
func (r *Registry) RegisterFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read font %s: %w", filepath.Base(path), err)
	}
	base := filepath.Base(path)
	asset := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	return asset, r.Register(asset, data)
}

func isFontFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return (ext == ".ttf" || ext == ".otf") && !strings.HasPrefix(name, ".")
}

// SetFamily maps a family name to candidate asset names, replacing any
// earlier mapping for the same (case-insensitive) name.
func (r *Registry) SetFamily(family string, candidates ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setFamily(family, candidates)
	r.gen++
}

func (r *Registry) setFamily(family string, candidates []string) {
	key := strings.ToLower(strings.TrimSpace(family))
	lowered := make([]string, len(candidates))
	for i, c := range candidates {
		lowered[i] = strings.ToLower(c)
	}
	r.families[key] = lowered
	// keep the display name of a family that is only being remapped
	if _, ok := r.names[key]; !ok {
		r.names[key] = strings.TrimSpace(family)
	}
}

// Families returns the known family names, sorted.
func (r *Registry) Families() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Candidates returns the asset names tried for family. Unknown families try
// an asset named after the family itself.
func (r *Registry) Candidates(family string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.candidates(family)
}

func (r *Registry) candidates(family string) []string {
	key := strings.ToLower(strings.TrimSpace(family))
	if c, ok := r.families[key]; ok {
		return append([]string(nil), c...)
	}
	return []string{key}
}

// Resolve returns the first available font for family and the asset it came
// from. ok is false when no candidate is available.
func (r *Registry) Resolve(family string) (f *opentype.Font, asset string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.candidates(family) {
		if f, ok := r.parsed[name]; ok {
			return f, name, true
		}
		data, ok := r.assets[name]
		if !ok {
			continue
		}
		f, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		r.parsed[name] = f
		return f, name, true
	}
	return nil, "", false
}

// Face returns a face for family at size pixels and the asset it was built
// from. When the family cannot be resolved or the face cannot be built, the
// fixed-size bitmap face is returned and scalable is false.
func (r *Registry) Face(family string, size float64) (face font.Face, asset string, scalable bool) {
	f, asset, ok := r.Resolve(family)
	if !ok {
		return Fallback(), "", false
	}
	face, err := NewFace(f, size)
	if err != nil {
		return Fallback(), "", false
	}
	return face, asset, true
}

// NewFace builds a face at size pixels (72 DPI).
func NewFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// Fallback is the built-in bitmap face. It has a single size.
func Fallback() font.Face {
	return basicfont.Face7x13
}
