// Package favicon runs the full generation pipeline: producer, encoder,
// archive.
package favicon

import (
	"image"

	"github.com/favitude/favitude/internal/archive"
	"github.com/favitude/favitude/internal/constants"
	"github.com/favitude/favitude/internal/encoder"
	"github.com/favitude/favitude/internal/rasterize"
	"github.com/favitude/favitude/internal/textrender"
)

// Generator turns uploads or text requests into favicon archives. It holds no
// per-request state and is safe for concurrent use.
type Generator struct {
	renderer  *textrender.Renderer
	maxPixels int64
	imageOpts []archive.Option
	textOpts  []archive.Option
}

// Option configures a Generator.
type Option func(*Generator)

// WithRenderer sets the text renderer.
func WithRenderer(r *textrender.Renderer) Option {
	return func(g *Generator) { g.renderer = r }
}

// WithTextPNGPrefix names text-icon PNGs "<prefix>-WxH.png".
func WithTextPNGPrefix(prefix string) Option {
	return func(g *Generator) {
		g.textOpts = append(g.textOpts, archive.WithPNGPrefix(prefix))
	}
}

// WithImagePNGPrefix names image-icon PNGs "<prefix>-WxH.png".
func WithImagePNGPrefix(prefix string) Option {
	return func(g *Generator) {
		g.imageOpts = append(g.imageOpts, archive.WithPNGPrefix(prefix))
	}
}

// WithMaxPixels caps the pixel count of decoded uploads. Values <= 0 keep
// the default.
func WithMaxPixels(n int64) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxPixels = n
		}
	}
}

// New returns a Generator using the bundled fonts unless configured otherwise.
func New(opts ...Option) *Generator {
	g := &Generator{maxPixels: constants.MaxSourcePixels}
	for _, opt := range opts {
		opt(g)
	}
	if g.renderer == nil {
		g.renderer = textrender.NewRenderer(nil)
	}
	return g
}

// Renderer returns the text renderer in use.
func (g *Generator) Renderer() *textrender.Renderer { return g.renderer }

// FromImage builds an archive from raw image bytes. Errors are
// *rasterize.DecodeError, *encoder.EncodeError or *archive.ArchiveError.
func (g *Generator) FromImage(raw []byte) ([]byte, error) {
	src, err := rasterize.LoadLimit(raw, g.maxPixels)
	if err != nil {
		return nil, err
	}
	return g.pack(src, g.imageOpts)
}

// FromText builds an archive from a text request. Errors are
// *textrender.RenderError, *encoder.EncodeError or *archive.ArchiveError.
func (g *Generator) FromText(req textrender.Request) ([]byte, error) {
	data, _, err := g.FromTextLayout(req)
	return data, err
}

// FromTextLayout is FromText that also reports how the text was laid out.
func (g *Generator) FromTextLayout(req textrender.Request) ([]byte, textrender.Layout, error) {
	src, layout, err := g.renderer.RenderLayout(req)
	if err != nil {
		return nil, layout, err
	}
	data, err := g.pack(src, g.textOpts)
	return data, layout, err
}

func (g *Generator) pack(src image.Image, opts []archive.Option) ([]byte, error) {
	bundle, err := encoder.Encode(src)
	if err != nil {
		return nil, err
	}
	return archive.Build(bundle, opts...)
}
