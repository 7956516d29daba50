// Package textrender draws a text favicon: a filled background shape with the
// text centred on top.
package textrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/favitude/favitude/internal/constants"
	"github.com/favitude/favitude/internal/fonts"
)

// Request describes a text icon. FontSize <= 0 selects auto-fit.
type Request struct {
	Text            string
	FontSize        int
	Shape           Shape
	FontFamily      string
	TextColor       color.Color
	BackgroundColor color.Color
}

// RenderError reports a request that cannot be rendered.
type RenderError struct {
	Field string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Field, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

var (
	ErrEmptyText    = errors.New("text is empty")
	ErrMissingColor = errors.New("color is not set")
)

// Layout records how a request was typeset.
type Layout struct {
	FontSize   int
	Asset      string // empty when the bitmap face was used
	Scalable   bool
	Iterations int // auto-fit sizes tried, 0 for explicit sizes
	Anchor     image.Point
}

// Renderer renders text icons using fonts from a registry.
type Renderer struct {
	fonts *fonts.Registry
}

// NewRenderer returns a renderer backed by reg, or by the bundled fonts when
// reg is nil.
func NewRenderer(reg *fonts.Registry) *Renderer {
	if reg == nil {
		reg = fonts.NewRegistry()
	}
	return &Renderer{fonts: reg}
}

// Fonts returns the registry the renderer resolves families against.
func (r *Renderer) Fonts() *fonts.Registry { return r.fonts }

// Render draws req onto a new transparent canvas.
func (r *Renderer) Render(req Request) (*image.RGBA, error) {
	img, _, err := r.RenderLayout(req)
	return img, err
}

// RenderLayout is Render that also reports the chosen layout.
func (r *Renderer) RenderLayout(req Request) (*image.RGBA, Layout, error) {
	if err := validate(req); err != nil {
		return nil, Layout{}, err
	}

	size := constants.CanvasSize
	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	fillShape(canvas, req.Shape, req.BackgroundColor)

	face, layout := r.selectFace(req)
	defer face.Close()
	layout.Anchor = req.Shape.Anchor(size)

	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(req.TextColor),
		Face: face,
		Dot:  centeredOrigin(face, req.Text, layout.Anchor),
	}
	d.DrawString(req.Text)

	return canvas, layout, nil
}

func validate(req Request) error {
	if req.Text == "" {
		return &RenderError{Field: "text", Err: ErrEmptyText}
	}
	if req.TextColor == nil {
		return &RenderError{Field: "text color", Err: ErrMissingColor}
	}
	if req.BackgroundColor == nil {
		return &RenderError{Field: "background color", Err: ErrMissingColor}
	}
	return nil
}

func (r *Renderer) selectFace(req Request) (font.Face, Layout) {
	bitmap := Layout{FontSize: fonts.Fallback().Metrics().Height.Ceil()}

	if req.FontSize > 0 {
		face, asset, ok := r.fonts.Face(req.FontFamily, float64(req.FontSize))
		if !ok {
			return face, bitmap
		}
		return face, Layout{FontSize: req.FontSize, Asset: asset, Scalable: true}
	}

	f, asset, ok := r.fonts.Resolve(req.FontFamily)
	if !ok {
		return fonts.Fallback(), bitmap
	}

	size, iterations, err := AutoFit(func(size int) (int, int, error) {
		face, err := fonts.NewFace(f, float64(size))
		if err != nil {
			return 0, 0, err
		}
		defer face.Close()
		w, h := InkSize(face, req.Text)
		return w, h, nil
	})
	if err != nil {
		return fonts.Fallback(), bitmap
	}
	face, err := fonts.NewFace(f, float64(size))
	if err != nil {
		return fonts.Fallback(), bitmap
	}
	return face, Layout{FontSize: size, Asset: asset, Scalable: true, Iterations: iterations}
}

// AutoFit tries sizes from 400 down in steps of 20 and returns the first
// whose measured ink box is under the safe area in both axes. The last size
// tried is returned when none fits; no size below 10 is ever tried.
func AutoFit(measure func(size int) (w, h int, err error)) (size, iterations int, err error) {
	for size = constants.AutoFitStart; ; size -= constants.AutoFitStep {
		iterations++
		w, h, err := measure(size)
		if err != nil {
			return 0, iterations, err
		}
		if w < constants.AutoFitSafeArea && h < constants.AutoFitSafeArea {
			return size, iterations, nil
		}
		if size-constants.AutoFitStep < constants.AutoFitMin {
			return size, iterations, nil
		}
	}
}

// InkSize is the pixel size of the glyph ink box of text.
func InkSize(face font.Face, text string) (w, h int) {
	b, _ := font.BoundString(face, text)
	return (b.Max.X - b.Min.X).Ceil(), (b.Max.Y - b.Min.Y).Ceil()
}

// centeredOrigin returns the baseline origin that puts the middle of the
// advance width and the middle of the ascent/descent span on anchor.
func centeredOrigin(face font.Face, text string, anchor image.Point) fixed.Point26_6 {
	advance := font.MeasureString(face, text)
	m := face.Metrics()
	return fixed.Point26_6{
		X: fixed.I(anchor.X) - advance/2,
		Y: fixed.I(anchor.Y) + (m.Ascent-m.Descent)/2,
	}
}
