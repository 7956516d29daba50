package textrender

import (
	"image"
	"image/color"
	"strings"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"

	"github.com/favitude/favitude/internal/constants"
)

// Shape is the background drawn behind the text.
type Shape int

const (
	ShapeSquare Shape = iota
	ShapeRoundedSquare
	ShapeCircle
	ShapeTriangular
)

// ParseShape maps a form value to a Shape. Unrecognized values are squares.
func ParseShape(s string) Shape {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rounded_square":
		return ShapeRoundedSquare
	case "circle":
		return ShapeCircle
	case "triangular":
		return ShapeTriangular
	default:
		return ShapeSquare
	}
}

func (s Shape) String() string {
	switch s {
	case ShapeRoundedSquare:
		return "rounded_square"
	case ShapeCircle:
		return "circle"
	case ShapeTriangular:
		return "triangular"
	default:
		return "square"
	}
}

// Anchor is the point the text is centred on for a canvas of the given size.
func (s Shape) Anchor(size int) image.Point {
	if s == ShapeTriangular {
		return image.Pt(size/2, int(float64(size)*constants.TriangleAnchorRatio))
	}
	return image.Pt(size/2, size/2)
}

func fillShape(dst *image.RGBA, shape Shape, c color.Color) {
	b := dst.Bounds()
	fw, fh := float64(b.Dx()), float64(b.Dy())

	var filler *rasterx.Filler
	switch shape {
	case ShapeRoundedSquare:
		filler = newFiller(dst, c)
		r := float64(constants.RoundedCornerRadius)
		rasterx.AddRoundRect(0, 0, fw, fh, r, r, 0, rasterx.RoundGap, filler)
	case ShapeCircle:
		filler = newFiller(dst, c)
		rasterx.AddEllipse(fw/2, fh/2, fw/2, fh/2, 0, filler)
	case ShapeTriangular:
		filler = newFiller(dst, c)
		filler.Start(rasterx.ToFixedP(fw/2, 0))
		filler.Line(rasterx.ToFixedP(0, fh))
		filler.Line(rasterx.ToFixedP(fw, fh))
		filler.Stop(true)
	default:
		draw.Draw(dst, b, image.NewUniform(c), image.Point{}, draw.Src)
		return
	}
	filler.Draw()
}

func newFiller(dst *image.RGBA, c color.Color) *rasterx.Filler {
	b := dst.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b)
	filler := rasterx.NewFiller(b.Dx(), b.Dy(), scanner)
	filler.SetColor(c)
	return filler
}
