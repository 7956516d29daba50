// Package rasterize turns uploaded image bytes into an RGBA source bitmap.
package rasterize

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	goico "github.com/sergeymakinen/go-ico"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/favitude/favitude/internal/constants"
)

// DecodeError reports input that could not be turned into a bitmap.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("decode %s image: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var (
	ErrEmptyInput    = errors.New("empty input")
	ErrZeroDimension = errors.New("image has zero width or height")
	ErrTooManyPixels = errors.New("image exceeds the pixel limit")
)

// Load is LoadLimit with constants.MaxSourcePixels.
func Load(raw []byte) (*image.RGBA, error) {
	return LoadLimit(raw, constants.MaxSourcePixels)
}

// LoadLimit decodes raw and returns it as a freshly allocated RGBA image
// anchored at the origin. Raster input keeps its native size; SVG documents
// are rasterized at the canvas size. Raster headers declaring more than
// maxPixels pixels are rejected before any pixel data is decoded.
func LoadLimit(raw []byte, maxPixels int64) (*image.RGBA, error) {
	if len(raw) == 0 {
		return nil, &DecodeError{Err: ErrEmptyInput}
	}

	if isSVG(raw) {
		img, err := renderSVG(raw, constants.CanvasSize, constants.CanvasSize)
		if err != nil {
			return nil, &DecodeError{Format: "svg", Err: err}
		}
		return img, nil
	}

	cfg, format, err := decodeConfig(raw)
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &DecodeError{Format: format, Err: ErrZeroDimension}
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > maxPixels {
		return nil, &DecodeError{
			Format: format,
			Err:    fmt.Errorf("%w: %dx%d is over %d", ErrTooManyPixels, cfg.Width, cfg.Height, maxPixels),
		}
	}

	src, format, err := decodeRaster(raw)
	if err != nil {
		return nil, &DecodeError{Format: format, Err: err}
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{Format: format, Err: ErrZeroDimension}
	}
	return ToRGBA(src), nil
}

var icoMagic = []byte{0, 0, 1, 0}

func decodeConfig(raw []byte) (image.Config, string, error) {
	if bytes.HasPrefix(raw, icoMagic) {
		cfg, err := goico.DecodeConfig(bytes.NewReader(raw))
		return cfg, "ico", err
	}
	return image.DecodeConfig(bytes.NewReader(raw))
}

func decodeRaster(raw []byte) (image.Image, string, error) {
	if bytes.HasPrefix(raw, icoMagic) {
		img, err := goico.Decode(bytes.NewReader(raw))
		return img, "ico", err
	}
	return image.Decode(bytes.NewReader(raw))
}

// ToRGBA copies src into a new RGBA image. Sources without alpha come out
// fully opaque.
func ToRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

func isSVG(raw []byte) bool {
	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.TrimSpace(head)
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	if bytes.HasPrefix(head, []byte("<svg")) {
		return true
	}
	return bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(head, []byte("<svg"))
}

func renderSVG(raw []byte, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
		return nil, ErrZeroDimension
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	gv := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	dasher := rasterx.NewDasher(w, h, gv)
	icon.Draw(dasher, 1.0)
	return rgba, nil
}
