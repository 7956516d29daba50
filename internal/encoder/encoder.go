// Package encoder resamples a source bitmap to the favicon sizes and encodes
// the ICO and PNG outputs.
package encoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"github.com/favitude/favitude/internal/constants"
	"github.com/favitude/favitude/internal/ico"
)

// EncodeError reports a resample or encode failure.
type EncodeError struct {
	Op  string
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Op, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

var (
	ErrEmptySource   = errors.New("source bitmap has zero area")
	ErrInvalidTarget = errors.New("target size must be positive")
)

// Lanczos3 is a three-lobe windowed sinc kernel.
var Lanczos3 = &draw.Kernel{
	Support: 3,
	At: func(t float64) float64 {
		if t == 0 {
			return 1
		}
		if t >= 3 {
			return 0
		}
		x := math.Pi * t
		return 3 * math.Sin(x) * math.Sin(x/3) / (x * x)
	},
}

// PNG is one standalone PNG output.
type PNG struct {
	Width  int
	Height int
	Data   []byte
}

// Label is the "WxH" form used in file names.
func (p PNG) Label() string {
	return fmt.Sprintf("%dx%d", p.Width, p.Height)
}

// Bundle is the encoded output for one source bitmap. PNGs are ordered by
// ascending size.
type Bundle struct {
	ICO  []byte
	PNGs []PNG
}

// Resample scales src to w×h into a new RGBA image.
func Resample(src image.Image, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, &EncodeError{Op: "resample", Err: fmt.Errorf("%w: %dx%d", ErrInvalidTarget, w, h)}
	}
	if src == nil || src.Bounds().Empty() {
		return nil, &EncodeError{Op: "resample", Err: ErrEmptySource}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	Lanczos3.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// Encode produces the ICO with one frame per embedded size and one PNG per
// published size. Every output is resampled directly from src.
func Encode(src image.Image) (*Bundle, error) {
	frames := make([]image.Image, 0, len(constants.IcoEmbeddedSizes))
	for _, s := range constants.IcoEmbeddedSizes {
		frame, err := Resample(src, s, s)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}

	var icoBuf bytes.Buffer
	if err := ico.Encode(&icoBuf, frames); err != nil {
		return nil, &EncodeError{Op: "ico", Err: err}
	}

	b := &Bundle{ICO: icoBuf.Bytes()}
	for _, s := range constants.PublishedSizes {
		img, err := Resample(src, s, s)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, &EncodeError{Op: fmt.Sprintf("png %dx%d", s, s), Err: err}
		}
		b.PNGs = append(b.PNGs, PNG{Width: s, Height: s, Data: buf.Bytes()})
	}
	return b, nil
}
