package favicon

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/favitude/favitude/internal/archive"
	"github.com/favitude/favitude/internal/ico"
	"github.com/favitude/favitude/internal/rasterize"
	"github.com/favitude/favitude/internal/textrender"
)

var wantNames = []string{
	"favicon.ico",
	"favicon-16x16.png",
	"favicon-32x32.png",
	"favicon-96x96.png",
	"favicon-256x256.png",
}

func photo(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 640, 480))
	for y := 0; y < 480; y++ {
		for x := 0; x < 640; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), 90, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func checkArchive(t *testing.T, data []byte, names []string) map[string][]byte {
	t.Helper()
	entries, err := archive.Read(data)
	require.NoError(t, err)
	require.Len(t, entries, len(names))

	byName := make(map[string][]byte)
	for i, e := range entries {
		assert.Equal(t, names[i], e.Name)
		byName[e.Name] = e.Data
	}

	entriesICO, err := ico.DecodeDirectory(byName["favicon.ico"])
	require.NoError(t, err)
	require.Len(t, entriesICO, 6)
	for i, want := range []int{16, 32, 48, 64, 128, 256} {
		assert.Equal(t, want, entriesICO[i].Width)
		assert.Equal(t, want, entriesICO[i].Height)
	}

	for i, size := range []int{16, 32, 96, 256} {
		img, err := png.Decode(bytes.NewReader(byName[names[i+1]]))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, size, size), img.Bounds())
	}
	return byName
}

func TestFromImage(t *testing.T) {
	data, err := New().FromImage(photo(t))
	require.NoError(t, err)
	checkArchive(t, data, wantNames)
}

func TestFromImageRejectsEmpty(t *testing.T) {
	data, err := New().FromImage(nil)
	assert.Nil(t, data)
	var de *rasterize.DecodeError
	assert.True(t, errors.As(err, &de))
}

func TestFromTextCircleEndToEnd(t *testing.T) {
	data, err := New().FromText(textrender.Request{
		Text:            "OK",
		Shape:           textrender.ParseShape("circle"),
		FontFamily:      "Arial",
		TextColor:       color.Black,
		BackgroundColor: color.White,
	})
	require.NoError(t, err)
	files := checkArchive(t, data, wantNames)

	img, err := png.Decode(bytes.NewReader(files["favicon-256x256.png"]))
	require.NoError(t, err)

	alpha := func(x, y int) uint32 { _, _, _, a := img.At(x, y).RGBA(); return a }
	luma := func(x, y int) uint32 { r, g, b, _ := img.At(x, y).RGBA(); return (r + g + b) / 3 }

	// corners are outside the circle
	assert.Zero(t, alpha(1, 1))
	assert.Zero(t, alpha(254, 254))
	// edge of the circle is opaque white background
	assert.Greater(t, alpha(128, 8), uint32(0xff00))
	assert.Greater(t, luma(128, 8), uint32(0xf000))

	dark := 0
	for y := 96; y < 160; y++ {
		for x := 64; x < 192; x++ {
			if luma(x, y) < 0x4000 {
				dark++
			}
		}
	}
	assert.Positive(t, dark, "expected glyph pixels near the centre")
}

func TestFromTextPrefix(t *testing.T) {
	g := New(WithTextPNGPrefix("favicon-text"))
	data, err := g.FromText(textrender.Request{
		Text:            "A",
		FontFamily:      "Verdana",
		TextColor:       color.White,
		BackgroundColor: color.Black,
	})
	require.NoError(t, err)
	checkArchive(t, data, []string{
		"favicon.ico",
		"favicon-text-16x16.png",
		"favicon-text-32x32.png",
		"favicon-text-96x96.png",
		"favicon-text-256x256.png",
	})
}

func TestFromTextRejectsEmptyText(t *testing.T) {
	_, err := New().FromText(textrender.Request{TextColor: color.Black, BackgroundColor: color.White})
	var re *textrender.RenderError
	assert.True(t, errors.As(err, &re))
}

func TestFromTextLayout(t *testing.T) {
	data, layout, err := New().FromTextLayout(textrender.Request{
		Text:            "Hi",
		FontSize:        180,
		FontFamily:      "Rockwell",
		TextColor:       color.Black,
		BackgroundColor: color.White,
	})
	require.NoError(t, err)
	checkArchive(t, data, wantNames)
	assert.Equal(t, 180, layout.FontSize)
	assert.Equal(t, "go-mono", layout.Asset)
	assert.True(t, layout.Scalable)
	assert.Zero(t, layout.Iterations)
}

func TestFromImagePixelLimitAndPrefix(t *testing.T) {
	g := New(WithMaxPixels(640*480-1), WithImagePNGPrefix("icon"))
	_, err := g.FromImage(photo(t))
	var de *rasterize.DecodeError
	require.True(t, errors.As(err, &de))
	assert.ErrorIs(t, err, rasterize.ErrTooManyPixels)

	g = New(WithMaxPixels(640*480), WithImagePNGPrefix("icon"))
	data, err := g.FromImage(photo(t))
	require.NoError(t, err)
	checkArchive(t, data, []string{
		"favicon.ico",
		"icon-16x16.png",
		"icon-32x32.png",
		"icon-96x96.png",
		"icon-256x256.png",
	})
}
