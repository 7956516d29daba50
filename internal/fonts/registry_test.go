package fonts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
)

func TestResolveFallsThroughCandidates(t *testing.T) {
	r := NewRegistry()

	f, asset, ok := r.Resolve("Helvetica")
	require.True(t, ok)
	assert.NotNil(t, f)
	assert.Equal(t, GoRegular, asset)

	// case-insensitive family lookup
	_, asset, ok = r.Resolve("times new roman")
	require.True(t, ok)
	assert.Equal(t, GoSmallCaps, asset)
}

func TestResolveCachesParsedFont(t *testing.T) {
	r := NewRegistry()
	a, _, ok := r.Resolve("Arial")
	require.True(t, ok)
	b, _, ok := r.Resolve("Roboto")
	require.True(t, ok)
	assert.Same(t, a, b)
}

func TestRegisterPrefersEarlierCandidate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("helvetica", gomono.TTF))

	_, asset, ok := r.Resolve("Helvetica")
	require.True(t, ok)
	assert.Equal(t, "helvetica", asset)

	assert.Error(t, r.Register("broken", []byte("not a font")))
}

func TestUnknownFamilyUsesBitmapFace(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"comic sans"}, r.Candidates("Comic Sans"))

	_, _, ok := r.Resolve("Comic Sans")
	assert.False(t, ok)

	face, asset, scalable := r.Face("Comic Sans", 200)
	assert.False(t, scalable)
	assert.Empty(t, asset)
	assert.Equal(t, basicfont.Face7x13, face)
}

func TestUnknownFamilyMatchingAssetName(t *testing.T) {
	r := NewRegistry()
	_, asset, ok := r.Resolve("Go-Mono")
	require.True(t, ok)
	assert.Equal(t, GoMono, asset)
}

func TestFaceScales(t *testing.T) {
	r := NewRegistry()
	small, asset, ok := r.Face("Arial", 20)
	require.True(t, ok)
	assert.Equal(t, GoRegular, asset)
	defer small.Close()
	big, _, ok := r.Face("Arial", 200)
	require.True(t, ok)
	defer big.Close()

	assert.Greater(t, big.Metrics().Height, small.Metrics().Height)
}

func TestSetFamily(t *testing.T) {
	r := NewRegistry()
	r.SetFamily("arial", "go-bold")
	r.SetFamily("Comic Sans", "nope", GoMono)

	_, asset, ok := r.Resolve("Arial")
	require.True(t, ok)
	assert.Equal(t, GoBold, asset)
	_, asset, ok = r.Resolve("comic sans")
	require.True(t, ok)
	assert.Equal(t, GoMono, asset)

	fams := r.Families()
	assert.Len(t, fams, 11)
	assert.Contains(t, fams, "Arial")
	assert.NotContains(t, fams, "arial")
	assert.Contains(t, fams, "Comic Sans")
}

func TestGenerationCountsChanges(t *testing.T) {
	r := NewRegistry()
	start := r.Generation()

	r.Resolve("Arial")
	r.Families()
	assert.Equal(t, start, r.Generation())

	require.NoError(t, r.Register("arial", gomono.TTF))
	assert.Equal(t, start+1, r.Generation())

	assert.Error(t, r.Register("broken", []byte("not a font")))
	assert.Equal(t, start+1, r.Generation())

	r.SetFamily("Rockwell", GoBold)
	assert.Equal(t, start+2, r.Generation())
}

func TestFamiliesSorted(t *testing.T) {
	fams := NewRegistry().Families()
	assert.Len(t, fams, 10)
	assert.IsNonDecreasing(t, fams)
	assert.Contains(t, fams, "Franklin Gothic")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Arial.TTF"), gomono.TTF, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("fonts"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.ttf"), 0o755))

	r := NewRegistry()
	n, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, asset, ok := r.Resolve("Helvetica")
	require.True(t, ok)
	assert.Equal(t, "arial", asset)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.otf"), []byte("nope"), 0o644))
	_, err = NewRegistry().LoadDir(dir)
	assert.Error(t, err)

	_, err = NewRegistry().LoadDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
