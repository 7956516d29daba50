package archive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/favitude/favitude/internal/encoder"
)

func bundle() *encoder.Bundle {
	return &encoder.Bundle{
		ICO: []byte("ico-bytes"),
		PNGs: []encoder.PNG{
			{Width: 16, Height: 16, Data: []byte("sixteen")},
			{Width: 32, Height: 32, Data: []byte("thirty-two")},
			{Width: 96, Height: 96, Data: []byte("ninety-six")},
			{Width: 256, Height: 256, Data: []byte("two-five-six")},
		},
	}
}

func TestBuildEntryOrderAndContent(t *testing.T) {
	data, err := Build(bundle())
	require.NoError(t, err)

	entries, err := Read(data)
	require.NoError(t, err)

	want := []string{
		"favicon.ico",
		"favicon-16x16.png",
		"favicon-32x32.png",
		"favicon-96x96.png",
		"favicon-256x256.png",
	}
	require.Len(t, entries, len(want))
	for i, e := range entries {
		assert.Equal(t, want[i], e.Name)
	}
	assert.Equal(t, []byte("ico-bytes"), entries[0].Data)
	assert.Equal(t, []byte("ninety-six"), entries[3].Data)
	assert.Equal(t, want, entryNames(bundle(), "favicon"))
}

func TestBuildPrefix(t *testing.T) {
	data, err := Build(bundle(), WithPNGPrefix("favicon-text"))
	require.NoError(t, err)
	entries, err := Read(data)
	require.NoError(t, err)
	assert.Equal(t, "favicon.ico", entries[0].Name)
	assert.Equal(t, "favicon-text-16x16.png", entries[1].Name)

	// empty prefix keeps the default
	data, err = Build(bundle(), WithPNGPrefix(""))
	require.NoError(t, err)
	entries, err = Read(data)
	require.NoError(t, err)
	assert.Equal(t, "favicon-16x16.png", entries[1].Name)
}

func TestBuildIsDeterministic(t *testing.T) {
	a, err := Build(bundle())
	require.NoError(t, err)
	b, err := Build(bundle())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildRejectsEmptyBundle(t *testing.T) {
	data, err := Build(&encoder.Bundle{})
	assert.Nil(t, data)
	var ae *ArchiveError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "favicon.ico", ae.Entry)

	_, err = Build(nil)
	assert.Error(t, err)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read([]byte("not a zip"))
	assert.Error(t, err)
}
