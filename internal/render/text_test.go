package render

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureText(t *testing.T) {
	tm, err := NewTextMeasurer()
	require.NoError(t, err)

	w1, h1, err := tm.Measure("Plate", 24)
	require.NoError(t, err)
	assert.Greater(t, w1, 0.0)
	assert.Greater(t, h1, 0.0)

	w2, _, err := tm.Measure("Plate", 48)
	require.NoError(t, err)
	assert.InDelta(t, 2*w1, w2, 2)

	_, h3, err := tm.Measure("Plate\nStudio", 24)
	require.NoError(t, err)
	assert.InDelta(t, 2*h1, h3, 1e-9)

	_, _, err = tm.Measure("x", 0)
	assert.Error(t, err)
}

func TestRasterizeText(t *testing.T) {
	tm, err := NewTextMeasurer()
	require.NoError(t, err)

	red := color.NRGBA{R: 0xff, A: 0xff}
	img, err := tm.Rasterize("Plate\nTwo", 24, red)
	require.NoError(t, err)

	w, h, err := tm.Measure("Plate\nTwo", 24)
	require.NoError(t, err)
	assert.Equal(t, int(math.Ceil(w)), img.Bounds().Dx())
	assert.Equal(t, int(math.Ceil(h)), img.Bounds().Dy())

	inked := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			inked++
			assert.Equal(t, uint8(0xff), img.Pix[i-3])
		}
	}
	assert.Greater(t, inked, 0)
}
