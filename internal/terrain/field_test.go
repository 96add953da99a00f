package terrain

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/MeKo-Tech/stripeterrain/internal/stripe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElevationScalesWithUniform(t *testing.T) {
	f := NewField(42)
	p := Params{Elevation: 1}
	base := f.Elevation(0.37, 0.61, p)

	p.Elevation = 2.5
	assert.InDelta(t, 2.5*base, f.Elevation(0.37, 0.61, p), 1e-12)

	p.Elevation = 0
	assert.Zero(t, f.Elevation(0.37, 0.61, p))
}

func TestHeightmapDeterministic(t *testing.T) {
	p := Params{Elevation: 1, Time: 3}
	a := NewField(7).Heightmap(64, 64, p)
	b := NewField(7).Heightmap(64, 64, p)
	assert.True(t, bytes.Equal(a.Pix, b.Pix))

	c := NewField(8).Heightmap(64, 64, p)
	assert.False(t, bytes.Equal(a.Pix, c.Pix), "different seeds should differ")
}

func TestHeightmapFlatWithoutElevation(t *testing.T) {
	img := NewField(1).Heightmap(8, 8, Params{})
	for _, g := range img.Pix {
		require.Equal(t, uint8(127), g)
	}
}

func TestTimeMovesTerrain(t *testing.T) {
	f := NewField(3)
	a := f.Heightmap(32, 32, Params{Elevation: 1, Time: 0})
	b := f.Heightmap(32, 32, Params{Elevation: 1, Time: 5})
	assert.False(t, bytes.Equal(a.Pix, b.Pix))
}

func TestContoursUseStripeAlpha(t *testing.T) {
	spec := stripe.DefaultSpec()
	spec.SmallLineAlpha = 1
	tex := stripe.NewRaster(spec.Width, spec.Height)
	stripe.Generate(spec, tex)

	ink := color.NRGBA{R: 250, G: 240, B: 230, A: 255}
	img := NewField(11).Contours(128, 128, Params{Elevation: 1, TextureFrequency: 10}, tex, ink)

	painted := 0
	for i := 0; i < len(img.Pix); i += 4 {
		switch img.Pix[i+3] {
		case 0:
		case 255:
			painted++
		default:
			t.Fatalf("unexpected alpha %d at byte %d", img.Pix[i+3], i)
		}
	}
	assert.Greater(t, painted, 0, "some contour lines should be drawn")
	assert.Less(t, painted, 128*128, "not every pixel is on a line")
}
