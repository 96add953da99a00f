// Package terrain samples the plane displacement on the CPU so the terrain
// can be previewed without a GPU.
package terrain

import (
	"image"
	"image/color"
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/MeKo-Tech/stripeterrain/internal/stripe"
)

// Params mirror the shader uniforms that shape the terrain.
type Params struct {
	Elevation        float64
	TextureFrequency float64
	Time             float64
}

// Field is a Perlin height field over the unit plane.
type Field struct {
	noise *perlin.Perlin
	// Scale is the noise frequency across the plane.
	Scale float64
	// Drift is how far the noise moves along x per second of uTime.
	Drift float64
}

// NewField creates a deterministic field for seed.
func NewField(seed int64) *Field {
	return &Field{
		noise: perlin.NewPerlin(2.0, 2.0, 3, seed),
		Scale: 3,
		Drift: 0.1,
	}
}

// Elevation returns the displacement at plane coordinates u, v in [0,1].
func (f *Field) Elevation(u, v float64, p Params) float64 {
	n := f.noise.Noise2D(u*f.Scale+p.Time*f.Drift, v*f.Scale)
	return n * p.Elevation
}

// Heightmap renders the field as grayscale, mapping [-Elevation, Elevation]
// to [0, 255]. A zero elevation yields flat mid-gray.
func (f *Field) Heightmap(width, height int, p Params) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		v := float64(y) / float64(height)
		for x := 0; x < width; x++ {
			u := float64(x) / float64(width)
			g := 0.5
			if p.Elevation > 0 {
				g = (f.Elevation(u, v, p)/p.Elevation + 1) / 2
			}
			img.SetGray(x, y, color.Gray{Y: uint8(math.Max(0, math.Min(255, g*255)))})
		}
	}
	return img
}

// Contours shades the field with the stripe texture the way the fragment
// shader does: the raster row is picked by fract(elevation * uTextureFrequency).
// Stripes are drawn in c over transparent.
func (f *Field) Contours(width, height int, p Params, tex *stripe.Raster, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	th := tex.Height()
	for y := 0; y < height; y++ {
		v := float64(y) / float64(height)
		for x := 0; x < width; x++ {
			u := float64(x) / float64(width)
			t := f.Elevation(u, v, p) * p.TextureFrequency
			t -= math.Floor(t)
			row := int(t * float64(th))
			if row >= th {
				row = th - 1
			}
			a := tex.AlphaAt(0, row)
			if a == 0 {
				continue
			}
			px := c
			px.A = uint8(uint16(c.A) * uint16(a) / 255)
			img.SetNRGBA(x, y, px)
		}
	}
	return img
}
