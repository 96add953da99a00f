package stripe

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

// Raster is the texture buffer the stripes are painted into. Pixels are
// premultiplied white, so every channel carries the stripe's coverage.
// A Raster is allocated once and repainted in place.
type Raster struct {
	img *image.RGBA
	ras *vector.Rasterizer

	version  uint64
	uploaded uint64
}

// NewRaster allocates a transparent width x height raster.
func NewRaster(width, height int) *Raster {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("stripe: raster size must be positive, got %dx%d", width, height))
	}
	return &Raster{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
		ras: vector.NewRasterizer(width, height),
	}
}

// Image returns the backing image. Callers must treat it as read-only.
func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Width() int { return r.img.Rect.Dx() }
func (r *Raster) Height() int { return r.img.Rect.Dy() }

// Version increases every time the raster is repainted.
func (r *Raster) Version() uint64 { return r.version }

// Dirty reports whether the contents changed since the last Acknowledge.
func (r *Raster) Dirty() bool { return r.version != r.uploaded }

// Acknowledge records that the current contents were uploaded and returns
// the acknowledged version.
func (r *Raster) Acknowledge() uint64 {
	r.uploaded = r.version
	return r.version
}

// MarkDirty flags the raster for re-upload.
func (r *Raster) MarkDirty() { r.version++ }

// AlphaAt returns the coverage of the pixel at column x, row y.
func (r *Raster) AlphaAt(x, y int) uint8 {
	return r.img.RGBAAt(x, y).A
}

func (r *Raster) clear() {
	clear(r.img.Pix)
}

// fillBand composites a full-width band over the current contents, the way a
// canvas fillRect with globalAlpha does. Rows outside the raster are dropped.
func (r *Raster) fillBand(b Band) {
	bounds := r.img.Bounds()
	rect := image.Rect(bounds.Min.X, b.Start, bounds.Max.X, b.Start+b.Height).Intersect(bounds)
	if rect.Empty() {
		return
	}
	a := alpha8(b.Alpha)
	if a == 0 {
		return
	}

	r.ras.Reset(bounds.Dx(), bounds.Dy())
	r.ras.DrawOp = draw.Over
	r.ras.MoveTo(float32(rect.Min.X), float32(rect.Min.Y))
	r.ras.LineTo(float32(rect.Max.X), float32(rect.Min.Y))
	r.ras.LineTo(float32(rect.Max.X), float32(rect.Max.Y))
	r.ras.LineTo(float32(rect.Min.X), float32(rect.Max.Y))
	r.ras.ClosePath()

	src := image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: a})
	r.ras.Draw(r.img, bounds, src, image.Point{})
}

func alpha8(a float64) uint8 {
	if a <= 0 {
		return 0
	}
	if a >= 1 {
		return 255
	}
	return uint8(math.Round(a * 255))
}

// roundHalfUp rounds like the browser's Math.round: halves go toward +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
