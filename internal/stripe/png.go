package stripe

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/gift"
)

// EncodePNG writes the raster contents as PNG.
func EncodePNG(w io.Writer, r *Raster) error {
	if err := png.Encode(w, r.Image()); err != nil {
		return fmt.Errorf("failed to encode stripe texture: %w", err)
	}
	return nil
}

// PNGBytes returns the raster encoded as PNG.
func PNGBytes(r *Raster) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Preview scales the raster by an integer factor with nearest-neighbour
// sampling so single-pixel bands stay crisp.
func Preview(r *Raster, scale int) *image.RGBA {
	if scale <= 1 {
		dst := image.NewRGBA(r.Image().Bounds())
		copy(dst.Pix, r.Image().Pix)
		return dst
	}
	g := gift.New(gift.Resize(r.Width()*scale, r.Height()*scale, gift.NearestNeighborResampling))
	dst := image.NewRGBA(g.Bounds(r.Image().Bounds()))
	g.Draw(dst, r.Image())
	return dst
}

// WritePNGFile writes img to path, creating parent directories.
func WritePNGFile(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
