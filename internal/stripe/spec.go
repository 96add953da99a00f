// Package stripe paints the procedural stripe texture wrapped over the terrain.
package stripe

import (
	"encoding/json"
	"fmt"
)

// Default raster dimensions used by the terrain scene.
const (
	DefaultWidth  = 32
	DefaultHeight = 128
)

// Spec describes one stripe pattern: a single big line at the top of the
// raster followed by LineCount-1 evenly spaced small lines.
type Spec struct {
	LineCount      int     `json:"lineCount"`
	BigLineWidth   float64 `json:"bigLineWidth"`   // fraction of Height
	SmallLineWidth float64 `json:"smallLineWidth"` // fraction of Height
	SmallLineAlpha float64 `json:"smallLineAlpha"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

// DefaultSpec returns the pattern the scene starts with.
func DefaultSpec() Spec {
	return Spec{
		LineCount:      5,
		BigLineWidth:   0.04,
		SmallLineWidth: 0.01,
		SmallLineAlpha: 1,
		Width:          DefaultWidth,
		Height:         DefaultHeight,
	}
}

// DecodeSpec reads a JSON spec over DefaultSpec, so missing fields keep
// their defaults, and validates the result.
func DecodeSpec(data []byte) (Spec, error) {
	s := DefaultSpec()
	if err := json.Unmarshal(data, &s); err != nil {
		return Spec{}, fmt.Errorf("failed to parse stripe spec: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// Validate reports whether the spec can be painted. Generate does not call it;
// it is meant for boundaries such as config files and CLI flags.
func (s Spec) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("raster size must be positive, got %dx%d", s.Width, s.Height)
	}
	if s.LineCount < 1 {
		return fmt.Errorf("line count must be at least 1, got %d", s.LineCount)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"big line width", s.BigLineWidth},
		{"small line width", s.SmallLineWidth},
		{"small line alpha", s.SmallLineAlpha},
	} {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", f.name, f.v)
		}
	}
	return nil
}

// Band is one horizontal stripe. Start and Height are in rows; Start may be
// past the raster edge and Height may be zero.
type Band struct {
	Start  int
	Height int
	Alpha  float64
}

// Bands lays out the stripes for s, big band first. Small band spacing uses
// round(Height/LineCount - 1) per step, which is what the scene has always
// rendered; nothing is clamped to the raster.
func Bands(s Spec) []Band {
	if s.LineCount < 1 {
		return nil
	}
	h := float64(s.Height)
	bigPx := roundHalfUp(h * s.BigLineWidth)
	smallPx := roundHalfUp(h * s.SmallLineWidth)
	spacing := roundHalfUp(h/float64(s.LineCount) - 1)

	bands := make([]Band, 0, s.LineCount)
	bands = append(bands, Band{Start: 0, Height: bigPx, Alpha: 1})
	for i := 0; i < s.LineCount-1; i++ {
		bands = append(bands, Band{
			Start:  bigPx + spacing*(i+1),
			Height: smallPx,
			Alpha:  s.SmallLineAlpha,
		})
	}
	return bands
}
