package stripe

import "fmt"

// Generate repaints r from s: clear, big band, small bands, mark dirty.
// The output depends only on s. Mismatched raster dimensions or a line count
// below one are programming errors and panic.
func Generate(s Spec, r *Raster) {
	if r == nil {
		panic("stripe: nil raster")
	}
	if r.Width() != s.Width || r.Height() != s.Height {
		panic(fmt.Sprintf("stripe: raster is %dx%d, spec wants %dx%d", r.Width(), r.Height(), s.Width, s.Height))
	}
	if s.LineCount < 1 {
		panic(fmt.Sprintf("stripe: line count must be at least 1, got %d", s.LineCount))
	}

	r.clear()
	for _, b := range Bands(s) {
		r.fillBand(b)
	}
	r.MarkDirty()
}
