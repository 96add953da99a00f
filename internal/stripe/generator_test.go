package stripe

import (
	"bytes"
	"testing"
)

func exampleSpec() Spec {
	return Spec{
		LineCount:      5,
		BigLineWidth:   0.04,
		SmallLineWidth: 0.01,
		SmallLineAlpha: 1,
		Width:          32,
		Height:         128,
	}
}

// paintedRows returns the expected alpha for each row given non-overlapping bands.
func paintedRows(height int, bands []Band) map[int]uint8 {
	rows := make(map[int]uint8)
	for _, b := range bands {
		for y := b.Start; y < b.Start+b.Height; y++ {
			if y >= 0 && y < height {
				rows[y] = alpha8(b.Alpha)
			}
		}
	}
	return rows
}

func TestBandsExample(t *testing.T) {
	got := Bands(exampleSpec())
	want := []Band{
		{Start: 0, Height: 5, Alpha: 1},
		{Start: 30, Height: 1, Alpha: 1},
		{Start: 55, Height: 1, Alpha: 1},
		{Start: 80, Height: 1, Alpha: 1},
		{Start: 105, Height: 1, Alpha: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d bands, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("band %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestGenerateExamplePixels(t *testing.T) {
	spec := exampleSpec()
	r := NewRaster(spec.Width, spec.Height)
	Generate(spec, r)

	rows := paintedRows(spec.Height, Bands(spec))
	for y := 0; y < spec.Height; y++ {
		want := rows[y]
		for x := 0; x < spec.Width; x++ {
			if got := r.AlphaAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) alpha = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestGeneratePremultipliedWhite(t *testing.T) {
	spec := exampleSpec()
	spec.SmallLineAlpha = 0.5
	r := NewRaster(spec.Width, spec.Height)
	Generate(spec, r)

	c := r.Image().RGBAAt(3, 30)
	if c.A != 128 {
		t.Fatalf("small band alpha = %d, want 128", c.A)
	}
	if c.R != c.A || c.G != c.A || c.B != c.A {
		t.Fatalf("small band pixel %+v is not premultiplied white", c)
	}
	if big := r.Image().RGBAAt(0, 0); big.A != 255 || big.R != 255 {
		t.Fatalf("big band pixel %+v, want opaque white", big)
	}
}

func TestGenerateBigBandIgnoresLineCount(t *testing.T) {
	for _, lines := range []int{1, 2, 5, 17, 64} {
		spec := exampleSpec()
		spec.LineCount = lines
		spec.BigLineWidth = 0.1 // round(12.8) = 13 rows
		r := NewRaster(spec.Width, spec.Height)
		Generate(spec, r)

		for y := 0; y < 13; y++ {
			if got := r.AlphaAt(0, y); got != 255 {
				t.Fatalf("lineCount=%d: row %d alpha = %d, want 255", lines, y, got)
			}
		}
	}
}

func TestGenerateSingleLineHasNoSmallBands(t *testing.T) {
	spec := exampleSpec()
	spec.LineCount = 1
	if n := len(Bands(spec)); n != 1 {
		t.Fatalf("got %d bands, want 1", n)
	}

	r := NewRaster(spec.Width, spec.Height)
	Generate(spec, r)
	for y := 5; y < spec.Height; y++ {
		for x := 0; x < spec.Width; x++ {
			if a := r.AlphaAt(x, y); a != 0 {
				t.Fatalf("stray write at (%d,%d): alpha %d", x, y, a)
			}
		}
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	spec := exampleSpec()
	spec.SmallLineAlpha = 0.35
	r := NewRaster(spec.Width, spec.Height)

	Generate(spec, r)
	first := bytes.Clone(r.Image().Pix)

	Generate(spec, r)
	if !bytes.Equal(first, r.Image().Pix) {
		t.Fatal("second generate changed the raster")
	}

	other := spec
	other.LineCount = 9
	other.BigLineWidth = 0.5
	Generate(other, r)
	Generate(spec, r)
	if !bytes.Equal(first, r.Image().Pix) {
		t.Fatal("raster kept state from a previous spec")
	}
}

func TestGenerateClipsBandsOutsideRaster(t *testing.T) {
	spec := exampleSpec()
	spec.LineCount = 2
	spec.BigLineWidth = 1
	spec.SmallLineWidth = 1

	bands := Bands(spec)
	if bands[1].Start < spec.Height {
		t.Fatalf("expected small band past the raster, got start %d", bands[1].Start)
	}

	r := NewRaster(spec.Width, spec.Height)
	Generate(spec, r)
	if a := r.AlphaAt(spec.Width-1, spec.Height-1); a != 255 {
		t.Fatalf("last pixel alpha = %d, want 255", a)
	}
}

func TestGenerateOverlappingBandsCompositeOver(t *testing.T) {
	spec := Spec{
		LineCount:      130, // spacing rounds to 0, every small band lands on one row
		BigLineWidth:   0,
		SmallLineWidth: 1.0 / 128,
		SmallLineAlpha: 0.5,
		Width:          4,
		Height:         128,
	}
	r := NewRaster(spec.Width, spec.Height)
	Generate(spec, r)

	if a := r.AlphaAt(0, 0); a < 250 {
		t.Fatalf("stacked half-alpha bands should saturate, got %d", a)
	}
	if a := r.AlphaAt(0, 1); a != 0 {
		t.Fatalf("row 1 alpha = %d, want 0", a)
	}
}

func TestSpacingRoundsHalfUp(t *testing.T) {
	// Height/LineCount - 1 = -0.5; Math.round gives 0, not -1.
	spec := Spec{LineCount: 4, BigLineWidth: 0.5, SmallLineWidth: 0.5, SmallLineAlpha: 1, Width: 1, Height: 2}
	for i, b := range Bands(spec)[1:] {
		if b.Start != 1 {
			t.Errorf("small band %d start = %d, want 1", i, b.Start)
		}
	}
}

func TestGenerateMarksDirty(t *testing.T) {
	spec := exampleSpec()
	r := NewRaster(spec.Width, spec.Height)
	if r.Dirty() {
		t.Fatal("fresh raster should not be dirty")
	}

	Generate(spec, r)
	if !r.Dirty() {
		t.Fatal("generate should mark the raster dirty")
	}
	v := r.Acknowledge()
	if r.Dirty() || v != r.Version() {
		t.Fatal("acknowledge should clear the dirty flag")
	}

	Generate(spec, r)
	if !r.Dirty() || r.Version() != v+1 {
		t.Fatalf("expected version %d and dirty, got %d dirty=%v", v+1, r.Version(), r.Dirty())
	}
}

func TestGeneratePanicsOnContractViolation(t *testing.T) {
	tests := []struct {
		name   string
		spec   Spec
		raster *Raster
	}{
		{"size mismatch", exampleSpec(), NewRaster(16, 128)},
		{"zero lines", Spec{LineCount: 0, Width: 32, Height: 128}, NewRaster(32, 128)},
		{"nil raster", exampleSpec(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			Generate(tt.spec, tt.raster)
		})
	}
}

func TestSpecValidate(t *testing.T) {
	if err := DefaultSpec().Validate(); err != nil {
		t.Fatalf("default spec invalid: %v", err)
	}
	bad := DefaultSpec()
	bad.SmallLineAlpha = 1.5
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for alpha > 1")
	}
	bad = DefaultSpec()
	bad.LineCount = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for zero line count")
	}
}

func TestDecodeSpec(t *testing.T) {
	s, err := DecodeSpec([]byte(`{"lineCount": 3, "smallLineAlpha": 0.25}`))
	if err != nil {
		t.Fatalf("DecodeSpec: %v", err)
	}
	want := DefaultSpec()
	want.LineCount = 3
	want.SmallLineAlpha = 0.25
	if s != want {
		t.Fatalf("spec = %+v, want %+v", s, want)
	}

	if _, err := DecodeSpec([]byte(`{"height": 0}`)); err == nil {
		t.Fatal("expected error for zero height")
	}
	if _, err := DecodeSpec([]byte(`{"lineCount": "five"}`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestPreviewScalesNearest(t *testing.T) {
	spec := exampleSpec()
	r := NewRaster(spec.Width, spec.Height)
	Generate(spec, r)

	img := Preview(r, 4)
	if img.Bounds().Dx() != 128 || img.Bounds().Dy() != 512 {
		t.Fatalf("preview bounds = %v", img.Bounds())
	}
	if a := img.RGBAAt(0, 0).A; a != 255 {
		t.Fatalf("preview top-left alpha = %d, want 255", a)
	}
	if a := img.RGBAAt(0, 4*10).A; a != 0 {
		t.Fatalf("preview gap alpha = %d, want 0", a)
	}

	data, err := PNGBytes(r)
	if err != nil || len(data) == 0 {
		t.Fatalf("PNGBytes: %v (%d bytes)", err, len(data))
	}
}
