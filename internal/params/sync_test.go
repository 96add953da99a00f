package params

import (
	"encoding/json"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	aspect     float64
	width      int
	height     int
	pixelRatio float64
	dofWidth   int
	dofHeight  int
	calls      []string
}

func (r *recorder) SetAspect(a float64) {
	r.aspect = a
	r.calls = append(r.calls, "aspect")
}

func (r *recorder) Resize(w, h int, pr float64) {
	r.width, r.height, r.pixelRatio = w, h, pr
	r.calls = append(r.calls, "resize")
}

func (r *recorder) ResizeDepthOfField(w, h int) {
	r.dofWidth, r.dofHeight = w, h
	r.calls = append(r.calls, "dof")
}

func TestApplyUniformWithoutRegeneration(t *testing.T) {
	s := NewSync(nil, nil, nil)

	var elevation float64
	regenerations := 0
	s.MustBind(Range("uElevation", &elevation, 0, 5, 0.1, nil))
	s.MustBind(IntRange("lineCount", new(int), 1, 20, func() { regenerations++ }))

	got, err := s.Apply("uElevation", Number(3.2))
	require.NoError(t, err)
	assert.Equal(t, 3.2, elevation)
	assert.Equal(t, 3.2, got.Number)
	assert.Zero(t, regenerations)
}

func TestApplyRunsOnChangeAfterSet(t *testing.T) {
	s := NewSync(nil, nil, nil)

	lines := 5
	var seen int
	s.MustBind(IntRange("lineCount", &lines, 1, 20, func() { seen = lines }))

	_, err := s.Apply("lineCount", Number(8))
	require.NoError(t, err)
	assert.Equal(t, 8, lines)
	assert.Equal(t, 8, seen, "OnChange must observe the new value")
}

func TestApplyClampsAndSnaps(t *testing.T) {
	tests := []struct {
		name string
		min  float64
		max  float64
		step float64
		in   float64
		want float64
	}{
		{"clamp high", 0, 1, 0.01, 4, 1},
		{"clamp low", 0, 1, 0.01, -2, 0},
		{"snap to step", 0, 1, 0.1, 0.33, 0.3},
		{"snap from min", 1, 20, 1, 4.6, 5},
		{"continuous", 0, 10, 0, 3.14159, 3.14159},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSync(nil, nil, nil)
			var target float64
			s.MustBind(Range("p", &target, tt.min, tt.max, tt.step, nil))

			_, err := s.Apply("p", Number(tt.in))
			require.NoError(t, err)
			assert.InDelta(t, tt.want, target, 1e-12)
		})
	}
}

func TestApplyErrors(t *testing.T) {
	s := NewSync(nil, nil, nil)
	var enabled bool
	s.MustBind(Checkbox("enabled", &enabled, nil))

	_, err := s.Apply("missing", Number(1))
	assert.ErrorIs(t, err, ErrUnknownBinding)

	_, err = s.Apply("enabled", Number(1))
	assert.ErrorIs(t, err, ErrKindMismatch)
	assert.False(t, enabled)
}

func TestBindRejectsDuplicatesAndMalformed(t *testing.T) {
	s := NewSync(nil, nil, nil)
	var v float64
	_, err := s.Bind(Range("focus", &v, 0, 1, 0, nil))
	require.NoError(t, err)

	_, err = s.Bind(Range("focus", &v, 0, 1, 0, nil))
	assert.ErrorIs(t, err, ErrDuplicateBinding)

	_, err = s.Bind(Range("", &v, 0, 1, 0, nil))
	assert.ErrorIs(t, err, ErrInvalidBinding)

	_, err = s.Bind(Range("inverted", &v, 2, 1, 0, nil))
	assert.ErrorIs(t, err, ErrInvalidBinding)

	_, err = s.Bind(Binding{Name: "noGetter", Kind: KindRange})
	assert.ErrorIs(t, err, ErrInvalidBinding)
}

func TestHandleLifecycle(t *testing.T) {
	s := NewSync(nil, nil, nil)
	bg := color.NRGBA{R: 1, G: 2, B: 3, A: 255}
	h := s.MustBind(ColorField("clearColor", &bg, nil))

	require.NoError(t, h.Set(Color(color.NRGBA{R: 0x11, G: 0x22, B: 0x33})))
	v, err := h.Value()
	require.NoError(t, err)
	assert.Equal(t, "#112233", v.String())
	assert.Equal(t, uint8(255), bg.A)

	h.Unbind()
	assert.Empty(t, s.Names())
	_, err = h.Value()
	assert.ErrorIs(t, err, ErrUnknownBinding)
	assert.Equal(t, uint8(0x11), bg.R, "unbinding must not touch the target")
}

func TestDescriptorsKeepOrder(t *testing.T) {
	s := NewSync(nil, nil, nil)
	var a, b float64
	var c bool
	s.MustBind(Range("b", &b, 0, 1, 0.1, nil))
	s.MustBind(Range("a", &a, 0, 2, 0.5, nil).WithLabel("shader", "Alpha"))
	s.MustBind(Checkbox("c", &c, nil))

	ds := s.Descriptors()
	require.Len(t, ds, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{ds[0].Name, ds[1].Name, ds[2].Name})
	assert.Equal(t, "Alpha", ds[1].Label)
	assert.Equal(t, 2.0, ds[1].Max)

	raw, err := json.Marshal(ds[2])
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"c","label":"c","kind":"checkbox","value":false}`, string(raw))
}

func TestDecodeValue(t *testing.T) {
	v, err := DecodeValue(KindRange, json.RawMessage(`0.25`))
	require.NoError(t, err)
	assert.Equal(t, Number(0.25), v)

	v, err = DecodeValue(KindColor, json.RawMessage(`"#ff8000"`))
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 255, G: 128, B: 0, A: 255}, v.Color)

	_, err = DecodeValue(KindCheckbox, json.RawMessage(`"yes"`))
	assert.ErrorIs(t, err, ErrKindMismatch)

	_, err = DecodeValue(KindColor, json.RawMessage(`"#fff"`))
	assert.Error(t, err)
}

func TestOnViewportResize(t *testing.T) {
	rec := &recorder{}
	s := NewSync(rec, rec, nil)

	l, err := s.OnViewportResize(Viewport{Width: 800, Height: 600, DevicePixelRatio: 3})
	require.NoError(t, err)

	assert.Equal(t, 2.0, l.PixelRatio, "pixel ratio is capped")
	assert.InDelta(t, 800.0/600.0, rec.aspect, 1e-12)
	assert.Equal(t, 800, rec.width)
	assert.Equal(t, 600, rec.height)
	assert.Equal(t, 2.0, rec.pixelRatio)
	assert.Equal(t, 1600, rec.dofWidth)
	assert.Equal(t, 1200, rec.dofHeight)
	assert.Equal(t, []string{"aspect", "resize", "dof"}, rec.calls)

	applied, ok := s.Layout()
	assert.True(t, ok)
	assert.Equal(t, l, applied)
}

func TestLayoutFollowsLastValidViewport(t *testing.T) {
	s := NewSync(nil, nil, nil)

	_, ok := s.Layout()
	assert.False(t, ok, "no layout before the first resize")

	vp := Viewport{Width: 1024, Height: 512, DevicePixelRatio: 1.5}
	_, err := s.OnViewportResize(vp)
	require.NoError(t, err)
	_, err = s.OnViewportResize(Viewport{Width: -1, Height: 512})
	require.Error(t, err)

	assert.Equal(t, vp, s.Viewport())
	want, err := ComputeLayout(vp)
	require.NoError(t, err)
	got, ok := s.Layout()
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestOnViewportResizeScalesLinearly(t *testing.T) {
	for _, pr := range []float64{1, 1.5, 2} {
		base, err := ComputeLayout(Viewport{Width: 640, Height: 360, DevicePixelRatio: pr})
		require.NoError(t, err)
		doubled, err := ComputeLayout(Viewport{Width: 1280, Height: 720, DevicePixelRatio: pr})
		require.NoError(t, err)

		assert.Equal(t, 2*base.Width, doubled.Width)
		assert.Equal(t, 2*base.Height, doubled.Height)
		assert.Equal(t, 2*base.DepthOfFieldWidth, doubled.DepthOfFieldWidth)
		assert.Equal(t, 2*base.DepthOfFieldHeight, doubled.DepthOfFieldHeight)
		assert.Equal(t, base.Aspect, doubled.Aspect)
	}
}

func TestOnViewportResizeRejectsEmpty(t *testing.T) {
	rec := &recorder{}
	s := NewSync(rec, rec, nil)

	_, err := s.OnViewportResize(Viewport{Width: 0, Height: 600})
	assert.ErrorIs(t, err, ErrInvalidViewport)
	assert.Empty(t, rec.calls, "no collaborator may see a partial update")

	l, err := s.OnViewportResize(Viewport{Width: 10, Height: 10})
	require.NoError(t, err)
	assert.Equal(t, 1.0, l.PixelRatio, "missing device pixel ratio defaults to 1")
}
