package params

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
)

// MaxPixelRatio caps the device pixel ratio used for render buffers.
const MaxPixelRatio = 2

// Camera receives the aspect ratio derived from the viewport.
type Camera interface {
	SetAspect(aspect float64)
}

// Pipeline receives the buffer sizes derived from the viewport.
type Pipeline interface {
	Resize(width, height int, pixelRatio float64)
	ResizeDepthOfField(width, height int)
}

// Viewport is the drawable area reported by the host.
type Viewport struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	DevicePixelRatio float64 `json:"devicePixelRatio"`
}

// Layout is everything derived from one Viewport.
type Layout struct {
	Aspect             float64 `json:"aspect"`
	Width              int     `json:"width"`
	Height             int     `json:"height"`
	PixelRatio         float64 `json:"pixelRatio"`
	DepthOfFieldWidth  int     `json:"depthOfFieldWidth"`
	DepthOfFieldHeight int     `json:"depthOfFieldHeight"`
}

// ComputeLayout derives the camera and buffer sizes for vp.
func ComputeLayout(vp Viewport) (Layout, error) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return Layout{}, fmt.Errorf("%w: %dx%d", ErrInvalidViewport, vp.Width, vp.Height)
	}
	pr := vp.DevicePixelRatio
	if pr <= 0 || math.IsNaN(pr) {
		pr = 1
	}
	pr = math.Min(pr, MaxPixelRatio)
	return Layout{
		Aspect:             float64(vp.Width) / float64(vp.Height),
		Width:              vp.Width,
		Height:             vp.Height,
		PixelRatio:         pr,
		DepthOfFieldWidth:  int(float64(vp.Width) * pr),
		DepthOfFieldHeight: int(float64(vp.Height) * pr),
	}, nil
}

type entry struct {
	binding Binding
}

// Sync is the binding table. It is not safe for concurrent use; the scene
// loop owns it and delivers every edit and resize from one goroutine.
type Sync struct {
	bindings map[string]*entry
	order    []string

	camera   Camera
	pipeline Pipeline
	// viewport is the last valid resize; zero until the first one.
	viewport Viewport

	logger *slog.Logger
}

// NewSync creates an empty binding table. camera and pipeline may be nil.
func NewSync(camera Camera, pipeline Pipeline, logger *slog.Logger) *Sync {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Sync{
		bindings: make(map[string]*entry),
		camera:   camera,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Handle refers to one registered binding.
type Handle struct {
	sync *Sync
	name string
}

func (h Handle) Name() string { return h.name }

// Value reads the target through the binding's getter.
func (h Handle) Value() (Value, error) { return h.sync.Value(h.name) }

// Set applies v as if it had been edited on the panel.
func (h Handle) Set(v Value) error {
	_, err := h.sync.Apply(h.name, v)
	return err
}

// Unbind removes the binding. The target is left untouched.
func (h Handle) Unbind() { h.sync.unbind(h.name) }

// Bind registers b.
func (s *Sync) Bind(b Binding) (Handle, error) {
	if err := b.validate(); err != nil {
		return Handle{}, err
	}
	if _, ok := s.bindings[b.Name]; ok {
		return Handle{}, fmt.Errorf("%w: %s", ErrDuplicateBinding, b.Name)
	}
	s.bindings[b.Name] = &entry{binding: b}
	s.order = append(s.order, b.Name)
	return Handle{sync: s, name: b.Name}, nil
}

// MustBind is Bind for static tables; it panics on error.
func (s *Sync) MustBind(b Binding) Handle {
	h, err := s.Bind(b)
	if err != nil {
		panic(err)
	}
	return h
}

func (s *Sync) unbind(name string) {
	if _, ok := s.bindings[name]; !ok {
		return
	}
	delete(s.bindings, name)
	s.order = slices.DeleteFunc(s.order, func(n string) bool { return n == name })
}

// Apply writes an edit for name into its target, then runs OnChange.
// Range values are clamped and snapped to the control's step first.
// It returns the value that was written.
func (s *Sync) Apply(name string, v Value) (Value, error) {
	e, ok := s.bindings[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownBinding, name)
	}
	nv, err := e.binding.normalize(v)
	if err != nil {
		return Value{}, err
	}
	e.binding.Set(nv)
	if e.binding.OnChange != nil {
		e.binding.OnChange()
	}
	s.logger.Debug("parameter changed", "name", name, "value", nv.String())
	return nv, nil
}

// Value reads the current value of name.
func (s *Sync) Value(name string) (Value, error) {
	e, ok := s.bindings[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownBinding, name)
	}
	return e.binding.Get(), nil
}

// Kind returns the control kind of name.
func (s *Sync) Kind(name string) (Kind, error) {
	e, ok := s.bindings[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownBinding, name)
	}
	return e.binding.Kind, nil
}

// Names lists bindings in registration order.
func (s *Sync) Names() []string { return slices.Clone(s.order) }

// Descriptors lists bindings in registration order with their current values.
func (s *Sync) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.bindings[name].binding.descriptor())
	}
	return out
}

// Values snapshots every binding's current value in wire form.
func (s *Sync) Values() map[string]any {
	out := make(map[string]any, len(s.order))
	for _, name := range s.order {
		out[name] = s.bindings[name].binding.Get().JSON()
	}
	return out
}

// OnViewportResize derives a Layout from vp and applies all of it: camera
// aspect, pipeline size and depth-of-field buffers. Nothing is applied when
// vp is invalid.
func (s *Sync) OnViewportResize(vp Viewport) (Layout, error) {
	l, err := ComputeLayout(vp)
	if err != nil {
		return Layout{}, err
	}
	if s.camera != nil {
		s.camera.SetAspect(l.Aspect)
	}
	if s.pipeline != nil {
		s.pipeline.Resize(l.Width, l.Height, l.PixelRatio)
		s.pipeline.ResizeDepthOfField(l.DepthOfFieldWidth, l.DepthOfFieldHeight)
	}
	s.viewport = vp

	s.logger.Debug("viewport resized",
		"width", l.Width,
		"height", l.Height,
		"pixel_ratio", l.PixelRatio,
		"dof_width", l.DepthOfFieldWidth,
		"dof_height", l.DepthOfFieldHeight,
	)
	return l, nil
}

// Layout recomputes the layout applied by the last resize. It reports false
// before the first valid resize.
func (s *Sync) Layout() (Layout, bool) {
	l, err := ComputeLayout(s.viewport)
	return l, err == nil
}

// Viewport returns the viewport of the last resize.
func (s *Sync) Viewport() Viewport { return s.viewport }
