// Package scene holds the terrain scene state and advances it one frame at a time.
package scene

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"

	"github.com/MeKo-Tech/stripeterrain/internal/params"
	"github.com/MeKo-Tech/stripeterrain/internal/stripe"
)

// Camera is the orbiting scene camera.
type Camera interface {
	params.Camera
	// Update advances damped orbit controls by one frame.
	Update()
}

// Pipeline is the renderer plus its depth-of-field post pass.
type Pipeline interface {
	params.Pipeline
	UploadTexture(img *image.RGBA, version uint64)
	Render(f Frame) error
}

// Uniforms are the terrain shader inputs. uTexture is the stripe raster.
type Uniforms struct {
	Elevation        float64 `json:"uElevation"`
	TextureFrequency float64 `json:"uTextureFrequency"`
	Time             float64 `json:"uTime"`
}

// DepthOfField configures the bokeh post pass.
type DepthOfField struct {
	Enabled  bool    `json:"enabled"`
	Focus    float64 `json:"focus"`
	Aperture float64 `json:"aperture"`
	MaxBlur  float64 `json:"maxblur"`
}

// Frame is what the pipeline draws for one tick.
type Frame struct {
	Number         uint64       `json:"number"`
	TextureVersion uint64       `json:"textureVersion"`
	Uniforms       Uniforms     `json:"uniforms"`
	DepthOfField   DepthOfField `json:"depthOfField"`
	ClearColor     string       `json:"clearColor"`
}

// Options configure a new scene.
type Options struct {
	Spec         stripe.Spec
	Uniforms     Uniforms
	DepthOfField DepthOfField
	ClearColor   color.NRGBA
	Camera       Camera
	Pipeline     Pipeline
	Logger       *slog.Logger
}

// DefaultOptions returns the scene as it first appears.
func DefaultOptions() Options {
	return Options{
		Spec: stripe.DefaultSpec(),
		Uniforms: Uniforms{
			Elevation:        2,
			TextureFrequency: 10,
		},
		DepthOfField: DepthOfField{
			Enabled:  true,
			Focus:    1.2,
			Aperture: 0.003,
			MaxBlur:  0.01,
		},
		ClearColor: color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 255},
	}
}

// Context is the whole scene: stripe texture, shader uniforms, post pass,
// collaborators and the parameter table wired to them.
type Context struct {
	Spec         stripe.Spec
	Raster       *stripe.Raster
	Uniforms     Uniforms
	DepthOfField DepthOfField
	ClearColor   color.NRGBA

	Camera   Camera
	Pipeline Pipeline
	Sync     *params.Sync

	regenerations int
	logger        *slog.Logger
}

// New builds the scene, paints the first texture and binds every panel control.
func New(opts Options) (*Context, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Pipeline == nil {
		return nil, fmt.Errorf("scene needs a pipeline")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Context{
		Spec:         opts.Spec,
		Raster:       stripe.NewRaster(opts.Spec.Width, opts.Spec.Height),
		Uniforms:     opts.Uniforms,
		DepthOfField: opts.DepthOfField,
		ClearColor:   opts.ClearColor,
		Camera:       opts.Camera,
		Pipeline:     opts.Pipeline,
		logger:       logger,
	}
	c.ClearColor.A = 255

	c.Sync = params.NewSync(opts.Camera, opts.Pipeline, logger)
	if err := c.bindAll(); err != nil {
		return nil, err
	}

	c.RegenerateTexture()
	return c, nil
}

// Validate reports options the panel could not produce: an unpaintable spec
// or a range control outside its [min,max].
func (o Options) Validate() error {
	if err := o.Spec.Validate(); err != nil {
		return fmt.Errorf("invalid stripe spec: %w", err)
	}
	c := &Context{Spec: o.Spec, Uniforms: o.Uniforms, DepthOfField: o.DepthOfField}
	for _, b := range c.bindings() {
		if b.Kind != params.KindRange {
			continue
		}
		if v := b.Get().Number; v < b.Min || v > b.Max {
			return fmt.Errorf("%s must be within [%g,%g], got %g", b.Name, b.Min, b.Max, v)
		}
	}
	return nil
}

func (c *Context) bindAll() error {
	for _, b := range c.bindings() {
		if _, err := c.Sync.Bind(b); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b.Name, err)
		}
	}
	return nil
}

// bindings is the panel's control table over c's fields.
func (c *Context) bindings() []params.Binding {
	regen := c.RegenerateTexture
	return []params.Binding{
		params.IntRange("lineCount", &c.Spec.LineCount, 1, 10, regen).WithLabel("texture", "Line count"),
		params.Range("bigLineWidth", &c.Spec.BigLineWidth, 0, 0.1, 0.0001, regen).WithLabel("texture", "Big line width"),
		params.Range("smallLineWidth", &c.Spec.SmallLineWidth, 0, 0.1, 0.0001, regen).WithLabel("texture", "Small line width"),
		params.Range("smallLineAlpha", &c.Spec.SmallLineAlpha, 0, 1, 0.001, regen).WithLabel("texture", "Small line alpha"),

		params.Range("uElevation", &c.Uniforms.Elevation, 0, 5, 0.001, nil).WithLabel("terrain", "Elevation"),
		params.Range("uTextureFrequency", &c.Uniforms.TextureFrequency, 0.01, 50, 0.01, nil).WithLabel("terrain", "Texture frequency"),

		params.Checkbox("dofEnabled", &c.DepthOfField.Enabled, nil).WithLabel("depth of field", "Enabled"),
		params.Range("focus", &c.DepthOfField.Focus, 0, 10, 0.01, nil).WithLabel("depth of field", "Focus"),
		params.Range("aperture", &c.DepthOfField.Aperture, 0.0002, 0.1, 0.0001, nil).WithLabel("depth of field", "Aperture"),
		params.Range("maxblur", &c.DepthOfField.MaxBlur, 0, 0.02, 0.0001, nil).WithLabel("depth of field", "Max blur"),

		params.ColorField("clearColor", &c.ClearColor, nil).WithLabel("renderer", "Clear color"),
	}
}

// RegenerateTexture repaints the stripe raster from the current spec.
func (c *Context) RegenerateTexture() {
	stripe.Generate(c.Spec, c.Raster)
	c.regenerations++
	c.logger.Debug("stripe texture regenerated",
		"version", c.Raster.Version(),
		"line_count", c.Spec.LineCount,
	)
}

// Regenerations counts texture repaints since New.
func (c *Context) Regenerations() int { return c.regenerations }

// Frame captures what one render call will draw.
func (c *Context) Frame(number uint64) Frame {
	return Frame{
		Number:         number,
		TextureVersion: c.Raster.Version(),
		Uniforms:       c.Uniforms,
		DepthOfField:   c.DepthOfField,
		ClearColor:     params.FormatHex(c.ClearColor),
	}
}
