// Package render provides a headless pipeline and orbit camera for the scene.
//
// The real drawing happens in the browser; the recorder keeps the state the
// browser needs (buffer sizes, texture version, the last frame) so it can be
// reported to connected panels and inspected in tests.
package render

import (
	"image"
	"math"
	"sync"

	"github.com/MeKo-Tech/stripeterrain/internal/scene"
)

// Snapshot is the recorder state at one point in time.
type Snapshot struct {
	Width              int          `json:"width"`
	Height             int          `json:"height"`
	PixelRatio         float64      `json:"pixelRatio"`
	DepthOfFieldWidth  int          `json:"depthOfFieldWidth"`
	DepthOfFieldHeight int          `json:"depthOfFieldHeight"`
	Aspect             float64      `json:"aspect"`
	Camera             [3]float64   `json:"camera"`
	TextureVersion     uint64       `json:"textureVersion"`
	TextureWidth       int          `json:"textureWidth"`
	TextureHeight      int          `json:"textureHeight"`
	Uploads            int          `json:"uploads"`
	Frames             uint64       `json:"frames"`
	LastFrame          *scene.Frame `json:"lastFrame,omitempty"`
}

// Recorder implements scene.Pipeline and scene.Camera.
type Recorder struct {
	mu sync.Mutex

	width, height  int
	pixelRatio     float64
	dofW, dofH     int
	textureVersion uint64
	textureSize    image.Point
	uploads        int
	frames         uint64
	lastFrame      *scene.Frame

	aspect float64
	orbit  Orbit
}

// NewRecorder returns a recorder with the default orbit camera.
func NewRecorder() *Recorder {
	return &Recorder{
		pixelRatio: 1,
		aspect:     1,
		orbit:      DefaultOrbit(),
	}
}

func (r *Recorder) Resize(width, height int, pixelRatio float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height, r.pixelRatio = width, height, pixelRatio
}

func (r *Recorder) ResizeDepthOfField(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dofW, r.dofH = width, height
}

func (r *Recorder) UploadTexture(img *image.RGBA, version uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.textureVersion = version
	r.textureSize = img.Bounds().Size()
	r.uploads++
}

func (r *Recorder) Render(f scene.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames++
	r.lastFrame = &f
	return nil
}

func (r *Recorder) SetAspect(aspect float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aspect = aspect
}

// Update advances the orbit controls one damping step.
func (r *Recorder) Update() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orbit.Update()
}

// Rotate queues an orbit input in radians; it is eased in by Update.
func (r *Recorder) Rotate(dAzimuth, dPolar float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orbit.Rotate(dAzimuth, dPolar)
}

// Snapshot copies the current state.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Snapshot{
		Width:              r.width,
		Height:             r.height,
		PixelRatio:         r.pixelRatio,
		DepthOfFieldWidth:  r.dofW,
		DepthOfFieldHeight: r.dofH,
		Aspect:             r.aspect,
		Camera:             r.orbit.Position(),
		TextureVersion:     r.textureVersion,
		TextureWidth:       r.textureSize.X,
		TextureHeight:      r.textureSize.Y,
		Uploads:            r.uploads,
		Frames:             r.frames,
	}
	if r.lastFrame != nil {
		f := *r.lastFrame
		s.LastFrame = &f
	}
	return s
}

// Orbit is a damped spherical camera around the origin.
type Orbit struct {
	Distance float64
	Azimuth  float64
	Polar    float64
	Damping  float64

	pendingAzimuth float64
	pendingPolar   float64
}

// DefaultCameraPosition is where the scene camera starts.
var DefaultCameraPosition = [3]float64{1, 0.8, 1}

// DefaultOrbit is the orbit through DefaultCameraPosition.
func DefaultOrbit() Orbit {
	o := OrbitAt(DefaultCameraPosition)
	o.Damping = 0.05
	return o
}

// OrbitAt returns the undamped orbit whose Position is p. p must not be the origin.
func OrbitAt(p [3]float64) Orbit {
	d := math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
	return Orbit{
		Distance: d,
		Azimuth:  math.Atan2(p[0], p[2]),
		Polar:    math.Acos(p[1] / d),
	}
}

func (o *Orbit) Rotate(dAzimuth, dPolar float64) {
	o.pendingAzimuth += dAzimuth
	o.pendingPolar += dPolar
}

// Update applies Damping of the pending rotation and keeps the rest for later frames.
func (o *Orbit) Update() {
	da := o.pendingAzimuth * o.Damping
	dp := o.pendingPolar * o.Damping
	o.Azimuth += da
	o.Polar += dp
	o.pendingAzimuth -= da
	o.pendingPolar -= dp

	const eps = 1e-3
	o.Polar = math.Max(eps, math.Min(math.Pi-eps, o.Polar))
}

// Position returns the camera position in world space, y up.
func (o *Orbit) Position() [3]float64 {
	sinP := math.Sin(o.Polar)
	return [3]float64{
		o.Distance * sinP * math.Sin(o.Azimuth),
		o.Distance * math.Cos(o.Polar),
		o.Distance * sinP * math.Cos(o.Azimuth),
	}
}
