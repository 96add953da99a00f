package scene

import (
	"fmt"
	"time"
)

// FrameState is carried from one frame to the next.
type FrameState struct {
	Frame          uint64        `json:"frame"`
	Elapsed        time.Duration `json:"elapsed"`
	TextureVersion uint64        `json:"textureVersion"`
	Uploads        int           `json:"uploads"`
}

// RunFrame advances the scene to elapsed and draws it: uTime, camera
// damping, texture upload when the raster changed, render.
func RunFrame(c *Context, s FrameState, elapsed time.Duration) (FrameState, error) {
	c.Uniforms.Time = elapsed.Seconds()
	if c.Camera != nil {
		c.Camera.Update()
	}

	if c.Raster.Dirty() {
		c.Pipeline.UploadTexture(c.Raster.Image(), c.Raster.Version())
		s.TextureVersion = c.Raster.Acknowledge()
		s.Uploads++
	}

	s.Frame++
	s.Elapsed = elapsed
	if err := c.Pipeline.Render(c.Frame(s.Frame)); err != nil {
		return s, fmt.Errorf("frame %d: %w", s.Frame, err)
	}
	return s, nil
}
