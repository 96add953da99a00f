package panel

import (
	"encoding/json"

	"github.com/MeKo-Tech/stripeterrain/internal/params"
	"github.com/MeKo-Tech/stripeterrain/internal/render"
	"github.com/MeKo-Tech/stripeterrain/internal/scene"
	"github.com/MeKo-Tech/stripeterrain/internal/stripe"
)

// Message types on the panel socket.
const (
	TypeDescriptors = "descriptors"
	TypeState       = "state"
	TypeError       = "error"
	TypeSet         = "set"
	TypeResize      = "resize"
	TypeRotate      = "rotate"
)

// Inbound is a message sent by a panel client.
type Inbound struct {
	Type string `json:"type"`

	// set
	Name  string          `json:"name,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`

	// resize
	Width            int     `json:"width,omitempty"`
	Height           int     `json:"height,omitempty"`
	DevicePixelRatio float64 `json:"devicePixelRatio,omitempty"`

	// rotate
	Azimuth float64 `json:"azimuth,omitempty"`
	Polar   float64 `json:"polar,omitempty"`
}

// DescriptorsMessage registers every control with a panel.
type DescriptorsMessage struct {
	Type   string              `json:"type"`
	Params []params.Descriptor `json:"params"`
}

// StateMessage carries current values and derived pipeline state.
type StateMessage struct {
	Type     string           `json:"type"`
	Values   map[string]any   `json:"values"`
	Spec     stripe.Spec      `json:"spec"`
	Layout   *params.Layout   `json:"layout,omitempty"`
	Frame    scene.FrameState `json:"frame"`
	Pipeline *render.Snapshot `json:"pipeline,omitempty"`
}

// ErrorMessage reports a rejected inbound message to its sender.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
