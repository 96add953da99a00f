// Package params binds named scene parameters to the control panel and keeps
// the rendering pipeline in step with the viewport.
package params

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Kind tags a binding with the control that edits it.
type Kind int

const (
	KindRange Kind = iota
	KindCheckbox
	KindColor
)

func (k Kind) String() string {
	switch k {
	case KindRange:
		return "range"
	case KindCheckbox:
		return "checkbox"
	case KindColor:
		return "color"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText encodes the kind as its control name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText parses a control name.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "range":
		*k = KindRange
	case "checkbox":
		*k = KindCheckbox
	case "color":
		*k = KindColor
	default:
		return fmt.Errorf("unknown parameter kind %q", b)
	}
	return nil
}

// Value is a tagged parameter value. Only the field matching Kind is meaningful.
type Value struct {
	Kind   Kind
	Number float64
	Bool   bool
	Color  color.NRGBA
}

func Number(v float64) Value { return Value{Kind: KindRange, Number: v} }
func Bool(v bool) Value { return Value{Kind: KindCheckbox, Bool: v} }
func Color(c color.NRGBA) Value { return Value{Kind: KindColor, Color: c} }

func (v Value) String() string {
	switch v.Kind {
	case KindCheckbox:
		return fmt.Sprintf("%t", v.Bool)
	case KindColor:
		return FormatHex(v.Color)
	default:
		return fmt.Sprintf("%g", v.Number)
	}
}

// JSON returns the untagged wire form: a number, a bool or a "#rrggbb" string.
func (v Value) JSON() any {
	switch v.Kind {
	case KindCheckbox:
		return v.Bool
	case KindColor:
		return FormatHex(v.Color)
	default:
		return v.Number
	}
}

// DecodeValue reads an untagged wire value for a control of kind k.
func DecodeValue(k Kind, raw json.RawMessage) (Value, error) {
	switch k {
	case KindRange:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return Value{}, fmt.Errorf("%w: expected number: %v", ErrKindMismatch, err)
		}
		return Number(n), nil
	case KindCheckbox:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Value{}, fmt.Errorf("%w: expected bool: %v", ErrKindMismatch, err)
		}
		return Bool(b), nil
	case KindColor:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Value{}, fmt.Errorf("%w: expected color string: %v", ErrKindMismatch, err)
		}
		c, err := ParseHex(s)
		if err != nil {
			return Value{}, err
		}
		return Color(c), nil
	default:
		return Value{}, fmt.Errorf("%w: %v", ErrInvalidBinding, k)
	}
}

// ParseHex parses "#rrggbb" or "rrggbb" into an opaque color.
func ParseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want #rrggbb", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// FormatHex formats c as "#rrggbb".
func FormatHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Binding connects one named control to a target it does not own.
// Min, Max and Step only apply to KindRange; a zero Step means continuous.
type Binding struct {
	Name     string
	Label    string
	Group    string
	Kind     Kind
	Min      float64
	Max      float64
	Step     float64
	Get      func() Value
	Set      func(Value)
	OnChange func()
}

func (b Binding) validate() error {
	if b.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidBinding)
	}
	if b.Get == nil || b.Set == nil {
		return fmt.Errorf("%w: %s needs both getter and setter", ErrInvalidBinding, b.Name)
	}
	if b.Kind == KindRange {
		if b.Min > b.Max {
			return fmt.Errorf("%w: %s min %v > max %v", ErrInvalidBinding, b.Name, b.Min, b.Max)
		}
		if b.Step < 0 {
			return fmt.Errorf("%w: %s negative step", ErrInvalidBinding, b.Name)
		}
	}
	return nil
}

// normalize brings v onto the control's grid: kind must match, range
// values are clamped to [Min,Max] and snapped to Step from Min.
func (b Binding) normalize(v Value) (Value, error) {
	if v.Kind != b.Kind {
		return Value{}, fmt.Errorf("%w: %s is a %s control, got %s", ErrKindMismatch, b.Name, b.Kind, v.Kind)
	}
	if b.Kind != KindRange {
		return v, nil
	}
	if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
		return Value{}, fmt.Errorf("%w: %s got %v", ErrKindMismatch, b.Name, v.Number)
	}
	n := v.Number
	if b.Step > 0 {
		n = b.Min + math.Round((n-b.Min)/b.Step)*b.Step
		// 0.1 steps must land on 0.3, not 0.30000000000000004.
		n = roundTo(n, max(decimals(b.Step), decimals(b.Min)))
	}
	n = math.Max(b.Min, math.Min(b.Max, n))
	return Number(n), nil
}

func decimals(step float64) int {
	for d := 0; d < 10; d++ {
		scaled := step * math.Pow10(d)
		if math.Abs(scaled-math.Round(scaled)) < 1e-9 {
			return d
		}
	}
	return 10
}

func roundTo(x float64, d int) float64 {
	p := math.Pow10(d)
	return math.Round(x*p) / p
}

// Descriptor is the registration record handed to a control panel.
type Descriptor struct {
	Name  string  `json:"name"`
	Label string  `json:"label,omitempty"`
	Group string  `json:"group,omitempty"`
	Kind  Kind    `json:"kind"`
	Min   float64 `json:"min,omitempty"`
	Max   float64 `json:"max,omitempty"`
	Step  float64 `json:"step,omitempty"`
	Value any     `json:"value"`
}

func (b Binding) descriptor() Descriptor {
	d := Descriptor{
		Name:  b.Name,
		Label: b.Label,
		Group: b.Group,
		Kind:  b.Kind,
		Value: b.Get().JSON(),
	}
	if d.Label == "" {
		d.Label = b.Name
	}
	if b.Kind == KindRange {
		d.Min, d.Max, d.Step = b.Min, b.Max, b.Step
	}
	return d
}
