package params

import (
	"image/color"
	"math"
)

// Range binds a float field.
func Range(name string, target *float64, min, max, step float64, onChange func()) Binding {
	return Binding{
		Name:     name,
		Kind:     KindRange,
		Min:      min,
		Max:      max,
		Step:     step,
		Get:      func() Value { return Number(*target) },
		Set:      func(v Value) { *target = v.Number },
		OnChange: onChange,
	}
}

// IntRange binds an int field; submitted values are rounded to whole numbers.
func IntRange(name string, target *int, min, max int, onChange func()) Binding {
	return Binding{
		Name:     name,
		Kind:     KindRange,
		Min:      float64(min),
		Max:      float64(max),
		Step:     1,
		Get:      func() Value { return Number(float64(*target)) },
		Set:      func(v Value) { *target = int(math.Round(v.Number)) },
		OnChange: onChange,
	}
}

// Checkbox binds a bool field.
func Checkbox(name string, target *bool, onChange func()) Binding {
	return Binding{
		Name:     name,
		Kind:     KindCheckbox,
		Get:      func() Value { return Bool(*target) },
		Set:      func(v Value) { *target = v.Bool },
		OnChange: onChange,
	}
}

// ColorField binds a color field. Alpha is forced opaque.
func ColorField(name string, target *color.NRGBA, onChange func()) Binding {
	return Binding{
		Name: name,
		Kind: KindColor,
		Get:  func() Value { return Color(*target) },
		Set: func(v Value) {
			c := v.Color
			c.A = 255
			*target = c
		},
		OnChange: onChange,
	}
}

// WithLabel returns b with a display label and group.
func (b Binding) WithLabel(group, label string) Binding {
	b.Group = group
	b.Label = label
	return b
}
