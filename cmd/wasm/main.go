//go:build js && wasm

// Command wasm exposes the stripe generator to the panel page. Build it with
// go generate ./assets, which writes stripe.wasm next to index.html.
package main

import (
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/stripeterrain/internal/stripe"
)

func parseSpec(args []js.Value) (stripe.Spec, error) {
	if len(args) < 1 {
		return stripe.Spec{}, fmt.Errorf("missing arguments")
	}
	return stripe.DecodeSpec([]byte(args[0].String()))
}

// stripeTexture paints the texture and returns its premultiplied RGBA bytes
// as a Uint8ClampedArray.
func stripeTexture(this js.Value, args []js.Value) interface{} {
	s, err := parseSpec(args)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	r := stripe.NewRaster(s.Width, s.Height)
	stripe.Generate(s, r)

	pix := r.Image().Pix
	out := js.Global().Get("Uint8ClampedArray").New(len(pix))
	js.CopyBytesToJS(out, pix)
	return map[string]any{
		"width":  s.Width,
		"height": s.Height,
		"pixels": out,
	}
}

// stripeBands returns the band layout without painting.
func stripeBands(this js.Value, args []js.Value) interface{} {
	s, err := parseSpec(args)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	bands := stripe.Bands(s)
	out := make([]any, 0, len(bands))
	for _, b := range bands {
		out = append(out, map[string]any{"start": b.Start, "height": b.Height, "alpha": b.Alpha})
	}
	return out
}

func main() {
	c := make(chan struct{})

	js.Global().Set("stripeTexture", js.FuncOf(stripeTexture))
	js.Global().Set("stripeBands", js.FuncOf(stripeBands))

	fmt.Println("stripeterrain WASM module loaded")
	<-c
}
