package assets

import "embed"

//go:generate env GOOS=js GOARCH=wasm go build -o web/stripe.wasm ../cmd/wasm
//go:generate cp $GOROOT/lib/wasm/wasm_exec.js web/

// WebFS embeds the browser panel served by `stripeterrain serve`, plus
// stripe.wasm and wasm_exec.js once go generate has produced them.
//
// NOTE: go:embed patterns must be relative to this file, so the page lives
// under assets/web rather than a top-level directory.
//
//go:embed web
var WebFS embed.FS
