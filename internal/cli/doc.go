// Package cli implements the bundler command-line interface.
//
// The CLI is a trusted dispatcher over the engine: it resolves the acting
// authority from flags or config, presents a proof for it, and renders
// engine results and rejections in text or JSON. Engine rejections exit
// with code 1; bad invocations and I/O problems exit with code 2.
package cli
