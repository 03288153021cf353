// Package languages wires tree-sitter grammars into the chunker registry.
package languages

import "github.com/seekr-dev/seekr/internal/chunker"

// Default returns a registry with all built-in languages registered.
func Default() *chunker.Registry {
	r := chunker.NewRegistry()
	RegisterPython(r)
	RegisterJavaScript(r)
	RegisterTypeScript(r)
	RegisterGo(r)
	return r
}
