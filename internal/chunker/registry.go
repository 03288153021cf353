package chunker

import (
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/seekr-dev/seekr/internal/domain"
)

// LanguageSpec describes how one language is parsed: the tree-sitter grammar,
// the node-type sets for each extraction category, and the regex signatures
// used when structural parsing is unavailable.
type LanguageSpec struct {
	Name       string
	Language   *sitter.Language
	Extensions []string // without dot

	// FunctionNodes maps function-like node types to their chunk kind.
	// Nodes mapped to function are promoted to method inside a type body.
	FunctionNodes map[string]domain.ChunkKind
	// TypeNodes maps class-like node types to their chunk kind.
	TypeNodes map[string]domain.ChunkKind
	// TypeKindFor optionally refines the kind of a type node by inspecting
	// its subtree (Go type_declaration can be struct or interface).
	TypeKindFor func(node *sitter.Node) domain.ChunkKind

	ImportNodes  map[string]bool
	CommentNodes map[string]bool
	// NameNodes lists child node types that carry an identifier name.
	NameNodes map[string]bool

	// DocstringPrefixes tag a comment as docstring when its trimmed text
	// starts with one of them.
	DocstringPrefixes []string

	// Fallback signature patterns, applied line by line.
	FunctionPattern *regexp.Regexp
	ClassPattern    *regexp.Regexp
	ImportPattern   *regexp.Regexp
}

// IsDocstring reports whether a comment's text matches the language's
// docstring pattern.
func (s *LanguageSpec) IsDocstring(text string) bool {
	trimmed := strings.TrimSpace(text)
	for _, prefix := range s.DocstringPrefixes {
		if strings.HasPrefix(trimmed, prefix) {
			return true
		}
	}
	return false
}

// Registry maps file extensions to language specs.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]*LanguageSpec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]*LanguageSpec)}
}

// Register adds a language spec for all of its extensions.
func (r *Registry) Register(spec *LanguageSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range spec.Extensions {
		r.byExt[ext] = spec
	}
}

// Lookup returns the spec for a file path based on its extension, or nil
// when the extension is not registered.
func (r *Registry) Lookup(path string) *LanguageSpec {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byExt[ext]
}

// Extensions returns the set of all registered file extensions (without dot).
func (r *Registry) Extensions() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make(map[string]bool, len(r.byExt))
	for ext := range r.byExt {
		exts[ext] = true
	}
	return exts
}
