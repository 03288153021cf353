package languages

import (
	"regexp"

	"github.com/smacker/go-tree-sitter/python"

	"github.com/seekr-dev/seekr/internal/chunker"
	"github.com/seekr-dev/seekr/internal/domain"
)

func RegisterPython(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Name:       "python",
		Language:   python.GetLanguage(),
		Extensions: []string{"py", "pyi"},
		FunctionNodes: map[string]domain.ChunkKind{
			"function_definition":       domain.ChunkKindFunction,
			"async_function_definition": domain.ChunkKindFunction,
		},
		TypeNodes: map[string]domain.ChunkKind{
			"class_definition": domain.ChunkKindClass,
		},
		ImportNodes: map[string]bool{
			"import_statement":      true,
			"import_from_statement": true,
		},
		CommentNodes: map[string]bool{
			"comment": true,
			"string":  true,
		},
		NameNodes: map[string]bool{
			"identifier": true,
		},
		DocstringPrefixes: []string{`"""`, `'''`},
		FunctionPattern:   regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(`),
		ClassPattern:      regexp.MustCompile(`^\s*class\s+(\w+)\s*[:(]`),
		ImportPattern:     regexp.MustCompile(`^\s*(?:import\s+\w|from\s+[\w.]+\s+import\s)`),
	})
}
