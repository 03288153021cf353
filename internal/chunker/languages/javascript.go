package languages

import (
	"regexp"

	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/seekr-dev/seekr/internal/chunker"
	"github.com/seekr-dev/seekr/internal/domain"
)

func RegisterJavaScript(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Name:       "javascript",
		Language:   javascript.GetLanguage(),
		Extensions: []string{"js", "jsx", "mjs", "cjs"},
		FunctionNodes: map[string]domain.ChunkKind{
			"function_declaration":           domain.ChunkKindFunction,
			"function_expression":            domain.ChunkKindFunction,
			"arrow_function":                 domain.ChunkKindFunction,
			"generator_function_declaration": domain.ChunkKindFunction,
			"method_definition":              domain.ChunkKindMethod,
		},
		TypeNodes: map[string]domain.ChunkKind{
			"class_declaration": domain.ChunkKindClass,
		},
		ImportNodes: map[string]bool{
			"import_statement": true,
		},
		CommentNodes: map[string]bool{
			"comment": true,
		},
		NameNodes: map[string]bool{
			"identifier":          true,
			"property_identifier": true,
		},
		DocstringPrefixes: []string{"/**"},
		FunctionPattern:   regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*\(`),
		ClassPattern:      regexp.MustCompile(`^\s*(?:export\s+)?class\s+(\w+)`),
		ImportPattern:     regexp.MustCompile(`^\s*import\s`),
	})
}
