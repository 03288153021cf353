package languages

import (
	"regexp"

	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/seekr-dev/seekr/internal/chunker"
	"github.com/seekr-dev/seekr/internal/domain"
)

func RegisterTypeScript(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Name:       "typescript",
		Language:   typescript.GetLanguage(),
		Extensions: []string{"ts", "tsx"},
		FunctionNodes: map[string]domain.ChunkKind{
			"function_declaration": domain.ChunkKindFunction,
			"function_expression":  domain.ChunkKindFunction,
			"arrow_function":       domain.ChunkKindFunction,
			"method_definition":    domain.ChunkKindMethod,
		},
		TypeNodes: map[string]domain.ChunkKind{
			"class_declaration":     domain.ChunkKindClass,
			"interface_declaration": domain.ChunkKindInterface,
			"enum_declaration":      domain.ChunkKindEnum,
		},
		ImportNodes: map[string]bool{
			"import_statement": true,
		},
		CommentNodes: map[string]bool{
			"comment": true,
		},
		NameNodes: map[string]bool{
			"identifier":          true,
			"type_identifier":     true,
			"property_identifier": true,
		},
		DocstringPrefixes: []string{"/**"},
		FunctionPattern:   regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*[(<]`),
		ClassPattern:      regexp.MustCompile(`^\s*(?:export\s+)?(?:abstract\s+)?(?:class|interface|enum)\s+(\w+)`),
		ImportPattern:     regexp.MustCompile(`^\s*import\s`),
	})
}
