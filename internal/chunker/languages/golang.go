package languages

import (
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/seekr-dev/seekr/internal/chunker"
	"github.com/seekr-dev/seekr/internal/domain"
)

func RegisterGo(r *chunker.Registry) {
	r.Register(&chunker.LanguageSpec{
		Name:       "go",
		Language:   golang.GetLanguage(),
		Extensions: []string{"go"},
		FunctionNodes: map[string]domain.ChunkKind{
			"function_declaration": domain.ChunkKindFunction,
			"method_declaration":   domain.ChunkKindMethod,
		},
		TypeNodes: map[string]domain.ChunkKind{
			"type_declaration": domain.ChunkKindStruct,
		},
		TypeKindFor: goTypeKind,
		ImportNodes: map[string]bool{
			"import_declaration": true,
		},
		CommentNodes: map[string]bool{
			"comment": true,
		},
		NameNodes: map[string]bool{
			"identifier":       true,
			"field_identifier": true,
			"type_identifier":  true,
		},
		FunctionPattern:   regexp.MustCompile(`^func\s+(?:\([^)]+\)\s+)?(\w+)\s*[(\[]`),
		ClassPattern:      regexp.MustCompile(`^type\s+(\w+)\s+(?:struct|interface)\b`),
		ImportPattern:     regexp.MustCompile(`^import\s`),
	})
}

// goTypeKind refines a type_declaration by the declared underlying type.
func goTypeKind(node *sitter.Node) domain.ChunkKind {
	var find func(n *sitter.Node, depth int) domain.ChunkKind
	find = func(n *sitter.Node, depth int) domain.ChunkKind {
		if depth > 3 {
			return ""
		}
		switch n.Type() {
		case "struct_type":
			return domain.ChunkKindStruct
		case "interface_type":
			return domain.ChunkKindInterface
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			if kind := find(n.Child(i), depth+1); kind != "" {
				return kind
			}
		}
		return ""
	}
	if kind := find(node, 0); kind != "" {
		return kind
	}
	return domain.ChunkKindStruct
}
