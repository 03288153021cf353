package chunker

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/seekr-dev/seekr/internal/domain"
)

const (
	// minCommentLength discards comments too short to carry meaning.
	minCommentLength = 20
	// contextLines is how many lines before and after a chunk are attached
	// as surrounding context.
	contextLines = 2
)

// Chunker turns raw source files into bounded, annotated code chunks.
// Structural (AST) extraction is preferred; regex signatures and fixed line
// windows serve as fallbacks so every supported file yields total coverage.
type Chunker struct {
	registry *Registry
}

// New creates a chunker backed by the given language registry.
func New(registry *Registry) *Chunker {
	return &Chunker{registry: registry}
}

// Registry exposes the chunker's language registry.
func (c *Chunker) Registry() *Registry { return c.registry }

// Parse extracts chunks from one source file. Unsupported extensions and
// empty content yield an empty result, not an error. A non-nil error may
// accompany partial results; callers treat it as per-file and non-fatal.
func (c *Chunker) Parse(filePath, content string, maxChunkSize int) ([]domain.CodeChunk, error) {
	spec := c.registry.Lookup(filePath)
	if spec == nil {
		return nil, nil
	}
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	lines := strings.Split(content, "\n")

	chunks, err := c.parseAST(spec, filePath, content, lines)
	if err != nil || len(chunks) == 0 {
		var regexErr error
		chunks, regexErr = parseWithPatterns(spec, filePath, lines)
		if regexErr != nil || len(chunks) == 0 {
			chunks = windowChunks(spec, filePath, lines)
		}
	}

	chunks = splitOversized(chunks, maxChunkSize)
	attachContext(chunks, lines)

	for i := range chunks {
		if verr := domain.ValidateCodeChunk(&chunks[i]); verr != nil {
			return chunks, domain.NewDomainErrorWithCause(domain.ErrCodeParseFailure,
				fmt.Sprintf("invalid chunk from %s", filePath), verr)
		}
	}

	return chunks, err
}

// parseAST extracts functions/methods, types, imports, and comments from the
// tree-sitter parse tree, walking each category over the same tree.
func (c *Chunker) parseAST(spec *LanguageSpec, filePath, content string, lines []string) ([]domain.CodeChunk, error) {
	if spec.Language == nil {
		return nil, nil
	}
	parser := sitter.NewParser()
	parser.SetLanguage(spec.Language)
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(content))
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeParseFailure,
			fmt.Sprintf("tree-sitter parse of %s", filePath), err)
	}
	defer tree.Close()

	w := &astWalker{
		spec:     spec,
		filePath: filePath,
		src:      []byte(content),
		lines:    lines,
	}
	w.walk(tree.RootNode(), "")
	return w.chunks, nil
}

type astWalker struct {
	spec     *LanguageSpec
	filePath string
	src      []byte
	lines    []string
	chunks   []domain.CodeChunk
}

func (w *astWalker) walk(node *sitter.Node, enclosingType string) {
	nodeType := node.Type()

	switch {
	case w.spec.FunctionNodes[nodeType] != "":
		kind := w.spec.FunctionNodes[nodeType]
		if kind == domain.ChunkKindFunction && enclosingType != "" {
			kind = domain.ChunkKindMethod
		}
		name := w.nodeName(node)
		chunk := w.newChunk(node, kind)
		chunk.FunctionName = name
		chunk.ClassName = enclosingType
		chunk.ComplexityScore = Complexity(chunk.Content)
		w.chunks = append(w.chunks, chunk)

	case w.spec.TypeNodes[nodeType] != "":
		kind := w.spec.TypeNodes[nodeType]
		if w.spec.TypeKindFor != nil {
			if refined := w.spec.TypeKindFor(node); refined != "" {
				kind = refined
			}
		}
		name := w.nodeName(node)
		chunk := w.newChunk(node, kind)
		chunk.ClassName = name
		chunk.ComplexityScore = Complexity(chunk.Content)
		w.chunks = append(w.chunks, chunk)
		enclosingType = name

	case w.spec.ImportNodes[nodeType]:
		chunk := w.newChunk(node, domain.ChunkKindImport)
		chunk.ComplexityScore = 0.1
		w.chunks = append(w.chunks, chunk)

	case w.spec.CommentNodes[nodeType]:
		w.addComment(node)
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		w.walk(node.Child(i), enclosingType)
	}
}

func (w *astWalker) addComment(node *sitter.Node) {
	text := node.Content(w.src)
	isDoc := w.spec.IsDocstring(text)

	// String nodes double as comment nodes in some grammars (Python); only
	// docstring-patterned strings are worth indexing.
	if node.Type() == "string" && !isDoc {
		return
	}
	if len(strings.TrimSpace(text)) <= minCommentLength {
		return
	}

	kind := domain.ChunkKindComment
	if isDoc {
		kind = domain.ChunkKindDocstring
	}
	chunk := w.newChunk(node, kind)
	chunk.ComplexityScore = 0.1
	w.chunks = append(w.chunks, chunk)
}

func (w *astWalker) newChunk(node *sitter.Node, kind domain.ChunkKind) domain.CodeChunk {
	startLine := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	return domain.CodeChunk{
		ID:        domain.ChunkID(w.filePath, startLine, endLine, kind),
		Content:   joinLines(w.lines, startLine, endLine),
		Kind:      kind,
		Language:  w.spec.Name,
		FilePath:  w.filePath,
		LineStart: startLine,
		LineEnd:   endLine,
	}
}

// nodeName pulls a best-effort identifier from the node's direct children,
// descending one level for grammars that nest the name (Go type_spec).
func (w *astWalker) nodeName(node *sitter.Node) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if w.spec.NameNodes[child.Type()] {
			return child.Content(w.src)
		}
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		for j := 0; j < int(child.ChildCount()); j++ {
			grandchild := child.Child(j)
			if w.spec.NameNodes[grandchild.Type()] {
				return grandchild.Content(w.src)
			}
		}
	}
	return ""
}

// joinLines returns lines start..end (1-based, inclusive) joined by newlines.
func joinLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

// attachContext stores up to contextLines lines immediately before and after
// each chunk's span. Context never alters Content.
func attachContext(chunks []domain.CodeChunk, lines []string) {
	for i := range chunks {
		var ctx []string

		before := chunks[i].LineStart - 1 - contextLines
		if before < 0 {
			before = 0
		}
		ctx = append(ctx, lines[before:chunks[i].LineStart-1]...)

		after := chunks[i].LineEnd + contextLines
		if after > len(lines) {
			after = len(lines)
		}
		if chunks[i].LineEnd < len(lines) {
			ctx = append(ctx, lines[chunks[i].LineEnd:after]...)
		}

		if len(ctx) > 0 {
			chunks[i].Context = strings.Join(ctx, "\n")
		}
	}
}
