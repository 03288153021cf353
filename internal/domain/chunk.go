package domain

import (
	"fmt"
	"strings"
)

// ChunkKind classifies what a code chunk represents
type ChunkKind string

const (
	ChunkKindFunction  ChunkKind = "function"
	ChunkKindMethod    ChunkKind = "method"
	ChunkKindClass     ChunkKind = "class"
	ChunkKindInterface ChunkKind = "interface"
	ChunkKindStruct    ChunkKind = "struct"
	ChunkKindEnum      ChunkKind = "enum"
	ChunkKindVariable  ChunkKind = "variable"
	ChunkKindImport    ChunkKind = "import"
	ChunkKindComment   ChunkKind = "comment"
	ChunkKindDocstring ChunkKind = "docstring"
)

// CodeChunk is a bounded unit of source code extracted for indexing.
// Chunks are immutable after a parse pass; when a file changes, its chunks
// are replaced, never mutated.
type CodeChunk struct {
	ID              string
	Content         string
	Kind            ChunkKind
	Language        string
	FilePath        string
	LineStart       int // 1-based, inclusive
	LineEnd         int // 1-based, inclusive
	FunctionName    string
	ClassName       string
	ModuleName      string
	Docstring       string
	ComplexityScore float64
	Context         string // surrounding lines, kept apart from Content
	Dependencies    []string
}

// ChunkID builds the stable chunk identifier from path, line range, and kind.
func ChunkID(filePath string, lineStart, lineEnd int, kind ChunkKind) string {
	return fmt.Sprintf("%s:%d:%d:%s", filePath, lineStart, lineEnd, kind)
}

// SubChunkID derives the identifier for the n-th size-split piece of a chunk.
func SubChunkID(parentID string, n int) string {
	return fmt.Sprintf("%s_part_%d", parentID, n)
}

// ValidateCodeChunk validates a CodeChunk instance
func ValidateCodeChunk(c *CodeChunk) error {
	if c == nil {
		return fmt.Errorf("code chunk cannot be nil")
	}
	if c.ID == "" {
		return fmt.Errorf("code chunk ID is required")
	}
	if c.FilePath == "" {
		return fmt.Errorf("code chunk FilePath is required")
	}
	if c.LineStart < 1 {
		return fmt.Errorf("code chunk LineStart must be >= 1, got %d", c.LineStart)
	}
	if c.LineEnd < c.LineStart {
		return fmt.Errorf("code chunk LineEnd %d is before LineStart %d", c.LineEnd, c.LineStart)
	}
	if !isValidChunkKind(c.Kind) {
		return fmt.Errorf("code chunk Kind is invalid: %s", c.Kind)
	}
	if c.ComplexityScore < 0 {
		return fmt.Errorf("code chunk ComplexityScore cannot be negative")
	}
	return nil
}

// isValidChunkKind checks if a ChunkKind is valid
func isValidChunkKind(k ChunkKind) bool {
	switch k {
	case ChunkKindFunction, ChunkKindMethod, ChunkKindClass, ChunkKindInterface,
		ChunkKindStruct, ChunkKindEnum, ChunkKindVariable, ChunkKindImport,
		ChunkKindComment, ChunkKindDocstring:
		return true
	}
	return false
}

// DisplayName returns the most specific name attached to the chunk, falling
// back to the file path when the chunk is anonymous.
func (c *CodeChunk) DisplayName() string {
	switch {
	case c.FunctionName != "":
		return c.FunctionName
	case c.ClassName != "":
		return c.ClassName
	case c.ModuleName != "":
		return c.ModuleName
	default:
		return c.FilePath
	}
}

// LineCount returns the number of source lines the chunk spans.
func (c *CodeChunk) LineCount() int {
	return c.LineEnd - c.LineStart + 1
}

// ParseChunkKind parses a string into a ChunkKind, trimming whitespace.
func ParseChunkKind(s string) (ChunkKind, error) {
	k := ChunkKind(strings.TrimSpace(strings.ToLower(s)))
	if !isValidChunkKind(k) {
		return "", fmt.Errorf("unknown chunk kind: %q", s)
	}
	return k, nil
}
