package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkID(t *testing.T) {
	id := ChunkID("src/main.py", 10, 42, ChunkKindFunction)
	assert.Equal(t, "src/main.py:10:42:function", id)
}

func TestSubChunkID(t *testing.T) {
	parent := ChunkID("src/main.py", 10, 42, ChunkKindClass)
	assert.Equal(t, "src/main.py:10:42:class_part_0", SubChunkID(parent, 0))
	assert.Equal(t, "src/main.py:10:42:class_part_3", SubChunkID(parent, 3))
}

func TestValidateCodeChunk_Valid(t *testing.T) {
	chunk := &CodeChunk{
		ID:        ChunkID("main.go", 1, 10, ChunkKindFunction),
		Content:   "func main() {}",
		Kind:      ChunkKindFunction,
		Language:  "go",
		FilePath:  "main.go",
		LineStart: 1,
		LineEnd:   10,
	}

	assert.NoError(t, ValidateCodeChunk(chunk))
}

func TestValidateCodeChunk_Invalid(t *testing.T) {
	valid := CodeChunk{
		ID:        "main.go:1:10:function",
		Kind:      ChunkKindFunction,
		FilePath:  "main.go",
		LineStart: 1,
		LineEnd:   10,
	}

	tests := []struct {
		name   string
		mutate func(c *CodeChunk)
	}{
		{"missing ID", func(c *CodeChunk) { c.ID = "" }},
		{"missing file path", func(c *CodeChunk) { c.FilePath = "" }},
		{"zero line start", func(c *CodeChunk) { c.LineStart = 0 }},
		{"end before start", func(c *CodeChunk) { c.LineStart = 5; c.LineEnd = 3 }},
		{"unknown kind", func(c *CodeChunk) { c.Kind = "snippet" }},
		{"negative complexity", func(c *CodeChunk) { c.ComplexityScore = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := valid
			tt.mutate(&chunk)
			assert.Error(t, ValidateCodeChunk(&chunk))
		})
	}

	assert.Error(t, ValidateCodeChunk(nil))
}

func TestCodeChunk_DisplayName(t *testing.T) {
	chunk := CodeChunk{FilePath: "a.py", FunctionName: "handler", ClassName: "Server"}
	assert.Equal(t, "handler", chunk.DisplayName())

	chunk.FunctionName = ""
	assert.Equal(t, "Server", chunk.DisplayName())

	chunk.ClassName = ""
	assert.Equal(t, "a.py", chunk.DisplayName())
}

func TestCodeChunk_LineCount(t *testing.T) {
	chunk := CodeChunk{LineStart: 10, LineEnd: 10}
	assert.Equal(t, 1, chunk.LineCount())

	chunk.LineEnd = 19
	assert.Equal(t, 10, chunk.LineCount())
}

func TestParseChunkKind(t *testing.T) {
	kind, err := ParseChunkKind("  Function ")
	assert.NoError(t, err)
	assert.Equal(t, ChunkKindFunction, kind)

	_, err = ParseChunkKind("blob")
	assert.Error(t, err)
}
