package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seekr-dev/seekr/internal/domain"
)

// MockBackend is a mock implementation of Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Model() string { return "test-model" }

func (m *MockBackend) Dimensions() int { return 3 }

func (m *MockBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func testChunk(id, content string) domain.CodeChunk {
	return domain.CodeChunk{
		ID:        id,
		Content:   content,
		Kind:      domain.ChunkKindFunction,
		Language:  "python",
		FilePath:  "a.py",
		LineStart: 1,
		LineEnd:   2,
	}
}

func TestEmbeddingTextDeterministic(t *testing.T) {
	chunk := testChunk("a.py:1:2:function", "def f():\n    return 1")
	chunk.FunctionName = "f"
	chunk.Docstring = "Does the thing."
	chunk.Context = "# module header"

	first := EmbeddingText(&chunk)
	second := EmbeddingText(&chunk)

	assert.Equal(t, first, second)
	assert.Equal(t, TextHash(first), TextHash(second))

	lines := strings.Split(first, "\n")
	assert.Equal(t, "Language: python", lines[0])
	assert.Equal(t, "Function: f", lines[1])
	assert.Equal(t, "Type: function", lines[2])
	assert.Contains(t, first, "Code:\ndef f():")
	assert.Contains(t, first, "Documentation:\nDoes the thing.")
	assert.Contains(t, first, "Context:\n# module header")
}

func TestEmbeddingTextMetadataChangesHash(t *testing.T) {
	a := testChunk("x", "same content")
	b := testChunk("x", "same content")
	b.FunctionName = "different"

	assert.NotEqual(t, TextHash(EmbeddingText(&a)), TextHash(EmbeddingText(&b)))
}

func TestEmbedChunksOrderPreserved(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Embed", mock.Anything, mock.Anything).Return([][]float32{
		{1, 0, 0},
		{0, 1, 0},
	}, nil).Once()

	svc := NewService(backend, nil, 32)
	chunks := []domain.CodeChunk{testChunk("first", "aaa"), testChunk("second", "bbb")}

	results, err := svc.EmbedChunks(context.Background(), chunks)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "first", results[0].ChunkID)
	assert.Equal(t, []float32{1, 0, 0}, results[0].Vector)
	assert.Equal(t, "second", results[1].ChunkID)
	assert.Equal(t, []float32{0, 1, 0}, results[1].Vector)
	backend.AssertExpectations(t)
}

func TestEmbedChunksUsesCache(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Embed", mock.Anything, mock.Anything).Return([][]float32{{1, 2, 3}}, nil).Once()

	cache := NewCache("test-model", nil, 0)
	svc := NewService(backend, cache, 32)
	chunks := []domain.CodeChunk{testChunk("c1", "cached content")}

	first, err := svc.EmbedChunks(context.Background(), chunks)
	require.NoError(t, err)

	// Second call must come entirely from cache; the mock allows one call.
	second, err := svc.EmbedChunks(context.Background(), chunks)
	require.NoError(t, err)

	assert.Equal(t, first[0].Vector, second[0].Vector)
	backend.AssertExpectations(t)
}

func TestEmbedChunksMixedCacheHits(t *testing.T) {
	backend := new(MockBackend)
	// Only the uncached chunk reaches the backend.
	backend.On("Embed", mock.Anything, mock.MatchedBy(func(texts []string) bool {
		return len(texts) == 1 && strings.Contains(texts[0], "new content")
	})).Return([][]float32{{9, 9, 9}}, nil).Once()

	cache := NewCache("test-model", nil, 0)
	cached := testChunk("old", "known content")
	cache.Put(TextHash(EmbeddingText(&cached)), []float32{1, 1, 1})

	svc := NewService(backend, cache, 32)
	results, err := svc.EmbedChunks(context.Background(), []domain.CodeChunk{
		cached,
		testChunk("new", "new content"),
	})
	require.NoError(t, err)

	assert.Equal(t, []float32{1, 1, 1}, results[0].Vector)
	assert.Equal(t, []float32{9, 9, 9}, results[1].Vector)
	backend.AssertExpectations(t)
}

func TestEmbedChunksBatches(t *testing.T) {
	backend := new(MockBackend)
	vec := func(n int) [][]float32 {
		out := make([][]float32, n)
		for i := range out {
			out[i] = []float32{float32(i), 0, 0}
		}
		return out
	}
	backend.On("Embed", mock.Anything, mock.MatchedBy(func(texts []string) bool {
		return len(texts) == 2
	})).Return(vec(2), nil).Twice()
	backend.On("Embed", mock.Anything, mock.MatchedBy(func(texts []string) bool {
		return len(texts) == 1
	})).Return(vec(1), nil).Once()

	svc := NewService(backend, nil, 2)
	chunks := make([]domain.CodeChunk, 5)
	for i := range chunks {
		chunks[i] = testChunk(strings.Repeat("x", i+1), strings.Repeat("y", i+1))
	}

	results, err := svc.EmbedChunks(context.Background(), chunks)
	require.NoError(t, err)
	assert.Len(t, results, 5)
	backend.AssertExpectations(t)
}

func TestEmbedChunksBackendFailure(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	svc := NewService(backend, nil, 32)
	_, err := svc.EmbedChunks(context.Background(), []domain.CodeChunk{testChunk("c", "x")})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestEmbedQuery(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Embed", mock.Anything, []string{"how does auth work"}).
		Return([][]float32{{0.5, 0.5, 0}}, nil).Once()

	cache := NewCache("test-model", nil, 0)
	svc := NewService(backend, cache, 32)

	vec, err := svc.EmbedQuery(context.Background(), "how does auth work")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5, 0}, vec)

	again, err := svc.EmbedQuery(context.Background(), "how does auth work")
	require.NoError(t, err)
	assert.Equal(t, vec, again)
	backend.AssertExpectations(t)
}
