package rag

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seekr-dev/seekr/internal/domain"
	"github.com/seekr-dev/seekr/internal/provider"
	"github.com/seekr-dev/seekr/internal/vectorstore"
	"github.com/seekr-dev/seekr/internal/vectorstore/memory"
)

// MockEmbedder is a mock implementation of Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type stubProvider struct {
	name     string
	response string
	chunks   []string
	lastOpts provider.GenerateOptions
	lastMsgs []provider.Message
}

func (p *stubProvider) Name() string              { return p.name }
func (p *stubProvider) Kind() domain.ProviderKind { return domain.ProviderKindLocal }

func (p *stubProvider) HealthCheck(context.Context) ([]domain.ModelInfo, error) {
	return []domain.ModelInfo{{ID: "stub-model", Recommended: true}}, nil
}

func (p *stubProvider) Generate(_ context.Context, messages []provider.Message, opts provider.GenerateOptions) (string, error) {
	p.lastMsgs = messages
	p.lastOpts = opts
	return p.response, nil
}

func (p *stubProvider) Stream(_ context.Context, messages []provider.Message, opts provider.GenerateOptions, fn func(string) error) error {
	p.lastMsgs = messages
	p.lastOpts = opts
	for _, c := range p.chunks {
		if err := fn(c); err != nil {
			return err
		}
	}
	return nil
}

type stubSelector struct {
	selection *provider.Selection
	err       error
	preferred string
}

func (s *stubSelector) Select(_ domain.ProcessingMode, preferred string) (*provider.Selection, error) {
	s.preferred = preferred
	if s.err != nil {
		return nil, s.err
	}
	return s.selection, nil
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx, 3))
	require.NoError(t, store.Upsert(ctx, []domain.VectorRecord{
		{
			PointID: "p1",
			Vector:  []float32{1, 0, 0},
			Chunk: domain.CodeChunk{
				ID: "auth.py:10:30:function", Content: "def login(user): ...",
				Kind: domain.ChunkKindFunction, Language: "python", FilePath: "auth.py",
				LineStart: 10, LineEnd: 30, FunctionName: "login", Context: "# auth module",
			},
			IndexedAt: time.Now().UTC(),
		},
		{
			PointID: "p2",
			Vector:  []float32{0.95, 0.05, 0},
			Chunk: domain.CodeChunk{
				ID: "auth.go:5:25:function", Content: "func Login() {}",
				Kind: domain.ChunkKindFunction, Language: "go", FilePath: "auth.go",
				LineStart: 5, LineEnd: 25, FunctionName: "Login",
			},
			IndexedAt: time.Now().UTC(),
		},
	}))
	return store
}

func newOrchestrator(t *testing.T, embedder *MockEmbedder, p *stubProvider) (*Orchestrator, *stubSelector) {
	t.Helper()
	sel := &stubSelector{selection: &provider.Selection{Provider: p, Model: "stub-model"}}
	return NewOrchestrator(embedder, seededStore(t), sel, domain.ProcessingModeAuto, "ollama"), sel
}

func TestQueryPipeline(t *testing.T) {
	embedder := new(MockEmbedder)
	embedder.On("EmbedQuery", mock.Anything, "how does login work").
		Return([]float32{1, 0, 0}, nil).Once()

	p := &stubProvider{name: "ollama", response: "login authenticates the user"}
	o, sel := newOrchestrator(t, embedder, p)

	result, err := o.Query(context.Background(), QueryRequest{
		Query:          "how does login work",
		IncludeContext: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "login authenticates the user", result.Response)
	assert.Len(t, result.RetrievedChunks, 2)
	assert.Equal(t, "ollama:stub-model", result.ModelUsed)
	assert.Greater(t, result.RetrievalScore, 0.9)
	assert.Equal(t, "ollama", sel.preferred)

	// The context block travels as a system message.
	require.Len(t, p.lastMsgs, 3)
	assert.Contains(t, p.lastMsgs[1].Content, "auth.py")
	assert.Contains(t, p.lastMsgs[1].Content, "def login(user)")
	assert.Contains(t, p.lastMsgs[1].Content, "# auth module")
	assert.Contains(t, p.lastMsgs[2].Content, "how does login work")
	embedder.AssertExpectations(t)
}

func TestQueryLanguageFilter(t *testing.T) {
	embedder := new(MockEmbedder)
	embedder.On("EmbedQuery", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)

	p := &stubProvider{name: "ollama", response: "ok"}
	o, _ := newOrchestrator(t, embedder, p)

	result, err := o.Query(context.Background(), QueryRequest{
		Query:     "login",
		Languages: []string{"go"},
	})
	require.NoError(t, err)
	require.Len(t, result.RetrievedChunks, 1)
	assert.Equal(t, "go", result.RetrievedChunks[0].Chunk.Language)
}

func TestQueryNoRetrievalStillAnswers(t *testing.T) {
	embedder := new(MockEmbedder)
	// Orthogonal vector retrieves nothing above the threshold.
	embedder.On("EmbedQuery", mock.Anything, mock.Anything).Return([]float32{0, 0, 1}, nil)

	p := &stubProvider{name: "ollama", response: "nothing indexed matches"}
	o, _ := newOrchestrator(t, embedder, p)

	result, err := o.Query(context.Background(), QueryRequest{Query: "unrelated"})
	require.NoError(t, err)

	assert.Empty(t, result.RetrievedChunks)
	assert.Equal(t, 0.0, result.RetrievalScore)
	assert.Equal(t, "nothing indexed matches", result.Response)
}

func TestQueryNoProvider(t *testing.T) {
	embedder := new(MockEmbedder)
	embedder.On("EmbedQuery", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)

	o := NewOrchestrator(embedder, seededStore(t), &stubSelector{err: domain.ErrNoProviderAvailable},
		domain.ProcessingModeAuto, "")

	_, err := o.Query(context.Background(), QueryRequest{Query: "q"})
	assert.ErrorIs(t, err, domain.ErrNoProviderAvailable)
}

func TestStreamQuery(t *testing.T) {
	embedder := new(MockEmbedder)
	embedder.On("EmbedQuery", mock.Anything, mock.Anything).Return([]float32{1, 0, 0}, nil)

	p := &stubProvider{name: "ollama", chunks: []string{"log", "in ", "works"}}
	o, _ := newOrchestrator(t, embedder, p)

	var got []string
	result, err := o.StreamQuery(context.Background(), QueryRequest{Query: "login"}, func(chunk string) error {
		got = append(got, chunk)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"log", "in ", "works"}, got)
	assert.Empty(t, result.Response)
	assert.Len(t, result.RetrievedChunks, 2)
	assert.Equal(t, "ollama:stub-model", result.ModelUsed)
}

func TestExplainIncludesRelated(t *testing.T) {
	embedder := new(MockEmbedder)
	embedder.On("EmbedQuery", mock.Anything, mock.MatchedBy(func(text string) bool {
		return strings.HasPrefix(text, "Language: python")
	})).Return([]float32{1, 0, 0}, nil).Once()

	p := &stubProvider{name: "ollama", response: "this code logs users in"}
	o, _ := newOrchestrator(t, embedder, p)

	result, err := o.Explain(context.Background(), ExplainRequest{
		Code:                "def login(user): ...",
		Language:            "python",
		FilePath:            "auth.py",
		IncludeDependencies: true,
		Level:               "expert",
	})
	require.NoError(t, err)

	assert.Equal(t, "this code logs users in", result.Response)
	require.Len(t, result.RetrievedChunks, 1)
	assert.Equal(t, "python", result.RetrievedChunks[0].Chunk.Language)

	assert.Contains(t, p.lastMsgs[1].Content, "auth.py")
	assert.Contains(t, p.lastMsgs[2].Content, "in-depth analysis")
	embedder.AssertExpectations(t)
}

func TestExplainWithoutDependencies(t *testing.T) {
	embedder := new(MockEmbedder)

	p := &stubProvider{name: "ollama", response: "explanation"}
	o, _ := newOrchestrator(t, embedder, p)

	result, err := o.Explain(context.Background(), ExplainRequest{
		Code:     "x = 1",
		Language: "python",
	})
	require.NoError(t, err)

	assert.Empty(t, result.RetrievedChunks)
	assert.Equal(t, 0.0, result.RetrievalScore)
	embedder.AssertNotCalled(t, "EmbedQuery")
}

func TestGenerateCodeUsesExamples(t *testing.T) {
	embedder := new(MockEmbedder)
	embedder.On("EmbedQuery", mock.Anything, mock.MatchedBy(func(text string) bool {
		return strings.Contains(text, "example")
	})).Return([]float32{1, 0, 0}, nil).Once()

	p := &stubProvider{name: "ollama", response: "def new_feature(): ..."}
	o, _ := newOrchestrator(t, embedder, p)

	result, err := o.GenerateCode(context.Background(), GenerateRequest{
		Prompt:       "a login helper",
		Language:     "python",
		Style:        "production",
		IncludeTests: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "def new_feature(): ...", result.Response)
	assert.Contains(t, p.lastMsgs[2].Content, "production-ready")
	assert.Contains(t, p.lastMsgs[2].Content, "unit tests")
	assert.InDelta(t, 0.2, float64(p.lastOpts.Temperature), 1e-6)
	embedder.AssertExpectations(t)
}

func TestFindSimilar(t *testing.T) {
	embedder := new(MockEmbedder)
	embedder.On("EmbedQuery", mock.Anything, "Code:\ndef login(user): ...").
		Return([]float32{1, 0, 0}, nil).Once()

	o, _ := newOrchestrator(t, embedder, &stubProvider{name: "ollama"})

	chunks, err := o.FindSimilar(context.Background(), SimilarRequest{
		Code:      "def login(user): ...",
		Language:  "python",
		Threshold: 0.9,
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "auth.py", chunks[0].Chunk.FilePath)
	embedder.AssertExpectations(t)
}

func TestBuildContextBlockEmpty(t *testing.T) {
	assert.Equal(t, "", BuildContextBlock(nil, true))
}

func TestBuildContextBlockFormat(t *testing.T) {
	chunks := []domain.ScoredChunk{{
		Score: 0.923,
		Chunk: domain.CodeChunk{
			Content: "func A() {}", Language: "go", FilePath: "a.go",
			LineStart: 3, LineEnd: 5, FunctionName: "A", Context: "// package a",
		},
	}}

	block := BuildContextBlock(chunks, true)
	assert.Contains(t, block, "## Code Chunk 1 (Score: 0.923)")
	assert.Contains(t, block, "**File:** a.go")
	assert.Contains(t, block, "**Lines:** 3-5")
	assert.Contains(t, block, "```go\nfunc A() {}\n```")
	assert.Contains(t, block, "// package a")

	withoutCtx := BuildContextBlock(chunks, false)
	assert.NotContains(t, withoutCtx, "// package a")
}

func TestRetrievalScoreMean(t *testing.T) {
	chunks := []domain.ScoredChunk{{Score: 0.8}, {Score: 0.6}}
	assert.InDelta(t, 0.7, meanScore(chunks), 1e-6)
	assert.Equal(t, 0.0, meanScore(nil))
}

// Orchestrator's store dependency stays behind the shared interface.
var _ vectorstore.Store = (*memory.Store)(nil)
