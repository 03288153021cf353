// Package rag runs the retrieval-augmented pipeline: embed, search, format
// context, generate.
package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/seekr-dev/seekr/internal/domain"
	"github.com/seekr-dev/seekr/internal/provider"
	"github.com/seekr-dev/seekr/internal/vectorstore"
)

// Embedder is the slice of the embedding service the pipeline needs.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Selector picks a generation provider and model.
type Selector interface {
	Select(mode domain.ProcessingMode, preferred string) (*provider.Selection, error)
}

// Result is the outcome of one pipeline run.
type Result struct {
	Response        string
	RetrievedChunks []domain.ScoredChunk
	ProcessingTime  time.Duration
	ModelUsed       string
	// RetrievalScore is the mean similarity of retrieved chunks, 0 when
	// nothing was retrieved.
	RetrievalScore float64
}

// Orchestrator wires the embedding service, index store, and provider
// registry into the four retrieval operations.
type Orchestrator struct {
	embedder  Embedder
	store     vectorstore.Store
	selector  Selector
	mode      domain.ProcessingMode
	preferred string
}

func NewOrchestrator(embedder Embedder, store vectorstore.Store, selector Selector, mode domain.ProcessingMode, preferred string) *Orchestrator {
	return &Orchestrator{
		embedder:  embedder,
		store:     store,
		selector:  selector,
		mode:      mode,
		preferred: preferred,
	}
}

// QueryRequest asks a natural-language question about the codebase.
type QueryRequest struct {
	Query          string
	MaxResults     int
	Threshold      float32
	Languages      []string
	IncludeContext bool
	Provider       string
	Model          string
}

func (o *Orchestrator) retrieve(ctx context.Context, text string, limit int, threshold float32, filters domain.SearchFilters) ([]domain.ScoredChunk, error) {
	vector, err := o.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	return o.store.Search(ctx, vectorstore.SearchParams{
		Vector:         vector,
		Limit:          limit,
		ScoreThreshold: threshold,
		Filters:        filters,
	})
}

func (o *Orchestrator) generate(ctx context.Context, prompt, contextBlock, preferredProvider, model string, opts provider.GenerateOptions) (string, string, error) {
	sel, err := o.selectProvider(preferredProvider)
	if err != nil {
		return "", "", err
	}
	if model == "" {
		model = sel.Model
	}
	opts.Model = model

	response, err := sel.Provider.Generate(ctx, provider.BuildMessages(prompt, contextBlock), opts)
	if err != nil {
		return "", "", domain.NewDomainErrorWithCause(domain.ErrCodeModelUnavailable,
			fmt.Sprintf("generation with %s failed", sel.Provider.Name()), err)
	}
	return response, fmt.Sprintf("%s:%s", sel.Provider.Name(), model), nil
}

func (o *Orchestrator) selectProvider(requestPreferred string) (*provider.Selection, error) {
	preferred := requestPreferred
	if preferred == "" {
		preferred = o.preferred
	}
	return o.selector.Select(o.mode, preferred)
}

func meanScore(chunks []domain.ScoredChunk) float64 {
	if len(chunks) == 0 {
		return 0.0
	}
	var sum float64
	for _, c := range chunks {
		sum += float64(c.Score)
	}
	return sum / float64(len(chunks))
}

// Query answers a question about the codebase from retrieved chunks.
func (o *Orchestrator) Query(ctx context.Context, req QueryRequest) (*Result, error) {
	start := time.Now()

	limit := req.MaxResults
	if limit <= 0 {
		limit = vectorstore.DefaultSearchLimit
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = vectorstore.DefaultScoreThreshold
	}

	var filters domain.SearchFilters
	if len(req.Languages) > 0 {
		filters = domain.SearchFilters{"language": req.Languages}
	}

	chunks, err := o.retrieve(ctx, req.Query, limit, threshold, filters)
	if err != nil {
		return nil, err
	}

	contextBlock := BuildContextBlock(chunks, req.IncludeContext)
	prompt := QueryPrompt(req.Query, len(chunks))

	response, modelUsed, err := o.generate(ctx, prompt, contextBlock, req.Provider, req.Model, provider.GenerateOptions{
		MaxTokens:   2048,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Response:        response,
		RetrievedChunks: chunks,
		ProcessingTime:  time.Since(start),
		ModelUsed:       modelUsed,
		RetrievalScore:  meanScore(chunks),
	}, nil
}

// StreamQuery runs the query pipeline but delivers the response through fn.
// The returned result carries retrieval metadata; Response stays empty.
func (o *Orchestrator) StreamQuery(ctx context.Context, req QueryRequest, fn func(chunk string) error) (*Result, error) {
	start := time.Now()

	limit := req.MaxResults
	if limit <= 0 {
		limit = vectorstore.DefaultSearchLimit
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = vectorstore.DefaultScoreThreshold
	}

	var filters domain.SearchFilters
	if len(req.Languages) > 0 {
		filters = domain.SearchFilters{"language": req.Languages}
	}

	chunks, err := o.retrieve(ctx, req.Query, limit, threshold, filters)
	if err != nil {
		return nil, err
	}

	sel, err := o.selectProvider(req.Provider)
	if err != nil {
		return nil, err
	}
	model := req.Model
	if model == "" {
		model = sel.Model
	}

	contextBlock := BuildContextBlock(chunks, req.IncludeContext)
	messages := provider.BuildMessages(QueryPrompt(req.Query, len(chunks)), contextBlock)

	err = sel.Provider.Stream(ctx, messages, provider.GenerateOptions{
		Model:       model,
		MaxTokens:   2048,
		Temperature: 0.1,
	}, fn)
	if err != nil {
		return nil, err
	}

	return &Result{
		RetrievedChunks: chunks,
		ProcessingTime:  time.Since(start),
		ModelUsed:       fmt.Sprintf("%s:%s", sel.Provider.Name(), model),
		RetrievalScore:  meanScore(chunks),
	}, nil
}

// ExplainRequest asks for an explanation of a code snippet.
type ExplainRequest struct {
	Code                string
	Language            string
	FilePath            string
	IncludeDependencies bool
	// Level is basic, detailed, or expert; detailed when empty.
	Level    string
	Provider string
	Model    string
}

// Explain describes a code snippet, drawing on related chunks.
func (o *Orchestrator) Explain(ctx context.Context, req ExplainRequest) (*Result, error) {
	start := time.Now()

	var chunks []domain.ScoredChunk
	if req.IncludeDependencies {
		var filters domain.SearchFilters
		if req.Language != "" {
			filters = domain.SearchFilters{"language": {req.Language}}
		}
		var err error
		chunks, err = o.retrieve(ctx, fmt.Sprintf("Language: %s\nCode:\n%s", req.Language, req.Code), 5, 0.6, filters)
		if err != nil {
			return nil, err
		}
	}

	contextBlock := ExplanationContext(req.FilePath, chunks)
	prompt := ExplanationPrompt(req.Code, req.Language, req.Level)

	response, modelUsed, err := o.generate(ctx, prompt, contextBlock, req.Provider, req.Model, provider.GenerateOptions{
		MaxTokens:   1500,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Response:        response,
		RetrievedChunks: chunks,
		ProcessingTime:  time.Since(start),
		ModelUsed:       modelUsed,
		RetrievalScore:  meanScore(chunks),
	}, nil
}

// GenerateRequest asks for new code.
type GenerateRequest struct {
	Prompt   string
	Language string
	Context  string
	// Style is concise, detailed, or production; detailed when empty.
	Style        string
	IncludeTests bool
	IncludeDocs  bool
	Provider     string
	Model        string
}

// GenerateCode produces code guided by similar indexed examples.
func (o *Orchestrator) GenerateCode(ctx context.Context, req GenerateRequest) (*Result, error) {
	start := time.Now()

	chunks, err := o.retrieve(ctx,
		fmt.Sprintf("%s %s example", req.Prompt, req.Language),
		3, 0.5, domain.SearchFilters{"language": {req.Language}})
	if err != nil {
		return nil, err
	}

	contextBlock := GenerationContext(chunks, req.Language)
	if req.Context != "" {
		contextBlock = req.Context + "\n\n" + contextBlock
	}
	prompt := GenerationPrompt(req.Prompt, req.Language, req.Style, req.IncludeTests, req.IncludeDocs)

	response, modelUsed, err := o.generate(ctx, prompt, contextBlock, req.Provider, req.Model, provider.GenerateOptions{
		MaxTokens:   2048,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Response:        response,
		RetrievedChunks: chunks,
		ProcessingTime:  time.Since(start),
		ModelUsed:       modelUsed,
		RetrievalScore:  meanScore(chunks),
	}, nil
}

// SimilarRequest looks for code resembling a snippet.
type SimilarRequest struct {
	Code       string
	Language   string
	Threshold  float32
	MaxResults int
}

// FindSimilar returns indexed chunks similar to the given code. No
// generation is involved.
func (o *Orchestrator) FindSimilar(ctx context.Context, req SimilarRequest) ([]domain.ScoredChunk, error) {
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = 0.8
	}
	limit := req.MaxResults
	if limit <= 0 {
		limit = vectorstore.DefaultSearchLimit
	}

	var filters domain.SearchFilters
	if req.Language != "" {
		filters = domain.SearchFilters{"language": {req.Language}}
	}
	return o.retrieve(ctx, "Code:\n"+req.Code, limit, threshold, filters)
}
