package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/seekr-dev/seekr/internal/api"
	"github.com/seekr-dev/seekr/internal/domain"
	"github.com/seekr-dev/seekr/internal/rag"
)

// RAGService is the slice of the orchestrator the handlers need.
type RAGService interface {
	Query(ctx context.Context, req rag.QueryRequest) (*rag.Result, error)
	Explain(ctx context.Context, req rag.ExplainRequest) (*rag.Result, error)
	GenerateCode(ctx context.Context, req rag.GenerateRequest) (*rag.Result, error)
	FindSimilar(ctx context.Context, req rag.SimilarRequest) ([]domain.ScoredChunk, error)
}

type RAGHandler struct {
	svc RAGService
}

func NewRAGHandler(svc RAGService) *RAGHandler {
	return &RAGHandler{svc: svc}
}

type QueryRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	Threshold      float32  `json:"similarity_threshold"`
	Languages      []string `json:"languages"`
	IncludeContext bool     `json:"include_context"`
	Provider       string   `json:"provider"`
	Model          string   `json:"model"`
}

type ChunkResponse struct {
	ID           string   `json:"id"`
	FilePath     string   `json:"file_path"`
	Language     string   `json:"language"`
	LineStart    int      `json:"line_start"`
	LineEnd      int      `json:"line_end"`
	Kind         string   `json:"kind"`
	Content      string   `json:"content"`
	FunctionName string   `json:"function_name,omitempty"`
	ClassName    string   `json:"class_name,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Score        float32  `json:"score"`
}

type RAGResponse struct {
	Response         string          `json:"response"`
	RetrievedChunks  []ChunkResponse `json:"retrieved_chunks"`
	RetrievalScore   float64         `json:"retrieval_score"`
	ModelUsed        string          `json:"model_used"`
	ProcessingTimeMS int64           `json:"processing_time_ms"`
}

func chunkToResponse(sc domain.ScoredChunk) ChunkResponse {
	return ChunkResponse{
		ID:           sc.Chunk.ID,
		FilePath:     sc.Chunk.FilePath,
		Language:     sc.Chunk.Language,
		LineStart:    sc.Chunk.LineStart,
		LineEnd:      sc.Chunk.LineEnd,
		Kind:         string(sc.Chunk.Kind),
		Content:      sc.Chunk.Content,
		FunctionName: sc.Chunk.FunctionName,
		ClassName:    sc.Chunk.ClassName,
		Dependencies: sc.Chunk.Dependencies,
		Score:        sc.Score,
	}
}

func ragToResponse(res *rag.Result) *RAGResponse {
	chunks := make([]ChunkResponse, 0, len(res.RetrievedChunks))
	for _, sc := range res.RetrievedChunks {
		chunks = append(chunks, chunkToResponse(sc))
	}
	return &RAGResponse{
		Response:         res.Response,
		RetrievedChunks:  chunks,
		RetrievalScore:   res.RetrievalScore,
		ModelUsed:        res.ModelUsed,
		ProcessingTimeMS: res.ProcessingTime.Milliseconds(),
	}
}

func (h *RAGHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.svc.Query(r.Context(), rag.QueryRequest{
		Query:          req.Query,
		MaxResults:     req.MaxResults,
		Threshold:      req.Threshold,
		Languages:      req.Languages,
		IncludeContext: req.IncludeContext,
		Provider:       req.Provider,
		Model:          req.Model,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ragToResponse(result))
}

type ExplainRequest struct {
	Code                string `json:"code"`
	Language            string `json:"language"`
	FilePath            string `json:"file_path"`
	IncludeDependencies bool   `json:"include_dependencies"`
	Level               string `json:"level"`
	Provider            string `json:"provider"`
	Model               string `json:"model"`
}

func (h *RAGHandler) Explain(w http.ResponseWriter, r *http.Request) {
	var req ExplainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Code == "" {
		api.Error(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Language == "" {
		api.Error(w, http.StatusBadRequest, "language is required")
		return
	}

	result, err := h.svc.Explain(r.Context(), rag.ExplainRequest{
		Code:                req.Code,
		Language:            req.Language,
		FilePath:            req.FilePath,
		IncludeDependencies: req.IncludeDependencies,
		Level:               req.Level,
		Provider:            req.Provider,
		Model:               req.Model,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ragToResponse(result))
}

type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	Language     string `json:"language"`
	Context      string `json:"context"`
	Style        string `json:"style"`
	IncludeTests bool   `json:"include_tests"`
	IncludeDocs  bool   `json:"include_docs"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
}

func (h *RAGHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Prompt == "" {
		api.Error(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if req.Language == "" {
		api.Error(w, http.StatusBadRequest, "language is required")
		return
	}

	result, err := h.svc.GenerateCode(r.Context(), rag.GenerateRequest{
		Prompt:       req.Prompt,
		Language:     req.Language,
		Context:      req.Context,
		Style:        req.Style,
		IncludeTests: req.IncludeTests,
		IncludeDocs:  req.IncludeDocs,
		Provider:     req.Provider,
		Model:        req.Model,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ragToResponse(result))
}

type SimilarRequest struct {
	Code       string  `json:"code"`
	Language   string  `json:"language"`
	Threshold  float32 `json:"similarity_threshold"`
	MaxResults int     `json:"max_results"`
}

type SimilarResponse struct {
	Chunks []ChunkResponse `json:"chunks"`
}

func (h *RAGHandler) Similar(w http.ResponseWriter, r *http.Request) {
	var req SimilarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Code == "" {
		api.Error(w, http.StatusBadRequest, "code is required")
		return
	}

	chunks, err := h.svc.FindSimilar(r.Context(), rag.SimilarRequest{
		Code:       req.Code,
		Language:   req.Language,
		Threshold:  req.Threshold,
		MaxResults: req.MaxResults,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := SimilarResponse{Chunks: make([]ChunkResponse, 0, len(chunks))}
	for _, sc := range chunks {
		resp.Chunks = append(resp.Chunks, chunkToResponse(sc))
	}
	api.Success(w, http.StatusOK, resp)
}
