package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/seekr-dev/seekr/internal/api/handlers"
	"github.com/seekr-dev/seekr/internal/api/middleware"
)

type RouterConfig struct {
	RAGHandler    *handlers.RAGHandler
	IndexHandler  *handlers.IndexHandler
	HealthHandler *handlers.HealthHandler
	StreamHandler *handlers.StreamHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.HealthHandler.Health)

	r.Post("/query", cfg.RAGHandler.Query)
	r.Post("/explain", cfg.RAGHandler.Explain)
	r.Post("/generate", cfg.RAGHandler.Generate)
	r.Post("/similar", cfg.RAGHandler.Similar)

	r.Post("/index", cfg.IndexHandler.Index)
	r.Delete("/index/file", cfg.IndexHandler.DeleteFile)
	r.Get("/stats", cfg.IndexHandler.Stats)

	r.Get("/stream", cfg.StreamHandler.Stream)

	return r
}
