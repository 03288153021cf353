package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/seekr-dev/seekr/internal/api"
	"github.com/seekr-dev/seekr/internal/domain"
)

// HealthChecker probes one backing component.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ProviderStatuses reads the provider registry's health snapshot.
type ProviderStatuses interface {
	Statuses() []domain.ProviderStatus
}

type HealthHandler struct {
	store     HealthChecker
	providers ProviderStatuses
}

func NewHealthHandler(store HealthChecker, providers ProviderStatuses) *HealthHandler {
	return &HealthHandler{store: store, providers: providers}
}

type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type ProviderHealth struct {
	Name           string `json:"name"`
	Kind           string `json:"kind"`
	Available      bool   `json:"available"`
	Models         int    `json:"models"`
	ResponseTimeMS int64  `json:"response_time_ms"`
	Error          string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status    string           `json:"status"`
	Store     ComponentHealth  `json:"store"`
	Providers []ProviderHealth `json:"providers"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok"}

	if err := h.store.HealthCheck(ctx); err != nil {
		resp.Status = "degraded"
		resp.Store = ComponentHealth{Status: "down", Error: err.Error()}
	} else {
		resp.Store = ComponentHealth{Status: "ok"}
	}

	anyProvider := false
	for _, st := range h.providers.Statuses() {
		if st.Usable() {
			anyProvider = true
		}
		resp.Providers = append(resp.Providers, ProviderHealth{
			Name:           st.Name,
			Kind:           string(st.Kind),
			Available:      st.Available,
			Models:         len(st.Models),
			ResponseTimeMS: st.ResponseTime.Milliseconds(),
			Error:          st.Error,
		})
	}
	if !anyProvider {
		resp.Status = "degraded"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	api.Success(w, status, resp)
}
