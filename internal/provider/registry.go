package provider

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/seekr-dev/seekr/internal/domain"
)

// Registry tracks configured providers and their health. Statuses start
// unavailable until the first sweep completes.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	statuses  map[string]domain.ProviderStatus
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		statuses:  make(map[string]domain.ProviderStatus),
	}
	for _, p := range providers {
		r.providers[p.Name()] = p
		r.statuses[p.Name()] = domain.ProviderStatus{
			Name: p.Name(),
			Kind: p.Kind(),
		}
	}
	return r
}

// Provider returns a registered provider by name.
func (r *Registry) Provider(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Statuses returns a snapshot of all provider statuses.
func (r *Registry) Statuses() []domain.ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ProviderStatus, 0, len(r.statuses))
	for _, s := range r.statuses {
		out = append(out, s)
	}
	return out
}

// Status returns the status snapshot for one provider.
func (r *Registry) Status(name string) (domain.ProviderStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.statuses[name]
	return s, ok
}

// Sweep probes every provider concurrently and refreshes the status table.
func (r *Registry) Sweep(ctx context.Context) {
	r.mu.RLock()
	providers := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}
	r.mu.RUnlock()

	var wg sync.WaitGroup
	for _, p := range providers {
		wg.Add(1)
		go func(p Provider) {
			defer wg.Done()
			r.probe(ctx, p)
		}(p)
	}
	wg.Wait()
}

func (r *Registry) probe(ctx context.Context, p Provider) {
	start := time.Now()
	models, err := p.HealthCheck(ctx)
	elapsed := time.Since(start)

	status := domain.ProviderStatus{
		Name:         p.Name(),
		Kind:         p.Kind(),
		Available:    err == nil,
		Models:       models,
		ResponseTime: elapsed,
		CheckedAt:    time.Now().UTC(),
	}
	if err != nil {
		status.Error = err.Error()
		log.Printf("provider %s unavailable: %v", p.Name(), err)
	}

	r.mu.Lock()
	r.statuses[p.Name()] = status
	r.mu.Unlock()
}

// Selection is the outcome of provider selection.
type Selection struct {
	Provider Provider
	Model    string
}

// Select picks a provider and model: the preferred provider when usable,
// else the lowest-latency usable provider matching the mode, else any
// usable provider, else NoProviderAvailable.
func (r *Registry) Select(mode domain.ProcessingMode, preferred string) (*Selection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if preferred != "" {
		if s, ok := r.statuses[preferred]; ok && s.Usable() {
			return &Selection{
				Provider: r.providers[preferred],
				Model:    s.RecommendedModel().ID,
			}, nil
		}
	}

	var best *domain.ProviderStatus
	for name := range r.statuses {
		s := r.statuses[name]
		if !s.Usable() || !s.MatchesMode(mode) {
			continue
		}
		if best == nil || s.ResponseTime < best.ResponseTime {
			best = &s
		}
	}
	if best != nil {
		return &Selection{
			Provider: r.providers[best.Name],
			Model:    best.RecommendedModel().ID,
		}, nil
	}

	for name := range r.statuses {
		s := r.statuses[name]
		if s.Usable() {
			return &Selection{
				Provider: r.providers[name],
				Model:    s.RecommendedModel().ID,
			}, nil
		}
	}

	return nil, domain.ErrNoProviderAvailable
}
