package domain

import (
	"fmt"
	"time"
)

// ProviderKind distinguishes local from hosted generation backends
type ProviderKind string

const (
	ProviderKindLocal  ProviderKind = "local"
	ProviderKindOnline ProviderKind = "online"
)

// ProcessingMode restricts which provider kinds the orchestrator may select
type ProcessingMode string

const (
	ProcessingModeAuto   ProcessingMode = "auto"
	ProcessingModeLocal  ProcessingMode = "local"
	ProcessingModeOnline ProcessingMode = "online"
)

// ModelInfo describes one model a provider can serve.
type ModelInfo struct {
	ID            string
	Name          string
	ContextLength int
	Recommended   bool
	// CostPer1KTokens is nil for local models.
	CostPer1KTokens *float64
}

// ProviderStatus is the run-time health snapshot of one generation backend.
// It is refreshed by health sweeps and never persisted.
type ProviderStatus struct {
	Name         string
	Kind         ProviderKind
	Available    bool
	Models       []ModelInfo
	ResponseTime time.Duration
	CheckedAt    time.Time
	Error        string
}

// RecommendedModel returns the model marked recommended, or the first model
// when none is marked, or nil when the provider has no models.
func (s *ProviderStatus) RecommendedModel() *ModelInfo {
	for i := range s.Models {
		if s.Models[i].Recommended {
			return &s.Models[i]
		}
	}
	if len(s.Models) > 0 {
		return &s.Models[0]
	}
	return nil
}

// Usable reports whether the provider can serve a generation request.
func (s *ProviderStatus) Usable() bool {
	return s.Available && len(s.Models) > 0
}

// MatchesMode reports whether the provider kind satisfies a processing mode.
func (s *ProviderStatus) MatchesMode(mode ProcessingMode) bool {
	switch mode {
	case ProcessingModeLocal:
		return s.Kind == ProviderKindLocal
	case ProcessingModeOnline:
		return s.Kind == ProviderKindOnline
	default:
		return true
	}
}

// ParseProcessingMode parses a configured mode string, defaulting to auto.
func ParseProcessingMode(s string) (ProcessingMode, error) {
	switch ProcessingMode(s) {
	case ProcessingModeAuto, "":
		return ProcessingModeAuto, nil
	case ProcessingModeLocal:
		return ProcessingModeLocal, nil
	case ProcessingModeOnline:
		return ProcessingModeOnline, nil
	}
	return "", fmt.Errorf("invalid processing mode: %q", s)
}
