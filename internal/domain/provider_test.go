package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderStatus_RecommendedModel(t *testing.T) {
	status := &ProviderStatus{
		Name: "ollama",
		Models: []ModelInfo{
			{ID: "codellama:7b"},
			{ID: "deepseek-coder:6.7b", Recommended: true},
		},
	}

	model := status.RecommendedModel()
	assert.NotNil(t, model)
	assert.Equal(t, "deepseek-coder:6.7b", model.ID)
}

func TestProviderStatus_RecommendedModel_FallsBackToFirst(t *testing.T) {
	status := &ProviderStatus{
		Models: []ModelInfo{{ID: "first"}, {ID: "second"}},
	}

	model := status.RecommendedModel()
	assert.NotNil(t, model)
	assert.Equal(t, "first", model.ID)
}

func TestProviderStatus_RecommendedModel_NoModels(t *testing.T) {
	status := &ProviderStatus{}
	assert.Nil(t, status.RecommendedModel())
}

func TestProviderStatus_Usable(t *testing.T) {
	status := &ProviderStatus{Available: true}
	assert.False(t, status.Usable(), "available but no models")

	status.Models = []ModelInfo{{ID: "m"}}
	assert.True(t, status.Usable())

	status.Available = false
	assert.False(t, status.Usable())
}

func TestProviderStatus_MatchesMode(t *testing.T) {
	local := &ProviderStatus{Kind: ProviderKindLocal}
	online := &ProviderStatus{Kind: ProviderKindOnline}

	assert.True(t, local.MatchesMode(ProcessingModeAuto))
	assert.True(t, local.MatchesMode(ProcessingModeLocal))
	assert.False(t, local.MatchesMode(ProcessingModeOnline))
	assert.True(t, online.MatchesMode(ProcessingModeOnline))
	assert.False(t, online.MatchesMode(ProcessingModeLocal))
}

func TestParseProcessingMode(t *testing.T) {
	mode, err := ParseProcessingMode("")
	assert.NoError(t, err)
	assert.Equal(t, ProcessingModeAuto, mode)

	mode, err = ParseProcessingMode("local")
	assert.NoError(t, err)
	assert.Equal(t, ProcessingModeLocal, mode)

	_, err = ParseProcessingMode("hybrid")
	assert.Error(t, err)
}
