package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compatForServer(t *testing.T, handler http.Handler) (*OpenAICompat, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	return newCompatWithClient("openai", openai.NewClientWithConfig(cfg), openAICatalog), server
}

func TestOpenAIHealthCheckReportsCatalog(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"gpt-4o"}]}`)
	})
	p, server := compatForServer(t, mux)
	defer server.Close()

	models, err := p.HealthCheck(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, models)
	assert.Equal(t, "gpt-4o", models[0].ID)
	assert.True(t, models[0].Recommended)
	require.NotNil(t, models[0].CostPer1KTokens)
}

func TestOpenAIHealthCheckFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	})
	p, server := compatForServer(t, mux)
	defer server.Close()

	_, err := p.HealthCheck(context.Background())
	assert.Error(t, err)
}

func TestOpenAIGenerate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"generated code"}}]}`)
	})
	p, server := compatForServer(t, mux)
	defer server.Close()

	out, err := p.Generate(context.Background(), BuildMessages("write a function", ""),
		GenerateOptions{Model: "gpt-4o"})

	require.NoError(t, err)
	assert.Equal(t, "generated code", out)
}

func TestGroqUsesCompatEndpoint(t *testing.T) {
	p := NewGroq("key", 0)
	assert.Equal(t, "groq", p.Name())
	require.NotEmpty(t, p.catalog)
	assert.Equal(t, "llama-3.1-70b-versatile", p.catalog[0].ID)
}
