package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/seekr-dev/seekr/internal/domain"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

func costPtr(v float64) *float64 { return &v }

// openAICatalog is the fixed model catalog reported for OpenAI.
var openAICatalog = []domain.ModelInfo{
	{ID: "gpt-4o", Name: "GPT-4o", ContextLength: 128000, Recommended: true, CostPer1KTokens: costPtr(0.005)},
	{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", ContextLength: 128000, CostPer1KTokens: costPtr(0.01)},
	{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", ContextLength: 16385, CostPer1KTokens: costPtr(0.0005)},
}

// groqCatalog is the fixed model catalog reported for Groq.
var groqCatalog = []domain.ModelInfo{
	{ID: "llama-3.1-70b-versatile", Name: "Llama 3.1 70B", ContextLength: 131072, Recommended: true, CostPer1KTokens: costPtr(0.00059)},
	{ID: "mixtral-8x7b-32768", Name: "Mixtral 8x7B", ContextLength: 32768, CostPer1KTokens: costPtr(0.00024)},
}

// OpenAICompat serves hosted models through any OpenAI-compatible chat API.
type OpenAICompat struct {
	name    string
	client  *openai.Client
	catalog []domain.ModelInfo
}

// NewOpenAI creates the OpenAI provider. A non-positive timeout falls back
// to DefaultGenerateTimeout.
func NewOpenAI(apiKey string, timeout time.Duration) *OpenAICompat {
	return &OpenAICompat{
		name:    "openai",
		client:  openai.NewClientWithConfig(compatConfig(apiKey, "", timeout)),
		catalog: openAICatalog,
	}
}

// NewGroq creates the Groq provider on the OpenAI-compatible endpoint.
func NewGroq(apiKey string, timeout time.Duration) *OpenAICompat {
	return &OpenAICompat{
		name:    "groq",
		client:  openai.NewClientWithConfig(compatConfig(apiKey, groqBaseURL, timeout)),
		catalog: groqCatalog,
	}
}

func compatConfig(apiKey, baseURL string, timeout time.Duration) openai.ClientConfig {
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return cfg
}

// newCompatWithClient is the test seam.
func newCompatWithClient(name string, client *openai.Client, catalog []domain.ModelInfo) *OpenAICompat {
	return &OpenAICompat{name: name, client: client, catalog: catalog}
}

func (p *OpenAICompat) Name() string { return p.name }

func (p *OpenAICompat) Kind() domain.ProviderKind { return domain.ProviderKindOnline }

// HealthCheck probes the models endpoint and reports the fixed catalog.
func (p *OpenAICompat) HealthCheck(ctx context.Context) ([]domain.ModelInfo, error) {
	models, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s unreachable: %w", p.name, err)
	}
	if len(models.Models) == 0 {
		return nil, fmt.Errorf("%s reports no models", p.name)
	}
	return p.catalog, nil
}

func (p *OpenAICompat) request(messages []Message, opts GenerateOptions) openai.ChatCompletionRequest {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    chatMessages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
}

func (p *OpenAICompat) Generate(ctx context.Context, messages []Message, opts GenerateOptions) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.request(messages, opts))
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAICompat) Stream(ctx context.Context, messages []Message, opts GenerateOptions, fn func(chunk string) error) error {
	req := p.request(messages, opts)
	req.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return fmt.Errorf("%s chat stream: %w", p.name, err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s stream recv: %w", p.name, err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := fn(delta); err != nil {
			return err
		}
	}
}
