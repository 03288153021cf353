package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seekr-dev/seekr/internal/domain"
)

// defaultOllamaContext is assumed when Ollama does not report a window.
const defaultOllamaContext = 8192

// DefaultGenerateTimeout bounds one generation call when no timeout is
// configured.
const DefaultGenerateTimeout = 120 * time.Second

// Ollama serves local models through the Ollama HTTP API.
type Ollama struct {
	baseURL      string
	defaultModel string
	client       *http.Client
}

// NewOllama creates a provider for one Ollama instance. defaultModel marks
// the recommended model in health reports when present. A non-positive
// timeout falls back to DefaultGenerateTimeout.
func NewOllama(baseURL, defaultModel string, timeout time.Duration) *Ollama {
	if timeout <= 0 {
		timeout = DefaultGenerateTimeout
	}
	return &Ollama{
		baseURL:      baseURL,
		defaultModel: defaultModel,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (o *Ollama) Name() string { return "ollama" }

func (o *Ollama) Kind() domain.ProviderKind { return domain.ProviderKindLocal }

// HealthCheck lists installed models via /api/tags.
func (o *Ollama) HealthCheck(ctx context.Context) ([]domain.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("build tags request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama tags returned %d", resp.StatusCode)
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode tags response: %w", err)
	}

	models := make([]domain.ModelInfo, 0, len(result.Models))
	for _, m := range result.Models {
		models = append(models, domain.ModelInfo{
			ID:            m.Name,
			Name:          m.Name,
			ContextLength: defaultOllamaContext,
			Recommended:   m.Name == o.defaultModel,
		})
	}
	return models, nil
}

type ollamaChatRequest struct {
	Model    string            `json:"model"`
	Messages []Message         `json:"messages"`
	Stream   bool              `json:"stream"`
	Options  ollamaChatOptions `json:"options"`
}

type ollamaChatOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
}

type ollamaChatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

func (o *Ollama) chat(ctx context.Context, messages []Message, opts GenerateOptions, stream bool) (*http.Response, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	body, err := json.Marshal(ollamaChatRequest{
		Model:    opts.Model,
		Messages: messages,
		Stream:   stream,
		Options: ollamaChatOptions{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama chat request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("ollama chat returned %d: %s", resp.StatusCode, string(respBody))
	}
	return resp, nil
}

func (o *Ollama) Generate(ctx context.Context, messages []Message, opts GenerateOptions) (string, error) {
	resp, err := o.chat(ctx, messages, opts, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	return result.Message.Content, nil
}

// Stream reads the NDJSON chat stream, forwarding each delta to fn.
func (o *Ollama) Stream(ctx context.Context, messages []Message, opts GenerateOptions, fn func(chunk string) error) error {
	resp, err := o.chat(ctx, messages, opts, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return fmt.Errorf("decode stream chunk: %w", err)
		}
		if chunk.Message.Content != "" {
			if err := fn(chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read chat stream: %w", err)
	}
	return nil
}
