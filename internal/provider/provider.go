// Package provider integrates generation backends behind one interface and
// selects among them by health and latency.
package provider

import (
	"context"

	"github.com/seekr-dev/seekr/internal/domain"
)

// Message is one chat turn sent to a backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenerateOptions tune one generation call. A zero Model means the
// provider's recommended model.
type GenerateOptions struct {
	Model       string
	MaxTokens   int
	Temperature float32
}

const (
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.1
)

// Provider is one generation backend.
type Provider interface {
	Name() string
	Kind() domain.ProviderKind
	// HealthCheck probes the backend and reports its models.
	HealthCheck(ctx context.Context) ([]domain.ModelInfo, error)
	// Generate returns the full response for a conversation.
	Generate(ctx context.Context, messages []Message, opts GenerateOptions) (string, error)
	// Stream delivers the response incrementally through fn; a non-nil
	// return from fn aborts the stream with that error.
	Stream(ctx context.Context, messages []Message, opts GenerateOptions, fn func(chunk string) error) error
}

// SystemPrompt frames every conversation sent to a backend.
const SystemPrompt = `You are an expert AI coding assistant with deep knowledge of multiple programming languages and software development practices.

Your capabilities include:
- Analyzing and explaining code with detailed context
- Generating high-quality, production-ready code
- Suggesting improvements and refactoring opportunities
- Finding similar code patterns and potential duplications
- Providing comprehensive documentation and comments

Guidelines:
- Always provide accurate, well-structured responses
- Include relevant code examples when helpful
- Explain complex concepts clearly
- Consider security, performance, and maintainability
- Use appropriate programming language conventions
- Be concise but thorough in explanations`

// BuildMessages assembles the message array for one task: system prompt,
// optional retrieved-code context, then the user prompt.
func BuildMessages(prompt, contextBlock string) []Message {
	messages := []Message{{Role: RoleSystem, Content: SystemPrompt}}
	if contextBlock != "" {
		messages = append(messages, Message{
			Role:    RoleSystem,
			Content: "Here is relevant code context:\n\n" + contextBlock,
		})
	}
	return append(messages, Message{Role: RoleUser, Content: prompt})
}
