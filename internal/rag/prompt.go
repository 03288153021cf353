package rag

import (
	"fmt"
	"strings"

	"github.com/seekr-dev/seekr/internal/domain"
)

// BuildContextBlock formats retrieved chunks for the generation prompt.
func BuildContextBlock(chunks []domain.ScoredChunk, includeContext bool) string {
	if len(chunks) == 0 {
		return ""
	}

	parts := make([]string, 0, len(chunks))
	for i, sc := range chunks {
		c := sc.Chunk
		var b strings.Builder
		fmt.Fprintf(&b, "## Code Chunk %d (Score: %.3f)\n", i+1, sc.Score)
		fmt.Fprintf(&b, "**File:** %s\n", c.FilePath)
		fmt.Fprintf(&b, "**Language:** %s\n", c.Language)
		if c.FunctionName != "" {
			fmt.Fprintf(&b, "**Function:** %s\n", c.FunctionName)
		}
		if c.ClassName != "" {
			fmt.Fprintf(&b, "**Class:** %s\n", c.ClassName)
		}
		fmt.Fprintf(&b, "**Lines:** %d-%d\n\n", c.LineStart, c.LineEnd)
		fmt.Fprintf(&b, "```%s\n%s\n```\n", c.Language, c.Content)
		if includeContext && c.Context != "" {
			fmt.Fprintf(&b, "\n**Context:**\n```%s\n%s\n```\n", c.Language, c.Context)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

// ExplanationContext summarizes where a snippet lives and what resembles it.
func ExplanationContext(filePath string, related []domain.ScoredChunk) string {
	var parts []string
	if filePath != "" {
		parts = append(parts, fmt.Sprintf("**File Path:** %s", filePath))
	}
	if len(related) > 0 {
		parts = append(parts, "**Related Code Examples:**")
		limit := len(related)
		if limit > 3 {
			limit = 3
		}
		for _, sc := range related[:limit] {
			name := sc.Chunk.FunctionName
			if name == "" {
				name = "unknown"
			}
			parts = append(parts, fmt.Sprintf("- %s (%s)", sc.Chunk.FilePath, name))
		}
	}
	return strings.Join(parts, "\n")
}

// GenerationContext offers indexed examples to imitate.
func GenerationContext(examples []domain.ScoredChunk, language string) string {
	if len(examples) == 0 {
		return fmt.Sprintf("Generate %s code following best practices.", language)
	}

	parts := []string{fmt.Sprintf("Here are some %s code examples for reference:", language)}
	limit := len(examples)
	if limit > 2 {
		limit = 2
	}
	for i, sc := range examples[:limit] {
		parts = append(parts, fmt.Sprintf("\n**Example %d:**", i+1))
		parts = append(parts, fmt.Sprintf("```%s\n%s\n```", language, sc.Chunk.Content))
	}
	return strings.Join(parts, "\n")
}

// QueryPrompt frames a codebase question.
func QueryPrompt(query string, numChunks int) string {
	return fmt.Sprintf(`Based on the provided code context, please answer the following question about the codebase:

**Question:** %s

**Instructions:**
- Use the provided code chunks as your primary source of information
- Reference specific files, functions, or classes when relevant
- If the context doesn't contain enough information, clearly state what's missing
- Provide code examples from the context when helpful
- Be specific and accurate in your response

**Context:** %d relevant code chunks are provided below.`, query, numChunks)
}

var explanationLevels = map[string]string{
	"basic":    "Provide a simple, high-level explanation suitable for beginners",
	"detailed": "Provide a comprehensive explanation with technical details",
	"expert":   "Provide an in-depth analysis including performance, security, and architectural considerations",
}

// ExplanationPrompt frames a code explanation at the requested level.
func ExplanationPrompt(code, language, level string) string {
	instruction, ok := explanationLevels[level]
	if !ok {
		instruction = explanationLevels["detailed"]
	}

	return fmt.Sprintf("Please explain the following %s code:\n\n```%s\n%s\n```\n\n**Instructions:**\n- %s\n- Explain what the code does and how it works\n- Identify key components, patterns, and techniques used\n- Mention any potential issues or improvements\n- Reference related code from the context if available",
		language, language, code, instruction)
}

// GenerationPrompt frames a code generation task.
func GenerationPrompt(prompt, language, style string, includeTests, includeDocs bool) string {
	lines := []string{
		fmt.Sprintf("Generate %s code based on the following requirements:", language),
		fmt.Sprintf("**Requirements:** %s", prompt),
		"",
		"**Guidelines:**",
	}

	switch style {
	case "concise":
		lines = append(lines, "- Write concise, minimal code")
	case "production":
		lines = append(lines, "- Write production-ready code with error handling and validation")
	default:
		lines = append(lines, "- Write well-structured, readable code with comments")
	}

	lines = append(lines,
		fmt.Sprintf("- Follow %s best practices and conventions", language),
		"- Use appropriate data structures and algorithms",
		"- Include type hints/annotations where applicable",
	)
	if includeDocs {
		lines = append(lines, "- Include comprehensive documentation/docstrings")
	}
	if includeTests {
		lines = append(lines, "- Include unit tests for the generated code")
	}
	lines = append(lines, "- Use examples from the context as reference when relevant")

	return strings.Join(lines, "\n")
}
