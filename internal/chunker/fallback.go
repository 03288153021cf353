package chunker

import (
	"regexp"
	"strings"

	"github.com/seekr-dev/seekr/internal/domain"
)

// windowLines is the span of each last-resort line window.
const windowLines = 40

// parseWithPatterns is the structural fallback: line-oriented signature
// matching for functions, classes, and imports. A signature match opens a
// block that runs until the next signature or a dedent back to the
// signature's indentation level.
func parseWithPatterns(spec *LanguageSpec, filePath string, lines []string) ([]domain.CodeChunk, error) {
	type match struct {
		line int // 0-based
		kind domain.ChunkKind
		name string
	}

	var matches []match
	for i, line := range lines {
		switch {
		case spec.FunctionPattern != nil && spec.FunctionPattern.MatchString(line):
			matches = append(matches, match{i, domain.ChunkKindFunction, firstSubmatch(spec.FunctionPattern, line)})
		case spec.ClassPattern != nil && spec.ClassPattern.MatchString(line):
			matches = append(matches, match{i, domain.ChunkKindClass, firstSubmatch(spec.ClassPattern, line)})
		case spec.ImportPattern != nil && spec.ImportPattern.MatchString(line):
			matches = append(matches, match{i, domain.ChunkKindImport, ""})
		}
	}

	if len(matches) == 0 {
		return nil, nil
	}

	var chunks []domain.CodeChunk
	for idx, m := range matches {
		end := len(lines)
		if idx+1 < len(matches) {
			end = matches[idx+1].line
		}
		// Trim trailing blank lines off the block.
		for end > m.line+1 && strings.TrimSpace(lines[end-1]) == "" {
			end--
		}
		if m.kind == domain.ChunkKindImport {
			end = m.line + 1
		}

		startLine := m.line + 1
		endLine := end
		content := joinLines(lines, startLine, endLine)

		chunk := domain.CodeChunk{
			ID:        domain.ChunkID(filePath, startLine, endLine, m.kind),
			Content:   content,
			Kind:      m.kind,
			Language:  spec.Name,
			FilePath:  filePath,
			LineStart: startLine,
			LineEnd:   endLine,
		}
		switch m.kind {
		case domain.ChunkKindFunction:
			chunk.FunctionName = m.name
			chunk.ComplexityScore = Complexity(content)
		case domain.ChunkKindClass:
			chunk.ClassName = m.name
			chunk.ComplexityScore = Complexity(content)
		case domain.ChunkKindImport:
			chunk.ComplexityScore = 0.1
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

func firstSubmatch(re *regexp.Regexp, line string) string {
	sub := re.FindStringSubmatch(line)
	if len(sub) > 1 {
		return sub[1]
	}
	return ""
}

// windowChunks is the last resort: fixed-size line windows covering the
// whole file, so unparseable content still gets total coverage. Windows
// carry the variable kind since they have no structural identity.
// Oversized windows are re-split by splitOversized downstream.
func windowChunks(spec *LanguageSpec, filePath string, lines []string) []domain.CodeChunk {
	var chunks []domain.CodeChunk
	for start := 0; start < len(lines); start += windowLines {
		end := start + windowLines
		if end > len(lines) {
			end = len(lines)
		}
		startLine := start + 1
		endLine := end
		content := joinLines(lines, startLine, endLine)
		if strings.TrimSpace(content) == "" {
			continue
		}
		chunks = append(chunks, domain.CodeChunk{
			ID:              domain.ChunkID(filePath, startLine, endLine, domain.ChunkKindVariable),
			Content:         content,
			Kind:            domain.ChunkKindVariable,
			Language:        spec.Name,
			FilePath:        filePath,
			LineStart:       startLine,
			LineEnd:         endLine,
			ComplexityScore: Complexity(content),
		})
	}
	return chunks
}
