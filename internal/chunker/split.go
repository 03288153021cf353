package chunker

import (
	"strings"

	"github.com/seekr-dev/seekr/internal/domain"
)

// splitOversized splits any chunk whose content exceeds maxChunkSize
// characters into consecutive sub-chunks at line boundaries. Sub-chunks form
// a contiguous cover of the parent: joining their contents with newlines
// reconstructs the parent content exactly. Each sub-chunk inherits the
// parent's metadata, a proportionally scaled complexity score, and an id
// suffixed _part_N.
func splitOversized(chunks []domain.CodeChunk, maxChunkSize int) []domain.CodeChunk {
	if maxChunkSize <= 0 {
		return chunks
	}

	result := make([]domain.CodeChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Content) <= maxChunkSize {
			result = append(result, chunk)
			continue
		}
		result = append(result, splitChunk(chunk, maxChunkSize)...)
	}
	return result
}

func splitChunk(parent domain.CodeChunk, maxChunkSize int) []domain.CodeChunk {
	lines := strings.Split(parent.Content, "\n")
	totalLines := len(lines)

	var subs []domain.CodeChunk
	start := 0
	size := 0

	emit := func(end int) {
		// [start, end) of lines becomes one sub-chunk.
		sub := parent
		sub.ID = domain.SubChunkID(parent.ID, len(subs))
		sub.Content = strings.Join(lines[start:end], "\n")
		sub.LineStart = parent.LineStart + start
		sub.LineEnd = parent.LineStart + end - 1
		sub.ComplexityScore = parent.ComplexityScore * float64(end-start) / float64(totalLines)
		subs = append(subs, sub)
	}

	for i, line := range lines {
		lineSize := len(line)
		if i > start {
			lineSize++ // the joining newline
		}
		if size+lineSize > maxChunkSize && i > start {
			emit(i)
			start = i
			size = len(line)
			continue
		}
		size += lineSize
	}
	if start < totalLines {
		emit(totalLines)
	}

	return subs
}
