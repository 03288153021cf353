package chunker

import "strings"

// complexityKeywords is the fixed keyword set the heuristic counts: branch,
// loop, exception, and jump constructs across the supported languages.
var complexityKeywords = []string{
	"if", "else", "elif", "for", "while", "try", "catch", "except",
	"switch", "case", "break", "continue", "return", "yield",
}

// Complexity scores a chunk's content: 1.0 base, +0.5 per line containing
// any keyword, normalized by line count, clamped to [0, 10]. A ranking
// signal, not a static-analysis metric.
func Complexity(content string) float64 {
	lines := strings.Split(content, "\n")

	score := 1.0
	for _, line := range lines {
		lower := strings.ToLower(strings.TrimSpace(line))
		for _, keyword := range complexityKeywords {
			if strings.Contains(lower, keyword) {
				score += 0.5
				break
			}
		}
	}

	normalized := score / float64(len(lines))
	if normalized > 10 {
		return 10
	}
	if normalized < 0 {
		return 0
	}
	return normalized
}
