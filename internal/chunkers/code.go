package chunkers

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

// boundaryPatterns mark lines that open a new logical unit across
// common language syntaxes.
var boundaryPatterns = []*regexp.Regexp{
	// Function and type declarations: Python, JS, Java, Go, Rust.
	regexp.MustCompile(`^\s*(def|class|function|func|fn|public|private|protected)\s+\w+`),
	// Control structures.
	regexp.MustCompile(`^\s*(if|for|while|switch)\s*\(`),
	// Comment openers.
	regexp.MustCompile(`^\s*(#|//)\s`),
}

// chunkCode scans line by line, emitting a segment whenever a
// structural boundary is reached. Each segment records its source line
// range and the detected language, and the next segment is seeded with
// a bounded line lookback.
func (s *Splitter) chunkCode(code, documentID string) []domain.Segment {
	lines := strings.Split(code, "\n")
	language := detectLanguage(code)

	var segments []domain.Segment
	var current []string
	startLine := 0

	emit := func(endLine int) {
		content := strings.Join(current, "\n")
		if strings.TrimSpace(content) == "" {
			return
		}
		segments = append(segments, domain.Segment{
			ID:         fmt.Sprintf("%s_code_chunk_%d", documentID, len(segments)),
			DocumentID: documentID,
			Content:    content,
			Metadata: map[string]any{
				"start_line": startLine,
				"end_line":   endLine,
				"language":   language,
			},
			CreatedAt: time.Now(),
		})
	}

	for i, line := range lines {
		if isBoundary(line) && len(current) > 0 {
			emit(i - 1)

			if s.overlap > 0 {
				lookback := i - s.overlap
				if lookback < 0 {
					lookback = 0
				}
				current = append([]string{}, lines[lookback:i+1]...)
				startLine = lookback
			} else {
				current = []string{line}
				startLine = i
			}
			continue
		}
		current = append(current, line)
	}

	if len(current) > 0 {
		emit(len(lines) - 1)
	}

	return segments
}

// isBoundary reports whether a line opens a new logical unit.
func isBoundary(line string) bool {
	for _, pattern := range boundaryPatterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}

// detectLanguage guesses the language from the first ten lines.
func detectLanguage(code string) string {
	lines := strings.SplitN(code, "\n", 11)
	if len(lines) > 10 {
		lines = lines[:10]
	}
	head := strings.ToLower(strings.Join(lines, "\n"))

	switch {
	case strings.Contains(head, "import torch") || strings.Contains(head, "import tensorflow"):
		return "python_ml"
	case strings.Contains(head, "def ") && strings.Contains(head, "import "):
		return "python"
	case strings.Contains(head, "function ") || strings.Contains(head, "const "):
		return "javascript"
	case strings.Contains(head, "public class") || strings.Contains(head, "private void"):
		return "java"
	case strings.Contains(head, "#include"):
		return "cpp"
	case strings.Contains(head, "func "):
		return "go"
	case strings.Contains(head, "fn ") && strings.Contains(head, "->"):
		return "rust"
	default:
		return "unknown"
	}
}
