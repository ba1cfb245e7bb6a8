package domain

import "strings"

// ContentKind classifies ingested text for chunking strategy selection.
type ContentKind string

const (
	// KindProse is natural-language text, chunked on sentence boundaries.
	KindProse ContentKind = "prose"

	// KindCode is source code, chunked on structural boundaries.
	KindCode ContentKind = "code"
)

// codeIndicators are tokens whose presence marks a line as code-like.
var codeIndicators = []string{
	"def ", "class ", "import ", "from ", "function ",
	"{", "}", "var ", "let ", "const ", "public ", "private ",
	"#include", "int main", "void ", "struct ", "enum ", "func ",
}

// DetectKind classifies text as code when more than 30% of its first
// ten lines contain a recognizable code token; otherwise prose.
func DetectKind(text string) ContentKind {
	lines := strings.Split(text, "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}
	if len(lines) == 0 {
		return KindProse
	}

	codeLines := 0
	for _, line := range lines {
		for _, indicator := range codeIndicators {
			if strings.Contains(line, indicator) {
				codeLines++
				break
			}
		}
	}

	if float64(codeLines)/float64(len(lines)) > 0.3 {
		return KindCode
	}
	return KindProse
}
