package chunkers

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

// abbreviations that end with a period but do not terminate a sentence.
var abbreviations = map[string]struct{}{
	"e.g": {}, "i.e": {}, "etc": {}, "vs": {}, "cf": {},
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "st": {},
	"fig": {}, "no": {}, "vol": {}, "approx": {},
}

// chunkProse accumulates sentences greedily up to the chunk size,
// seeding each new segment with the trailing sentences of the previous
// one. A single sentence longer than the chunk size becomes its own
// oversized segment rather than being cut mid-content.
func (s *Splitter) chunkProse(text, documentID string) []domain.Segment {
	sentences := splitSentences(text)

	var segments []domain.Segment
	var current string
	var currentSentences []string

	emit := func() {
		segments = append(segments, domain.Segment{
			ID:         fmt.Sprintf("%s_chunk_%d", documentID, len(segments)),
			DocumentID: documentID,
			Content:    strings.TrimSpace(current),
			Metadata:   map[string]any{"sentence_count": len(currentSentences)},
			CreatedAt:  time.Now(),
		})
	}

	for _, sentence := range sentences {
		test := sentence
		if current != "" {
			test = current + " " + sentence
		}

		if len(test) <= s.chunkSize || current == "" {
			current = test
			currentSentences = append(currentSentences, sentence)
			continue
		}

		emit()

		tail := currentSentences
		if len(tail) > overlapSentences {
			tail = tail[len(tail)-overlapSentences:]
		}

		current = sentence
		currentSentences = []string{sentence}

		// Seed the next segment with the trailing sentences of the
		// previous one to preserve cross-boundary context, unless the
		// seeded buffer would itself exceed the segment bound.
		if s.overlap > 0 {
			seeded := strings.Join(tail, " ") + " " + sentence
			if len(seeded) <= s.chunkSize {
				current = seeded
				currentSentences = append(append([]string{}, tail...), sentence)
			}
		}
	}

	if len(currentSentences) > 0 {
		emit()
	}

	return segments
}

// splitSentences performs sentence boundary detection. A terminator
// (., ! or ?) ends a sentence when followed by whitespace and an
// upper-case letter, digit or end of input, unless the preceding word
// is a known abbreviation.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r != '.' && r != '!' && r != '?' {
			continue
		}

		if r == '.' && isAbbreviation(current.String()) {
			continue
		}

		// Peek past trailing quotes and whitespace.
		j := i + 1
		for j < len(runes) && (runes[j] == '"' || runes[j] == '\'' || runes[j] == ')') {
			current.WriteRune(runes[j])
			j++
		}
		if j < len(runes) && !unicode.IsSpace(runes[j]) {
			i = j - 1
			continue
		}
		k := j
		for k < len(runes) && unicode.IsSpace(runes[k]) {
			k++
		}
		if k < len(runes) && !unicode.IsUpper(runes[k]) && !unicode.IsDigit(runes[k]) {
			i = j - 1
			continue
		}

		if sentence := strings.TrimSpace(current.String()); sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
		i = k - 1
	}

	if sentence := strings.TrimSpace(current.String()); sentence != "" {
		sentences = append(sentences, sentence)
	}

	return sentences
}

// isAbbreviation reports whether the text ends in a known abbreviation
// followed by the period just written.
func isAbbreviation(text string) bool {
	trimmed := strings.TrimSuffix(text, ".")
	idx := strings.LastIndexFunc(trimmed, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	word := strings.ToLower(trimmed[idx+1:])
	_, ok := abbreviations[word]
	return ok
}
