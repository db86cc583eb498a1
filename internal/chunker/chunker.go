// Package chunker splits long source texts into pieces small enough for a
// single generation call, breaking at paragraph, sentence, or word
// boundaries in that order of preference. TrailingContext supplies the
// sliding-window snippet that keeps consecutive chunks coherent.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultContextWords is how many trailing words TrailingContext keeps when
// the caller passes a non-positive count.
const DefaultContextWords = 25

// Split cuts text into chunks of at most maxRunes code points each. A
// non-positive maxRunes disables splitting. Chunks are trimmed; empty
// chunks are dropped.
func Split(text string, maxRunes int) []string {
	if maxRunes <= 0 {
		return []string{text}
	}

	var chunks []string
	rest := []rune(text)
	for len(rest) > maxRunes {
		cut := cutPoint(rest, maxRunes)
		if piece := strings.TrimSpace(string(rest[:cut])); piece != "" {
			chunks = append(chunks, piece)
		}
		rest = rest[cut:]
		for len(rest) > 0 && unicode.IsSpace(rest[0]) {
			rest = rest[1:]
		}
	}
	if piece := strings.TrimSpace(string(rest)); piece != "" {
		chunks = append(chunks, piece)
	}
	if len(chunks) == 0 {
		return []string{strings.TrimSpace(text)}
	}
	return chunks
}

// cutPoint picks the rune index to split at within rest[:maxRunes],
// preferring a paragraph break, then a sentence end, then any whitespace,
// falling back to a hard cut.
func cutPoint(rest []rune, maxRunes int) int {
	window := rest[:maxRunes]

	// Paragraph break: a newline followed by another newline, possibly with
	// carriage returns in between.
	for i := maxRunes - 1; i > 0; i-- {
		if window[i] != '\n' {
			continue
		}
		j := i - 1
		for j > 0 && window[j] == '\r' {
			j--
		}
		if window[j] == '\n' {
			return i + 1
		}
	}

	// Sentence end followed by whitespace.
	for i := maxRunes - 2; i > 0; i-- {
		switch window[i] {
		case '.', '!', '?':
			if unicode.IsSpace(window[i+1]) {
				return i + 1
			}
		}
	}

	// Any whitespace.
	for i := maxRunes - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}

	return maxRunes
}

// TrailingContext returns the last wordCount words of text joined by single
// spaces, for use as continuity context in the next chunk's prompt.
func TrailingContext(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = DefaultContextWords
	}
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return strings.Join(words, " ")
	}
	return strings.Join(words[len(words)-wordCount:], " ")
}
