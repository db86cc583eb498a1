// Package glossary manages term→translation dictionaries: loading them from
// CSV, filtering them down to the terms that actually occur in a source
// text, and mining candidate term pairs out of TMX memories.
package glossary

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/valpere/tradqa/internal/fuzz"
)

// Glossary maps a source-language term to its mandated translation.
type Glossary map[string]string

// multiWordCutoff is the partial-similarity score (0–100) above which a
// multi-word term is considered present in the source text despite
// reordering or punctuation noise.
const multiWordCutoff = 75.0

// LoadCSV reads a glossary from a CSV file. A header row with "term" and
// "translation" columns is honoured when present; otherwise the first two
// columns of every row are used. Rows with fewer than two non-empty columns
// are skipped.
func LoadCSV(path string) (Glossary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open glossary file: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV reads glossary rows from r. See LoadCSV for the format.
func ParseCSV(r io.Reader) (Glossary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse glossary CSV: %w", err)
	}
	if len(records) == 0 {
		return Glossary{}, nil
	}

	termCol, translationCol := 0, 1
	start := 0
	if cols := headerColumns(records[0]); cols != nil {
		termCol, translationCol = cols[0], cols[1]
		start = 1
	}

	g := Glossary{}
	for _, row := range records[start:] {
		if len(row) <= termCol || len(row) <= translationCol {
			continue
		}
		term := strings.TrimSpace(row[termCol])
		translation := strings.TrimSpace(row[translationCol])
		if term == "" || translation == "" {
			continue
		}
		g[term] = translation
	}
	return g, nil
}

// headerColumns returns the indices of the "term" and "translation" columns
// if row looks like a header, nil otherwise.
func headerColumns(row []string) []int {
	termCol, translationCol := -1, -1
	for i, col := range row {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "term":
			termCol = i
		case "translation":
			translationCol = i
		}
	}
	if termCol >= 0 && translationCol >= 0 {
		return []int{termCol, translationCol}
	}
	return nil
}

// Filter returns the subset of g whose terms occur in sourceText. A term is
// judged present when it is a case-insensitive substring of the text, or,
// for multi-word terms, when its best partial-similarity score reaches
// multiWordCutoff. The result is deterministic for identical inputs.
func Filter(sourceText string, g Glossary) Glossary {
	filtered := Glossary{}
	if len(g) == 0 {
		return filtered
	}

	content := strings.ToLower(sourceText)
	for term, translation := range g {
		if termInText(term, content) {
			filtered[term] = translation
		}
	}
	return filtered
}

// termInText reports whether term occurs in content (content must already be
// lowercased).
func termInText(term, content string) bool {
	t := strings.ToLower(term)
	if strings.Contains(content, t) {
		return true
	}
	if len(strings.Fields(t)) > 1 {
		return fuzz.PartialRatio(t, content) >= multiWordCutoff
	}
	return false
}
