package glossary

import (
	"regexp"
	"sort"
	"strings"

	"github.com/valpere/tradqa/internal/tmx"
)

// stopwords excluded from candidate term extraction. English-only, which is
// acceptable for the extraction heuristic: candidates are reviewed by a
// human before becoming glossary entries.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"in": {}, "on": {}, "at": {}, "for": {}, "with": {}, "to": {}, "from": {},
	"by": {}, "of": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"been": {}, "being": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"it": {}, "its": {}, "as": {}, "about": {}, "into": {}, "over": {},
	"after": {}, "before": {}, "between": {}, "among": {}, "within": {},
	"without": {}, "against": {},
}

var wordRe = regexp.MustCompile(`[\p{L}][\p{L}'-]*`)

// Candidate is a potential glossary entry mined from translation memory.
type Candidate struct {
	Term        string
	Translation string
	Occurrences int
}

// ExtractFromTMX mines candidate term pairs from translation memory entries.
// It looks for capitalised words and bigrams recurring across source
// segments, pairing each with the most frequent capitalised token of the
// corresponding target segments. Candidates are sorted by occurrence count
// descending; at most limit candidates are returned (0 = no limit). The
// output is a starting point for human curation, not a finished glossary.
func ExtractFromTMX(entries []tmx.Entry, minOccurrences, limit int) []Candidate {
	if minOccurrences < 1 {
		minOccurrences = 2
	}

	termCounts := make(map[string]int)
	termTargets := make(map[string]map[string]int)

	for _, e := range entries {
		terms := capitalisedTerms(e.Source)
		targets := capitalisedTerms(e.Target)
		for _, term := range terms {
			termCounts[term]++
			if termTargets[term] == nil {
				termTargets[term] = make(map[string]int)
			}
			for _, tgt := range targets {
				termTargets[term][tgt]++
			}
		}
	}

	var candidates []Candidate
	for term, count := range termCounts {
		if count < minOccurrences {
			continue
		}
		translation := bestTarget(termTargets[term])
		if translation == "" || strings.EqualFold(translation, term) {
			continue
		}
		candidates = append(candidates, Candidate{
			Term:        term,
			Translation: translation,
			Occurrences: count,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Occurrences != candidates[j].Occurrences {
			return candidates[i].Occurrences > candidates[j].Occurrences
		}
		return candidates[i].Term < candidates[j].Term
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// capitalisedTerms returns capitalised unigrams and bigrams from text, minus
// stopwords and sentence-initial noise.
func capitalisedTerms(text string) []string {
	words := wordRe.FindAllString(text, -1)
	var terms []string
	for i, w := range words {
		if !isCapitalised(w) || isStopword(w) {
			continue
		}
		// Sentence-initial capitals are usually ordinary words.
		if i == 0 {
			continue
		}
		terms = append(terms, w)
		if i+1 < len(words) && isCapitalised(words[i+1]) && !isStopword(words[i+1]) {
			terms = append(terms, w+" "+words[i+1])
		}
	}
	return terms
}

func isCapitalised(w string) bool {
	r := []rune(w)
	return len(r) > 1 && strings.ToUpper(string(r[0])) == string(r[0]) && strings.ToLower(string(r[1:])) == string(r[1:])
}

func isStopword(w string) bool {
	_, ok := stopwords[strings.ToLower(w)]
	return ok
}

// bestTarget returns the most frequent target token, ties broken
// alphabetically for determinism.
func bestTarget(counts map[string]int) string {
	best, bestCount := "", 0
	for tgt, count := range counts {
		if count > bestCount || (count == bestCount && tgt < best) {
			best, bestCount = tgt, count
		}
	}
	return best
}
