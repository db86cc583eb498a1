package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/valpere/tradqa/internal/fuzz"
	"github.com/valpere/tradqa/internal/job"
)

// glossaryMatchCutoff is the partial-similarity score above which an
// expected translation counts as present even without an exact substring
// match (inflection, clitics, case endings).
const glossaryMatchCutoff = 75.0

// evalGlossary checks that every glossary term appearing in the source text
// has its mandated translation in the output. Deterministic; no LLM call.
func (e *Engine) evalGlossary(st *job.State) command {
	if st.TranslatedContent == "" {
		return noContent(job.DimensionGlossary)
	}

	origLower := strings.ToLower(st.OriginalContent)
	transLower := strings.ToLower(st.TranslatedContent)

	total := 0
	correct := 0
	var missing []string

	for term, expected := range st.EffectiveGlossary() {
		if !strings.Contains(origLower, strings.ToLower(term)) {
			continue
		}
		total++

		expLower := strings.ToLower(expected)
		if strings.Contains(transLower, expLower) || fuzz.PartialRatio(expLower, transLower) >= glossaryMatchCutoff {
			correct++
		} else {
			missing = append(missing, fmt.Sprintf("'%s' (should be '%s')", term, expected))
		}
	}

	// No glossary term occurs in the source: vacuously compliant.
	if total == 0 {
		return command{dim: job.DimensionGlossary, score: job.Score{Value: 1.0}, next: stageTMX}
	}

	rate := float64(correct) / float64(total)
	score := glossaryScale(rate)

	var explanation string
	if len(missing) > 0 {
		sort.Strings(missing)
		explanation = fmt.Sprintf(
			"Missing or incorrectly translated glossary terms: %s. Compliance rate: %.0f%% (%d/%d terms correct)",
			strings.Join(missing, ", "), rate*100, correct, total,
		)
	}

	next := stageTMX
	if score < glossaryExitThreshold {
		next = stageAggregate
	}
	return command{dim: job.DimensionGlossary, score: job.Score{Value: score, Explanation: explanation}, next: next}
}

// glossaryScale maps a compliance rate in [0, 1] onto a score in [-1, 1].
// Full compliance is perfect; the scale drops steeply once fewer than half
// the terms are honored.
func glossaryScale(rate float64) float64 {
	switch {
	case rate >= 1.0:
		return 1.0
	case rate >= 0.8:
		return 0.5 + (rate-0.8)*2.0
	case rate >= 0.5:
		return rate - 0.5
	default:
		return -1.0 + rate*2.0
	}
}
