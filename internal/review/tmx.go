package review

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/valpere/tradqa/internal/fuzz"
	"github.com/valpere/tradqa/internal/job"
	"github.com/valpere/tradqa/internal/tmx"
)

const (
	// tmxExactCutoff: similarity the translation must reach against the
	// remembered target when the source has an exact memory hit.
	tmxExactCutoff = 95.0
	// tmxFuzzyCutoff: minimum source similarity for a memory entry to take
	// part in the style consistency check.
	tmxFuzzyCutoff = 70.0
	// tmxMaxMatches caps the fuzzy matches considered.
	tmxMaxMatches = 3
)

// evalTMX checks the translation against translation memory. An exact
// source hit demands the remembered target; fuzzy hits only inform a
// consistency check on length and terminal punctuation. Deterministic; no
// LLM call.
func (e *Engine) evalTMX(st *job.State) command {
	if st.TranslatedContent == "" {
		return noContent(job.DimensionTMX)
	}

	// No memory loaded: skip the dimension entirely so aggregation
	// renormalizes over the other three.
	if !st.HasMemory() {
		return command{next: stageGrammar}
	}

	// Exact hits are case-insensitive; with several, the highest-usage
	// entry wins.
	if exact := tmx.FindMatches(st.OriginalContent, st.Memory.Entries, 100.0); len(exact) > 0 {
		entry := exact[0].Entry
		got := strings.ToLower(strings.TrimSpace(st.TranslatedContent))
		want := strings.ToLower(strings.TrimSpace(entry.Target))
		if fuzz.Ratio(got, want) >= tmxExactCutoff {
			return command{dim: job.DimensionTMX, score: job.Score{Value: 1.0}, next: stageGrammar}
		}
		sc := job.Score{
			Value: -0.5,
			Explanation: fmt.Sprintf(
				"Translation memory contains an exact match for this source. Expected %q but got %q",
				entry.Target, st.TranslatedContent,
			),
		}
		return command{dim: job.DimensionTMX, score: sc, next: stageAggregate}
	}

	matches := tmx.FindMatches(st.OriginalContent, st.Memory.Entries, tmxFuzzyCutoff)
	if len(matches) > tmxMaxMatches {
		matches = matches[:tmxMaxMatches]
	}
	if len(matches) == 0 {
		return command{dim: job.DimensionTMX, score: job.Score{Value: 1.0}, next: stageGrammar}
	}

	sc := styleConsistency(st.TranslatedContent, matches)
	next := stageGrammar
	if sc.Value < tmxExitThreshold {
		next = stageAggregate
	}
	return command{dim: job.DimensionTMX, score: sc, next: next}
}

// styleConsistency compares the translation against the targets of fuzzy
// memory matches on two cheap structural signals: relative length and
// terminal punctuation.
func styleConsistency(translated string, matches []tmx.Match) job.Score {
	translated = strings.TrimSpace(translated)

	var total float64
	for _, m := range matches {
		target := strings.TrimSpace(m.Target)

		lengthScore := 0.3
		if r := lengthRatio(translated, target); r >= 0.5 && r <= 2.0 {
			lengthScore = 0.8
		}

		punctScore := 0.5
		if terminalPunct(translated) == terminalPunct(target) {
			punctScore = 0.9
		}

		total += (lengthScore + punctScore) / 2.0
	}
	avg := total / float64(len(matches))

	switch {
	case avg < 0.6:
		return job.Score{
			Value:       0.2,
			Explanation: "Translation diverges structurally from similar translation memory entries (length and punctuation)",
		}
	case avg < 0.8:
		return job.Score{
			Value:       0.7,
			Explanation: "Translation is only partially consistent with similar translation memory entries",
		}
	default:
		return job.Score{Value: 1.0}
	}
}

func lengthRatio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if lb == 0 {
		if la == 0 {
			return 1.0
		}
		return float64(la)
	}
	return float64(la) / float64(lb)
}

// terminalPunct returns the trailing punctuation rune of s, or 0 when the
// text ends in a letter or digit.
func terminalPunct(s string) rune {
	r, size := utf8.DecodeLastRuneInString(s)
	if size == 0 {
		return 0
	}
	switch r {
	case '.', '!', '?', ';', ':', '…', '。', '！', '？':
		return r
	}
	return 0
}
