package review

import (
	"fmt"
	"strings"

	"github.com/valpere/tradqa/internal/job"
)

// acceptableThreshold is the per-dimension and aggregate score above which
// a translation needs no explanation.
const acceptableThreshold = 0.7

// Dimension weights. When translation memory took part in the review all
// four dimensions contribute; without it the remaining three are weighted
// more heavily toward terminology.
var (
	fullWeights = map[job.Dimension]float64{
		job.DimensionGlossary: 0.30,
		job.DimensionTMX:      0.20,
		job.DimensionGrammar:  0.30,
		job.DimensionStyle:    0.20,
	}
	noMemoryWeights = map[job.Dimension]float64{
		job.DimensionGlossary: 0.40,
		job.DimensionGrammar:  0.35,
		job.DimensionStyle:    0.25,
	}
)

// dimensionOrder fixes the order dimensions appear in explanations.
var dimensionOrder = []job.Dimension{
	job.DimensionGlossary,
	job.DimensionTMX,
	job.DimensionGrammar,
	job.DimensionStyle,
}

// aggregate folds the recorded dimension scores into a single weighted
// score. When an early exit left dimensions unevaluated, the weights of the
// recorded ones are renormalized so the aggregate stays in [-1, 1].
func (e *Engine) aggregate(st *job.State) {
	if len(st.Dimensions) == 0 {
		zero := 0.0
		st.ReviewScore = &zero
		st.ReviewExplanation = "No review dimensions were evaluated"
		e.log.Error().Str("job_id", st.ID).Msg("aggregation with no dimension scores")
		return
	}

	weights := noMemoryWeights
	if _, ok := st.Dimensions[job.DimensionTMX]; ok {
		weights = fullWeights
	}

	var weighted, weightSum float64
	for dim, sc := range st.Dimensions {
		w, ok := weights[dim]
		if !ok {
			continue
		}
		weighted += sc.Value * w
		weightSum += w
	}

	score := 0.0
	if weightSum > 0 {
		score = weighted / weightSum
	}

	var parts []string
	for _, dim := range dimensionOrder {
		sc, ok := st.Dimensions[dim]
		if !ok {
			continue
		}
		if sc.Value < acceptableThreshold && sc.Explanation != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", dim.Label(), sc.Explanation))
		}
	}

	explanation := strings.Join(parts, " | ")
	if explanation == "" && score < acceptableThreshold {
		var summary []string
		for _, dim := range dimensionOrder {
			if sc, ok := st.Dimensions[dim]; ok {
				summary = append(summary, fmt.Sprintf("%s=%.2f", dim, sc.Value))
			}
		}
		explanation = "Scores: " + strings.Join(summary, ", ")
	}

	st.ReviewScore = &score
	st.ReviewExplanation = explanation

	e.log.Info().
		Str("job_id", st.ID).
		Float64("review_score", score).
		Int("dimensions", len(st.Dimensions)).
		Str("quality", QualityLabel(score)).
		Msg("review aggregated")
}

// QualityLabel maps an aggregate score onto a coarse quality band.
func QualityLabel(score float64) string {
	switch {
	case score >= 0.7:
		return "excellent"
	case score >= 0.3:
		return "acceptable"
	case score >= 0.0:
		return "needs improvement"
	default:
		return "poor"
	}
}
