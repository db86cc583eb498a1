package review

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/valpere/tradqa/internal/job"
	"github.com/valpere/tradqa/internal/llm"
)

// evalWithModel runs one LLM-backed evaluation under the engine's timeout.
// Every failure mode (no credentials, call error, unparseable response)
// degrades to a neutral zero score carrying the reason, so a single bad
// call never aborts the review.
func (e *Engine) evalWithModel(ctx context.Context, dim job.Dimension, prompt llm.Prompt) job.Score {
	if e.client == nil {
		return job.Score{Value: 0.0, Explanation: fmt.Sprintf("%s review skipped: no generation credentials configured", dim.Label())}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.client.Generate(ctx, prompt)
	if err != nil {
		e.log.Warn().Err(err).Str("dimension", string(dim)).Msg("evaluation call failed")
		return job.Score{Value: 0.0, Explanation: fmt.Sprintf("%s review failed: %v", dim.Label(), err)}
	}

	sc, err := parseReview(raw)
	if err != nil {
		e.log.Warn().Err(err).Str("dimension", string(dim)).Msg("unparseable evaluation response")
		return job.Score{Value: 0.0, Explanation: fmt.Sprintf("%s review returned an unparseable response", dim.Label())}
	}
	return sc
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// parseReview extracts a {"score": ..., "explanation": ...} object from a
// model response, tolerating markdown code fences and prose around the
// JSON. The score is clamped to [-1, 1].
func parseReview(raw string) (job.Score, error) {
	text := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return job.Score{}, fmt.Errorf("no JSON object in response")
	}

	var sc job.Score
	if err := json.Unmarshal([]byte(text[start:end+1]), &sc); err != nil {
		return job.Score{}, fmt.Errorf("malformed review JSON: %w", err)
	}

	sc.Value = clamp(sc.Value, -1.0, 1.0)
	return sc, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
