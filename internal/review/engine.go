// Package review scores a finished translation along four independent
// dimensions (glossary faithfulness, translation memory faithfulness,
// grammar correctness, style adherence) and aggregates them into a single
// weighted quality score.
//
// Stages run in a fixed order. Each stage records exactly one dimension and
// decides where control goes next: the following stage, or straight to
// aggregation when the score is bad enough that further (paid) evaluation
// is pointless.
package review

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/valpere/tradqa/internal/job"
	"github.com/valpere/tradqa/internal/llm"
)

// DefaultTimeout bounds each individual LLM evaluation call.
const DefaultTimeout = 2 * time.Minute

// Early-exit thresholds. A stage whose score falls below its threshold
// routes directly to aggregation, skipping the remaining stages.
const (
	glossaryExitThreshold = -0.5
	tmxExitThreshold      = -0.2
	grammarExitThreshold  = -0.5
)

// stage identifies a node in the review sequence.
type stage int

const (
	stageGlossary stage = iota
	stageTMX
	stageGrammar
	stageStyle
	stageAggregate
	stageDone
)

// command is the result of one review stage: the dimension it scored and
// the stage to run next.
type command struct {
	dim   job.Dimension
	score job.Score
	next  stage
}

// Engine runs the review sequence. The client may be nil, in which case the
// LLM-backed stages record a neutral zero score instead of failing the job.
type Engine struct {
	client  llm.Client
	timeout time.Duration
	log     zerolog.Logger
}

// NewEngine builds a review engine. A non-positive timeout falls back to
// DefaultTimeout.
func NewEngine(client llm.Client, timeout time.Duration, log zerolog.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		client:  client,
		timeout: timeout,
		log:     log.With().Str("component", "review").Logger(),
	}
}

// Review scores st's translation and writes the per-dimension scores, the
// aggregate ReviewScore, and the ReviewExplanation onto st. The only error
// condition is context cancellation; evaluation failures inside a stage are
// recorded as neutral scores so one flaky call cannot sink the whole job.
func (e *Engine) Review(ctx context.Context, st *job.State) error {
	cur := stageGlossary
	for cur != stageDone {
		if err := ctx.Err(); err != nil {
			return err
		}

		if cur == stageAggregate {
			e.aggregate(st)
			cur = stageDone
			continue
		}

		var cmd command
		switch cur {
		case stageGlossary:
			cmd = e.evalGlossary(st)
		case stageTMX:
			cmd = e.evalTMX(st)
		case stageGrammar:
			cmd = e.evalGrammar(ctx, st)
		case stageStyle:
			cmd = e.evalStyle(ctx, st)
		}

		// A stage may decline to score its dimension (no memory to check
		// against, for example); the aggregator then renormalizes without it.
		if cmd.dim != "" {
			st.SetDimension(cmd.dim, cmd.score)
			e.log.Debug().
				Str("dimension", string(cmd.dim)).
				Float64("score", cmd.score.Value).
				Bool("early_exit", cmd.next == stageAggregate && cur != stageStyle).
				Msg("review stage complete")
		}

		cur = cmd.next
	}
	return nil
}

// noContent is the command every stage returns when the job has no
// translated text to review.
func noContent(dim job.Dimension) command {
	return command{
		dim:   dim,
		score: job.Score{Value: -1.0, Explanation: "No translated content to review"},
		next:  stageAggregate,
	}
}
