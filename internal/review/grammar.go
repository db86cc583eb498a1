package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/valpere/tradqa/internal/job"
	"github.com/valpere/tradqa/internal/llm"
)

// evalGrammar asks the model to judge grammar, spelling, and punctuation of
// the translated text in isolation.
func (e *Engine) evalGrammar(ctx context.Context, st *job.State) command {
	if st.TranslatedContent == "" {
		return noContent(job.DimensionGrammar)
	}

	sc := e.evalWithModel(ctx, job.DimensionGrammar, grammarPrompt(st))

	next := stageStyle
	if sc.Value < grammarExitThreshold {
		next = stageAggregate
	}
	return command{dim: job.DimensionGrammar, score: sc, next: next}
}

func grammarPrompt(st *job.State) llm.Prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Review the grammatical correctness of the following %s text.\n\n", st.TargetLanguage)
	sb.WriteString("Evaluate ONLY grammar, spelling, punctuation, and syntactic well-formedness. ")
	sb.WriteString("Do NOT judge translation accuracy, terminology, or style.\n\n")
	fmt.Fprintf(&sb, "TEXT:\n%s\n\n", st.TranslatedContent)
	sb.WriteString(scoringInstructions)

	return llm.Prompt{
		System: fmt.Sprintf("You are a professional %s proofreader.", st.TargetLanguage),
		User:   sb.String(),
	}
}

// scoringInstructions is shared by the LLM-backed review stages so their
// responses parse identically.
const scoringInstructions = `Respond with a single JSON object and nothing else:
{"score": <number between -1.0 and 1.0>, "explanation": "<specific issues found; empty string if the score is 0.7 or above>"}

Scoring: 1.0 is flawless, 0.0 is mediocre, -1.0 is unusable.`
