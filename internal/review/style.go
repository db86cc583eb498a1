package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/valpere/tradqa/internal/job"
	"github.com/valpere/tradqa/internal/llm"
	"github.com/valpere/tradqa/internal/styleguide"
)

// evalStyle asks the model to judge tone, register, and adherence to the
// job's style guide. When no explicit guide was supplied, one is inferred
// from the highest-usage translation memory entries. Style is the last
// evaluation stage and always proceeds to aggregation.
func (e *Engine) evalStyle(ctx context.Context, st *job.State) command {
	if st.TranslatedContent == "" {
		return noContent(job.DimensionStyle)
	}

	guide := st.StyleGuide
	if guide == "" {
		guide = styleguide.InferFromMemory(st.Memory, styleguide.DefaultMaxExamples)
	}

	sc := e.evalWithModel(ctx, job.DimensionStyle, stylePrompt(st, guide))
	return command{dim: job.DimensionStyle, score: sc, next: stageAggregate}
}

func stylePrompt(st *job.State, guide string) llm.Prompt {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Review how well the following %s translation adheres to the required style.\n\n", st.TargetLanguage)
	sb.WriteString("Evaluate ONLY tone, register, voice, and stylistic conventions. ")
	sb.WriteString("Do NOT judge grammar or translation accuracy.\n\n")
	if guide != "" {
		fmt.Fprintf(&sb, "STYLE GUIDE:\n%s\n\n", guide)
	} else {
		sb.WriteString("No style guide was provided; judge against the conventions of professionally published text in the target language.\n\n")
	}
	fmt.Fprintf(&sb, "ORIGINAL (%s):\n%s\n\n", st.SourceLanguage, st.OriginalContent)
	fmt.Fprintf(&sb, "TRANSLATION (%s):\n%s\n\n", st.TargetLanguage, st.TranslatedContent)
	sb.WriteString(scoringInstructions)

	return llm.Prompt{
		System: "You are a professional translation style reviewer.",
		User:   sb.String(),
	}
}
