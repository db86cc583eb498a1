// Package pipeline drives a translation job end to end: glossary
// filtering, an optional human checkpoint on the filtered terms,
// translation, target-language validation, and quality review.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/valpere/tradqa/internal/glossary"
	"github.com/valpere/tradqa/internal/job"
	"github.com/valpere/tradqa/internal/review"
	"github.com/valpere/tradqa/internal/translate"
)

// Checkpoint lets a human inspect and amend the filtered glossary before
// translation starts. The returned map replaces the filtered glossary; a
// non-nil error aborts the job before any generation call is made.
type Checkpoint func(ctx context.Context, filtered glossary.Glossary) (glossary.Glossary, error)

// LangChecker verifies that a translation is written in the expected
// language. Satisfied by validator.Validator.
type LangChecker interface {
	Check(text, targetLang string) error
}

// Pipeline wires the job stages together. Reviewer and Checker may be nil,
// disabling their stages; Translator must be set.
type Pipeline struct {
	Translator *translate.Translator
	Reviewer   *review.Engine
	Checker    LangChecker
	Checkpoint Checkpoint

	log zerolog.Logger
}

func New(tr *translate.Translator, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		Translator: tr,
		log:        log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes the job stages in order, mutating st in place. The glossary
// is filtered to the terms relevant to this source text before the
// checkpoint sees it. Validation failures are logged, never fatal; the
// review dimensions are the authority on quality.
func (p *Pipeline) Run(ctx context.Context, st *job.State) error {
	if p.Translator == nil {
		return fmt.Errorf("pipeline has no translator")
	}
	if st.ID == "" {
		st.ID = uuid.NewString()
	}

	log := p.log.With().Str("job_id", st.ID).Logger()

	if len(st.Glossary) > 0 {
		st.FilteredGlossary = glossary.Filter(st.OriginalContent, st.Glossary)
		log.Debug().
			Int("total_terms", len(st.Glossary)).
			Int("relevant_terms", len(st.FilteredGlossary)).
			Msg("glossary filtered")
	}

	if p.Checkpoint != nil {
		approved, err := p.Checkpoint(ctx, st.FilteredGlossary)
		if err != nil {
			return fmt.Errorf("glossary checkpoint rejected: %w", err)
		}
		if approved != nil {
			st.FilteredGlossary = approved
		}
	}

	if err := p.Translator.Translate(ctx, st); err != nil {
		return err
	}

	if p.Checker != nil {
		if err := p.Checker.Check(st.TranslatedContent, st.TargetLanguage); err != nil {
			log.Warn().Err(err).Msg("target language validation failed")
		}
	}

	if p.Reviewer != nil {
		if err := p.Reviewer.Review(ctx, st); err != nil {
			return fmt.Errorf("review: %w", err)
		}
	}

	return nil
}
