// Package translate produces the target-language rendering of a job's
// source text. Translation memory is consulted first: an exact source hit
// returns the remembered target without spending a generation call, and
// close fuzzy hits become exemplars in the prompt. Long inputs are split
// into chunks translated sequentially with a sliding context window.
package translate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/valpere/tradqa/internal/chunker"
	"github.com/valpere/tradqa/internal/job"
	"github.com/valpere/tradqa/internal/llm"
	"github.com/valpere/tradqa/internal/styleguide"
	"github.com/valpere/tradqa/internal/tmx"
)

const (
	// exemplarCutoff is the minimum source similarity for a memory entry to
	// be quoted as an exemplar in the prompt.
	exemplarCutoff = 80.0
	maxExemplars   = 3

	// DefaultMaxChunkRunes bounds a single generation call's input.
	DefaultMaxChunkRunes = 4000
)

// Translator renders source text into the target language.
type Translator struct {
	client        llm.Client
	maxChunkRunes int
	log           zerolog.Logger
}

// New builds a Translator. A non-positive maxChunkRunes falls back to
// DefaultMaxChunkRunes.
func New(client llm.Client, maxChunkRunes int, log zerolog.Logger) *Translator {
	if maxChunkRunes <= 0 {
		maxChunkRunes = DefaultMaxChunkRunes
	}
	return &Translator{
		client:        client,
		maxChunkRunes: maxChunkRunes,
		log:           log.With().Str("component", "translate").Logger(),
	}
}

// Translate fills st.TranslatedContent. A job that already carries a
// translation is left untouched. An exact translation memory hit for the
// whole source bypasses generation entirely.
func (t *Translator) Translate(ctx context.Context, st *job.State) error {
	if st.TranslatedContent != "" {
		return nil
	}

	source := strings.TrimSpace(st.OriginalContent)
	if source == "" {
		return fmt.Errorf("nothing to translate")
	}

	if st.HasMemory() {
		// Exact hits are case-insensitive; with several, the highest-usage
		// entry wins.
		if exact := tmx.FindMatches(source, st.Memory.Entries, 100.0); len(exact) > 0 {
			t.log.Info().Str("job_id", st.ID).Msg("exact translation memory hit, skipping generation")
			st.TranslatedContent = exact[0].Target
			return nil
		}
	}

	if t.client == nil {
		return llm.ErrCredentialsMissing
	}

	guide := st.StyleGuide
	if guide == "" {
		guide = styleguide.InferFromMemory(st.Memory, styleguide.DefaultMaxExamples)
	}

	chunks := chunker.Split(st.OriginalContent, t.maxChunkRunes)
	translated := make([]string, 0, len(chunks))
	prevContext := ""

	for i, chunk := range chunks {
		prompt := t.buildPrompt(st, chunk, prevContext, guide)

		raw, err := t.client.Generate(ctx, prompt)
		if err != nil {
			return fmt.Errorf("translating chunk %d/%d: %w", i+1, len(chunks), err)
		}

		text := llm.Clean(raw)
		if text == "" {
			return fmt.Errorf("translating chunk %d/%d: empty translation", i+1, len(chunks))
		}
		translated = append(translated, text)
		prevContext = chunker.TrailingContext(text, chunker.DefaultContextWords)
	}

	st.TranslatedContent = strings.Join(translated, "\n\n")
	t.log.Info().
		Str("job_id", st.ID).
		Int("chunks", len(chunks)).
		Int("output_len", len(st.TranslatedContent)).
		Msg("translation complete")
	return nil
}

// buildPrompt assembles the system instructions for one chunk: terminology,
// style guidance, memory exemplars, and the sliding continuity context.
func (t *Translator) buildPrompt(st *job.State, chunk, prevContext, guide string) llm.Prompt {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are a professional translator. Translate the following text from %s to %s.\n",
		st.SourceLanguage, st.TargetLanguage)
	sb.WriteString("Only respond with the translation, nothing else. No explanations, no quotes, just the translation.")

	gls := st.EffectiveGlossary()
	if len(gls) > 0 {
		sb.WriteString("\n\nTERMINOLOGY (use these exact translations):\n")
		terms := make([]string, 0, len(gls))
		for term := range gls {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			fmt.Fprintf(&sb, "  %s → %s\n", term, gls[term])
		}
	}

	if guide != "" {
		fmt.Fprintf(&sb, "\n\nSTYLE:\n%s", guide)
	}

	if st.HasMemory() {
		matches := tmx.FindMatches(chunk, st.Memory.Entries, exemplarCutoff)
		if len(matches) > maxExemplars {
			matches = matches[:maxExemplars]
		}
		if len(matches) > 0 {
			sb.WriteString("\n\nAPPROVED TRANSLATIONS of similar passages (follow their wording where applicable):\n")
			for _, m := range matches {
				fmt.Fprintf(&sb, "  %q → %q\n", m.Source, m.Target)
			}
		}
	}

	if prevContext != "" {
		fmt.Fprintf(&sb, "\n\nCONTEXT (previous passage for continuity — do NOT retranslate this):\n...%s", prevContext)
	}

	return llm.Prompt{System: sb.String(), User: chunk}
}
