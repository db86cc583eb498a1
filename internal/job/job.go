// Package job defines the translation job state: the single record created
// once per job, threaded through every pipeline stage, and reported back to
// the caller. Each stage contributes only its own fields; no stage
// overwrites another's.
package job

import (
	"github.com/valpere/tradqa/internal/glossary"
	"github.com/valpere/tradqa/internal/tmx"
)

// Dimension identifies one independently scored axis of translation quality.
type Dimension string

const (
	DimensionGlossary Dimension = "glossary_faithfulness"
	DimensionTMX      Dimension = "tmx_faithfulness"
	DimensionGrammar  Dimension = "grammar_correctness"
	DimensionStyle    Dimension = "style_adherence"
)

// Label returns the human-readable name used when surfacing a dimension's
// explanation to the caller.
func (d Dimension) Label() string {
	switch d {
	case DimensionGlossary:
		return "Glossary Compliance"
	case DimensionTMX:
		return "Translation Memory"
	case DimensionGrammar:
		return "Grammar Quality"
	case DimensionStyle:
		return "Style Adherence"
	}
	return string(d)
}

// Score is one dimension's result. Value is always within [-1, 1].
// Explanation is non-empty only when the score is below the acceptable
// threshold, or when it reports an evaluation error.
type Score struct {
	Value       float64 `json:"score"`
	Explanation string  `json:"explanation,omitempty"`
}

// State is the mutable translation job record.
type State struct {
	ID string `json:"id,omitempty"`

	// Immutable once set.
	OriginalContent string `json:"original_content"`
	SourceLanguage  string `json:"source_language"`
	TargetLanguage  string `json:"target_language"`

	// Set once by the translator. Empty means "not yet translated" and is a
	// hard precondition failure for every review stage.
	TranslatedContent string `json:"translated_content,omitempty"`

	// Full term dictionary and the subset relevant to this job. Review
	// stages fall back to Glossary when FilteredGlossary is nil.
	Glossary         glossary.Glossary `json:"glossary,omitempty"`
	FilteredGlossary glossary.Glossary `json:"filtered_glossary,omitempty"`

	// May be empty; an empty style guide triggers inference from memory.
	StyleGuide string `json:"style_guide,omitempty"`

	// Translation memory for the job's language pair. Nil means absent.
	Memory *tmx.Memory `json:"tm_memory,omitempty"`

	// Per-dimension review scores. A missing key means that dimension never
	// ran (early exit or review disabled).
	Dimensions map[Dimension]Score `json:"dimensions,omitempty"`

	// Final aggregate, written exactly once by the aggregator. Nil until
	// review has run.
	ReviewScore       *float64 `json:"review_score,omitempty"`
	ReviewExplanation string   `json:"review_explanation,omitempty"`
}

// EffectiveGlossary returns the filtered glossary when present, else the
// full glossary.
func (s *State) EffectiveGlossary() glossary.Glossary {
	if s.FilteredGlossary != nil {
		return s.FilteredGlossary
	}
	return s.Glossary
}

// HasMemory reports whether the job carries any translation memory entries.
func (s *State) HasMemory() bool {
	return s.Memory != nil && len(s.Memory.Entries) > 0
}

// SetDimension records one dimension's score. Existing scores are never
// overwritten; each review stage owns exactly one dimension.
func (s *State) SetDimension(d Dimension, sc Score) {
	if s.Dimensions == nil {
		s.Dimensions = make(map[Dimension]Score)
	}
	if _, exists := s.Dimensions[d]; exists {
		return
	}
	s.Dimensions[d] = sc
}

// Dimension returns the recorded score for d, if any.
func (s *State) Dimension(d Dimension) (Score, bool) {
	sc, ok := s.Dimensions[d]
	return sc, ok
}
