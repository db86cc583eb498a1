// Package validator checks that a finished translation is actually written
// in the job's target language. A mismatch is advisory: the pipeline logs
// it and lets the review stages decide the score.
package validator

import (
	"fmt"
	"strings"

	"github.com/valpere/tradqa/internal/detector"
	"github.com/valpere/tradqa/internal/tmx"
)

// minLength is the rune count below which detection is too unreliable to
// act on; shorter texts pass unvalidated.
const minLength = 20

// Validator verifies translation output language. The underlying detector
// is expensive to build; construct once and reuse.
type Validator struct {
	det *detector.Detector
}

func New() *Validator {
	return &Validator{det: detector.New()}
}

// Check returns nil when text appears to be written in targetLang, given as
// any identifier CanonicalLang understands ("es", "es-MX", "ES"). Texts too
// short or too ambiguous to classify pass. The returned error names both
// the expected and the detected code.
func (v *Validator) Check(text, targetLang string) error {
	want := tmx.CanonicalLang(targetLang)
	if want == "" {
		return nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("translation is empty")
	}
	if len([]rune(text)) < minLength {
		return nil
	}

	got, ok := v.det.ISO(text)
	if !ok {
		return nil
	}
	if got != want {
		return fmt.Errorf("expected %s but detected %s", want, got)
	}
	return nil
}
