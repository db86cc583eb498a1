// Package detector wraps lingua-go language identification behind the small
// surface the pipeline needs: an ISO 639-1 guess and a confidence probe.
package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// Detector identifies the language of a text. Building the underlying
// lingua detector loads its language models; construct once and reuse.
type Detector struct {
	inner lingua.LanguageDetector
}

func New() *Detector {
	return &Detector{
		inner: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build(),
	}
}

// ISO returns the lowercase ISO 639-1 code of the most likely language of
// text ("en", "uk"). ok is false for empty or undecidable input.
func (d *Detector) ISO(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	lang, ok := d.inner.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// Confidence returns the detector's confidence, in [0, 1], that text is
// written in the language identified by the ISO 639-1 code iso. Unknown
// codes score zero.
func (d *Detector) Confidence(text, iso string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	iso = strings.ToLower(strings.TrimSpace(iso))
	for _, cv := range d.inner.ComputeLanguageConfidenceValues(text) {
		if strings.ToLower(cv.Language().IsoCode639_1().String()) == iso {
			return cv.Value()
		}
	}
	return 0
}
