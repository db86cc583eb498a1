// Package tmx loads TMX (Translation Memory eXchange) files and provides
// exact/fuzzy lookup of prior translations.
//
// A TMX file groups translation units (<tu>) holding per-language variants
// (<tuv>). Parse flattens those units into directed source→target entries;
// Load selects the entries for one language pair, tolerating region and
// script variants ("en-US", "pt_BR") in the file's xml:lang attributes.
package tmx

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/valpere/tradqa/internal/fuzz"
)

// Match types assigned by FindMatches.
const (
	MatchExact = "exact"
	MatchFuzzy = "fuzzy"
)

// Entry is a single directed translation memory segment. Immutable once
// loaded.
type Entry struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceLang   string `json:"source_lang"`
	TargetLang   string `json:"target_lang"`
	CreationDate string `json:"creation_date,omitempty"`
	UsageCount   int    `json:"usage_count"`
}

// Memory holds the entries loaded for one language pair.
type Memory struct {
	Entries      []Entry `json:"entries"`
	LanguagePair string  `json:"language_pair"`
}

// Match is an Entry annotated with its similarity to a query.
type Match struct {
	Entry
	Similarity float64 `json:"similarity"`
	MatchType  string  `json:"match_type"`
}

// xmlTMX mirrors the subset of the TMX 1.4 schema we consume.
type xmlTMX struct {
	XMLName xml.Name `xml:"tmx"`
	Header  struct {
		SrcLang string `xml:"srclang,attr"`
	} `xml:"header"`
	Body struct {
		Units []xmlTU `xml:"tu"`
	} `xml:"body"`
}

type xmlTU struct {
	CreationDate string   `xml:"creationdate,attr"`
	UsageCount   string   `xml:"usagecount,attr"`
	Variants     []xmlTUV `xml:"tuv"`
}

type xmlTUV struct {
	Lang    string  `xml:"lang,attr"`
	XMLLang string  `xml:"http://www.w3.org/XML/1998/namespace lang,attr"`
	Seg     segText `xml:"seg"`
}

// segText collects the full textual content of a <seg> element, including
// text nested inside inline markup (<bpt>, <ept>, <ph>, ...). Relying on
// plain chardata would drop everything after the first inline tag.
type segText struct {
	Text string
}

func (s *segText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var sb strings.Builder
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name == start.Name {
				s.Text = strings.TrimSpace(sb.String())
				return nil
			}
		}
	}
	s.Text = strings.TrimSpace(sb.String())
	return nil
}

// Parse reads a TMX document and returns entries keyed by directed language
// pair ("en->fr"). Every unit with two or more language variants contributes
// entries in both directions for each variant combination.
func Parse(r io.Reader) (map[string][]Entry, error) {
	var doc xmlTMX
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid TMX format: %w", err)
	}

	memory := make(map[string][]Entry)

	for _, tu := range doc.Body.Units {
		segments := make(map[string]string)
		var langs []string
		for _, tuv := range tu.Variants {
			lang := tuv.XMLLang
			if lang == "" {
				lang = tuv.Lang
			}
			if lang == "" || tuv.Seg.Text == "" {
				continue
			}
			lang = strings.ToLower(lang)
			if _, seen := segments[lang]; !seen {
				langs = append(langs, lang)
			}
			segments[lang] = tuv.Seg.Text
		}
		if len(segments) < 2 {
			continue
		}

		usage := 0
		if tu.UsageCount != "" {
			if n, err := strconv.Atoi(tu.UsageCount); err == nil && n > 0 {
				usage = n
			}
		}

		for i, src := range langs {
			for _, tgt := range langs[i+1:] {
				for _, pair := range [][2]string{{src, tgt}, {tgt, src}} {
					key := pair[0] + "->" + pair[1]
					memory[key] = append(memory[key], Entry{
						Source:       segments[pair[0]],
						Target:       segments[pair[1]],
						SourceLang:   pair[0],
						TargetLang:   pair[1],
						CreationDate: tu.CreationDate,
						UsageCount:   usage,
					})
				}
			}
		}
	}

	return memory, nil
}

// Load parses the TMX file at path and returns the memory for the requested
// language pair. When no key matches exactly, entries whose canonicalised
// codes match are aggregated, so "en-US"/"en_GB" variants still resolve for
// a plain "en" request. A file with no usable entries yields an empty (non
// nil) Memory, not an error.
func Load(path, sourceLang, targetLang string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open TMX file: %w", err)
	}
	defer f.Close()

	full, err := Parse(f)
	if err != nil {
		return nil, err
	}

	srcBase := CanonicalLang(sourceLang)
	tgtBase := CanonicalLang(targetLang)
	pair := srcBase + "->" + tgtBase

	entries := full[pair]
	if len(entries) == 0 {
		for key, keyEntries := range full {
			src, tgt, ok := strings.Cut(key, "->")
			if !ok {
				continue
			}
			if CanonicalLang(src) == srcBase && CanonicalLang(tgt) == tgtBase {
				entries = append(entries, keyEntries...)
			}
		}
	}

	return &Memory{Entries: entries, LanguagePair: pair}, nil
}

// CanonicalLang reduces a language identifier to its base ISO code:
// "en-US" → "en", "pt_BR" → "pt". Unparseable identifiers are lowercased
// and returned as-is so free-form language names still compare equal to
// themselves.
func CanonicalLang(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "_", "-")
	tag, err := language.Parse(code)
	if err != nil {
		if base, _, found := strings.Cut(code, "-"); found {
			return base
		}
		return code
	}
	base, conf := tag.Base()
	if conf == language.No {
		return code
	}
	return base.String()
}

// FindMatches returns the entries whose source text has at least threshold
// similarity (0–100, case-insensitive) to query, sorted by similarity
// descending with ties broken by usage count descending. An empty result is
// not an error.
func FindMatches(query string, entries []Entry, threshold float64) []Match {
	if len(entries) == 0 {
		return nil
	}

	q := strings.ToLower(strings.TrimSpace(query))
	var matches []Match

	for _, e := range entries {
		sim := fuzz.Ratio(q, strings.ToLower(strings.TrimSpace(e.Source)))
		if sim < threshold {
			continue
		}
		mt := MatchFuzzy
		if sim == 100.0 {
			mt = MatchExact
		}
		matches = append(matches, Match{Entry: e, Similarity: sim, MatchType: mt})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].UsageCount > matches[j].UsageCount
	})

	return matches
}
