/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/tradqa/internal/detector"
	"github.com/valpere/tradqa/internal/glossary"
	"github.com/valpere/tradqa/internal/job"
	"github.com/valpere/tradqa/internal/pipeline"
	"github.com/valpere/tradqa/internal/review"
	"github.com/valpere/tradqa/internal/translate"
	"github.com/valpere/tradqa/internal/validator"
)

var (
	inputFile      string
	outputFile     string
	sourceLang     string
	targetLang     string
	glossaryFile   string
	tmxFile        string
	styleGuideFile string

	withReview  bool
	interactive bool
	validate    bool
	noCache     bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate text with glossary, style, and memory constraints",
	Long: `Translate text from a file or stdin. The glossary is filtered to the
terms relevant to the input; with --interactive the filtered terms are
printed for approval (and may be amended as JSON) before any generation
call is made.

With --review the translation is scored along four quality dimensions
and the weighted result is printed alongside the output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if targetLang == "" {
			return fmt.Errorf("--target is required")
		}
		if interactive && inputFile == "" {
			return fmt.Errorf("--interactive requires --input (stdin is reserved for term approval)")
		}

		text, err := readInput(inputFile)
		if err != nil {
			return err
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("input is empty")
		}

		ctx := context.Background()

		if sourceLang == "auto" {
			det := detector.New()
			if detected, ok := det.ISO(text); ok {
				sourceLang = detected
				fmt.Fprintf(os.Stderr, "Detected source language: %s\n", sourceLang)
			} else {
				return fmt.Errorf("could not detect source language, pass --source")
			}
		}

		db, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if db != nil {
			defer db.Close()
		}

		if db != nil && !noCache {
			if cached, found, cacheErr := db.Cached(ctx, text, sourceLang, targetLang); cacheErr == nil && found {
				fmt.Fprintln(os.Stderr, "Using cached translation")
				return writeOutput(outputFile, cached)
			}
			if cfg.FuzzyCacheThreshold > 0 {
				if cached, found, cacheErr := db.FuzzyCached(ctx, text, sourceLang, targetLang, cfg.FuzzyCacheThreshold); cacheErr == nil && found {
					fmt.Fprintln(os.Stderr, "Using fuzzy-matched cached translation")
					return writeOutput(outputFile, cached)
				}
			}
		}

		gls, err := loadGlossary(ctx, db, glossaryFile, sourceLang, targetLang)
		if err != nil {
			return err
		}
		mem, err := loadMemory(ctx, db, tmxFile, sourceLang, targetLang)
		if err != nil {
			return err
		}
		guide, err := loadStyleGuide(styleGuideFile)
		if err != nil {
			return err
		}

		client := newClient()
		p := pipeline.New(translate.New(client, cfg.MaxChunkRunes, log), log)
		if withReview {
			p.Reviewer = review.NewEngine(client, cfg.ReviewTimeout, log)
		}
		if validate {
			p.Checker = validator.New()
		}
		if interactive {
			p.Checkpoint = approveTerms
		}

		st := &job.State{
			OriginalContent: text,
			SourceLanguage:  sourceLang,
			TargetLanguage:  targetLang,
			Glossary:        gls,
			StyleGuide:      guide,
			Memory:          mem,
		}

		if err := p.Run(ctx, st); err != nil {
			return err
		}

		if db != nil {
			if err := db.SaveJob(ctx, st); err != nil {
				log.Warn().Err(err).Msg("failed to persist job")
			}
			if !noCache && (st.ReviewScore == nil || *st.ReviewScore >= 0.3) {
				if err := db.Remember(ctx, text, sourceLang, targetLang, st.TranslatedContent); err != nil {
					log.Warn().Err(err).Msg("failed to store translation in memory")
				}
			}
		}

		if err := writeOutput(outputFile, st.TranslatedContent); err != nil {
			return err
		}

		if st.ReviewScore != nil {
			fmt.Fprintf(os.Stderr, "Review score: %.2f (%s)\n", *st.ReviewScore, review.QualityLabel(*st.ReviewScore))
			if st.ReviewExplanation != "" {
				fmt.Fprintf(os.Stderr, "  %s\n", st.ReviewExplanation)
			}
		}
		return nil
	},
}

// approveTerms prints the filtered glossary and waits for the operator.
// An empty line approves the terms as-is; a JSON object replaces them; "n"
// aborts the job.
func approveTerms(_ context.Context, filtered glossary.Glossary) (glossary.Glossary, error) {
	fmt.Fprintf(os.Stderr, "Glossary terms relevant to this text (%d):\n", len(filtered))
	enc, _ := json.MarshalIndent(filtered, "", "  ")
	fmt.Fprintln(os.Stderr, string(enc))
	fmt.Fprintln(os.Stderr, `Press Enter to approve, paste a JSON object to amend, or type "n" to abort:`)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return filtered, nil
	}

	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return filtered, nil
	case strings.EqualFold(line, "n"):
		return nil, fmt.Errorf("terms rejected by operator")
	default:
		// Multi-line JSON: keep reading until it parses or input ends.
		doc := line
		for {
			var amended glossary.Glossary
			if json.Unmarshal([]byte(doc), &amended) == nil {
				return amended, nil
			}
			next, err := reader.ReadString('\n')
			if next == "" && err != nil {
				return nil, fmt.Errorf("invalid glossary JSON")
			}
			doc += next
		}
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input file (default: stdin)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "auto", "Source language code")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code (required)")
	translateCmd.Flags().StringVarP(&glossaryFile, "glossary", "g", "", "Glossary CSV file (term,translation)")
	translateCmd.Flags().StringVar(&tmxFile, "tmx", "", "Translation memory TMX file")
	translateCmd.Flags().StringVar(&styleGuideFile, "style-guide", "", "Style guide text file")

	translateCmd.Flags().BoolVar(&withReview, "review", false, "Score the translation after generating it")
	translateCmd.Flags().BoolVar(&interactive, "interactive", false, "Pause for glossary term approval before translating")
	translateCmd.Flags().BoolVar(&validate, "validate", false, "Verify the output language with the built-in detector")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass translation memory cache")
}
