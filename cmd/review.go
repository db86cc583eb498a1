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
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/tradqa/internal/job"
	"github.com/valpere/tradqa/internal/review"
)

var (
	reviewSourceFile      string
	reviewTranslationFile string
	reviewSourceLang      string
	reviewTargetLang      string
	reviewGlossaryFile    string
	reviewTMXFile         string
	reviewStyleGuideFile  string
	reviewBreakdown       bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Score an existing translation",
	Long: `Review a translation that already exists: score glossary faithfulness,
translation memory faithfulness, grammar, and style, then print the
weighted aggregate. Use --breakdown for the per-dimension table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if reviewTranslationFile == "" {
			return fmt.Errorf("--translation is required")
		}

		source, err := readInput(reviewSourceFile)
		if err != nil {
			return err
		}
		translation, err := os.ReadFile(reviewTranslationFile)
		if err != nil {
			return fmt.Errorf("failed to read translation file: %w", err)
		}

		ctx := context.Background()

		db, err := openStore()
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if db != nil {
			defer db.Close()
		}

		gls, err := loadGlossary(ctx, db, reviewGlossaryFile, reviewSourceLang, reviewTargetLang)
		if err != nil {
			return err
		}
		mem, err := loadMemory(ctx, db, reviewTMXFile, reviewSourceLang, reviewTargetLang)
		if err != nil {
			return err
		}
		guide, err := loadStyleGuide(reviewStyleGuideFile)
		if err != nil {
			return err
		}

		st := &job.State{
			OriginalContent:   source,
			TranslatedContent: string(translation),
			SourceLanguage:    reviewSourceLang,
			TargetLanguage:    reviewTargetLang,
			Glossary:          gls,
			StyleGuide:        guide,
			Memory:            mem,
		}

		engine := review.NewEngine(newClient(), cfg.ReviewTimeout, log)
		if err := engine.Review(ctx, st); err != nil {
			return err
		}

		fmt.Printf("Review score: %.2f (%s)\n", *st.ReviewScore, review.QualityLabel(*st.ReviewScore))
		if st.ReviewExplanation != "" {
			fmt.Printf("  %s\n", st.ReviewExplanation)
		}

		if reviewBreakdown {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DIMENSION\tSCORE\tEXPLANATION")
			for _, dim := range []job.Dimension{job.DimensionGlossary, job.DimensionTMX, job.DimensionGrammar, job.DimensionStyle} {
				sc, ok := st.Dimension(dim)
				if !ok {
					fmt.Fprintf(w, "%s\t-\tnot evaluated\n", dim.Label())
					continue
				}
				fmt.Fprintf(w, "%s\t%.2f\t%s\n", dim.Label(), sc.Value, truncate(sc.Explanation, 80))
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().StringVarP(&reviewSourceFile, "input", "i", "", "Source text file (default: stdin)")
	reviewCmd.Flags().StringVar(&reviewTranslationFile, "translation", "", "Translated text file (required)")
	reviewCmd.Flags().StringVarP(&reviewSourceLang, "source", "s", "", "Source language code")
	reviewCmd.Flags().StringVarP(&reviewTargetLang, "target", "t", "", "Target language code")
	reviewCmd.Flags().StringVarP(&reviewGlossaryFile, "glossary", "g", "", "Glossary CSV file (term,translation)")
	reviewCmd.Flags().StringVar(&reviewTMXFile, "tmx", "", "Translation memory TMX file")
	reviewCmd.Flags().StringVar(&reviewStyleGuideFile, "style-guide", "", "Style guide text file")
	reviewCmd.Flags().BoolVar(&reviewBreakdown, "breakdown", false, "Print per-dimension scores")
}
