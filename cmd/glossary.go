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
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/tradqa/internal/glossary"
	"github.com/valpere/tradqa/internal/tmx"
)

var (
	glsSourceLang string
	glsTargetLang string
	glsCSVFile    string
	glsInputFile  string
	glsTMXFile    string
	glsMinOccur   int
	glsLimit      int
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage and inspect terminology",
}

var glossaryFilterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Show which glossary terms are relevant to a text",
	Long: `Load a glossary and print only the terms that occur in the given text,
the same filtering the translate command applies before prompting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if glsCSVFile == "" {
			return fmt.Errorf("--file is required")
		}
		text, err := readInput(glsInputFile)
		if err != nil {
			return err
		}

		gls, err := glossary.LoadCSV(glsCSVFile)
		if err != nil {
			return err
		}
		filtered := glossary.Filter(text, gls)

		if len(filtered) == 0 {
			fmt.Println("No glossary terms are relevant to this text.")
			return nil
		}

		terms := make([]string, 0, len(filtered))
		for term := range filtered {
			terms = append(terms, term)
		}
		sort.Strings(terms)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TERM\tTRANSLATION")
		for _, term := range terms {
			fmt.Fprintf(w, "%s\t%s\n", term, filtered[term])
		}
		return w.Flush()
	},
}

var glossaryExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Mine candidate terms from a TMX file",
	Long: `Scan the translation units of a TMX file for recurring capitalised
terms and print candidate glossary entries with their most frequent
translation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if glsTMXFile == "" {
			return fmt.Errorf("--tmx is required")
		}
		mem, err := tmx.Load(glsTMXFile, glsSourceLang, glsTargetLang)
		if err != nil {
			return err
		}
		if len(mem.Entries) == 0 {
			return fmt.Errorf("no entries for %s -> %s in %s", glsSourceLang, glsTargetLang, glsTMXFile)
		}

		candidates := glossary.ExtractFromTMX(mem.Entries, glsMinOccur, glsLimit)
		if len(candidates) == 0 {
			fmt.Println("No candidate terms found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TERM\tTRANSLATION\tOCCURRENCES")
		for _, c := range candidates {
			fmt.Fprintf(w, "%s\t%s\t%d\n", c.Term, c.Translation, c.Occurrences)
		}
		return w.Flush()
	},
}

var glossaryAddCmd = &cobra.Command{
	Use:   "add <term> <translation>",
	Short: "Store a glossary term for a language pair",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if glsSourceLang == "" || glsTargetLang == "" {
			return fmt.Errorf("--source and --target are required")
		}
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.AddGlossaryTerm(context.Background(), glsSourceLang, glsTargetLang, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to add term: %w", err)
		}
		fmt.Printf("Added: %s -> %s (%s -> %s)\n", args[0], args[1], glsSourceLang, glsTargetLang)
		return nil
	},
}

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored glossary terms",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListGlossaryTerms(context.Background(), glsSourceLang, glsTargetLang)
		if err != nil {
			return fmt.Errorf("failed to list terms: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No glossary terms stored.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPAIR\tTERM\tTRANSLATION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s->%s\t%s\t%s\n", e.ID, e.SourceLang, e.TargetLang, e.SourceTerm, e.TargetTerm)
		}
		return w.Flush()
	},
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored glossary term by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteGlossaryTerm(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete term: %w", err)
		}
		fmt.Printf("Deleted term: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)
	glossaryCmd.AddCommand(glossaryFilterCmd, glossaryExtractCmd, glossaryAddCmd, glossaryListCmd, glossaryDeleteCmd)

	glossaryCmd.PersistentFlags().StringVarP(&glsSourceLang, "source", "s", "", "Source language code")
	glossaryCmd.PersistentFlags().StringVarP(&glsTargetLang, "target", "t", "", "Target language code")

	glossaryFilterCmd.Flags().StringVarP(&glsCSVFile, "file", "f", "", "Glossary CSV file (required)")
	glossaryFilterCmd.Flags().StringVarP(&glsInputFile, "input", "i", "", "Text file to filter against (default: stdin)")

	glossaryExtractCmd.Flags().StringVar(&glsTMXFile, "tmx", "", "TMX file to mine (required)")
	glossaryExtractCmd.Flags().IntVar(&glsMinOccur, "min-occurrences", 2, "Minimum occurrences for a candidate")
	glossaryExtractCmd.Flags().IntVar(&glsLimit, "limit", 50, "Maximum candidates to print")
}
