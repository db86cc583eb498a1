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

	"github.com/valpere/tradqa/internal/store"
	"github.com/valpere/tradqa/internal/tmx"
)

var (
	cacheSourceLang string
	cacheTargetLang string
	cacheTMXFile    string
	cacheJobLimit   int
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation memory database",
	Long:  `Inspect, import into, and clear the SQLite translation memory.`,
}

func mustOpenStore() (*store.Store, error) {
	db, err := openStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if db == nil {
		return nil, fmt.Errorf("no database configured (set TRADQA_DB_PATH)")
	}
	return db, nil
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show translation memory statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		fmt.Printf("Total entries:   %d\n", stats.TotalEntries)
		fmt.Printf("Active entries:  %d\n", stats.ActiveEntries)
		fmt.Printf("Invalid entries: %d\n", stats.InvalidEntries)
		fmt.Printf("Total usage:     %d\n", stats.TotalUsage)
		return nil
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List memory entries for a language pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cacheSourceLang == "" || cacheTargetLang == "" {
			return fmt.Errorf("--source and --target are required")
		}
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.MemoryEntries(context.Background(), cacheSourceLang, cacheTargetLang)
		if err != nil {
			return fmt.Errorf("failed to list entries: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No entries in translation memory.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "USED\tSOURCE\tTARGET")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\n", e.UsageCount, truncate(e.Source, 40), truncate(e.Target, 40))
		}
		return w.Flush()
	},
}

var cacheImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a TMX file into translation memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cacheTMXFile == "" {
			return fmt.Errorf("--tmx is required")
		}
		if cacheSourceLang == "" || cacheTargetLang == "" {
			return fmt.Errorf("--source and --target are required")
		}
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		mem, err := tmx.Load(cacheTMXFile, cacheSourceLang, cacheTargetLang)
		if err != nil {
			return err
		}
		n, err := db.ImportMemory(context.Background(), mem.Entries)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Printf("Imported %d entries for %s -> %s\n", n, cacheSourceLang, cacheTargetLang)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries from translation memory",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearMemory(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear memory: %w", err)
		}
		fmt.Printf("Removed %d entries\n", n)
		return nil
	},
}

var cacheJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent translation jobs and their review scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := mustOpenStore()
		if err != nil {
			return err
		}
		defer db.Close()

		recs, err := db.ListJobs(context.Background(), cacheJobLimit)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}
		if len(recs) == 0 {
			fmt.Println("No jobs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPAIR\tSCORE\tCREATED\tSOURCE")
		for _, r := range recs {
			score := "-"
			if r.ReviewScore != nil {
				score = fmt.Sprintf("%.2f", *r.ReviewScore)
			}
			fmt.Fprintf(w, "%s\t%s->%s\t%s\t%s\t%s\n",
				r.ID, r.SourceLang, r.TargetLang, score,
				r.CreatedAt.Format("2006-01-02 15:04"), truncate(r.SourceText, 40))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheListCmd, cacheImportCmd, cacheClearCmd, cacheJobsCmd)

	cacheCmd.PersistentFlags().StringVarP(&cacheSourceLang, "source", "s", "", "Source language code")
	cacheCmd.PersistentFlags().StringVarP(&cacheTargetLang, "target", "t", "", "Target language code")
	cacheImportCmd.Flags().StringVar(&cacheTMXFile, "tmx", "", "TMX file to import (required)")
	cacheJobsCmd.Flags().IntVar(&cacheJobLimit, "limit", 20, "Jobs to list")
}
