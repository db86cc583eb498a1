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
	"io"
	"os"
	"strings"

	"github.com/valpere/tradqa/internal/glossary"
	"github.com/valpere/tradqa/internal/llm"
	"github.com/valpere/tradqa/internal/store"
	"github.com/valpere/tradqa/internal/tmx"
)

// newClient builds the generation client from configuration. Returns nil
// when no API key is configured; callers decide whether that is fatal.
func newClient() llm.Client {
	client, err := llm.NewOpenAIClient(cfg.LLM)
	if err != nil {
		log.Warn().Err(err).Msg("generation client unavailable")
		return nil
	}
	return client
}

// openStore opens the SQLite database from config, or returns nil when the
// path is explicitly empty.
func openStore() (*store.Store, error) {
	if cfg.DBPath == "" {
		return nil, nil
	}
	return store.New(cfg.DBPath)
}

// readInput returns the text to process: the contents of path when given,
// otherwise everything from stdin.
func readInput(path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// writeOutput writes text to path, or stdout when path is empty.
func writeOutput(path, text string) error {
	if path == "" {
		fmt.Println(text)
		return nil
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// loadGlossary merges glossary terms from an optional CSV file and the
// store's glossary table for the language pair. File terms win on conflict.
func loadGlossary(ctx context.Context, db *store.Store, csvPath, sourceLang, targetLang string) (glossary.Glossary, error) {
	merged := make(glossary.Glossary)

	if db != nil {
		stored, err := db.GlossaryTerms(ctx, sourceLang, targetLang)
		if err != nil {
			return nil, fmt.Errorf("failed to load stored glossary: %w", err)
		}
		for term, tr := range stored {
			merged[term] = tr
		}
	}

	if csvPath != "" {
		fromFile, err := glossary.LoadCSV(csvPath)
		if err != nil {
			return nil, err
		}
		for term, tr := range fromFile {
			merged[term] = tr
		}
	}

	if len(merged) == 0 {
		return nil, nil
	}
	return merged, nil
}

// loadMemory builds the job's translation memory from an optional TMX file
// and the store's accumulated memory for the language pair.
func loadMemory(ctx context.Context, db *store.Store, tmxPath, sourceLang, targetLang string) (*tmx.Memory, error) {
	var entries []tmx.Entry

	if tmxPath != "" {
		mem, err := tmx.Load(tmxPath, sourceLang, targetLang)
		if err != nil {
			return nil, err
		}
		entries = append(entries, mem.Entries...)
	}

	if db != nil {
		stored, err := db.MemoryEntries(ctx, sourceLang, targetLang)
		if err != nil {
			return nil, fmt.Errorf("failed to load stored memory: %w", err)
		}
		entries = append(entries, stored...)
	}

	if len(entries) == 0 {
		return nil, nil
	}
	return &tmx.Memory{
		Entries:      entries,
		LanguagePair: tmx.CanonicalLang(sourceLang) + "->" + tmx.CanonicalLang(targetLang),
	}, nil
}

// loadStyleGuide reads the style guide file when given.
func loadStyleGuide(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read style guide: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// truncate shortens s for tabular display.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
