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

	"github.com/spf13/cobra"

	"github.com/valpere/tradqa/internal/llm"
	"github.com/valpere/tradqa/internal/styleguide"
)

var (
	styleTMXFile    string
	styleSourceLang string
	styleTargetLang string
	styleOutFile    string
	styleExamples   int
)

var styleCmd = &cobra.Command{
	Use:   "extract-style",
	Short: "Synthesize a style guide from translation memory",
	Long: `Analyse the highest-usage entries of a translation memory and write a
style guide (tone, register, conventions) for future translations of
similar content. Requires generation credentials.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if styleTMXFile == "" {
			return fmt.Errorf("--tmx is required")
		}

		ctx := context.Background()

		mem, err := loadMemory(ctx, nil, styleTMXFile, styleSourceLang, styleTargetLang)
		if err != nil {
			return err
		}
		if mem == nil {
			return fmt.Errorf("no entries for %s -> %s in %s", styleSourceLang, styleTargetLang, styleTMXFile)
		}

		client := newClient()
		if client == nil {
			return llm.ErrCredentialsMissing
		}

		guide, err := styleguide.Synthesize(ctx, client, mem, styleExamples)
		if err != nil {
			return err
		}
		return writeOutput(styleOutFile, guide)
	},
}

func init() {
	rootCmd.AddCommand(styleCmd)

	styleCmd.Flags().StringVar(&styleTMXFile, "tmx", "", "TMX file to analyse (required)")
	styleCmd.Flags().StringVarP(&styleSourceLang, "source", "s", "", "Source language code")
	styleCmd.Flags().StringVarP(&styleTargetLang, "target", "t", "", "Target language code")
	styleCmd.Flags().StringVarP(&styleOutFile, "output", "o", "", "Output file (default: stdout)")
	styleCmd.Flags().IntVar(&styleExamples, "examples", 50, "Memory entries to analyse")
}
