// Package styleguide derives style guidance from translation memory when no
// explicit style guide was supplied. The cheap path formats high-usage
// memory entries as examples; Synthesize asks an LLM to write a proper
// guide from the same examples.
package styleguide

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/valpere/tradqa/internal/llm"
	"github.com/valpere/tradqa/internal/tmx"
)

// DefaultMaxExamples is the number of memory entries used for inference
// when the caller does not specify one.
const DefaultMaxExamples = 5

// InferFromMemory builds a style-guidance block from the highest-usage
// memory entries. Returns "" when mem is nil or empty, in which case the
// caller proceeds without explicit style guidance.
func InferFromMemory(mem *tmx.Memory, maxExamples int) string {
	if mem == nil || len(mem.Entries) == 0 {
		return ""
	}
	if maxExamples <= 0 {
		maxExamples = DefaultMaxExamples
	}

	examples := topByUsage(mem.Entries, maxExamples)

	var sb strings.Builder
	sb.WriteString("The following examples illustrate the desired tone, register, and syntax. Maintain consistency with them:\n")
	for _, e := range examples {
		fmt.Fprintf(&sb, "- %q -> %q\n", e.Source, e.Target)
	}
	return sb.String()
}

// Synthesize asks the generation client to write a style guide from memory
// examples. Used by the extract-style command; the review pipeline uses the
// cheaper InferFromMemory.
func Synthesize(ctx context.Context, client llm.Client, mem *tmx.Memory, maxExamples int) (string, error) {
	if mem == nil || len(mem.Entries) == 0 {
		return "", fmt.Errorf("no translation memory entries to infer style from")
	}
	if maxExamples <= 0 {
		maxExamples = 50
	}

	var sb strings.Builder
	for _, e := range topByUsage(mem.Entries, maxExamples) {
		fmt.Fprintf(&sb, "- %q -> %q\n", e.Source, e.Target)
	}

	prompt := llm.Prompt{
		System: "You are a professional localization specialist.",
		User: fmt.Sprintf(`Analyse the following bilingual examples and produce a detailed style guide covering tone, register, punctuation, preferred constructions, formatting conventions, and voice. Focus on guidance applicable to future translations of similar content.

Examples:
%s
STYLE GUIDE:`, sb.String()),
	}

	content, err := client.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("style guide synthesis failed: %w", err)
	}
	return strings.TrimSpace(content), nil
}

// topByUsage returns up to n entries sorted by usage count descending.
// Source text breaks ties so the selection is deterministic.
func topByUsage(entries []tmx.Entry, n int) []tmx.Entry {
	sorted := make([]tmx.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UsageCount != sorted[j].UsageCount {
			return sorted[i].UsageCount > sorted[j].UsageCount
		}
		return sorted[i].Source < sorted[j].Source
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
