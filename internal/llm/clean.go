package llm

import (
	"errors"
	"regexp"
	"strings"
)

var errEmptyResponse = errors.New("empty response from API")

// Clean strips common LLM artifacts from generated text: reasoning blocks,
// echoed instructions, and wrapping quotes. Applied to translator output
// before it enters the job state.
func Clean(text string) string {
	text = stripReasoningBlocks(text)
	text = stripEchoPrefix(text)
	text = stripWrappingQuotes(text)
	return strings.TrimSpace(text)
}

// reasoningBlockRe matches complete <think>…</think> style blocks. Tag
// variants are listed explicitly; RE2 has no backreferences.
var reasoningBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>`,
)

// openReasoningRe matches a reasoning tag the model never closed.
var openReasoningRe = regexp.MustCompile(`(?is)(?:<thinking>|<think>|<reasoning>).*$`)

func stripReasoningBlocks(text string) string {
	text = reasoningBlockRe.ReplaceAllString(text, "")
	return strings.TrimSpace(openReasoningRe.ReplaceAllString(text, ""))
}

// echoRe matches introductory phrases some models prepend even when told
// not to ("Here is the translation:", "Translated text:", ...). Anchored to
// the start and requiring a colon to avoid eating legitimate content.
var echoRe = regexp.MustCompile(
	`(?i)^(?:(?:certainly|sure|of course)[,.]? )?(?:here(?:'s| is)(?: the)? )?(?:translated |refined )?(?:translation|text)\s*:`,
)

func stripEchoPrefix(text string) string {
	if loc := echoRe.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[loc[1]:])
	}
	return text
}

// stripWrappingQuotes removes one matching pair of outer quotes when the
// whole text is wrapped in them.
func stripWrappingQuotes(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	pairs := map[rune]rune{'"': '"', '\'': '\'', '«': '»', '“': '”', '‘': '’'}
	if close, ok := pairs[runes[0]]; ok && runes[n-1] == close {
		return strings.TrimSpace(string(runes[1 : n-1]))
	}
	return text
}
