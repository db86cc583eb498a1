// Package fuzz provides normalized string similarity scores on a 0–100
// scale. Ratio compares two whole strings; PartialRatio finds the best
// alignment of the shorter string inside the longer one, which makes it
// suitable for substring-style matching (glossary terms inside a
// translation, for example).
package fuzz

// Ratio returns a similarity score in [0, 100] between a and b
// (100 = identical). Rune-aware; comparison is case-sensitive, so callers
// that want case-insensitive matching should lowercase first.
func Ratio(a, b string) float64 {
	if a == b {
		return 100.0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 100.0
	}
	return 100.0 * (1.0 - float64(levenshtein(a, b))/float64(maxLen))
}

// PartialRatio returns the best Ratio between the shorter of the two strings
// and any equally long window of the longer one. A score of 100 means the
// shorter string appears verbatim somewhere in the longer.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100.0
		}
		return 0.0
	}
	if len(ra) == len(rb) {
		return Ratio(string(ra), string(rb))
	}

	short := string(ra)
	best := 0.0
	for i := 0; i+len(ra) <= len(rb); i++ {
		score := Ratio(short, string(rb[i:i+len(ra)]))
		if score > best {
			best = score
			if best == 100.0 {
				break
			}
		}
	}
	return best
}

// levenshtein returns the edit distance between two strings (rune-aware).
// Uses a space-optimized two-row DP implementation.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
			} else {
				min := prev[j]
				if prev[j-1] < min {
					min = prev[j-1]
				}
				if curr[j-1] < min {
					min = curr[j-1]
				}
				curr[j] = min + 1
			}
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}
