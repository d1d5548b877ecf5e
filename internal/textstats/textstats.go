// Package textstats derives the readability fields of a story from its body text.
// Every function is pure: the same text always yields the same result.
package textstats

import (
	"strings"
	"unicode"
)

// Reading rates in words (or ideographs) per minute
const (
	CJKReadingRate   = 200
	LatinReadingRate = 250
)

// Stats are the derived fields of a story body
type Stats struct {
	WordCount   int
	ReadingTime int
	CJK         bool
}

// isIdeograph reports whether r is in the CJK Unified Ideographs block
func isIdeograph(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// ContainsCJK reports whether text contains at least one CJK ideograph
func ContainsCJK(text string) bool {
	return strings.ContainsFunc(text, isIdeograph)
}

// WordCount counts non-whitespace characters for CJK text and whitespace-delimited words otherwise
func WordCount(text string) int {
	if ContainsCJK(text) {
		count := 0
		for _, r := range text {
			if !unicode.IsSpace(r) {
				count++
			}
		}
		return count
	}
	return len(strings.Fields(text))
}

// ReadingTime returns whole minutes, rounded down, never less than one
func ReadingTime(wordCount int, cjk bool) int {
	rate := LatinReadingRate
	if cjk {
		rate = CJKReadingRate
	}
	return max(1, wordCount/rate)
}

// Compute derives all fields at once
func Compute(text string) Stats {
	cjk := ContainsCJK(text)
	words := WordCount(text)
	return Stats{
		WordCount:   words,
		ReadingTime: ReadingTime(words, cjk),
		CJK:         cjk,
	}
}
