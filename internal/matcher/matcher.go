// Package matcher decides whether a lyrics search result is the song a client asked for.
//
// Matching is loose: at least half of the query's words must appear somewhere in the candidate title,
// ignoring case, punctuation, word order and extra words.
package matcher

import (
	"strings"
	"unicode"
)

// Strip removes every rune that is not a letter, digit or whitespace.
func Strip(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// MaxErrors is how many query words a candidate may miss: half the word count, rounded down.
func MaxErrors(words []string) int {
	return len(words) / 2
}

// IsMatch reports whether candidate contains enough of query's words to be the same song.
func IsMatch(query, candidate string) bool {
	words := strings.Fields(Strip(query))
	maxErrors := MaxErrors(words)
	haystack := strings.ToLower(Strip(candidate))

	misses := 0
	for _, word := range words {
		if strings.Contains(haystack, strings.ToLower(word)) {
			continue
		}
		misses++
		if misses > maxErrors {
			return false
		}
	}
	return true
}
