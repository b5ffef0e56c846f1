package handler

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/tokenizer"
)

const (
	snippetContext  = 100
	snippetFallback = 200
)

// Snippet returns the text around the first occurrence of the first query
// word found in text: snippetContext runes either side of the match. Words
// are matched case- and accent-insensitively. Without a match it returns the
// first snippetFallback runes.
func Snippet(text string, words []string) string {
	orig := []rune(text)
	folded := make([]rune, 0, len(orig))
	origIdx := make([]int, 0, len(orig))
	for i, r := range orig {
		for _, f := range tokenizer.Fold(string(r)) {
			folded = append(folded, f)
			origIdx = append(origIdx, i)
		}
	}
	for _, w := range words {
		needle := []rune(tokenizer.Fold(w))
		if len(needle) == 0 {
			continue
		}
		pos := indexRunes(folded, needle)
		if pos < 0 {
			continue
		}
		start := max(0, origIdx[pos]-snippetContext)
		end := min(len(orig), origIdx[pos+len(needle)-1]+1+snippetContext)
		return strings.TrimSpace(string(orig[start:end]))
	}
	return strings.TrimSpace(string(orig[:min(len(orig), snippetFallback)]))
}

func indexRunes(haystack, needle []rune) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, r := range needle {
			if haystack[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
