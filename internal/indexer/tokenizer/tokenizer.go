// Package tokenizer turns raw text into the ordered term sequence shared by
// every index. It strips diacritics, lower-cases, replaces anything that is
// not a letter or whitespace with a space, splits, and drops stop-words.
// Order and repetition are preserved; counting happens downstream.
package tokenizer

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

//go:embed stopwords_es.txt
var defaultStopWords string

// Normalizer is immutable after construction and safe for concurrent use.
type Normalizer struct {
	stopWords map[string]struct{}
}

// New builds a Normalizer over the given stop-words. Entries are folded the
// same way as document text so accented forms match their stripped tokens.
func New(stopWords []string) *Normalizer {
	set := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		w = strings.TrimSpace(fold(w))
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return &Normalizer{stopWords: set}
}

// Default returns a Normalizer over the bundled Spanish stop-word list.
func Default() *Normalizer {
	return New(parseLines(defaultStopWords))
}

// NewFromFile loads a line-delimited stop-word file. An empty path selects
// the bundled list.
func NewFromFile(path string) (*Normalizer, error) {
	if path == "" {
		return Default(), nil
	}
	words, err := LoadStopWords(path)
	if err != nil {
		return nil, err
	}
	return New(words), nil
}

// LoadStopWords reads one stop-word per line, skipping blank lines.
func LoadStopWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stop-word file: %w", err)
	}
	defer f.Close()
	words := make([]string, 0, 256)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" {
			words = append(words, w)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stop-word file: %w", err)
	}
	return words, nil
}

// Normalize returns the ordered terms of text with stop-words removed.
func (n *Normalizer) Normalize(text string) []string {
	if text == "" {
		return []string{}
	}
	words := strings.FieldsFunc(fold(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if _, isStop := n.stopWords[w]; isStop {
			continue
		}
		terms = append(terms, w)
	}
	return terms
}

// IsStopWord reports whether term, once folded, is a stop-word.
func (n *Normalizer) IsStopWord(term string) bool {
	_, ok := n.stopWords[fold(term)]
	return ok
}

// StopWordCount returns the size of the stop-word set.
func (n *Normalizer) StopWordCount() int {
	return len(n.stopWords)
}

// Fold strips diacritics and lower-cases s without splitting it. Word-vector
// vocabularies are keyed through Fold so they line up with index terms.
func Fold(s string) string {
	return fold(s)
}

// fold strips diacritics (NFKD, drop nonspacing marks) and lower-cases.
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.ToLower(stripped)
}

func parseLines(s string) []string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
