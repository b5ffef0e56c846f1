// Package parser turns a raw query string into a QueryPlan: the normalized
// terms and, when enabled, their synonym expansion.
package parser

import (
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/searcher/expansion"
)

type QueryPlan struct {
	RawQuery string
	// Terms are the normalized query tokens, repetitions kept.
	Terms []string
	// Expanded is Terms followed by the synonyms that were added.
	Expanded []string
}

// Empty reports whether nothing searchable is left after normalization.
func (p *QueryPlan) Empty() bool {
	return len(p.Expanded) == 0
}

// Synonyms returns the terms contributed by expansion.
func (p *QueryPlan) Synonyms() []string {
	return p.Expanded[len(p.Terms):]
}

type Parser struct {
	normalizer *tokenizer.Normalizer
	dictionary *expansion.Dictionary
	expand     bool
}

// New creates a Parser. A nil dictionary or expand=false disables synonym
// expansion.
func New(normalizer *tokenizer.Normalizer, dictionary *expansion.Dictionary, expand bool) *Parser {
	return &Parser{normalizer: normalizer, dictionary: dictionary, expand: expand}
}

func (p *Parser) Parse(query string) *QueryPlan {
	terms := p.normalizer.Normalize(query)
	plan := &QueryPlan{
		RawQuery: query,
		Terms:    terms,
		Expanded: terms,
	}
	if p.expand && p.dictionary != nil {
		plan.Expanded = p.dictionary.Expand(terms)
	}
	return plan
}
