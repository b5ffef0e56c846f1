// Package expansion appends dictionary synonyms to a normalized query.
package expansion

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Dictionary maps a term to its ordered synonyms. It is read-only once
// loaded; a nil or empty Dictionary expands to the identity.
type Dictionary struct {
	synonyms map[string][]string
}

// New wraps an in-memory mapping. The map is copied.
func New(synonyms map[string][]string) *Dictionary {
	cp := make(map[string][]string, len(synonyms))
	for term, syns := range synonyms {
		cp[term] = append([]string(nil), syns...)
	}
	return &Dictionary{synonyms: cp}
}

// Load reads a JSON or YAML synonym file of the form
// {"term": ["syn1", "syn2"]}. A missing file is not an error: the returned
// Dictionary is empty.
func Load(path string) (*Dictionary, error) {
	if path == "" {
		return New(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Default().With("component", "expansion").Warn("synonym dictionary not found, expansion disabled", "path", path)
			return New(nil), nil
		}
		return nil, fmt.Errorf("reading synonym dictionary %s: %w", path, err)
	}
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing synonym dictionary %s: %w", path, err)
	}
	return &Dictionary{synonyms: raw}, nil
}

// Len returns the number of terms with synonyms.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.synonyms)
}

// Expand returns terms followed by every synonym not already present, in
// input order then dictionary order. Empty synonyms are skipped.
func (d *Dictionary) Expand(terms []string) []string {
	expanded := make([]string, len(terms), len(terms)+4)
	copy(expanded, terms)
	if d.Len() == 0 {
		return expanded
	}
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		seen[t] = struct{}{}
	}
	for _, t := range terms {
		for _, syn := range d.synonyms[t] {
			if syn == "" {
				continue
			}
			if _, dup := seen[syn]; dup {
				continue
			}
			seen[syn] = struct{}{}
			expanded = append(expanded, syn)
		}
	}
	return expanded
}
