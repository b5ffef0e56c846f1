package embed

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/vector"
)

// LoadVecFile reads a fastText/word2vec text model: an optional
// "<count> <dim>" header line, then "<word> <v1> ... <vD>" per line. Only
// words in keep are retained when keep is non-nil, which bounds memory to
// the corpus vocabulary. When key is non-nil each word is stored under
// key(word); the first occurrence wins, so frequency-ordered files keep
// their most common surface form.
func LoadVecFile(path string, keep map[string]struct{}, key func(string) string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vector file: %w", err)
	}
	defer f.Close()
	m, err := ReadVec(f, keep, key)
	if err != nil {
		return nil, fmt.Errorf("reading vector file %s: %w", path, err)
	}
	slog.Default().With("component", "embed").Info("word vectors loaded",
		"path", path,
		"words", m.Len(),
		"dimension", m.Dimension(),
	)
	return m, nil
}

// ReadVec parses the text vector format from r.
func ReadVec(r io.Reader, keep map[string]struct{}, key func(string) string) (*Map, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	m := &Map{vectors: make(map[string]vector.Dense)}
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 && len(fields) == 2 {
			if dim, err := strconv.Atoi(fields[1]); err == nil {
				m.dim = dim
				continue
			}
		}
		if m.dim == 0 {
			m.dim = len(fields) - 1
		}
		if len(fields)-1 != m.dim {
			return nil, fmt.Errorf("line %d: expected %d components, got %d", lineNo, m.dim, len(fields)-1)
		}
		word := fields[0]
		if key != nil {
			word = key(word)
		}
		if _, dup := m.vectors[word]; dup {
			continue
		}
		if keep != nil {
			if _, ok := keep[word]; !ok {
				continue
			}
		}
		vec := make(vector.Dense, m.dim)
		for i, s := range fields[1:] {
			x, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: component %d: %w", lineNo, i, err)
			}
			vec[i] = float32(x)
		}
		m.vectors[word] = vec
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
