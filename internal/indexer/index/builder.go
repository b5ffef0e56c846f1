package index

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Hybrid-Semantic-Search/internal/indexer/vector"
)

// Partial is the per-document output of the parallel map phase.
type Partial struct {
	DocID string
	// Fields maps field → term → raw count.
	Fields map[string]map[string]int
	// Lengths maps field → token count. A field is present on the document
	// iff it has an entry here.
	Lengths   map[string]int
	Embedding vector.Dense
}

// Builder reduces partials into a Snapshot. It is not safe for concurrent
// use; the build pool feeds it from one goroutine in enumeration order.
type Builder struct {
	opts LexicalOptions
	dim  int

	docIDs      []string
	seen        map[string]struct{}
	counts      []map[string]int
	postings    map[string]PostingList
	df          map[string]int
	lexDF       map[string]int
	lengths     map[string]map[string]int
	fieldTotals map[string]int
	fieldDocs   map[string]int
	embeddings  map[string]vector.Dense
}

func NewBuilder(opts LexicalOptions, dim int) *Builder {
	return &Builder{
		opts:        opts,
		dim:         dim,
		seen:        make(map[string]struct{}),
		postings:    make(map[string]PostingList),
		df:          make(map[string]int),
		lexDF:       make(map[string]int),
		lengths:     make(map[string]map[string]int),
		fieldTotals: make(map[string]int),
		fieldDocs:   make(map[string]int),
		embeddings:  make(map[string]vector.Dense),
	}
}

// Add appends one document. Documents must arrive in enumeration order.
func (b *Builder) Add(p Partial) error {
	if _, dup := b.seen[p.DocID]; dup {
		return fmt.Errorf("duplicate document id %q", p.DocID)
	}
	b.seen[p.DocID] = struct{}{}
	b.docIDs = append(b.docIDs, p.DocID)

	fields := make([]string, 0, len(p.Fields))
	for f := range p.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	text := b.opts.TextFields()
	counts := make(map[string]int)
	perField := make(map[string]map[string]int)
	for _, field := range fields {
		lexical := slices.Contains(text, field)
		for term, f := range p.Fields[field] {
			if f <= 0 {
				continue
			}
			if lexical {
				counts[term] += f
			}
			if perField[term] == nil {
				perField[term] = make(map[string]int, 1)
			}
			perField[term][field] = f
		}
	}
	b.counts = append(b.counts, counts)
	for term := range counts {
		b.lexDF[term]++
	}
	for term, ff := range perField {
		b.postings[term] = append(b.postings[term], Posting{DocID: p.DocID, Fields: ff})
		b.df[term]++
	}

	lengths := make(map[string]int, len(p.Lengths))
	for field, n := range p.Lengths {
		lengths[field] = n
		b.fieldTotals[field] += n
		b.fieldDocs[field]++
	}
	b.lengths[p.DocID] = lengths

	emb := p.Embedding
	if len(emb) != b.dim {
		emb = vector.Zero(b.dim)
	}
	b.embeddings[p.DocID] = emb
	return nil
}

// DocCount returns the number of documents added so far.
func (b *Builder) DocCount() int {
	return len(b.docIDs)
}

// Finish computes IDF, the weighted document vectors and the average field
// lengths, and returns the prepared snapshot.
func (b *Builder) Finish(version string, builtAt time.Time) *Snapshot {
	n := len(b.docIDs)
	idf := make(map[string]float64, len(b.lexDF))
	for term, df := range b.lexDF {
		idf[term] = IDF(n, df, b.opts.SmoothIDF)
	}
	lex := &LexicalIndex{
		Options: b.opts,
		IDF:     idf,
		Vectors: make(map[string]vector.Sparse, n),
	}
	for i, id := range b.docIDs {
		lex.Vectors[id] = lex.Weigh(b.counts[i])
	}

	avg := make(map[string]float64, len(b.fieldDocs))
	for field, docs := range b.fieldDocs {
		if docs > 0 {
			avg[field] = float64(b.fieldTotals[field]) / float64(docs)
		}
	}
	docIDs := make([]string, n)
	copy(docIDs, b.docIDs)

	snap := &Snapshot{
		Version: version,
		BuiltAt: builtAt.UTC(),
		DocIDs:  docIDs,
		Lexical: lex,
		Inverted: &InvertedIndex{
			Postings: b.postings,
			Stats: Stats{
				N:          n,
				DF:         b.df,
				DocLengths: b.lengths,
				AvgLength:  avg,
			},
		},
		Semantic: &SemanticIndex{
			Dimension: b.dim,
			Vectors:   b.embeddings,
		},
	}
	snap.Prepare()
	return snap
}
