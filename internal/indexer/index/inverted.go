package index

// Stats are the corpus statistics BM25F needs.
type Stats struct {
	N          int                       `json:"n"`
	DF         map[string]int            `json:"df"`
	DocLengths map[string]map[string]int `json:"doc_lengths"`
	AvgLength  map[string]float64        `json:"avg_length"`
}

// InvertedIndex maps every term to the documents containing it.
type InvertedIndex struct {
	Postings map[string]PostingList `json:"postings"`
	Stats    Stats                  `json:"stats"`
}

// Search returns the postings of term, or nil when the term is unknown.
func (x *InvertedIndex) Search(term string) PostingList {
	return x.Postings[term]
}

// DF returns the number of documents containing term in any field.
func (x *InvertedIndex) DF(term string) int {
	return x.Stats.DF[term]
}

// FieldLength returns the token count of field in docID.
func (x *InvertedIndex) FieldLength(docID, field string) int {
	return x.Stats.DocLengths[docID][field]
}

// AvgFieldLength returns the mean length of field over the documents that
// have it, or 0 when none do.
func (x *InvertedIndex) AvgFieldLength(field string) float64 {
	return x.Stats.AvgLength[field]
}

// Terms returns the vocabulary size.
func (x *InvertedIndex) Terms() int {
	return len(x.Postings)
}
