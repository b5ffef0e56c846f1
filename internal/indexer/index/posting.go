package index

// Posting records how often a term occurs in each field of one document.
type Posting struct {
	DocID  string         `json:"d"`
	Fields map[string]int `json:"ff"`
}

// PostingList is ordered by document enumeration order.
type PostingList []Posting
