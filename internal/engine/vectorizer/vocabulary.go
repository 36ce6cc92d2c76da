package vectorizer

// Vocabulary maps terms to feature columns. Column order is the order in
// which terms were first seen during fit. A Vocabulary is never modified
// after it is built.
type Vocabulary struct {
	terms    []string
	index    map[string]int
	idf      []float64
	docCount int
}

// Size returns the number of terms, i.e. the feature vector width.
func (v *Vocabulary) Size() int {
	return len(v.terms)
}

// Terms returns a copy of the terms in column order.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Index returns the column of term and whether it is in the vocabulary.
func (v *Vocabulary) Index(term string) (int, bool) {
	i, ok := v.index[term]
	return i, ok
}

// IDF returns the inverse document frequency of the term at column i.
func (v *Vocabulary) IDF(i int) float64 {
	return v.idf[i]
}

// DocCount returns the number of documents the vocabulary was fitted on.
func (v *Vocabulary) DocCount() int {
	return v.docCount
}
