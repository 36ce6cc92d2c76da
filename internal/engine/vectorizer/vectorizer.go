package vectorizer

import (
	"fmt"
	"math"
	"sort"

	"github.com/crimson-sun/murmur/internal/model"
)

// DefaultMaxFeatures caps the vocabulary size when no cap is configured.
const DefaultMaxFeatures = 1000

// Norm selects the per-row normalization applied after TF-IDF weighting.
type Norm int

const (
	NormNone Norm = iota
	NormL2
)

// ParseNorm converts "none" or "l2" to a Norm. Unknown values are NormNone.
func ParseNorm(s string) Norm {
	if s == "l2" {
		return NormL2
	}
	return NormNone
}

// Vectorizer converts documents to TF-IDF feature vectors over a vocabulary
// learned by Fit. Not safe for concurrent Fit calls.
type Vectorizer struct {
	maxFeatures int
	norm        Norm
	vocab       *Vocabulary
}

// New creates a Vectorizer keeping at most maxFeatures terms. A
// non-positive cap falls back to DefaultMaxFeatures.
func New(maxFeatures int, norm Norm) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &Vectorizer{maxFeatures: maxFeatures, norm: norm}
}

// Vocabulary returns the fitted vocabulary, or nil before Fit.
func (v *Vectorizer) Vocabulary() *Vocabulary {
	return v.vocab
}

// FeatureNames returns the vocabulary terms in column order.
func (v *Vectorizer) FeatureNames() []string {
	if v.vocab == nil {
		return nil
	}
	return v.vocab.Terms()
}

// Width returns the feature vector width, or 0 before Fit.
func (v *Vectorizer) Width() int {
	if v.vocab == nil {
		return 0
	}
	return v.vocab.Size()
}

// Fit builds a new vocabulary from the corpus, replacing any previous one.
// Vectors produced against an earlier vocabulary are no longer compatible.
// Terms are ranked by corpus frequency (ties: first seen) and the top
// maxFeatures are kept in first-seen order.
func (v *Vectorizer) Fit(docs []string) (*Vocabulary, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("vectorizer fit: %w", model.ErrEmptyCorpus)
	}

	type termStat struct {
		term  string
		first int
		tf    int
		df    int
	}
	stats := make(map[string]*termStat)
	var order []*termStat

	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(doc) {
			st, ok := stats[tok]
			if !ok {
				st = &termStat{term: tok, first: len(order)}
				stats[tok] = st
				order = append(order, st)
			}
			st.tf++
			if !seen[tok] {
				st.df++
				seen[tok] = true
			}
		}
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("vectorizer fit: %w", model.ErrEmptyCorpus)
	}

	kept := order
	if len(order) > v.maxFeatures {
		ranked := make([]*termStat, len(order))
		copy(ranked, order)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].tf > ranked[j].tf
		})
		kept = ranked[:v.maxFeatures]
		sort.Slice(kept, func(i, j int) bool { return kept[i].first < kept[j].first })
	}

	n := float64(len(docs))
	vocab := &Vocabulary{
		terms:    make([]string, len(kept)),
		index:    make(map[string]int, len(kept)),
		idf:      make([]float64, len(kept)),
		docCount: len(docs),
	}
	for i, st := range kept {
		vocab.terms[i] = st.term
		vocab.index[st.term] = i
		vocab.idf[i] = math.Log(n / (1 + float64(st.df)))
	}

	v.vocab = vocab
	return vocab, nil
}

// Transform produces one feature vector per document using the fitted
// vocabulary. Out-of-vocabulary terms contribute nothing; a document with
// no known terms yields a zero vector.
func (v *Vectorizer) Transform(docs []string) ([]model.FeatureVector, error) {
	if v.vocab == nil {
		return nil, fmt.Errorf("vectorizer transform: %w", model.ErrNotFitted)
	}
	out := make([]model.FeatureVector, len(docs))
	for i, doc := range docs {
		out[i] = v.transformOne(doc)
	}
	return out, nil
}

// FitTransform fits the vocabulary on docs and transforms the same docs.
func (v *Vectorizer) FitTransform(docs []string) ([]model.FeatureVector, error) {
	if _, err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

func (v *Vectorizer) transformOne(doc string) model.FeatureVector {
	vec := make(model.FeatureVector, v.vocab.Size())
	for _, tok := range Tokenize(doc) {
		if i, ok := v.vocab.index[tok]; ok {
			vec[i]++
		}
	}
	for i, tf := range vec {
		if tf != 0 {
			vec[i] = tf * v.vocab.idf[i]
		}
	}
	if v.norm == NormL2 {
		normalizeL2(vec)
	}
	return vec
}

func normalizeL2(vec model.FeatureVector) {
	var sum float64
	for _, x := range vec {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range vec {
		vec[i] *= inv
	}
}
