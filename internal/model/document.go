package model

import "time"

// Document is a single raw post handed to the engine. It is treated as an
// immutable value once ingested.
type Document struct {
	Text      string
	Source    string    // provider name (e.g. "file", "static")
	Timestamp time.Time // zero when the source does not report one
}

// Texts returns the raw text of each document, in order.
func Texts(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Text
	}
	return out
}

// FeatureVector is one row of the feature space, aligned with a fitted
// vocabulary by column index.
type FeatureVector []float64

// LabeledExample pairs a feature vector with its sentiment label.
type LabeledExample struct {
	Vector FeatureVector
	Label  Label
}
