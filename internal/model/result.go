package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NoiseLabel marks a point that belongs to no cluster. It is never a valid
// cluster id.
const NoiseLabel = -1

// ClusterAssignment maps document index to cluster id (or NoiseLabel).
type ClusterAssignment []int

// Contribution is one feature's signed share of a prediction.
type Contribution struct {
	Feature string  `json:"feature"`
	Index   int     `json:"index"`
	Weight  float64 `json:"weight"`
}

// Explanation attributes a single prediction to input features.
type Explanation struct {
	Label         Label          `json:"label"`
	Output        float64        `json:"output"`
	Baseline      float64        `json:"baseline"`
	Contributions []Contribution `json:"contributions"`
}

// Sum returns the sum of all contribution weights.
func (e Explanation) Sum() float64 {
	var s float64
	for _, c := range e.Contributions {
		s += c.Weight
	}
	return s
}

// UncertaintyPrediction is a posterior mean with its variance and 95%
// interval.
type UncertaintyPrediction struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

// DocumentResult is the per-document outcome of an analysis.
type DocumentResult struct {
	Index       int                    `json:"index"`
	Text        string                 `json:"text,omitempty"`
	Count       int                    `json:"count"` // occurrences after duplicate collapsing
	Label       Label                  `json:"label"`
	LabelName   string                 `json:"label_name"`
	Confidence  float64                `json:"confidence"`
	Cluster     int                    `json:"cluster"`
	Group       int                    `json:"group"`
	Uncertainty *UncertaintyPrediction `json:"uncertainty,omitempty"`
	Explanation *Explanation           `json:"explanation,omitempty"`
}

// LabelCount is one row of the label summary.
type LabelCount struct {
	Label Label  `json:"label"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ClusterSummary reports cluster sizes from density clustering.
type ClusterSummary struct {
	Sizes map[int]int `json:"sizes"`
	Noise int         `json:"noise"`
}

// AnalysisResult is the full outcome of one analysis request. It is
// returned to whichever collaborator needs it; nothing is retained between
// requests.
type AnalysisResult struct {
	ID         uuid.UUID        `json:"id"`
	Keyword    string           `json:"keyword"`
	CreatedAt  time.Time        `json:"created_at"`
	Duration   time.Duration    `json:"duration"`
	Family     string           `json:"family"`
	Documents  int              `json:"documents"`
	Unique     int              `json:"unique"`
	Skipped    int              `json:"skipped"`
	Duplicates int              `json:"duplicates"`
	Results    []DocumentResult `json:"results,omitempty"`
	Summary    []LabelCount     `json:"summary"`
	Clusters   ClusterSummary   `json:"clusters"`
}

// SummaryText renders the label summary as "<label>: <count>" lines.
func (r AnalysisResult) SummaryText() string {
	lines := make([]string, len(r.Summary))
	for i, lc := range r.Summary {
		lines[i] = fmt.Sprintf("%s: %d", lc.Name, lc.Count)
	}
	return strings.Join(lines, "\n")
}
