package murmur

import "github.com/crimson-sun/murmur/internal/model"

// Example is one labeled training post. Label is a name ("positive",
// "negative", "neutral") or a numeric code.
type Example struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Post is the analysis of one distinct post.
type Post struct {
	Text       string  `json:"text"`
	Count      int     `json:"count"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Cluster    int     `json:"cluster"` // -1 for noise
	Group      int     `json:"group"`
	// Reasons lists the terms that pushed the prediction, strongest first.
	Reasons []string `json:"reasons,omitempty"`
	// Interval is the 95% uncertainty band, when enabled.
	Interval *[2]float64 `json:"interval,omitempty"`
}

// Result is the outcome of one Analyze call.
type Result struct {
	Keyword  string         `json:"keyword"`
	Posts    []Post         `json:"posts"`
	Summary  map[string]int `json:"summary"`
	Clusters int            `json:"clusters"`
	Noise    int            `json:"noise"`
	Skipped  int            `json:"skipped"`
}

func resultFromAnalysis(r model.AnalysisResult) Result {
	out := Result{
		Keyword:  r.Keyword,
		Posts:    make([]Post, len(r.Results)),
		Summary:  make(map[string]int, len(r.Summary)),
		Clusters: len(r.Clusters.Sizes),
		Noise:    r.Clusters.Noise,
		Skipped:  r.Skipped,
	}
	for _, lc := range r.Summary {
		out.Summary[lc.Name] = lc.Count
	}
	for i, d := range r.Results {
		p := Post{
			Text:       d.Text,
			Count:      d.Count,
			Label:      d.LabelName,
			Confidence: d.Confidence,
			Cluster:    d.Cluster,
			Group:      d.Group,
		}
		if d.Explanation != nil {
			for _, c := range d.Explanation.Contributions {
				p.Reasons = append(p.Reasons, c.Feature)
			}
		}
		if d.Uncertainty != nil {
			p.Interval = &[2]float64{d.Uncertainty.Lower, d.Uncertainty.Upper}
		}
		out.Posts[i] = p
	}
	return out
}
