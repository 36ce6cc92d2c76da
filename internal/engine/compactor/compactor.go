package compactor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/crimson-sun/murmur/internal/model"
)

// Verbosity controls how much per-document detail an analysis result keeps
// when it is handed to a presentation collaborator.
type Verbosity int

const (
	Minimal  Verbosity = iota // summary, clusters and labels only
	Standard                  // short text previews, top contributions
	Full                      // retain everything
)

const (
	standardPreviewRunes  = 140
	standardContributions = 5
)

func (v Verbosity) String() string {
	switch v {
	case Minimal:
		return "minimal"
	case Standard:
		return "standard"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

// ParseVerbosity converts a configuration string to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(s) {
	case "minimal":
		return Minimal, nil
	case "", "standard":
		return Standard, nil
	case "full":
		return Full, nil
	default:
		return 0, fmt.Errorf("unknown verbosity %q", s)
	}
}

// Compactor trims analysis results according to its verbosity.
type Compactor struct {
	Verbosity Verbosity
}

// New creates a Compactor with the given verbosity level.
func New(v Verbosity) *Compactor {
	return &Compactor{Verbosity: v}
}

// Compact returns a trimmed copy of r. The input is not modified.
func (c *Compactor) Compact(r model.AnalysisResult) model.AnalysisResult {
	if c.Verbosity >= Full || len(r.Results) == 0 {
		return r
	}

	results := make([]model.DocumentResult, len(r.Results))
	for i, d := range r.Results {
		switch c.Verbosity {
		case Minimal:
			d.Text = ""
			d.Explanation = nil
			d.Uncertainty = nil
		default:
			d.Text = truncate(d.Text, standardPreviewRunes)
			if d.Explanation != nil {
				e := *d.Explanation
				if len(e.Contributions) > standardContributions {
					e.Contributions = e.Contributions[:standardContributions:standardContributions]
				}
				d.Explanation = &e
			}
		}
		results[i] = d
	}
	r.Results = results
	return r
}

// truncate shortens s to at most maxRunes runes, appending "..." when cut.
func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes]) + "..."
}
