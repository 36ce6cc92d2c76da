package output

import (
	"github.com/crimson-sun/murmur/internal/engine/compactor"
	"github.com/crimson-sun/murmur/internal/model"
)

// FormatResult returns a copy of the result trimmed according to verbosity.
// At Minimal, per-document text, explanations and uncertainty are dropped.
// At Standard, text is shortened and only the strongest contributions are
// kept. At Full, the result is unchanged.
func FormatResult(r model.AnalysisResult, verbosity compactor.Verbosity) model.AnalysisResult {
	return compactor.New(verbosity).Compact(r)
}
