package compactor

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/crimson-sun/murmur/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateRuneSafety(t *testing.T) {
	input := strings.Repeat("日本語", 100) // 300 runes, 900 bytes
	result := truncate(input, 10)

	require.True(t, utf8.ValidString(result))
	assert.Equal(t, 13, utf8.RuneCountInString(result)) // 10 + "..."
	assert.True(t, strings.HasSuffix(result, "..."))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"ascii", "hello world this is a test", 11, "hello world..."},
		{"short", "short", 100, "short"},
		{"exact", "exact", 5, "exact"},
		{"emoji", strings.Repeat("🔥", 50), 2, "🔥🔥..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.max))
		})
	}
}

func TestParseVerbosity(t *testing.T) {
	for in, want := range map[string]Verbosity{"": Standard, "minimal": Minimal, "FULL": Full, "standard": Standard} {
		got, err := ParseVerbosity(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseVerbosity("verbose")
	assert.Error(t, err)
}

func sampleResult() model.AnalysisResult {
	contribs := make([]model.Contribution, 8)
	for i := range contribs {
		contribs[i] = model.Contribution{Feature: "f", Index: i, Weight: float64(8 - i)}
	}
	return model.AnalysisResult{
		Keyword: "coffee",
		Results: []model.DocumentResult{{
			Text:        strings.Repeat("a", 300),
			Label:       model.Positive,
			Explanation: &model.Explanation{Label: model.Positive, Contributions: contribs},
			Uncertainty: &model.UncertaintyPrediction{Mean: 1},
		}},
		Summary: []model.LabelCount{{Label: model.Positive, Name: "positive", Count: 1}},
	}
}

func TestCompactMinimal(t *testing.T) {
	in := sampleResult()
	out := New(Minimal).Compact(in)

	require.Len(t, out.Results, 1)
	assert.Empty(t, out.Results[0].Text)
	assert.Nil(t, out.Results[0].Explanation)
	assert.Nil(t, out.Results[0].Uncertainty)
	assert.Equal(t, in.Summary, out.Summary)

	assert.Len(t, in.Results[0].Text, 300, "input must not be modified")
	assert.NotNil(t, in.Results[0].Explanation)
}

func TestCompactStandard(t *testing.T) {
	in := sampleResult()
	out := New(Standard).Compact(in)

	d := out.Results[0]
	assert.Equal(t, standardPreviewRunes+3, utf8.RuneCountInString(d.Text))
	require.NotNil(t, d.Explanation)
	assert.Len(t, d.Explanation.Contributions, standardContributions)
	assert.Equal(t, 0, d.Explanation.Contributions[0].Index, "highest-ranked contributions kept")
	assert.Len(t, in.Results[0].Explanation.Contributions, 8)
	assert.NotNil(t, d.Uncertainty)
}

func TestCompactFull(t *testing.T) {
	in := sampleResult()
	assert.Equal(t, in, New(Full).Compact(in))
}
