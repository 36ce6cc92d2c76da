package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Label is a small categorical sentiment code.
type Label int

const (
	Negative Label = 0
	Positive Label = 1
	Neutral  Label = 2
)

// LabelSet maps label codes to human-readable names.
type LabelSet map[Label]string

// DefaultLabels returns the negative/positive/neutral label set.
func DefaultLabels() LabelSet {
	return LabelSet{
		Negative: "negative",
		Positive: "positive",
		Neutral:  "neutral",
	}
}

// Name returns the label's name, or its numeric code when unnamed.
func (s LabelSet) Name(l Label) string {
	if name, ok := s[l]; ok {
		return name
	}
	return strconv.Itoa(int(l))
}

// Parse accepts either a label name (case-insensitive) or a numeric code.
func (s LabelSet) Parse(v string) (Label, error) {
	v = strings.TrimSpace(v)
	for code, name := range s {
		if strings.EqualFold(name, v) {
			return code, nil
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("unknown label %q", v)
	}
	return Label(n), nil
}

// Codes returns the label codes in ascending order.
func (s LabelSet) Codes() []Label {
	codes := make([]Label, 0, len(s))
	for c := range s {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// DistinctLabels returns the distinct labels in y, ascending.
func DistinctLabels(y []Label) []Label {
	seen := make(map[Label]struct{}, 4)
	var out []Label
	for _, l := range y {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
