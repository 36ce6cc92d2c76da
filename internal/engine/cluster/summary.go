package cluster

import "github.com/crimson-sun/murmur/internal/model"

// Summarize counts members per cluster id and the number of noise points.
func Summarize(labels model.ClusterAssignment) model.ClusterSummary {
	s := model.ClusterSummary{Sizes: make(map[int]int)}
	for _, l := range labels {
		if l == model.NoiseLabel {
			s.Noise++
			continue
		}
		s.Sizes[l]++
	}
	return s
}
