package output

import (
	"context"

	"github.com/crimson-sun/murmur/internal/model"
)

// Output defines the interface for analysis result destinations.
type Output interface {
	Write(ctx context.Context, result model.AnalysisResult) error
	Close() error
}
