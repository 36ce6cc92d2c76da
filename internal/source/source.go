// Package source defines the text source collaborator: anything that can
// supply posts for a keyword.
package source

import (
	"context"

	"github.com/crimson-sun/murmur/internal/model"
)

// Source supplies documents for a keyword. A failed or partial fetch is not
// fatal to callers; they treat it as an empty or short corpus.
type Source interface {
	Fetch(ctx context.Context, cfg Config, q Query) ([]model.Document, error)
}

// Config holds provider-specific settings.
type Config struct {
	Provider string
	Path     string
	Extra    map[string]string
}

// Query selects documents. An empty Keyword matches everything; Count <= 0
// means no cap.
type Query struct {
	Keyword string
	Count   int
}
