// Package static implements an in-memory text source.
package static

import (
	"context"
	"strings"

	"github.com/crimson-sun/murmur/internal/model"
	"github.com/crimson-sun/murmur/internal/source"
)

const providerName = "static"

func init() {
	source.Register(providerName, func() source.Source {
		return &Source{}
	})
}

// Source serves a fixed set of posts. When constructed through the
// registry it reads newline-separated posts from Extra["texts"].
type Source struct {
	Texts []string
}

// New returns a Source serving texts.
func New(texts ...string) *Source {
	return &Source{Texts: texts}
}

// Fetch returns the posts that mention q.Keyword, up to q.Count.
func (s *Source) Fetch(ctx context.Context, cfg source.Config, q source.Query) ([]model.Document, error) {
	texts := s.Texts
	if len(texts) == 0 && cfg.Extra["texts"] != "" {
		texts = strings.Split(cfg.Extra["texts"], "\n")
	}

	var docs []model.Document
	for _, t := range texts {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		if !source.Matches(t, q.Keyword) {
			continue
		}
		docs = append(docs, model.Document{Text: t, Source: providerName})
		if q.Count > 0 && len(docs) >= q.Count {
			break
		}
	}
	return docs, nil
}
