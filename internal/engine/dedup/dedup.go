package dedup

import (
	"strings"
	"time"

	"github.com/crimson-sun/murmur/internal/engine/vectorizer"
	"github.com/crimson-sun/murmur/internal/model"
)

// Config controls deduplication behavior.
type Config struct {
	// Window limits merging to posts whose timestamps lie within Window of
	// the group's first post. Zero merges regardless of time, as do posts
	// without a timestamp.
	Window time.Duration
}

// Deduplicator collapses posts that reduce to the same token sequence, so
// reposts and copies that differ only in mentions, links, case or
// punctuation are analyzed once.
type Deduplicator struct {
	cfg Config
}

// New creates a Deduplicator with the given config.
func New(cfg Config) *Deduplicator {
	return &Deduplicator{cfg: cfg}
}

// Group is one distinct post and every input index that collapsed into it.
type Group struct {
	Doc      model.Document
	Key      string
	Indices  []int
	FirstTS  time.Time
	LatestTS time.Time
}

// Count is the number of posts merged into the group.
func (g Group) Count() int { return len(g.Indices) }

// Key returns the normalized dedup key for a text: its tokens joined by a
// single space. Texts with no tokens have an empty key.
func Key(text string) string {
	return strings.Join(vectorizer.Tokenize(text), " ")
}

// DeduplicateBatch groups docs by Key and returns the groups in
// first-occurrence order. Each group keeps the first post's document.
func (d *Deduplicator) DeduplicateBatch(docs []model.Document) []Group {
	if len(docs) == 0 {
		return nil
	}

	var order []*Group
	groups := make(map[string]*Group)

	for i, doc := range docs {
		key := Key(doc.Text)

		g, exists := groups[key]
		if exists && d.withinWindow(g, doc.Timestamp) {
			g.Indices = append(g.Indices, i)
			if doc.Timestamp.After(g.LatestTS) {
				g.LatestTS = doc.Timestamp
			}
			continue
		}

		// New group: either new key or outside window.
		g = &Group{
			Doc:      doc,
			Key:      key,
			Indices:  []int{i},
			FirstTS:  doc.Timestamp,
			LatestTS: doc.Timestamp,
		}
		groups[key] = g
		order = append(order, g)
	}

	result := make([]Group, len(order))
	for i, g := range order {
		result[i] = *g
	}
	return result
}

func (d *Deduplicator) withinWindow(g *Group, ts time.Time) bool {
	if d.cfg.Window <= 0 || ts.IsZero() || g.FirstTS.IsZero() {
		return true
	}
	return ts.Sub(g.FirstTS) <= d.cfg.Window
}
