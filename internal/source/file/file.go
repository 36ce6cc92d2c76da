// Package file implements a text source backed by a local file of posts.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/crimson-sun/murmur/internal/model"
	"github.com/crimson-sun/murmur/internal/source"
)

const providerName = "file"

func init() {
	source.Register(providerName, func() source.Source {
		return &Source{}
	})
}

// Source reads posts from cfg.Path. Lines starting with '{' are decoded as
// JSON objects with "text" and optional "created_at" (RFC 3339) fields;
// other non-blank lines are taken verbatim as post text. Setting
// Extra["format"] to "jsonl" or "lines" forces one interpretation.
type Source struct{}

type post struct {
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Fetch reads posts from cfg.Path, keeping those that
// mention q.Keyword, up to q.Count.
func (s *Source) Fetch(ctx context.Context, cfg source.Config, q source.Query) ([]model.Document, error) {
	if cfg.Path == "" {
		return nil, errors.New("file source: no path configured")
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("file source: %w", err)
	}
	defer f.Close()

	format := cfg.Extra["format"]
	var docs []model.Document
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}

		doc := model.Document{Source: providerName}
		if format == "jsonl" || (format != "lines" && strings.HasPrefix(raw, "{")) {
			var p post
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				return docs, fmt.Errorf("file source: line %d: %w", line, err)
			}
			doc.Text, doc.Timestamp = p.Text, p.CreatedAt
		} else {
			doc.Text = raw
		}

		if !source.Matches(doc.Text, q.Keyword) {
			continue
		}
		docs = append(docs, doc)
		if q.Count > 0 && len(docs) >= q.Count {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return docs, fmt.Errorf("file source: %w", err)
	}
	return docs, nil
}
