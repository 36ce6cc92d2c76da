// Package dataset loads labeled training posts.
package dataset

import (
	"bufio"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/crimson-sun/murmur/internal/model"
)

//go:embed seed.json
var seedJSON []byte

// Entry is one labeled post as stored on disk. Label holds a label name or
// numeric code.
type Entry struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Dataset is a labeled corpus ready for training.
type Dataset struct {
	Texts  []string
	Labels []model.Label
}

// Len returns the number of examples.
func (d Dataset) Len() int { return len(d.Texts) }

// Seed returns the embedded labeled seed corpus.
func Seed(labels model.LabelSet) (Dataset, error) {
	var entries []Entry
	if err := json.Unmarshal(seedJSON, &entries); err != nil {
		return Dataset{}, fmt.Errorf("parse seed.json: %w", err)
	}
	return Parse(entries, labels)
}

// Load reads a labeled dataset. The format follows the extension: .csv
// expects "text,label" records with an optional header, .json a JSON array
// of entries, and anything else JSON lines.
func Load(path string, labels model.LabelSet) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var entries []Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		entries, err = readCSV(f)
	case ".json":
		err = json.NewDecoder(f).Decode(&entries)
	default:
		entries, err = readJSONL(f)
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return Parse(entries, labels)
}

// Parse converts raw entries to a Dataset, rejecting empty texts and unknown
// labels with the offending entry's position.
func Parse(entries []Entry, labels model.LabelSet) (Dataset, error) {
	ds := Dataset{
		Texts:  make([]string, 0, len(entries)),
		Labels: make([]model.Label, 0, len(entries)),
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Text) == "" {
			return Dataset{}, fmt.Errorf("entry %d: empty text", i+1)
		}
		l, err := labels.Parse(e.Label)
		if err != nil {
			return Dataset{}, fmt.Errorf("entry %d: %w", i+1, err)
		}
		ds.Texts = append(ds.Texts, e.Text)
		ds.Labels = append(ds.Labels, l)
	}
	return ds, nil
}

func readCSV(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var entries []Entry
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		if line == 1 && strings.EqualFold(rec[0], "text") && strings.EqualFold(rec[1], "label") {
			continue
		}
		entries = append(entries, Entry{Text: rec[0], Label: rec[1]})
	}
}

func readJSONL(r io.Reader) ([]Entry, error) {
	var entries []Entry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

// UnmarshalJSON accepts labels written either as strings or as bare
// numbers, so {"label":1} and {"label":"1"} decode the same.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = Entry{Text: raw.Text, Label: string(raw.Label)}
	return nil
}

type entryJSON struct {
	Text  string    `json:"text"`
	Label flexLabel `json:"label"`
}

type flexLabel string

func (l *flexLabel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = flexLabel(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("label must be a string or number: %w", err)
	}
	*l = flexLabel(n.String())
	return nil
}
