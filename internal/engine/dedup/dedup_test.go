package dedup

import (
	"testing"
	"time"

	"github.com/crimson-sun/murmur/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)

func post(text string, offset time.Duration) model.Document {
	return model.Document{Text: text, Source: "static", Timestamp: t0.Add(offset)}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"case and punctuation", "Great product!!", "great product"},
		{"retweet and mention", "RT @shop: great product", "great product"},
		{"links", "great product https://t.co/x", "great product"},
		{"accents", "café crème", "cafe creme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Key(tt.a), Key(tt.b))
		})
	}
	assert.NotEqual(t, Key("great product"), Key("product great"))
}

func TestDeduplicateBatchEmpty(t *testing.T) {
	d := New(Config{})
	assert.Nil(t, d.DeduplicateBatch(nil))
}

func TestDeduplicateBatchNoDuplicates(t *testing.T) {
	d := New(Config{})
	groups := d.DeduplicateBatch([]model.Document{
		post("great product", 0),
		post("terrible service", time.Second),
		post("okay experience", 2*time.Second),
	})
	require.Len(t, groups, 3)
	for i, g := range groups {
		assert.Equal(t, 1, g.Count())
		assert.Equal(t, []int{i}, g.Indices)
	}
}

func TestDeduplicateBatchMixed(t *testing.T) {
	d := New(Config{})
	groups := d.DeduplicateBatch([]model.Document{
		post("Great product", 0),                    // A
		post("terrible service", time.Second),       // B
		post("RT @a great product!", 2*time.Second), // A
		post("great   product", 3*time.Second),      // A
		post("TERRIBLE service.", 4*time.Second),    // B
	})
	require.Len(t, groups, 2)

	assert.Equal(t, "Great product", groups[0].Doc.Text, "first post is kept")
	assert.Equal(t, []int{0, 2, 3}, groups[0].Indices)
	assert.Equal(t, t0, groups[0].FirstTS)
	assert.Equal(t, t0.Add(3*time.Second), groups[0].LatestTS)

	assert.Equal(t, []int{1, 4}, groups[1].Indices)
}

func TestDeduplicateBatchWindow(t *testing.T) {
	d := New(Config{Window: 5 * time.Second})
	groups := d.DeduplicateBatch([]model.Document{
		post("great product", 0),
		post("great product", 3*time.Second),
		post("great product", 10*time.Second), // outside window, starts a new group
		post("great product", 12*time.Second),
	})
	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups[0].Count())
	assert.Equal(t, 2, groups[1].Count())
	assert.Equal(t, []int{2, 3}, groups[1].Indices)
}

func TestDeduplicateBatchWindowIgnoresMissingTimestamps(t *testing.T) {
	d := New(Config{Window: time.Second})
	groups := d.DeduplicateBatch([]model.Document{
		{Text: "okay experience"},
		{Text: "okay experience"},
	})
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Count())
}
