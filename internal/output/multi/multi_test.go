package multi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/murmur/internal/model"
)

type mockOutput struct {
	results []model.AnalysisResult
	closed  bool
	err     error // returned by Write and Close
	order   *[]string
	name    string
}

func (m *mockOutput) Write(_ context.Context, result model.AnalysisResult) error {
	m.results = append(m.results, result)
	return m.err
}

func (m *mockOutput) Close() error {
	m.closed = true
	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}
	return m.err
}

func TestWriteDeliversToEverySink(t *testing.T) {
	a, b := &mockOutput{}, &mockOutput{}
	m := New(Sink{"stdout", a}, Sink{"file", b})

	require.NoError(t, m.Write(context.Background(), model.AnalysisResult{Keyword: "coffee"}))
	for _, out := range []*mockOutput{a, b} {
		require.Len(t, out.results, 1)
		assert.Equal(t, "coffee", out.results[0].Keyword)
	}
	assert.Equal(t, []string{"stdout", "file"}, m.Names())
}

func TestWriteErrorNamesSink(t *testing.T) {
	errDisk := errors.New("disk full")
	a := &mockOutput{err: errDisk}
	b := &mockOutput{}
	m := New(Sink{"file", a}, Sink{"stdout", b})

	err := m.Write(context.Background(), model.AnalysisResult{Keyword: "tea"})
	assert.ErrorIs(t, err, errDisk)
	assert.ErrorContains(t, err, "output file: disk full")
	assert.Len(t, b.results, 1)
}

func TestCloseReverseOrder(t *testing.T) {
	var order []string
	errA := errors.New("a failed")
	a := &mockOutput{name: "a", order: &order, err: errA}
	b := &mockOutput{name: "b", order: &order}
	c := &mockOutput{name: "c", order: &order}
	m := New(Sink{"a", a}, Sink{"b", b}, Sink{"c", c})

	err := m.Close()
	assert.ErrorIs(t, err, errA)
	assert.ErrorContains(t, err, "close a")
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestNilSinksIgnored(t *testing.T) {
	a := &mockOutput{}
	m := New(Sink{"none", nil}, Sink{"stdout", a})

	assert.Equal(t, []string{"stdout"}, m.Names())
	require.NoError(t, m.Write(context.Background(), model.AnalysisResult{}))
	assert.Len(t, a.results, 1)
}

func TestEmpty(t *testing.T) {
	m := New()
	assert.NoError(t, m.Write(context.Background(), model.AnalysisResult{}))
	assert.NoError(t, m.Close())
}
