package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/murmur/internal/model"
	"github.com/crimson-sun/murmur/internal/source"
)

type mockAnalyzer struct {
	result model.AnalysisResult
	err    error
	last   source.Query
}

func (m *mockAnalyzer) AnalyzeQuery(_ context.Context, q source.Query) (model.AnalysisResult, error) {
	m.last = q
	return m.result, m.err
}

type mockLearner struct {
	trained bool
	err     error
	texts   []string
	labels  []model.Label
}

func (m *mockLearner) Update(docs []string, labels []model.Label) error {
	m.texts = docs
	m.labels = labels
	return m.err
}

func (m *mockLearner) Trained() bool          { return m.trained }
func (m *mockLearner) Labels() model.LabelSet { return model.DefaultLabels() }

func newTestServer(a *mockAnalyzer, l *mockLearner) (*Server, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	s := New(":0", a, l,
		WithClock(clock),
		WithDefaultCount(25),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return s, clock
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestLiveness(t *testing.T) {
	s, clock := newTestServer(&mockAnalyzer{}, &mockLearner{})
	clock.Advance(90 * time.Second)

	rec := do(s, http.MethodGet, "/health/live", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","uptime":90}`, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	l := &mockLearner{}
	s, _ := newTestServer(&mockAnalyzer{}, l)

	rec := do(s, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"untrained"}`, rec.Body.String())

	l.trained = true
	rec = do(s, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(&mockAnalyzer{}, &mockLearner{})

	rec := do(s, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAnalyze(t *testing.T) {
	id := uuid.New()
	a := &mockAnalyzer{result: model.AnalysisResult{ID: id, Keyword: "golang"}}
	s, _ := newTestServer(a, &mockLearner{trained: true})

	rec := do(s, http.MethodPost, "/api/analyze", `{"keyword":" golang ","count":10}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got model.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, id, got.ID)
	assert.Equal(t, source.Query{Keyword: "golang", Count: 10}, a.last)
}

func TestAnalyzeDefaultCount(t *testing.T) {
	a := &mockAnalyzer{}
	s, _ := newTestServer(a, &mockLearner{trained: true})

	rec := do(s, http.MethodPost, "/api/analyze", `{"keyword":"golang"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, a.last.Count)
}

func TestAnalyzeBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing keyword", `{"count":5}`, "keyword is required"},
		{"blank keyword", `{"keyword":"   "}`, "keyword is required"},
		{"count too large", `{"keyword":"go","count":5000}`, "count must be at most 1000"},
		{"malformed", `{"keyword":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(&mockAnalyzer{}, &mockLearner{})
			rec := do(s, http.MethodPost, "/api/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, rec.Body.String())
		})
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"empty corpus", model.ErrEmptyCorpus, http.StatusUnprocessableEntity, "No usable posts were found for this keyword."},
		{"not fitted", model.ErrNotFitted, http.StatusUnprocessableEntity, "The model has not been trained yet."},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "The analysis failed unexpectedly."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(&mockAnalyzer{err: tt.err}, &mockLearner{})
			rec := do(s, http.MethodPost, "/api/analyze", `{"keyword":"go"}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.msg+`"}`, rec.Body.String())
		})
	}
}

func TestUpdate(t *testing.T) {
	l := &mockLearner{trained: true}
	s, _ := newTestServer(&mockAnalyzer{}, l)

	rec := do(s, http.MethodPost, "/api/update",
		`{"examples":[{"text":"love it","label":"positive"},{"text":"hate it","label":"0"}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":2}`, rec.Body.String())
	assert.Equal(t, []string{"love it", "hate it"}, l.texts)
	assert.Equal(t, []model.Label{model.Positive, model.Negative}, l.labels)
}

func TestUpdateRejects(t *testing.T) {
	t.Run("no examples", func(t *testing.T) {
		s, _ := newTestServer(&mockAnalyzer{}, &mockLearner{})
		rec := do(s, http.MethodPost, "/api/update", `{"examples":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown label", func(t *testing.T) {
		l := &mockLearner{}
		s, _ := newTestServer(&mockAnalyzer{}, l)
		rec := do(s, http.MethodPost, "/api/update", `{"examples":[{"text":"meh","label":"sarcastic"}]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, l.texts)
	})

	t.Run("untrained engine", func(t *testing.T) {
		l := &mockLearner{err: model.ErrNotFitted}
		s, _ := newTestServer(&mockAnalyzer{}, l)
		rec := do(s, http.MethodPost, "/api/update", `{"examples":[{"text":"fine","label":"neutral"}]}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.JSONEq(t, `{"error":"The model has not been trained yet."}`, rec.Body.String())
	})
}
