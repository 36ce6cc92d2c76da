package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/crimson-sun/murmur/internal/dataset"
	"github.com/crimson-sun/murmur/internal/engine"
	"github.com/crimson-sun/murmur/internal/source"
)

const maxCount = 1000

type analyzeRequest struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

type updateRequest struct {
	Examples []dataset.Entry `json:"examples"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": s.clock.Since(s.startTime).Seconds(),
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	s.mu.Lock()
	trained := s.learner.Trained()
	s.mu.Unlock()
	if !trained {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "untrained"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "keyword is required"})
	}
	if req.Count <= 0 {
		req.Count = s.count
	}
	if req.Count > maxCount {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "count must be at most 1000"})
	}

	s.mu.Lock()
	res, err := s.analyzer.AnalyzeQuery(c.Request().Context(), source.Query{Keyword: req.Keyword, Count: req.Count})
	s.mu.Unlock()
	if err != nil {
		return s.analysisError(c, err, "keyword", req.Keyword)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleUpdate(c echo.Context) error {
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if len(req.Examples) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "examples are required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ds, err := dataset.Parse(req.Examples, s.learner.Labels())
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	if err := s.learner.Update(ds.Texts, ds.Labels); err != nil {
		return s.analysisError(c, err, "examples", ds.Len())
	}
	return c.JSON(http.StatusOK, map[string]int{"updated": ds.Len()})
}

// analysisError maps engine failures to 422 with a user-facing message.
// Anything outside the error taxonomy is a 500.
func (s *Server) analysisError(c echo.Context, err error, attrs ...any) error {
	status := http.StatusUnprocessableEntity
	if !engine.IsUserError(err) {
		status = http.StatusInternalServerError
		s.logger.Error("request failed", append(attrs, "error", err)...)
	} else {
		s.logger.Info("request rejected", append(attrs, "error", err)...)
	}
	return c.JSON(status, errorResponse{Error: engine.UserMessage(err)})
}
