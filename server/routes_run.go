// routes_run.go - Handler fuer /api/test und /api/debug
// Enthaelt: TestHandler, DebugHandler, Begrenzung gleichzeitiger Laeufe

package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bioimageio/modeltest/api"
)

// bindRequest dekodiert den JSON-Body und prueft das Modell-Feld.
func bindRequest(c *gin.Context, req any, model func() string) bool {
	if err := c.ShouldBindJSON(req); errors.Is(err, io.EOF) {
		abortWithError(c, ErrMissingBody)
		return false
	} else if err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return false
	}
	if model() == "" {
		abortWithError(c, ErrModelRequired)
		return false
	}
	return true
}

// acquire wartet auf einen freien Laufplatz. Bricht der Client ab,
// wird false zurueckgegeben und nichts mehr geschrieben.
func (s *Server) acquire(c *gin.Context) (func(), bool) {
	if err := s.runs.Acquire(c.Request.Context(), 1); err != nil {
		slog.Info("client went away while waiting for a run slot", "error", err)
		c.Abort()
		return nil, false
	}
	return func() { s.runs.Release(1) }, true
}

// TestHandler fuehrt einen Regressionstest aus. Der Report kommt immer
// mit Status 200, auch wenn der Test nicht bestanden ist.
func (s *Server) TestHandler(c *gin.Context) {
	var req api.TestRequest
	if !bindRequest(c, &req, func() string { return req.Model }) {
		return
	}

	opts, err := req.Options(s.defaults)
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	release, ok := s.acquire(c)
	if !ok {
		return
	}
	defer release()

	tester := s.newTester(opts)
	var report *api.TestResponse
	if req.Resource {
		report = tester.TestResource(c.Request.Context(), req.Model)
	} else {
		report = tester.TestModel(c.Request.Context(), req.Model)
	}

	slog.Info("test finished", "run", report.RunID, "model", req.Model, "ok", report.OK())
	c.JSON(http.StatusOK, report)
}

// DebugHandler fuehrt einen Diagnoselauf aus und gibt die Zusammenfassung zurueck.
func (s *Server) DebugHandler(c *gin.Context) {
	var req api.DebugRequest
	if !bindRequest(c, &req, func() string { return req.Model }) {
		return
	}

	release, ok := s.acquire(c)
	if !ok {
		return
	}
	defer release()

	report, err := s.newTester(req.Options(s.defaults)).DebugModel(c.Request.Context(), req.Model)
	if err != nil {
		slog.Warn("debug run failed", "model", req.Model, "error", err)
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.DebugResponse{
		RunID:   report.RunID,
		Summary: report.Summary(),
		Notes:   report.Notes,
	})
}
