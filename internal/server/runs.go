// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pdiddy/litreview/pkg/types"
)

type createRunRequest struct {
	Topic        string `json:"topic"`
	Notes        string `json:"notes"`
	UploadPapers bool   `json:"upload_papers"`
}

func (s *Server) createRun(c echo.Context) error {
	var req createRunRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	topic := strings.TrimSpace(req.Topic)
	if len(topic) < 3 || len(topic) > 300 {
		return echo.NewHTTPError(http.StatusBadRequest, "topic must be 3-300 characters")
	}

	run, err := s.store.CreateRun(c.Request().Context(), topic, req.Notes, req.UploadPapers)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, run)
}

func (s *Server) listRuns(c echo.Context) error {
	runs, err := s.store.ListRuns(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	if runs == nil {
		runs = []types.Run{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) getRun(c echo.Context) error {
	id, err := runID(c)
	if err != nil {
		return err
	}
	run, err := s.store.GetRun(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, run)
}

// executeRun validates the entry precondition — only runs in the created
// state are executable — and drives the run synchronously. A failed run
// has already been marked failed by the orchestrator when the error
// surfaces here; committed partial artifacts stay visible.
func (s *Server) executeRun(c echo.Context) error {
	id, err := runID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	run, err := s.store.GetRun(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if run.Status != types.RunCreated {
		return echo.NewHTTPError(http.StatusBadRequest,
			"only runs with status 'created' can be executed")
	}

	if err := s.orch.Execute(ctx, id); err != nil {
		var spe *types.StatusPersistError
		if errors.As(err, &spe) {
			s.logger.Printf("run %d left inconsistent, operator reconciliation needed: %v", id, err)
		}
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "run execution completed",
		"run_id":  id,
	})
}

func (s *Server) listRunPapers(c echo.Context) error {
	id, err := runID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := s.store.GetRun(ctx, id); err != nil {
		return httpError(err)
	}
	papers, err := s.store.PapersForRun(ctx, id)
	if err != nil {
		return httpError(err)
	}
	records := make([]types.PaperRecord, len(papers))
	for i, p := range papers {
		records[i] = p.Record()
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) listRunArtifacts(c echo.Context) error {
	id, err := runID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := s.store.GetRun(ctx, id); err != nil {
		return httpError(err)
	}
	artifacts, err := s.store.ArtifactsForRun(ctx, id)
	if err != nil {
		return httpError(err)
	}
	if artifacts == nil {
		artifacts = []types.Artifact{}
	}
	return c.JSON(http.StatusOK, artifacts)
}

func runID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid run id")
	}
	return id, nil
}
