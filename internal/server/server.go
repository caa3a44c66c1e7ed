// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the HTTP API: run creation and execution, paper
// upload, and artifact inspection. Request validation lives here; the
// pipeline trusts this boundary to hand it runs in the created state.
package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/litreview/internal/pipeline"
	"github.com/pdiddy/litreview/internal/store"
	"github.com/pdiddy/litreview/pkg/types"
)

// Server wires the HTTP API to the store and orchestrator.
type Server struct {
	store  *store.Store
	orch   *pipeline.Orchestrator
	logger *log.Logger
}

// New builds the server.
func New(st *store.Store, orch *pipeline.Orchestrator) *Server {
	return &Server{
		store:  st,
		orch:   orch,
		logger: log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}
}

// Echo assembles the echo instance with middleware and routes.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s: %v", code, req.Method, req.URL.Path, err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]string{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/runs", s.createRun)
	api.GET("/runs", s.listRuns)
	api.GET("/runs/:id", s.getRun)
	api.POST("/runs/:id/execute", s.executeRun)
	api.POST("/runs/:id/papers", s.uploadPapers)
	api.GET("/runs/:id/papers", s.listRunPapers)
	api.GET("/runs/:id/artifacts", s.listRunArtifacts)

	return e
}

// Run starts the HTTP server on addr and blocks.
func (s *Server) Run(addr string) error {
	return s.Echo().Start(addr)
}

// httpError maps store-level errors to HTTP status codes.
func httpError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, types.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
