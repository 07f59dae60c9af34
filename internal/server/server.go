// Package server exposes the orchestrator over HTTP. Callers POST a text
// question and receive the combined answer object as JSON.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"hybridqa/internal/domain"
)

// Processor is the orchestrator surface the server needs.
type Processor interface {
	ProcessK(ctx context.Context, question string, k int) (*domain.CombinedResponse, error)
}

// Server is the HTTP front-end.
type Server struct {
	echo *echo.Echo
	proc Processor
	log  *slog.Logger
}

type queryRequest struct {
	Question string `json:"question"`
	K        int    `json:"k,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func New(proc Processor, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, proc: proc, log: log.With("component", "server")}
	e.POST("/api/query", s.handleQuery)
	e.GET("/healthz", s.handleHealth)
	return s
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	s.log.Info("http server listening", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Question) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "question is required"})
	}

	resp, err := s.proc.ProcessK(c.Request().Context(), req.Question, req.K)
	if err != nil {
		s.log.Error("query failed", "error", err)
		return c.JSON(statusFor(err), errorResponse{Error: err.Error(), Kind: kindFor(err)})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor maps the domain error taxonomy onto HTTP statuses: the
// backends failing to produce an answer is an upstream problem, not a
// caller mistake.
func statusFor(err error) int {
	var re *domain.RetrievalError
	if errors.As(err, &re) {
		return http.StatusNotFound
	}
	var ge *domain.GenerationError
	var ee *domain.ExecutionError
	if errors.As(err, &ge) || errors.As(err, &ee) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func kindFor(err error) string {
	var ge *domain.GenerationError
	if errors.As(err, &ge) {
		return "generation_error"
	}
	var ee *domain.ExecutionError
	if errors.As(err, &ee) {
		return "execution_error"
	}
	var re *domain.RetrievalError
	if errors.As(err, &re) {
		return "retrieval_error"
	}
	return ""
}
