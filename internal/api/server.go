// Package api exposes the advisory session over a local HTTP gateway.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smartroots/agribot/internal/api/middleware"
	"github.com/smartroots/agribot/internal/api/response"
	"github.com/smartroots/agribot/internal/auth"
	"github.com/smartroots/agribot/internal/core"
	"github.com/smartroots/agribot/internal/dashboard"
	"github.com/smartroots/agribot/internal/metrics"
	"go.uber.org/zap"
)

// Server represents the HTTP gateway for the advisory session.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	sessions   *auth.Store
	dash       *dashboard.Orchestrator
	metrics    *metrics.Registry
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	MetricsPath string
}

// NewServer creates a new HTTP gateway over the given session store and
// dashboard. The metrics registry may be nil to disable instrumentation.
func NewServer(cfg Config, sessions *auth.Store, dash *dashboard.Orchestrator, reg *metrics.Registry, logger *zap.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:   logger,
		mux:      mux,
		sessions: sessions,
		dash:     dash,
		metrics:  reg,
	}

	s.setupRoutes(cfg.MetricsPath)

	var handler http.Handler = mux
	if reg != nil {
		handler = metrics.HTTPMiddleware(reg)(handler)
	}
	s.httpServer.Handler = handler

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(metricsPath string) {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/session", s.handleSession)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	// Dashboard routes require a resolved, signed-in session
	protect := middleware.RequireSession(s.sessions)
	s.mux.Handle("GET /api/dashboard", protect(http.HandlerFunc(s.handleState)))
	s.mux.Handle("POST /api/dashboard/load", protect(http.HandlerFunc(s.handleLoad)))
	s.mux.Handle("POST /api/dashboard/refresh", protect(http.HandlerFunc(s.handleRefresh)))
	s.mux.Handle("POST /api/dashboard/yield", protect(http.HandlerFunc(s.handleYield)))
	s.mux.Handle("POST /api/dashboard/yield/recalculate", protect(http.HandlerFunc(s.handleYieldRecalculate)))
	s.mux.Handle("POST /api/dashboard/market", protect(http.HandlerFunc(s.handleMarket)))
	s.mux.Handle("POST /api/dashboard/market/reload", protect(http.HandlerFunc(s.handleMarketReload)))
	s.mux.Handle("POST /api/dashboard/chat", protect(http.HandlerFunc(s.handleChat)))

	if s.metrics != nil && metricsPath != "" {
		s.mux.Handle("GET "+metricsPath, promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP gateway", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP gateway")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, s.sessions.Session())
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrValidationFailed, err))
		return
	}

	result := s.sessions.Login(r.Context(), req.Email, req.Password)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnauthorized
	}
	response.JSON(w, status, result)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrValidationFailed, err))
		return
	}

	result := s.sessions.Signup(r.Context(), req.Name, req.Email, req.Password)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	response.JSON(w, status, result)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout()
	response.JSON(w, http.StatusOK, s.sessions.Session())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, s.dash.State())
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.Load(r.Context()); err != nil {
		response.Error(w, errorStatus(err), wrapped(err))
		return
	}
	response.JSON(w, http.StatusOK, s.dash.State())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.Refresh(r.Context()); err != nil {
		response.Error(w, errorStatus(err), wrapped(err))
		return
	}
	response.JSON(w, http.StatusOK, s.dash.State())
}

func (s *Server) handleYield(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.EnsureYield(r.Context()); err != nil {
		response.Error(w, errorStatus(err), wrapped(err))
		return
	}
	response.JSON(w, http.StatusOK, s.dash.State())
}

func (s *Server) handleYieldRecalculate(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.RecalculateYield(r.Context()); err != nil {
		response.Error(w, errorStatus(err), wrapped(err))
		return
	}
	response.JSON(w, http.StatusOK, s.dash.State())
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.EnsureMarket(r.Context()); err != nil {
		response.Error(w, errorStatus(err), wrapped(err))
		return
	}
	response.JSON(w, http.StatusOK, s.dash.State())
}

func (s *Server) handleMarketReload(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.ReloadMarket(r.Context()); err != nil {
		response.Error(w, errorStatus(err), wrapped(err))
		return
	}
	response.JSON(w, http.StatusOK, s.dash.State())
}

type chatRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrValidationFailed, err))
		return
	}

	reply, err := s.dash.SubmitChat(r.Context(), req.Question)
	if err != nil {
		response.Error(w, errorStatus(err), wrapped(err))
		return
	}
	response.JSON(w, http.StatusOK, reply)
}

// errorStatus maps domain errors onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrCropUnknown):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrBackendUnavailable), errors.Is(err, core.ErrBackendStatus):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// wrapped ensures the envelope always carries a structured error.
func wrapped(err error) error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return err
	}
	return core.WrapError(core.ErrBackendUnavailable, err)
}
