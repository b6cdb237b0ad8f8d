// Package api serves the clustering pipeline as a JSON API.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"patientcluster/internal/history"
	"patientcluster/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Config holds API server settings
type Config struct {
	SnapshotPath   string
	MaxUploadBytes int64
	Recorder       *history.Recorder
}

// Server routes the JSON API
type Server struct {
	router *chi.Mux
	config Config
}

// NewServer creates an API server with routes installed
func NewServer(config Config) *Server {
	if config.Recorder == nil {
		config.Recorder = history.NewRecorder(nil)
	}
	s := &Server{router: chi.NewRouter(), config: config}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/cluster", s.handleCluster)
		r.Post("/cluster/csv", s.handleClusterCSV)
		r.Get("/runs", s.handleListRuns)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Logger.Infow("[api] request handled",
			"method", r.Method,
			"request_id", middleware.GetReqID(r.Context()),
			logger.FieldPath, r.URL.Path,
			logger.FieldStatus, ww.Status(),
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Logger.Warnw("failed to encode response", logger.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}
