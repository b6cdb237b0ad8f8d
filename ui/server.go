package ui

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"patientcluster/internal/history"
	"patientcluster/internal/logger"

	"github.com/gin-gonic/gin"
)

// Options configures the web UI server
type Options struct {
	SnapshotPath   string
	MaxUploadBytes int64
	Recorder       *history.Recorder
}

// Server represents the web server for the clustering UI
type Server struct {
	router    *gin.Engine
	templates *template.Template
	options   Options
}

// NewServer creates a new web server instance with routes installed
func NewServer(options Options) (*Server, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	if options.Recorder == nil {
		options.Recorder = history.NewRecorder(nil)
	}

	s := &Server{
		router:    gin.New(),
		templates: templates,
		options:   options,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/upload", s.handleUpload)
	s.router.POST("/download", s.handleDownload)
	s.router.GET("/healthz", s.handleHealth)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Logger.Infow("web UI listening", logger.FieldAddress, addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
