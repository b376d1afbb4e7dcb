// Package server provides the HTTP API for the reference proxy.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hyperjump/refproxy/internal/config"
	"github.com/hyperjump/refproxy/internal/pdftext"
	"github.com/hyperjump/refproxy/internal/search"
	"github.com/hyperjump/refproxy/internal/zotero"
	"go.uber.org/zap"
)

// Server is the HTTP server for the proxy API.
type Server struct {
	client  *zotero.Client
	engine  *search.Engine
	pdf     *pdftext.Service
	config  *config.Config
	logger  *zap.Logger
	version string
	server  *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	client *zotero.Client,
	engine *search.Engine,
	pdf *pdftext.Service,
	cfg *config.Config,
	logger *zap.Logger,
	version string,
) *Server {
	return &Server{
		client:  client,
		engine:  engine,
		pdf:     pdf,
		config:  cfg,
		logger:  logger,
		version: version,
	}
}

// Router builds the chi router with all routes and middleware mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/items", s.handleItems)
	r.Get("/collections", s.handleCollections)
	r.Get("/collections/{key}/items", s.handleCollectionItems)
	r.Get("/search", s.handleSearch)
	r.Get("/resolve-biblio", s.handleResolve)
	r.Route("/attachments/{key}", func(r chi.Router) {
		r.Get("/download", s.handleAttachmentDownload)
		r.Get("/html", s.handleAttachmentHTML)
		r.Get("/text", s.handleAttachmentText)
		r.Get("/extract", s.handleAttachmentText)
		r.Get("/search", s.handleAttachmentSearch)
	})
	r.Get("/debug/clean", s.handleDebugClean)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// requestLogger tags each request with an id and logs method, path, and
// duration at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
