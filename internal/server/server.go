// Package server exposes the launcher operations over a local HTTP API
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/igusev/qlaunch/internal/backup"
	"github.com/igusev/qlaunch/internal/launcher"
	"github.com/igusev/qlaunch/internal/logger"
	"github.com/igusev/qlaunch/internal/model"
	"github.com/igusev/qlaunch/internal/types"
)

// Backend is the launcher surface the API serves
type Backend interface {
	Search(ctx context.Context, query string, limit int) []model.SearchResult
	RecentItems(ctx context.Context, limit int, excludedIDs []string) []model.SearchResult
	ReportUsage(ns types.Namespace, id, query string, wasFirstResult bool)

	IndexAll(ctx context.Context) error
	IndexNamespace(ctx context.Context, ns types.Namespace) error
	ResetIndex(ctx context.Context) error
	ResetAppData(ctx context.Context) error
	RemoveFromIndex(ctx context.Context, namespace, id string) error
	IndexWebURL(ctx context.Context, url, title string) (types.Document, error)

	Favorites(ctx context.Context) ([]model.SearchResult, error)
	AddFavorite(ctx context.Context, key string) error
	RemoveFavorite(ctx context.Context, key string) (bool, error)

	ExportBackup(ctx context.Context, w io.Writer) (*backup.File, error)
	ImportBackup(ctx context.Context, r io.Reader) (*backup.Report, error)

	Status() launcher.Status
}

// Config holds server settings
type Config struct {
	Addr           string
	AllowedOrigins []string // Defaults to localhost origins
	DefaultLimit   int
}

// Server serves the launcher API
type Server struct {
	cfg     Config
	backend Backend
	router  chi.Router
	log     *zap.Logger
}

// New creates a server for backend
func New(cfg Config, backend Backend) *Server {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 20
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	s := &Server{cfg: cfg, backend: backend, log: logger.Named("server")}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/recent", s.handleRecent)
		r.Post("/usage", s.handleUsage)

		r.Post("/index/reset", s.handleResetIndex)
		r.Post("/index/{namespace}", s.handleIndex)
		r.Post("/reset", s.handleResetAll)
		r.Delete("/documents/{namespace}/{id}", s.handleRemove)
		r.Post("/bookmarks", s.handleBookmark)

		r.Get("/favorites", s.handleFavorites)
		r.Post("/favorites", s.handleAddFavorite)
		r.Delete("/favorites/{key}", s.handleRemoveFavorite)

		r.Get("/backup", s.handleExport)
		r.Post("/backup", s.handleImport)
	})

	return r
}

// requestLogger logs one debug line per request through zap
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
