// Package server exposes the catalog over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Nachtalb/aer/aer/catalog"
	"github.com/Nachtalb/aer/aer/filesystem/common"
	"github.com/Nachtalb/aer/aer/filetypes"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Catalog is the part of catalog.Service the routes need.
type Catalog interface {
	ListAll(ctx context.Context, root string) ([]catalog.Entry, error)
	ListByCategory(ctx context.Context, root, name string) ([]catalog.Entry, error)
	Categories() ([]catalog.CategoryInfo, error)
}

// MetricsSource reports a metrics snapshot.
type MetricsSource = common.PerformanceMetrics

// Server serves one catalog root.
type Server struct {
	catalog Catalog
	metrics MetricsSource
	root    string
	hidden  bool
	logger  zerolog.Logger
	mux     *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithHiddenFiles lets /media/ serve dotfiles and files inside dot directories.
func WithHiddenFiles(include bool) Option {
	return func(s *Server) { s.hidden = include }
}

// New creates a Server and registers its routes. metrics may be nil.
func New(c Catalog, metrics MetricsSource, root string, logger zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		catalog: c,
		metrics: metrics,
		root:    root,
		logger:  logger.With().Str("component", "server").Logger(),
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /files", s.handleFilesIndex)
	s.mux.HandleFunc("GET /files/{filter}", s.handleFilesFilter)
	s.mux.HandleFunc("GET /types", s.handleTypes)
	s.mux.HandleFunc("GET /metrics", s.handleMetrics)
	var media http.FileSystem = http.Dir(s.root)
	if !s.hidden {
		media = hiddenFilterFS{media}
	}
	s.mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(media)))
}

// Handler returns the routes wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.mux)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", addr).Str("root", s.root).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info().Msg("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		start := time.Now()
		logger := s.logger.With().Str("request_id", id).Logger()

		w.Header().Set("X-Request-Id", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context())))

		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Hello world!")
}

func (s *Server) handleFilesIndex(w http.ResponseWriter, r *http.Request) {
	entries, err := s.catalog.ListAll(r.Context(), s.root)
	s.writeEntries(w, r, entries, err)
}

func (s *Server) handleFilesFilter(w http.ResponseWriter, r *http.Request) {
	entries, err := s.catalog.ListByCategory(r.Context(), s.root, r.PathValue("filter"))
	s.writeEntries(w, r, entries, err)
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	infos, err := s.catalog.Categories()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.GetMetrics())
}

func (s *Server) writeEntries(w http.ResponseWriter, r *http.Request, entries []catalog.Entry, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		var b strings.Builder
		for _, e := range entries {
			b.WriteString(e.Path)
			b.WriteByte('\n')
		}
		fmt.Fprint(w, b.String())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// writeError maps unknown categories to 400 and everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, filetypes.ErrUnknownCategory) {
		http.Error(w, "Invalid filter", http.StatusBadRequest)
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
