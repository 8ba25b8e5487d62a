package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Bitlatte/oven/internal/bake"
)

// PageRenderer renders content pages on request and locates the files of
// their assets directories.
type PageRenderer interface {
	RenderURI(requestURI string) ([]byte, error)
	PageAsset(requestPath string) (string, bool)
}

// Server is the development HTTP front: baked misc files first, content
// pages rendered on the fly otherwise.
type Server struct {
	addr       string
	router     http.Handler
	httpServer *http.Server
	reconciler *Reconciler
	pages      PageRenderer
	gatherer   prometheus.Gatherer
	logger     *zap.Logger

	renderMu sync.Mutex
}

func New(addr string, rec *Reconciler, pages PageRenderer, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		addr:       addr,
		reconciler: rec,
		pages:      pages,
		gatherer:   gatherer,
		logger:     logger.With(zap.String("component", "server")),
	}
	s.router = s.setupRouter()
	return s
}

func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/*", s.handleSite)
	r.Head("/*", s.handleSite)

	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:        s.addr,
		Handler:     s.router,
		ReadTimeout: 10 * time.Second,
	}
	s.logger.Info("serving", zap.String("addr", s.addr))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func noCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	noCache(w)

	reqPath := r.URL.Path
	if strings.HasSuffix(reqPath, "/") {
		reqPath += "index.html"
	}
	out, err := s.reconciler.Reconcile(reqPath)
	if err != nil {
		s.logger.Error("reconcile failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "reconcile failed", http.StatusInternalServerError)
		return
	}
	if exists(out) {
		http.ServeFile(w, r, out)
		return
	}
	if src, ok := s.pages.PageAsset(r.URL.Path); ok {
		http.ServeFile(w, r, src)
		return
	}

	s.renderMu.Lock()
	body, err := s.pages.RenderURI(r.URL.EscapedPath())
	s.renderMu.Unlock()
	switch {
	case errors.Is(err, bake.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		s.logger.Error("render failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, fmt.Sprintf("render failed: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if r.Method != http.MethodHead {
		_, _ = w.Write(body)
	}
}
