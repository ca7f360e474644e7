package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/michaelbrown/carcin-play/internal/carcin"
	"github.com/michaelbrown/carcin-play/internal/config"
	"github.com/michaelbrown/carcin-play/internal/observability"
	"github.com/michaelbrown/carcin-play/internal/page"
	"github.com/michaelbrown/carcin-play/internal/play"
)

// Server serves docs pages with live widgets and the widget API.
type Server struct {
	cfg       *config.Config
	runner    carcin.Runner
	widgetCfg play.Config
	manifest  page.Manifest
	widgets   *WidgetManager
	router    chi.Router
	http      *http.Server
}

// New creates a new Server. manifest may be nil.
func New(cfg *config.Config, runner carcin.Runner, manifest page.Manifest) *Server {
	widgetCfg := play.Config{
		Options:       cfg.RunOptions(),
		Translator:    cfg.Translator(),
		LockOnFailure: cfg.Widget.LockOnFailure,
	}
	if cfg.Widget.ANSI {
		widgetCfg.Colorizer = play.ANSIColorizer{}
	}

	s := &Server{
		cfg:       cfg,
		runner:    runner,
		widgetCfg: widgetCfg,
		manifest:  manifest,
		widgets:   NewWidgetManager(cfg.Server.MaxWidgets),
		router:    chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(observability.MetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)

		r.Post("/run", s.handleRun)

		r.Post("/widgets", s.handleCreateWidget)
		r.Get("/widgets/{id}", s.handleGetWidget)
		r.Delete("/widgets/{id}", s.handleDeleteWidget)
		r.Post("/widgets/{id}/run", s.handleRunWidget)

		// WebSocket (no JSON content-type)
		r.Get("/widgets/{id}/ws", s.handleWebSocket)
	})

	r.Handle("/static/*", staticHandler())
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", s.handleDocs)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusFound)
	})
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Widgets returns the widget manager.
func (s *Server) Widgets() *WidgetManager {
	return s.widgets
}

// Start begins listening on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Printf("carcin-play server starting on http://localhost%s", addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")
	s.widgets.CloseAll()

	if s.http == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
