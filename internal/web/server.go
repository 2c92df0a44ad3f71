// Package web provides the HTTP server, pages and JSON API for Moodify.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/justestif/go-moodify/internal/classifier"
	"github.com/justestif/go-moodify/internal/history"
	"github.com/justestif/go-moodify/internal/journey"
	"github.com/justestif/go-moodify/internal/logging"
	"github.com/justestif/go-moodify/internal/playlist"
)

const shutdownTimeout = 10 * time.Second

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	BaseURL     string // public origin used in share text
	TemplatesFS fs.FS
	StaticFS    fs.FS

	Histories  *history.Manager
	Classifier classifier.Classifier
	Playlists  *playlist.Source
	Journey    journey.Config
	Logger     *zap.Logger
}

// Server is the HTTP server for the web application.
type Server struct {
	router    chi.Router
	server    *http.Server
	templates *Templates
	handlers  *Handlers
	hub       *Hub
	log       *zap.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Histories == nil || cfg.Classifier == nil || cfg.Playlists == nil {
		return nil, errors.New("histories, classifier and playlists are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	hub := NewHub(cfg.Logger.Named("ws"))
	handlers := NewHandlers(cfg, templates, hub)

	s := &Server{
		router:    chi.NewRouter(),
		templates: templates,
		handlers:  handlers,
		hub:       hub,
		log:       cfg.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(logging.Requests(s.log.Named("http")))
	s.router.Use(middleware.Recoverer)
	s.router.Use(withVisitor)
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS) {
	s.router.Get("/healthz", s.handlers.Healthz)

	// The websocket route must not be wrapped by Compress.
	s.router.Get("/ws", s.hub.ServeWS)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))

		if staticFS != nil {
			fileServer := http.FileServer(http.FS(staticFS))
			r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
		}

		// Pages
		r.Get("/", s.handlers.Home)
		r.Get("/mood", s.handlers.MoodForm)
		r.Post("/mood", s.handlers.SubmitMood)
		r.Get("/playlist", s.handlers.Playlist)
		r.Get("/history", s.handlers.History)
		r.Post("/history/clear", s.handlers.ClearHistory)
		r.Get("/journey", s.handlers.Journey)

		// JSON API
		r.Route("/api", func(r chi.Router) {
			r.Post("/recommend", s.handlers.APIRecommend)
			r.Post("/classify", s.handlers.APIClassify)
			r.Get("/history", s.handlers.APIHistory)
			r.Delete("/history", s.handlers.APIClearHistory)
			r.Get("/moods", s.handlers.APIMoods)
			r.Get("/playlists/{mood}", s.handlers.APIPlaylist)
		})
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.server.Shutdown(ctx)
}

// Run starts the server and shuts it down gracefully on interrupt signals
// or when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}
