package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/portfolio/internal/config"
	"github.com/kozaktomas/portfolio/internal/imageopt"
	"github.com/kozaktomas/portfolio/internal/portfolio"
	"github.com/kozaktomas/portfolio/internal/web/handlers"
	"github.com/kozaktomas/portfolio/internal/web/middleware"
	"golang.org/x/time/rate"
)

// Login attempts allowed per client IP.
const (
	loginRate  = rate.Limit(5.0 / 60.0)
	loginBurst = 5
)

// Deps are the services the routes are built on.
type Deps struct {
	Projects    *portfolio.Service
	Stats       handlers.StatsFetcher
	Optimizer   *imageopt.Optimizer
	Uploads     http.Handler // serves /uploads/*, nil unless objects are stored locally
	SessionRepo middleware.SessionRepository
}

// Server represents the web server
type Server struct {
	config         *config.Config
	deps           Deps
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
	loginLimiter   *middleware.RateLimiter
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	r := chi.NewRouter()

	// Create session manager with optional persistence
	sessionManager := middleware.NewSessionManager(cfg.Web.SessionSecret, deps.SessionRepo,
		middleware.WithSecureCookie(cfg.IsProduction()))

	s := &Server{
		config:         cfg,
		deps:           deps,
		router:         r,
		sessionManager: sessionManager,
		loginLimiter:   middleware.NewRateLimiter(loginRate, loginBurst),
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(time.Minute))
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	if err := s.setupRoutes(); err != nil {
		s.stop()
		return nil, err
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // image optimisation of large uploads
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting web server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) stop() {
	s.sessionManager.Stop()
	s.loginLimiter.Stop()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down web server")
	s.stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
