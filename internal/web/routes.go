package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/portfolio/internal/format"
	"github.com/kozaktomas/portfolio/internal/metrics"
	"github.com/kozaktomas/portfolio/internal/web/handlers"
	"github.com/kozaktomas/portfolio/internal/web/middleware"
	"github.com/kozaktomas/portfolio/internal/web/static"
)

// uploadOverhead bounds the raw optimize request above the image limit.
const uploadOverhead = 20 << 20

func (s *Server) setupRoutes() error {
	tmpl, err := static.ParseTemplates(nil)
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	maxImageBytes := s.config.Images.MaxBytes

	// Create handlers
	authHandler := handlers.NewAuthHandler(s.config, s.sessionManager)
	projectsHandler := handlers.NewProjectsHandler(s.deps.Projects, maxImageBytes)
	githubHandler := handlers.NewGitHubHandler(s.deps.Stats)
	imagesHandler := handlers.NewImagesHandler(s.deps.Optimizer, s.config.Images, maxImageBytes+uploadOverhead)
	galleryHandler := handlers.NewGalleryHandler(s.deps.Projects, s.deps.Stats, tmpl, format.DefaultLocale)

	// Health check and metrics (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/metrics", metrics.Handler())

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.With(s.loginLimiter.Middleware()).Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/auth/status", authHandler.Status)

		// Public reads
		r.Get("/projects", projectsHandler.List)
		r.Get("/github/stats", githubHandler.Stats)

		// Mutations need an admin session. The service re-checks the user.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.sessionManager))

			r.Post("/projects", projectsHandler.Create)
			r.Delete("/projects", projectsHandler.Delete)
			r.Put("/projects/order", projectsHandler.Order)
			r.Put("/projects/{id}", projectsHandler.Update)

			r.Post("/images/optimize", imagesHandler.Optimize)
		})
	})

	if s.deps.Uploads != nil {
		s.router.Handle("/uploads/*", http.StripPrefix("/uploads", s.deps.Uploads))
	}

	s.router.Get("/assets/*", s.serveAssets)
	s.router.Get("/", galleryHandler.Render)

	return nil
}

// serveAssets serves the embedded stylesheet and images
func (s *Server) serveAssets(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/assets")

	f, err := static.GetFileSystem().Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	// Set content type based on extension
	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
	case strings.HasSuffix(path, ".svg"):
		w.Header().Set("Content-Type", "image/svg+xml")
	case strings.HasSuffix(path, ".ico"):
		w.Header().Set("Content-Type", "image/x-icon")
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")

	http.ServeContent(w, r, stat.Name(), stat.ModTime(), f)
}
