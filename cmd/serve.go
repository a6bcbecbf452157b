package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/portfolio/internal/config"
	"github.com/kozaktomas/portfolio/internal/database"
	"github.com/kozaktomas/portfolio/internal/database/postgres"
	"github.com/kozaktomas/portfolio/internal/github"
	"github.com/kozaktomas/portfolio/internal/imageopt"
	"github.com/kozaktomas/portfolio/internal/metrics"
	"github.com/kozaktomas/portfolio/internal/portfolio"
	"github.com/kozaktomas/portfolio/internal/storage"
	"github.com/kozaktomas/portfolio/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the portfolio web server.
The server renders the public project gallery, exposes the JSON API used by
the admin CLI and stores project images locally or in Azure Blob Storage.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (overrides WEB_SESSION_SECRET)")
}

// applyServeFlags lets command line flags win over the environment.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if secret := mustGetString(cmd, "session-secret"); secret != "" {
		cfg.Web.SessionSecret = secret
	}
}

// newObjectStore builds the configured image backend. The returned handler
// serves uploaded files and is nil unless objects are stored on local disk.
func newObjectStore(cfg *config.Config) (storage.ObjectStore, http.Handler, error) {
	switch cfg.Storage.Backend {
	case config.StorageAzure:
		store, err := storage.NewAzureStore(cfg.Storage.AzureAccount, cfg.Storage.AzureKey,
			cfg.Storage.AzureContainer, cfg.Storage.PublicBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create azure store: %w", err)
		}
		slog.Info("storing images in Azure Blob Storage", "container", cfg.Storage.AzureContainer)
		return store, nil, nil
	case config.StorageLocal:
		baseURL := cfg.Storage.PublicBaseURL
		if baseURL == "" {
			baseURL = cfg.Web.PublicURL + "/uploads"
		}
		store, err := storage.NewLocalStore(cfg.Storage.LocalDir, baseURL, cfg.Storage.MaxBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create local store: %w", err)
		}
		slog.Info("storing images on local disk", "dir", cfg.Storage.LocalDir)
		return store, store.Handler(), nil
	default:
		return nil, nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
	}
}

// registerServeBackends connects PostgreSQL and registers the project store.
func registerServeBackends(ctx context.Context, cfg *config.Config) (*postgres.Pool, *postgres.SessionRepository, error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}

	slog.Info("connecting to PostgreSQL")
	pool, err := postgres.Initialize(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	projectRepo := postgres.NewProjectRepository(pool)
	database.RegisterProjectStore(func() database.ProjectWriter { return projectRepo })

	return pool, postgres.NewSessionRepository(pool), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	applyServeFlags(cmd, cfg)

	if cfg.IsProduction() && cfg.Web.SessionSecret == "" {
		return errors.New("WEB_SESSION_SECRET is required in production")
	}
	if cfg.Admin.Email == "" || cfg.Admin.PasswordHash == "" {
		slog.Warn("ADMIN_EMAIL or ADMIN_PASSWORD_HASH not set, admin login is disabled")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pool, sessionRepo, err := registerServeBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	objects, uploads, err := newObjectStore(cfg)
	if err != nil {
		return err
	}

	store, err := database.GetProjectStore(ctx)
	if err != nil {
		return err
	}

	service := portfolio.NewService(store, objects, cfg.Images.MaxBytes,
		portfolio.WithProduction(cfg.IsProduction()),
		portfolio.WithActionObserver(metrics.RecordProjectAction),
	)

	server, err := web.NewServer(cfg, web.Deps{
		Projects: service,
		Stats: github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Token, cfg.GitHub.CacheTTL,
			github.WithObserver(metrics.RecordGitHubLookup)),
		Optimizer:   imageopt.New(imageopt.WithObserver(metrics.RecordImageOptimization)),
		Uploads:     uploads,
		SessionRepo: sessionRepo,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	go func() {
		<-ctx.Done()
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during shutdown", "error", err)
		}
	}()

	fmt.Printf("Starting portfolio on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
