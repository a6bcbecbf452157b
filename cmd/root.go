package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultServerURL = "http://localhost:8080"

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Portfolio site server and admin CLI",
	Long: `Portfolio serves a public project gallery with an authenticated admin API
and manages its projects from the command line: log in, list, create,
update, reorder and delete projects, and optimise images before upload.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Portfolio server URL (env PORTFOLIO_URL, default "+defaultServerURL+")")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	initLogger()
}

// resolveServerURL prefers --server, then PORTFOLIO_URL (which may come from .env).
func resolveServerURL() string {
	if serverURL != "" {
		return strings.TrimRight(serverURL, "/")
	}
	if env := os.Getenv("PORTFOLIO_URL"); env != "" {
		return strings.TrimRight(env, "/")
	}
	return defaultServerURL
}

// initLogger configures the default slog logger from LOG_FORMAT and LOG_LEVEL.
func initLogger() {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
