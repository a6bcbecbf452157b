package cmd

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/portfolio/internal/config"
	"github.com/kozaktomas/portfolio/internal/database/postgres"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply pending PostgreSQL migrations and list the applied versions.
The serve command runs migrations on startup as well; this command is for
deploy pipelines that migrate before rolling out.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}

	ctx := cmd.Context()
	pool, err := postgres.Initialize(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	versions, err := pool.MigrationsApplied(ctx)
	if err != nil {
		return err
	}
	for _, v := range versions {
		fmt.Println(v)
	}
	successColor.Printf("%d migration(s) applied\n", len(versions))
	return nil
}
