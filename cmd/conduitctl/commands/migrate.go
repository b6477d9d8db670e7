package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduitapp/conduit-api/internal/config"
	"github.com/conduitapp/conduit-api/internal/database"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  "Run the embedded schema migrations against DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			fmt.Println("migrations applied")
			return nil
		},
	}
}
