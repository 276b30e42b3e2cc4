package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abdoelhafi/file-loader-app/config"
	"github.com/abdoelhafi/file-loader-app/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or validate the uploads table",
	Long: `Create the uploads table and its indexes if they do not exist, then
check the table has the expected columns.

Running it again is safe. With --check nothing is created and the command
only reports whether the existing schema matches.`,
	RunE: runMigrate,
}

var migrateCheckOnly bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateCheckOnly, "check", false, "only validate the existing schema")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err = db.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if !migrateCheckOnly {
		if err = db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	if err = db.Validate(ctx); err != nil {
		return fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("schema ok", "type", cfg.Database.Type, "table", cfg.Database.Tables.Uploads)
	return nil
}
