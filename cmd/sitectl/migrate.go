package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toonarmycaptain/website/pkg/database"
	"github.com/toonarmycaptain/website/pkg/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the contact database schema",
	Long: `Create the person and message tables if they do not exist.
Running it against an up-to-date database changes nothing.

Examples:
  sitectl migrate
  DB_PATH=/srv/site/contact.db sitectl migrate`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.NewWithOutput(cmd.ErrOrStderr(), logLevel, "text")
	db, err := database.Init(cmd.Context(), cfg.Database.Path, database.SchemaParams{
		MessageMaxLength: cfg.Database.MessageMaxLength,
	}, log)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer db.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date at %s\n", cfg.Database.Path)
	return nil
}
