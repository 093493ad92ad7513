package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonathan/news-assistant/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or revert the database schema",
	Long:      "Applies every embedded migration (up, the default) or reverts all of them (down).",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{db.MigrateUp, db.MigrateDown},
	RunE:      runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := db.MigrateUp
	if len(args) == 1 {
		direction = args[0]
	}
	if appConfig.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (set NEWS_ASSISTANT_DB_URL or DATABASE_URL)")
	}

	database, err := db.Connect(cmd.Context(), appConfig.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	version, err := database.Migrate(direction)
	if err != nil {
		return err
	}

	log.Info().Str("direction", direction).Uint("version", version).Msg("migrations applied")
	fmt.Fprintf(cmd.OutOrStdout(), "Schema version: %d\n", version)
	return nil
}
