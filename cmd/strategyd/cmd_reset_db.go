package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/imbtc-strategy/internal/config"
	"github.com/elys-network/imbtc-strategy/internal/state"
)

var resetForce bool

// resetDBCmd drops and recreates every strategy table
var resetDBCmd = &cobra.Command{
	Use:   "reset-db",
	Short: "Drop and recreate the strategy tables",
	Long: `Drops harvest_reports, strategy_parameters and cycle_counter, recreates the schema and
stores the default parameters as the active version. All history is lost.`,
	RunE: runResetDB,
}

func init() {
	resetDBCmd.Flags().BoolVar(&resetForce, "force", false, "confirm that all stored data will be deleted")
}

func runResetDB(cmd *cobra.Command, args []string) error {
	if !resetForce {
		return fmt.Errorf("reset-db deletes all stored data; rerun with --force")
	}
	if !config.PersistenceEnabled() {
		return fmt.Errorf("DB_HOST is not set")
	}
	ctx := cmd.Context()

	log.Info().
		Str("host", config.DBHost).
		Int("port", config.DBPort).
		Str("dbname", config.DBName).
		Msg("Connecting to database")
	if _, err := openDatabase(ctx); err != nil {
		return err
	}
	defer state.CloseDB()

	if err := state.DropSchema(ctx); err != nil {
		return err
	}
	log.Info().Msg("Recreating database schema...")
	if err := state.EnsureSchema(ctx); err != nil {
		return err
	}
	if _, err := loadParameters(ctx, true); err != nil {
		return err
	}

	log.Info().Msg("Database reset complete!")
	return nil
}
