package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/imbtc-strategy/internal/config"
	"github.com/elys-network/imbtc-strategy/internal/logger"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "strategyd",
	Short: "Keeper daemon and tooling for the WBTC imBTC savings strategy",
	Long: `strategyd drives a single-asset vault strategy that mints mBTC from WBTC,
deposits it into imBTC savings and stakes the credits for MTA rewards.

Configuration is read from the environment and an optional .env file.
STRATEGY_MODE must be set; "simulation" runs against an in-process market.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvironment,
}

func loadEnvironment(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}
	if err := config.LoadConfig(); err != nil {
		return err
	}
	if config.LogFile == "" {
		logger.Initialize(config.LogLevel)
		return nil
	}
	file, err := logger.FileWriter(config.LogFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logger.Initialize(config.LogLevel, file)
	return nil
}

func init() {
	rootCmd.AddCommand(runCmd, simulateCmd, triggersCmd, resetDBCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
