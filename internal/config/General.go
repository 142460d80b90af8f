package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// StrategyMode selects the execution backend. Only "simulation" is supported.
	StrategyMode string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFile, when set, receives a JSON copy of every log event.
	LogFile string

	// StrategyConfigName keys the stored strategy parameters.
	StrategyConfigName string

	// KeeperInterval is the wall-clock time between keeper cycles.
	KeeperInterval time.Duration
	// KeeperCallCost is the keeper's cost of one call, in want base units.
	KeeperCallCost uint64

	// SimulationStep is the block time the simulated chain advances per keeper cycle.
	SimulationStep time.Duration
	// SimulationDeposit is the want (whole tokens) the simulated depositor puts into the vault.
	SimulationDeposit uint64
	// SimulationRewards is the reward (whole tokens) streamed per simulated reward period.
	SimulationRewards uint64
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// STRATEGY_MODE is required; everything else has a default.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	StrategyMode, err = getEnv("STRATEGY_MODE")
	if err != nil {
		return err
	}

	LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	LogFile = getEnvOrDefault("LOG_FILE", "")
	StrategyConfigName = getEnvOrDefault("STRATEGY_CONFIG_NAME", "imbtc_strategy")

	KeeperInterval, err = getEnvAsDurationOrDefault("KEEPER_INTERVAL", 10*time.Minute)
	if err != nil {
		return err
	}

	KeeperCallCost, err = getEnvAsUint64OrDefault("KEEPER_CALL_COST", 0)
	if err != nil {
		return err
	}

	SimulationStep, err = getEnvAsDurationOrDefault("SIMULATION_STEP", 6*time.Hour)
	if err != nil {
		return err
	}

	SimulationDeposit, err = getEnvAsUint64OrDefault("SIMULATION_DEPOSIT", 100)
	if err != nil {
		return err
	}

	SimulationRewards, err = getEnvAsUint64OrDefault("SIMULATION_REWARDS", 10_000)
	if err != nil {
		return err
	}

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("StrategyMode", StrategyMode).
		Dur("KeeperInterval", KeeperInterval).
		Uint64("KeeperCallCost", KeeperCallCost).
		Dur("SimulationStep", SimulationStep).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOrDefault retrieves a string environment variable, falling back when unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvAsUint64OrDefault retrieves an environment variable as a uint64. Returns error if invalid.
func getEnvAsUint64OrDefault(key string, fallback uint64) (uint64, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsIntOrDefault retrieves an environment variable as an int. Returns error if invalid.
func getEnvAsIntOrDefault(key string, fallback int) (int, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsDurationOrDefault retrieves an environment variable as a time.Duration (e.g. "10m").
func getEnvAsDurationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil || value <= 0 {
		return 0, errors.New("environment variable " + key + " must be a positive duration, got: " + valueStr)
	}
	return value, nil
}
