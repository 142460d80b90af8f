package main

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/imbtc-strategy/internal/config"
	"github.com/elys-network/imbtc-strategy/internal/simulations"
	"github.com/elys-network/imbtc-strategy/internal/state"
	"github.com/elys-network/imbtc-strategy/internal/types"
	"github.com/elys-network/imbtc-strategy/internal/utils"
)

const parametersVersion = 1

// openDatabase connects and applies the schema when DB_HOST is set. It reports whether it did.
func openDatabase(ctx context.Context) (bool, error) {
	if !config.PersistenceEnabled() {
		log.Info().Msg("DB_HOST not set, running without persistence")
		return false, nil
	}
	dbCfg := state.DBConfig{
		Host:     config.DBHost,
		Port:     config.DBPort,
		User:     config.DBUser,
		Password: config.DBPassword,
		DBName:   config.DBName,
		SSLMode:  config.DBSSLMode,
	}
	if err := state.InitDB(dbCfg); err != nil {
		return false, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := state.EnsureSchema(ctx); err != nil {
		state.CloseDB()
		return false, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	return true, nil
}

// loadParameters returns the stored active parameters, seeding the defaults on first run.
func loadParameters(ctx context.Context, persistent bool) (types.StrategyParameters, error) {
	defaults := config.DefaultStrategyParameters
	if !persistent {
		return defaults, nil
	}
	params, err := state.LoadActiveStrategyParameters(ctx, config.StrategyConfigName)
	if err == nil {
		return *params, nil
	}
	if !errors.Is(err, state.ErrNoActiveParameters) {
		return types.StrategyParameters{}, err
	}
	log.Warn().Str("config", config.StrategyConfigName).Msg("No active strategy parameters, saving defaults")
	if _, err := state.SaveStrategyParameters(ctx, defaults, config.StrategyConfigName, parametersVersion, true); err != nil {
		return types.StrategyParameters{}, fmt.Errorf("failed to save default strategy parameters: %w", err)
	}
	return defaults, nil
}

// newSimulation deploys the in-process market and deposits deposit whole want for Alice.
func newSimulation(params types.StrategyParameters, deposit float64) (*simulations.Deployment, error) {
	amount, err := utils.FromWholeUnits(deposit, config.WantAsset.Decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid deposit %v: %w", deposit, err)
	}
	opts := simulations.DefaultDeploymentOptions()
	opts.Params = params
	if needed := int64(math.Ceil(deposit)); needed > opts.UserFunds {
		opts.UserFunds = needed
	}
	d, err := simulations.NewDeployment(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to deploy simulation: %w", err)
	}
	if amount.IsPositive() {
		if _, err := d.Deposit(simulations.Alice, amount); err != nil {
			return nil, fmt.Errorf("failed to deposit into vault: %w", err)
		}
	}
	return d, nil
}
