package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cosmossdk.io/math"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elys-network/imbtc-strategy/internal/config"
	"github.com/elys-network/imbtc-strategy/internal/keeper"
	"github.com/elys-network/imbtc-strategy/internal/simulations"
	"github.com/elys-network/imbtc-strategy/internal/state"
	"github.com/elys-network/imbtc-strategy/internal/web"
)

// runCmd starts the keeper loop and the status API
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the keeper loop and the status API",
	Long: `Deploys the strategy, then checks the harvest and tend triggers every KEEPER_INTERVAL
and calls whichever fires. Harvest reports are stored when DB_HOST is set.

In simulation mode every cycle first advances the simulated chain by SIMULATION_STEP and
restarts the reward stream with SIMULATION_REWARDS once a period ends.`,
	RunE: runKeeper,
}

func runKeeper(cmd *cobra.Command, args []string) error {
	if config.StrategyMode != "simulation" {
		return fmt.Errorf("unsupported STRATEGY_MODE %q: only \"simulation\" is available", config.StrategyMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	persistent, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	if persistent {
		defer state.CloseDB()
		if cycle, err := state.GetCurrentCycleNumber(ctx); err == nil {
			log.Info().Int("lastCycle", cycle).Msg("Resuming cycle numbering")
		} else {
			log.Warn().Err(err).Msg("Could not read the cycle counter")
		}
	}

	params, err := loadParameters(ctx, persistent)
	if err != nil {
		return err
	}
	d, err := newSimulation(params, float64(config.SimulationDeposit))
	if err != nil {
		return err
	}

	keeperCfg := keeper.Config{
		Executor: d.Chain,
		Strategy: d.Strategy,
		Caller:   simulations.Keeper,
		CallCost: math.NewIntFromUint64(config.KeeperCallCost),
		BeforeCycle: func() error {
			return d.Step(config.SimulationStep, int64(config.SimulationRewards))
		},
	}
	webCfg := web.Config{
		Port:     config.WebPort,
		Strategy: d.Strategy,
		Executor: d.Chain,
	}
	if persistent {
		store, err := state.NewPostgresStore(d.Strategy.Address().String())
		if err != nil {
			return err
		}
		keeperCfg.Store = store
		webCfg.Reports = store
	}

	k, err := keeper.NewKeeper(keeperCfg)
	if err != nil {
		return err
	}
	server, err := web.NewWebServer(webCfg)
	if err != nil {
		return err
	}

	go func() {
		log.Info().Str("url", "http://localhost:"+config.WebPort).Msg("Starting status API")
		if err := server.Start(ctx); err != nil {
			log.Error().Err(err).Msg("Web server stopped")
		}
	}()

	log.Info().
		Str("strategy", d.Strategy.Name()).
		Dur("interval", config.KeeperInterval).
		Dur("simulationStep", config.SimulationStep).
		Msg("Keeper starting")
	k.RunLoop(ctx, config.KeeperInterval)
	return nil
}
