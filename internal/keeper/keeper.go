package keeper

import (
	"context"
	"fmt"
	"time"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/logger"
	"github.com/elys-network/imbtc-strategy/internal/metrics"
	"github.com/elys-network/imbtc-strategy/internal/strategy"
	"github.com/elys-network/imbtc-strategy/internal/types"
	"github.com/elys-network/imbtc-strategy/internal/utils"
)

// Strategy is the part of a strategy the keeper drives.
type Strategy interface {
	Name() string
	Address() chain.Address
	Want() types.Asset
	Status() types.StrategyStatus
	HarvestTrigger(callCost math.Int) bool
	TendTrigger(callCost math.Int) bool
	Harvest(caller chain.Address) (types.HarvestReport, error)
	Tend(caller chain.Address) (math.Int, error)
}

// Executor serializes keeper calls against other users of the chain.
type Executor interface {
	Do(fn func() error) error
}

// Store persists keeper cycles and harvest reports.
type Store interface {
	IncrementCycleNumber(ctx context.Context) (int, error)
	SaveHarvestReport(ctx context.Context, cycleNumber int, report types.HarvestReport) error
}

// Config holds everything the keeper needs.
type Config struct {
	Executor Executor
	Strategy Strategy
	// Store is optional. Without it cycles are numbered in memory and reports are only logged.
	Store  Store
	Caller chain.Address
	// CallCost is the keeper's cost of one call, in want base units.
	CallCost math.Int
	// BeforeCycle runs inside the serialized section ahead of the trigger checks.
	// Simulation mode uses it to advance block time.
	BeforeCycle func() error
}

// Outcome of a keeper cycle.
type Outcome string

const (
	OutcomeIdle      Outcome = "idle"
	OutcomeTended    Outcome = "tended"
	OutcomeHarvested Outcome = "harvested"
	OutcomeFailed    Outcome = "failed"
)

// CycleResult summarizes one keeper cycle.
type CycleResult struct {
	ID          string
	CycleNumber int
	Outcome     Outcome
	Tended      math.Int
	Report      *types.HarvestReport
	Err         error
}

// Keeper watches a strategy's triggers and calls harvest or tend when they fire.
type Keeper struct {
	logger     zerolog.Logger
	executor   Executor
	strategy   Strategy
	store      Store
	caller     chain.Address
	callCost   math.Int
	before     func() error
	cycleCount int
}

func NewKeeper(cfg Config) (*Keeper, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	callCost := cfg.CallCost
	if callCost.IsNil() {
		callCost = math.ZeroInt()
	}
	return &Keeper{
		logger:   logger.GetForComponent("keeper").With().Str("strategy", cfg.Strategy.Name()).Logger(),
		executor: cfg.Executor,
		strategy: cfg.Strategy,
		store:    cfg.Store,
		caller:   cfg.Caller,
		callCost: callCost,
		before:   cfg.BeforeCycle,
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.Executor == nil {
		return fmt.Errorf("keeper executor cannot be nil")
	}
	if cfg.Strategy == nil {
		return fmt.Errorf("keeper strategy cannot be nil")
	}
	if cfg.Caller == "" {
		return fmt.Errorf("keeper caller address cannot be empty")
	}
	if !cfg.CallCost.IsNil() && cfg.CallCost.IsNegative() {
		return fmt.Errorf("keeper call cost cannot be negative: %s", cfg.CallCost)
	}
	return nil
}

// RunLoop runs a cycle immediately and then once per interval until ctx is cancelled.
func (k *Keeper) RunLoop(ctx context.Context, interval time.Duration) {
	k.logger.Info().Dur("interval", interval).Msg("Starting keeper loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	k.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			k.logger.Info().Msg("Keeper loop stopped due to context cancellation")
			return
		case <-ticker.C:
			k.RunCycle(ctx)
		}
	}
}

// RunCycle checks the triggers once. Harvest takes precedence over tend.
func (k *Keeper) RunCycle(ctx context.Context) CycleResult {
	started := time.Now()
	result := CycleResult{
		ID:          uuid.New().String(),
		CycleNumber: k.nextCycleNumber(ctx),
		Outcome:     OutcomeIdle,
	}
	cycleLogger := k.logger.With().Str("cycle_id", result.ID).Int("cycle", result.CycleNumber).Logger()
	cycleLogger.Debug().Msg("Keeper cycle started")

	var status types.StrategyStatus
	err := k.runBeforeCycle()
	if err == nil {
		err = k.executor.Do(func() error {
			return k.execute(&result, &status)
		})
	}
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		cycleLogger.Error().Err(err).Str("kind", strategy.KindOf(err).String()).Msg("Keeper cycle failed")
		metrics.Keeper().ObserveCycle(string(result.Outcome), time.Since(started).Seconds())
		return result
	}

	k.recordPosition(status)
	switch result.Outcome {
	case OutcomeHarvested:
		k.recordHarvest(ctx, cycleLogger, result.CycleNumber, *result.Report)
	case OutcomeTended:
		cycleLogger.Info().Str("staked", result.Tended.String()).Msg("Tend executed")
	default:
		cycleLogger.Debug().Msg("No trigger fired")
	}

	metrics.Keeper().ObserveCycle(string(result.Outcome), time.Since(started).Seconds())
	cycleLogger.Debug().Dur("duration", time.Since(started)).Str("outcome", string(result.Outcome)).Msg("Keeper cycle completed")
	return result
}

// runBeforeCycle runs the before hook in its own atomic scope so a failed harvest does not undo it.
func (k *Keeper) runBeforeCycle() error {
	if k.before == nil {
		return nil
	}
	if err := k.executor.Do(k.before); err != nil {
		return fmt.Errorf("before cycle hook: %w", err)
	}
	return nil
}

// execute runs the recommended strategy operation and captures the resulting status.
func (k *Keeper) execute(result *CycleResult, status *types.StrategyStatus) error {
	switch {
	case k.strategy.HarvestTrigger(k.callCost):
		metrics.Keeper().ObserveAction(strategy.ActionHarvest)
		report, err := k.strategy.Harvest(k.caller)
		if err != nil {
			metrics.Keeper().ObserveFailure(strategy.ActionHarvest, strategy.KindOf(err).String())
			return fmt.Errorf("harvest: %w", err)
		}
		result.Outcome = OutcomeHarvested
		result.Report = &report
	case k.strategy.TendTrigger(k.callCost):
		metrics.Keeper().ObserveAction(strategy.ActionTend)
		staked, err := k.strategy.Tend(k.caller)
		if err != nil {
			metrics.Keeper().ObserveFailure(strategy.ActionTend, strategy.KindOf(err).String())
			return fmt.Errorf("tend: %w", err)
		}
		result.Outcome = OutcomeTended
		result.Tended = staked
	}
	*status = k.strategy.Status()
	return nil
}

func (k *Keeper) nextCycleNumber(ctx context.Context) int {
	k.cycleCount++
	if k.store == nil {
		return k.cycleCount
	}
	n, err := k.store.IncrementCycleNumber(ctx)
	if err != nil {
		k.logger.Error().Err(err).Msg("Failed to increment stored cycle number, using local count")
		return k.cycleCount
	}
	return n
}

func (k *Keeper) recordHarvest(ctx context.Context, cycleLogger zerolog.Logger, cycleNumber int, report types.HarvestReport) {
	want := k.strategy.Want()
	metrics.Keeper().ObserveHarvest(
		wholeTokens(report.Profit, want),
		wholeTokens(report.Loss, want),
		report.RewardsDeferred,
	)
	cycleLogger.Info().
		Str("harvestId", report.ID).
		Str("profit", report.Profit.String()).
		Str("loss", report.Loss.String()).
		Strs("actions", report.Actions).
		Msg("Harvest executed")

	if k.store == nil {
		return
	}
	if err := k.store.SaveHarvestReport(ctx, cycleNumber, report); err != nil {
		cycleLogger.Error().Err(err).Str("harvestId", report.ID).Msg("Failed to save harvest report")
	}
}

func (k *Keeper) recordPosition(status types.StrategyStatus) {
	want := k.strategy.Want()
	metrics.Keeper().SetPosition(wholeTokens(status.EstimatedTotalAssets, want), wholeTokens(status.Debt, want))
}

// wholeTokens converts base units to whole tokens for gauges.
func wholeTokens(amount math.Int, asset types.Asset) float64 {
	value, err := utils.ToWholeUnits(amount, asset.Decimals)
	if err != nil {
		return 0
	}
	return value
}
