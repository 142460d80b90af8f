/*

This file contains the strategy instance: its collaborators, its mutable state and its read accessors.

A strategy is bound to exactly one vault and one want asset. It converts want into the staking asset,
deposits that into the savings venue for an interest-bearing derivative, and stakes the derivative
for rewards.

*/

package strategy

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/logger"
	"github.com/elys-network/imbtc-strategy/internal/types"
)

// Config holds everything needed to construct a Strategy.
type Config struct {
	Name    string
	Address chain.Address

	Env    Environment
	Ledger Ledger
	Vault  Vault

	// Minter converts want to the staking asset and back.
	Minter  SwapVenue
	Savings SavingsVenue
	Staking StakingVenue
	// Router sells rewards for want.
	Router SwapVenue

	StakingAsset  types.Asset
	Derivative    types.Asset
	PositionToken types.Asset
	Reward        types.Asset

	Strategist chain.Address
	Keeper     chain.Address
	Params     types.StrategyParameters
}

type strategyState struct {
	strategist    chain.Address
	keeper        chain.Address
	params        types.StrategyParameters
	emergencyExit bool
	migrated      bool
}

// Strategy implements the harvest, tend, migrate and sweep lifecycle.
type Strategy struct {
	logger  zerolog.Logger
	name    string
	address chain.Address

	env     Environment
	ledger  Ledger
	vault   Vault
	minter  SwapVenue
	savings SavingsVenue
	staking StakingVenue
	router  SwapVenue

	want          types.Asset
	stakingAsset  types.Asset
	derivative    types.Asset
	positionToken types.Asset
	reward        types.Asset

	state strategyState
}

// New creates a strategy. The caller registers it with the environment for rollback.
func New(cfg Config) (*Strategy, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("strategy configuration validation failed: %w", err)
	}

	s := &Strategy{
		logger:        logger.GetForComponent("strategy").With().Str("strategy", string(cfg.Address)).Logger(),
		name:          cfg.Name,
		address:       cfg.Address,
		env:           cfg.Env,
		ledger:        cfg.Ledger,
		vault:         cfg.Vault,
		minter:        cfg.Minter,
		savings:       cfg.Savings,
		staking:       cfg.Staking,
		router:        cfg.Router,
		want:          cfg.Vault.Want(),
		stakingAsset:  cfg.StakingAsset,
		derivative:    cfg.Derivative,
		positionToken: cfg.PositionToken,
		reward:        cfg.Reward,
		state: strategyState{
			strategist: cfg.Strategist,
			keeper:     cfg.Keeper,
			params:     cfg.Params,
		},
	}

	s.logger.Info().
		Str("name", s.name).
		Str("vault", string(s.vault.Address())).
		Str("want", s.want.Denom).
		Msg("Strategy created")

	return s, nil
}

func validateConfig(cfg Config) error {
	if cfg.Address == "" {
		return errInvalidConfigf("address cannot be empty")
	}
	if cfg.Env == nil || cfg.Ledger == nil || cfg.Vault == nil {
		return errInvalidConfigf("environment, ledger and vault are required")
	}
	if cfg.Minter == nil || cfg.Savings == nil || cfg.Staking == nil || cfg.Router == nil {
		return errInvalidConfigf("minter, savings, staking and router venues are required")
	}
	if cfg.Strategist == "" {
		return errInvalidConfigf("strategist cannot be empty")
	}
	if cfg.Savings.UnderlyingToken() != cfg.StakingAsset.Denom {
		return errInvalidConfigf("savings venue underlying %q does not match staking asset %q", cfg.Savings.UnderlyingToken(), cfg.StakingAsset.Denom)
	}
	if cfg.Savings.CreditToken() != cfg.Derivative.Denom || cfg.Staking.StakeToken() != cfg.Derivative.Denom {
		return errInvalidConfigf("derivative %q must be both the savings credit and the staking token", cfg.Derivative.Denom)
	}
	if cfg.Staking.PositionToken() != cfg.PositionToken.Denom {
		return errInvalidConfigf("staking position token %q does not match %q", cfg.Staking.PositionToken(), cfg.PositionToken.Denom)
	}
	if cfg.Staking.RewardToken() != cfg.Reward.Denom {
		return errInvalidConfigf("staking reward token %q does not match %q", cfg.Staking.RewardToken(), cfg.Reward.Denom)
	}
	want := cfg.Vault.Want().Denom
	for _, denom := range []string{cfg.StakingAsset.Denom, cfg.Derivative.Denom, cfg.PositionToken.Denom, cfg.Reward.Denom} {
		if denom == want {
			return errInvalidConfigf("want %q cannot double as a position asset", want)
		}
	}
	if err := cfg.Params.Validate(); err != nil {
		return errInvalidConfigf("%s", err)
	}
	return nil
}

// Snapshot implements chain.Stateful.
func (s *Strategy) Snapshot() any { return s.state }

// Restore implements chain.Stateful.
func (s *Strategy) Restore(snapshot any) { s.state = snapshot.(strategyState) }

func (s *Strategy) Name() string { return s.name }
func (s *Strategy) Address() chain.Address { return s.address }
func (s *Strategy) VaultAddress() chain.Address { return s.vault.Address() }
func (s *Strategy) Want() types.Asset { return s.want }
func (s *Strategy) WantDecimals() uint32 { return s.want.Decimals }
func (s *Strategy) StakingAsset() types.Asset { return s.stakingAsset }
func (s *Strategy) Derivative() types.Asset { return s.derivative }
func (s *Strategy) PositionToken() types.Asset { return s.positionToken }
func (s *Strategy) RewardToken() types.Asset { return s.reward }
func (s *Strategy) Keeper() chain.Address { return s.state.keeper }
func (s *Strategy) Strategist() chain.Address { return s.state.strategist }
func (s *Strategy) EmergencyExit() bool { return s.state.emergencyExit }
func (s *Strategy) Migrated() bool { return s.state.migrated }
func (s *Strategy) Params() types.StrategyParameters { return s.state.params }

// ProtectedTokens lists the denoms Sweep refuses besides want and vault shares.
func (s *Strategy) ProtectedTokens() []string {
	return []string{s.positionToken.Denom, s.derivative.Denom, s.reward.Denom}
}

// Status returns a read-only view of the strategy.
func (s *Strategy) Status() types.StrategyStatus {
	return types.StrategyStatus{
		Name:                 s.name,
		Address:              s.address,
		Vault:                s.vault.Address(),
		Want:                 s.want,
		Keeper:               s.state.keeper,
		Strategist:           s.state.strategist,
		EmergencyExit:        s.state.emergencyExit,
		Migrated:             s.state.migrated,
		EstimatedTotalAssets: s.EstimatedTotalAssets(),
		WantBalance:          s.WantBalance(),
		StakedBalance:        s.StakedBalance(),
		UnstakedBalance:      s.UnstakedBalance(),
		UnclaimedRewards:     s.UnclaimedRewards(),
		ExchangeRate:         s.savings.ExchangeRate(),
		Debt:                 s.vault.StrategyDebt(s.address),
		DebtRatio:            s.vault.StrategyDebtRatio(s.address),
		LastReport:           s.vault.LastReport(s.address),
		Params:               s.state.params,
		Timestamp:            s.env.Now(),
	}
}

func (s *Strategy) balance(denom string) math.Int {
	return s.ledger.BalanceOf(s.address, denom)
}
