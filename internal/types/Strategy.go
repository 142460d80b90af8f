/*

This file contains the tunable parameters of the strategy and the status view exposed to keepers and the API.

*/

package types

import (
	"errors"
	"fmt"
	"time"

	"cosmossdk.io/math"

	"github.com/elys-network/imbtc-strategy/internal/chain"
)

var (
	ErrInvalidParameters = errors.New("strategy parameters are invalid")

	// ErrMinimumNotMet is returned (wrapped) by venues when a conversion yields less than the caller's minimum.
	ErrMinimumNotMet = errors.New("output below minimum")

	// ErrZeroOutput is returned (wrapped) by venues when a conversion would pay out nothing after fees.
	ErrZeroOutput = errors.New("swap output rounds to zero")
)

// StrategyParameters holds every setting governance, management or the strategist can tune.
type StrategyParameters struct {
	// --- Conversion tolerances (basis points) ---
	SlippageRewardToWant      uint64 `json:"slippage_reward_to_want"`       // Max shortfall vs quote when selling rewards for want.
	SlippageWantToStake       uint64 `json:"slippage_want_to_stake"`        // Max shortfall vs quote between want and the staking asset, both directions.
	CheckSlippageRewardToWant bool   `json:"check_slippage_reward_to_want"` // When false, rewards are sold with a zero minimum.
	LiquidateRewards          bool   `json:"liquidate_rewards"`             // When false, rewards accumulate unsold.

	// --- Keeper triggers ---
	MinReportDelay time.Duration `json:"min_report_delay"` // Harvest is never triggered sooner than this after the last report.
	MaxReportDelay time.Duration `json:"max_report_delay"` // Harvest is always triggered once this has elapsed.
	ProfitFactor   uint64        `json:"profit_factor"`    // Harvest when profitFactor * callCost < credit + profit.
	DebtThreshold  math.Int      `json:"debt_threshold"`   // Debt outstanding or loss above this (want units) triggers a harvest.

	// WantBuffer is the idle want kept uninvested after a harvest.
	WantBuffer math.Int `json:"want_buffer"`
}

// Validate checks the parameter ranges.
func (p StrategyParameters) Validate() error {
	if p.SlippageRewardToWant > MaxBasisPoints {
		return fmt.Errorf("%w: reward to want slippage %d exceeds %d bps", ErrInvalidParameters, p.SlippageRewardToWant, MaxBasisPoints)
	}
	if p.SlippageWantToStake > MaxBasisPoints {
		return fmt.Errorf("%w: want to stake slippage %d exceeds %d bps", ErrInvalidParameters, p.SlippageWantToStake, MaxBasisPoints)
	}
	if p.MinReportDelay < 0 || p.MaxReportDelay < 0 {
		return fmt.Errorf("%w: report delays must not be negative", ErrInvalidParameters)
	}
	if p.MaxReportDelay > 0 && p.MinReportDelay > p.MaxReportDelay {
		return fmt.Errorf("%w: min report delay %s exceeds max report delay %s", ErrInvalidParameters, p.MinReportDelay, p.MaxReportDelay)
	}
	if p.DebtThreshold.IsNil() || p.DebtThreshold.IsNegative() {
		return fmt.Errorf("%w: debt threshold must be a non-negative amount", ErrInvalidParameters)
	}
	if p.WantBuffer.IsNil() || p.WantBuffer.IsNegative() {
		return fmt.Errorf("%w: want buffer must be a non-negative amount", ErrInvalidParameters)
	}
	return nil
}

// StrategyStatus is a point-in-time view of a strategy.
type StrategyStatus struct {
	Name                 string             `json:"name"`
	Address              chain.Address      `json:"address"`
	Vault                chain.Address      `json:"vault"`
	Want                 Asset              `json:"want"`
	Keeper               chain.Address      `json:"keeper"`
	Strategist           chain.Address      `json:"strategist"`
	EmergencyExit        bool               `json:"emergency_exit"`
	Migrated             bool               `json:"migrated"`
	EstimatedTotalAssets math.Int           `json:"estimated_total_assets"`
	WantBalance          math.Int           `json:"want_balance"`
	StakedBalance        math.Int           `json:"staked_balance"`
	UnstakedBalance      math.Int           `json:"unstaked_balance"`
	UnclaimedRewards     math.Int           `json:"unclaimed_rewards"`
	ExchangeRate         math.LegacyDec     `json:"exchange_rate"`
	Debt                 math.Int           `json:"debt"`
	DebtRatio            uint64             `json:"debt_ratio"`
	LastReport           time.Time          `json:"last_report"`
	Params               StrategyParameters `json:"params"`
	Timestamp            time.Time          `json:"timestamp"`
}
