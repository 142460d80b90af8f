/*

This file contains the default parameters for the strategy.

Tolerances are in basis points of the venue's reference quote. Trigger settings follow the keeper
conventions of pooled-vault strategies: report at least monthly, never more than once a day unless
debt needs to move.

*/

package config

import (
	"time"

	"cosmossdk.io/math"

	"github.com/elys-network/imbtc-strategy/internal/types"
)

// DefaultStrategyParameters is used when no stored parameters exist.
var DefaultStrategyParameters = types.StrategyParameters{
	SlippageRewardToWant: 500, // Sell rewards for at least 95% of the router's spot quote.
	// Rationale: Reward pools are thin relative to the want market. A harvest that cannot sell
	// within 5% defers the rewards to the next harvest instead of failing.

	SlippageWantToStake: 50, // Mint and redeem within 0.5% of par.
	// Rationale: The basket mints at par and charges a small redemption fee. Anything beyond
	// half a percent means the basket is imbalanced and the harvest should stop.

	CheckSlippageRewardToWant: true,
	LiquidateRewards:          true,

	MinReportDelay: 0,
	// Rationale: Debt changes should reach the strategy as soon as a keeper sees them.

	MaxReportDelay: 30 * 24 * time.Hour, // Report at least every 30 days.
	// Rationale: Long gaps hide losses from depositors and let unclaimed rewards pile up.

	ProfitFactor: 100, // Harvest once profit plus credit is worth 100 harvest calls.

	DebtThreshold: math.ZeroInt(),
	WantBuffer:    math.ZeroInt(),
}
