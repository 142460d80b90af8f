package strategy

import (
	"cosmossdk.io/math"

	"github.com/elys-network/imbtc-strategy/internal/utils"
)

// EstimatedTotalAssets is the strategy's value in want: idle want, plus idle staking asset,
// plus staked and unstaked derivative at the savings exchange rate, all at the peg.
// Unclaimed rewards are not counted.
func (s *Strategy) EstimatedTotalAssets() math.Int {
	return s.WantBalance().Add(s.positionValue())
}

// positionValue is the want value of everything except idle want.
func (s *Strategy) positionValue() math.Int {
	credits := s.StakedBalance().Add(s.UnstakedBalance())
	staking := s.StakingAssetBalance().Add(s.creditsToStaking(credits))
	return s.stakingToWant(staking)
}

// WantBalance is the idle want held by the strategy.
func (s *Strategy) WantBalance() math.Int {
	return s.balance(s.want.Denom)
}

// StakingAssetBalance is the idle staking asset held by the strategy.
func (s *Strategy) StakingAssetBalance() math.Int {
	return s.balance(s.stakingAsset.Denom)
}

// StakedBalance is the derivative staked in the reward venue.
func (s *Strategy) StakedBalance() math.Int {
	return s.staking.StakedBalance(s.address)
}

// UnstakedBalance is the derivative held but not staked.
func (s *Strategy) UnstakedBalance() math.Int {
	return s.balance(s.derivative.Denom)
}

// RewardBalance is the reward token already claimed and held.
func (s *Strategy) RewardBalance() math.Int {
	return s.balance(s.reward.Denom)
}

// UnclaimedRewards is the reward accrued in the staking venue and not yet claimed.
func (s *Strategy) UnclaimedRewards() math.Int {
	return s.staking.UnclaimedRewards(s.address)
}

// RewardValue is the want value of claimed and unclaimed rewards at the router's quote.
// A failed quote counts as zero.
func (s *Strategy) RewardValue() math.Int {
	rewards := s.RewardBalance().Add(s.UnclaimedRewards())
	if !rewards.IsPositive() {
		return math.ZeroInt()
	}
	value, err := s.router.Quote(s.reward.Coin(rewards), s.want.Denom)
	if err != nil || value.IsNil() {
		return math.ZeroInt()
	}
	return value
}

// UnrealizedPnL compares estimated total assets with the debt the vault has recorded.
// At most one of profit and loss is positive.
func (s *Strategy) UnrealizedPnL() (profit, loss math.Int) {
	total := s.EstimatedTotalAssets()
	debt := s.vault.StrategyDebt(s.address)
	return utils.SubFloor(total, debt), utils.SubFloor(debt, total)
}

// IsActive reports whether the vault still allocates to, or the strategy still holds, any funds.
func (s *Strategy) IsActive() bool {
	return s.vault.StrategyDebtRatio(s.address) > 0 || s.EstimatedTotalAssets().IsPositive()
}
