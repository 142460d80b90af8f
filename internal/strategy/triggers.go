package strategy

import (
	"cosmossdk.io/math"

	"github.com/elys-network/imbtc-strategy/internal/utils"
)

// HarvestTrigger reports whether a keeper paying callCost (in want) should harvest now.
// It has no side effects and never fails.
func (s *Strategy) HarvestTrigger(callCost math.Int) bool {
	if callCost.IsNil() || callCost.IsNegative() {
		callCost = math.ZeroInt()
	}
	if !s.IsActive() {
		return false
	}

	params := s.state.params
	sinceReport := s.env.Now().Sub(s.vault.LastReport(s.address))
	if sinceReport < params.MinReportDelay {
		return false
	}
	if params.MaxReportDelay > 0 && sinceReport >= params.MaxReportDelay {
		return true
	}

	if s.vault.DebtOutstanding(s.address).GT(params.DebtThreshold) {
		return true
	}

	total := s.EstimatedTotalAssets()
	debt := s.vault.StrategyDebt(s.address)
	if total.Add(params.DebtThreshold).LT(debt) {
		return true
	}

	rewardValue := s.RewardValue()
	if rewardValue.IsPositive() && !s.env.Now().Before(s.staking.PeriodFinish()) {
		return true
	}

	profit := utils.SubFloor(total, debt).Add(rewardValue)
	credit := s.vault.CreditAvailable(s.address)
	return callCost.Mul(math.NewIntFromUint64(params.ProfitFactor)).LT(credit.Add(profit))
}

// TendTrigger reports whether unstaked derivative is worth more than callCost (in want).
// It has no side effects and never fails.
func (s *Strategy) TendTrigger(callCost math.Int) bool {
	if callCost.IsNil() || callCost.IsNegative() {
		callCost = math.ZeroInt()
	}
	if s.state.emergencyExit {
		return false
	}
	unstaked := s.UnstakedBalance()
	if !unstaked.IsPositive() {
		return false
	}
	value := s.stakingToWant(s.creditsToStaking(unstaked))
	return value.GT(callCost)
}
