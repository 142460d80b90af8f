package strategy

import (
	"fmt"

	"cosmossdk.io/math"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/utils"
)

// Tend stakes any derivative the strategy holds unstaked and returns the amount staked.
// It touches no vault accounting and is a no-op when nothing is unstaked or after emergency exit.
func (s *Strategy) Tend(caller chain.Address) (math.Int, error) {
	staked := math.ZeroInt()
	err := s.env.Atomic(func() error {
		if err := s.require(caller, keepers, "tend"); err != nil {
			return err
		}
		if s.state.emergencyExit {
			return nil
		}
		amount, err := s.stakeIdle()
		if err != nil {
			return err
		}
		staked = amount
		return nil
	})
	if err != nil {
		return math.ZeroInt(), err
	}

	s.logger.Info().
		Str("caller", string(caller)).
		Str("staked", staked.String()).
		Msg("Tend completed")
	return staked, nil
}

// stakeIdle stakes the whole unstaked derivative balance.
func (s *Strategy) stakeIdle() (math.Int, error) {
	amount := s.UnstakedBalance()
	if !amount.IsPositive() {
		return math.ZeroInt(), nil
	}
	if err := s.staking.Stake(s.address, amount); err != nil {
		return math.ZeroInt(), fmt.Errorf("failed to stake %s%s: %w", amount, s.derivative.Denom, err)
	}
	return amount, nil
}

// invest moves amount of want into the staked position and returns the want actually spent.
func (s *Strategy) invest(amount math.Int) (math.Int, error) {
	if !amount.IsPositive() {
		return math.ZeroInt(), nil
	}

	minted, err := s.wantToStakingAsset(amount)
	if err != nil {
		return math.ZeroInt(), err
	}
	if !minted.IsPositive() {
		return math.ZeroInt(), nil
	}

	if idle := s.StakingAssetBalance(); idle.IsPositive() {
		if _, err := s.savings.Deposit(s.address, idle); err != nil {
			return math.ZeroInt(), fmt.Errorf("failed to deposit %s%s into savings: %w", idle, s.stakingAsset.Denom, err)
		}
	}
	if _, err := s.stakeIdle(); err != nil {
		return math.ZeroInt(), err
	}
	return amount, nil
}

// divest frees roughly amount of want from the position. The staking asset withdrawn is grossed
// up by the want-to-stake tolerance so conversion fees do not leave the result short.
func (s *Strategy) divest(amount math.Int) error {
	if !amount.IsPositive() {
		return nil
	}
	target := utils.GrossUpBps(s.wantToStaking(amount), s.state.params.SlippageWantToStake)

	if held := s.StakingAssetBalance(); held.LT(target) {
		credits := s.stakingToCredits(target.Sub(held))
		if unstaked := s.UnstakedBalance(); unstaked.LT(credits) {
			toUnstake := utils.MinInt(credits.Sub(unstaked), s.StakedBalance())
			if toUnstake.IsPositive() {
				if err := s.staking.Unstake(s.address, toUnstake); err != nil {
					return fmt.Errorf("failed to unstake %s%s: %w", toUnstake, s.derivative.Denom, err)
				}
			}
		}
		redeem := utils.MinInt(credits, s.UnstakedBalance())
		if redeem.IsPositive() {
			if _, err := s.savings.Redeem(s.address, redeem); err != nil {
				return fmt.Errorf("failed to redeem %s%s: %w", redeem, s.derivative.Denom, err)
			}
		}
	}

	sell := utils.MinInt(target, s.StakingAssetBalance())
	_, err := s.stakingAssetToWant(sell)
	return err
}

// liquidatePosition tries to hold amountNeeded of idle want. It returns the want available up to
// amountNeeded and, once the position is exhausted, the shortfall as a loss.
func (s *Strategy) liquidatePosition(amountNeeded math.Int) (liquidated, loss math.Int, err error) {
	if s.WantBalance().GTE(amountNeeded) {
		return amountNeeded, math.ZeroInt(), nil
	}
	if err := s.divest(amountNeeded.Sub(s.WantBalance())); err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}

	wantBal := s.WantBalance()
	if wantBal.GTE(amountNeeded) {
		return amountNeeded, math.ZeroInt(), nil
	}
	loss = math.ZeroInt()
	if s.positionValue().IsZero() {
		loss = amountNeeded.Sub(wantBal)
	}
	return wantBal, loss, nil
}

// liquidateAllPositions unwinds the whole position into want and returns the idle want balance.
func (s *Strategy) liquidateAllPositions() (math.Int, error) {
	if staked := s.StakedBalance(); staked.IsPositive() {
		if err := s.staking.Unstake(s.address, staked); err != nil {
			return math.ZeroInt(), fmt.Errorf("failed to unstake %s%s: %w", staked, s.derivative.Denom, err)
		}
	}
	if credits := s.UnstakedBalance(); credits.IsPositive() {
		if _, err := s.savings.Redeem(s.address, credits); err != nil {
			return math.ZeroInt(), fmt.Errorf("failed to redeem %s%s: %w", credits, s.derivative.Denom, err)
		}
	}
	if _, err := s.stakingAssetToWant(s.StakingAssetBalance()); err != nil {
		return math.ZeroInt(), err
	}
	return s.WantBalance(), nil
}

// adjustPosition runs after the vault has settled a report. It keeps debtOutstanding idle for the
// vault and invests the rest beyond the want buffer.
func (s *Strategy) adjustPosition(debtOutstanding math.Int) (invested, divested math.Int, err error) {
	invested, divested = math.ZeroInt(), math.ZeroInt()
	if s.state.emergencyExit {
		return invested, divested, nil
	}

	wantBal := s.WantBalance()
	if debtOutstanding.GT(wantBal) {
		if _, _, err := s.liquidatePosition(debtOutstanding); err != nil {
			return invested, divested, err
		}
		return invested, utils.SubFloor(s.WantBalance(), wantBal), nil
	}

	excess := utils.SubFloor(wantBal.Sub(debtOutstanding), s.state.params.WantBuffer)
	invested, err = s.invest(excess)
	if err != nil {
		return invested, divested, err
	}
	if _, err := s.stakeIdle(); err != nil {
		return invested, divested, err
	}
	return invested, divested, nil
}
