package strategy

import (
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/types"
)

// update runs a guarded parameter change atomically.
func (s *Strategy) update(caller chain.Address, allowed Role, action string, apply func(*strategyState) error) error {
	err := s.env.Atomic(func() error {
		if err := s.require(caller, allowed, action); err != nil {
			return err
		}
		return apply(&s.state)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("caller", string(caller)).Str("action", action).Msg("Strategy setting updated")
	return nil
}

func checkBps(name string, bps uint64) error {
	if bps > types.MaxBasisPoints {
		return errInvalidConfigf("%s %d exceeds %d bps", name, bps, types.MaxBasisPoints)
	}
	return nil
}

// SetSlippageRewardToWant sets the tolerance used when selling rewards.
func (s *Strategy) SetSlippageRewardToWant(caller chain.Address, bps uint64) error {
	return s.update(caller, vaultManagers, "set reward to want slippage", func(st *strategyState) error {
		if err := checkBps("reward to want slippage", bps); err != nil {
			return err
		}
		st.params.SlippageRewardToWant = bps
		return nil
	})
}

// SetSlippageWantToStake sets the tolerance between want and the staking asset.
func (s *Strategy) SetSlippageWantToStake(caller chain.Address, bps uint64) error {
	return s.update(caller, vaultManagers, "set want to stake slippage", func(st *strategyState) error {
		if err := checkBps("want to stake slippage", bps); err != nil {
			return err
		}
		st.params.SlippageWantToStake = bps
		return nil
	})
}

func (s *Strategy) SetCheckSlippageRewardToWant(caller chain.Address, enabled bool) error {
	return s.update(caller, vaultManagers, "set reward slippage check", func(st *strategyState) error {
		st.params.CheckSlippageRewardToWant = enabled
		return nil
	})
}

func (s *Strategy) SetLiquidateRewards(caller chain.Address, enabled bool) error {
	return s.update(caller, vaultManagers, "set reward liquidation", func(st *strategyState) error {
		st.params.LiquidateRewards = enabled
		return nil
	})
}

func (s *Strategy) SetKeeper(caller, keeper chain.Address) error {
	return s.update(caller, authorized, "set keeper", func(st *strategyState) error {
		if keeper == "" {
			return errInvalidConfigf("keeper cannot be empty")
		}
		st.keeper = keeper
		return nil
	})
}

// SetStrategist is reserved to governance.
func (s *Strategy) SetStrategist(caller, strategist chain.Address) error {
	return s.update(caller, RoleGovernance, "set strategist", func(st *strategyState) error {
		if strategist == "" {
			return errInvalidConfigf("strategist cannot be empty")
		}
		st.strategist = strategist
		return nil
	})
}

func (s *Strategy) SetMinReportDelay(caller chain.Address, delay time.Duration) error {
	return s.update(caller, authorized, "set min report delay", func(st *strategyState) error {
		next := st.params
		next.MinReportDelay = delay
		return validateParams(next, &st.params)
	})
}

func (s *Strategy) SetMaxReportDelay(caller chain.Address, delay time.Duration) error {
	return s.update(caller, authorized, "set max report delay", func(st *strategyState) error {
		next := st.params
		next.MaxReportDelay = delay
		return validateParams(next, &st.params)
	})
}

func (s *Strategy) SetProfitFactor(caller chain.Address, factor uint64) error {
	return s.update(caller, authorized, "set profit factor", func(st *strategyState) error {
		st.params.ProfitFactor = factor
		return nil
	})
}

func (s *Strategy) SetDebtThreshold(caller chain.Address, threshold math.Int) error {
	return s.update(caller, authorized, "set debt threshold", func(st *strategyState) error {
		next := st.params
		next.DebtThreshold = threshold
		return validateParams(next, &st.params)
	})
}

func (s *Strategy) SetWantBuffer(caller chain.Address, buffer math.Int) error {
	return s.update(caller, authorized, "set want buffer", func(st *strategyState) error {
		next := st.params
		next.WantBuffer = buffer
		return validateParams(next, &st.params)
	})
}

func validateParams(next types.StrategyParameters, dst *types.StrategyParameters) error {
	if err := next.Validate(); err != nil {
		return errInvalidConfigf("%s", err)
	}
	*dst = next
	return nil
}

// SetEmergencyExit switches the strategy into emergency exit and asks the vault to revoke it.
// The flag cannot be cleared. The next harvest unwinds the position.
func (s *Strategy) SetEmergencyExit(caller chain.Address) error {
	err := s.env.Atomic(func() error {
		if err := s.require(caller, emergencyAuthorized, "set emergency exit"); err != nil {
			return err
		}
		if s.state.emergencyExit {
			return nil
		}
		s.state.emergencyExit = true
		if err := s.vault.RevokeStrategy(s.address); err != nil {
			return fmt.Errorf("vault failed to revoke strategy: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Warn().Str("caller", string(caller)).Msg("Emergency exit enabled")
	return nil
}

// Sweep sends the strategy's whole balance of an unprotected denom to governance.
func (s *Strategy) Sweep(caller chain.Address, denom string) (sdk.Coin, error) {
	var swept sdk.Coin
	err := s.env.Atomic(func() error {
		if err := s.require(caller, RoleGovernance, "sweep"); err != nil {
			return err
		}
		if denom == s.want.Denom {
			return errorsmod.Wrapf(ErrSweepWant, "cannot sweep %s", denom)
		}
		if denom == s.vault.ShareToken() {
			return errorsmod.Wrapf(ErrSweepShares, "cannot sweep %s", denom)
		}
		for _, protected := range s.ProtectedTokens() {
			if denom == protected {
				return errorsmod.Wrapf(ErrSweepProtected, "cannot sweep %s", denom)
			}
		}
		if err := sdk.ValidateDenom(denom); err != nil {
			return errInvalidConfigf("%s", err)
		}

		swept = sdk.NewCoin(denom, s.balance(denom))
		return s.ledger.Transfer(s.address, s.vault.Governance(), swept)
	})
	if err != nil {
		return sdk.Coin{}, err
	}
	s.logger.Info().Str("swept", swept.String()).Msg("Swept tokens to governance")
	return swept, nil
}
