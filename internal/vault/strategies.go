package vault

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/types"
	"github.com/elys-network/imbtc-strategy/internal/utils"
)

// AddStrategy registers s with debtRatio and appends it to the withdrawal queue. Governance only.
func (v *Vault) AddStrategy(caller chain.Address, s Strategy, debtRatio uint64) error {
	err := v.chain.Atomic(func() error {
		if err := v.requireRole(caller, "add strategy", v.state.governance); err != nil {
			return err
		}
		if v.state.emergencyShutdown {
			return errorsmod.Wrap(ErrShutdown, "cannot add strategies")
		}
		if err := v.checkCandidate(s); err != nil {
			return err
		}
		if v.state.debtRatio+debtRatio > types.MaxBasisPoints {
			return errorsmod.Wrapf(ErrDebtRatioLimit, "%d + %d", v.state.debtRatio, debtRatio)
		}

		now := v.chain.Now()
		v.setParams(s.Address(), StrategyParams{
			Activation: now,
			DebtRatio:  debtRatio,
			TotalDebt:  math.ZeroInt(),
			TotalGain:  math.ZeroInt(),
			TotalLoss:  math.ZeroInt(),
			LastReport: now,
		})
		v.state.strategies[s.Address()] = s
		v.state.queue = append(v.state.queue, s.Address())
		v.state.debtRatio += debtRatio
		return nil
	})
	if err != nil {
		return err
	}
	v.logger.Info().Str("strategy", string(s.Address())).Uint64("debtRatio", debtRatio).Msg("Strategy added")
	return nil
}

func (v *Vault) checkCandidate(s Strategy) error {
	if s == nil || s.Address() == "" {
		return errorsmod.Wrap(ErrInvalidStrategy, "strategy is required")
	}
	if _, exists := v.state.params[s.Address()]; exists {
		return errorsmod.Wrapf(ErrInvalidStrategy, "%s already registered", s.Address())
	}
	if s.VaultAddress() != v.address {
		return errorsmod.Wrapf(ErrInvalidStrategy, "%s serves vault %s", s.Address(), s.VaultAddress())
	}
	if s.Want().Denom != v.want.Denom {
		return errorsmod.Wrapf(ErrInvalidStrategy, "%s wants %s, vault holds %s", s.Address(), s.Want().Denom, v.want.Denom)
	}
	return nil
}

// UpdateStrategyDebtRatio changes the share of total assets strategy may borrow.
func (v *Vault) UpdateStrategyDebtRatio(caller, strategy chain.Address, debtRatio uint64) error {
	err := v.chain.Atomic(func() error {
		if err := v.requireRole(caller, "update debt ratio", v.state.governance, v.state.management); err != nil {
			return err
		}
		sp, ok := v.state.params[strategy]
		if !ok {
			return errorsmod.Wrapf(ErrInvalidStrategy, "%s is not registered", strategy)
		}
		next := v.state.debtRatio - sp.DebtRatio + debtRatio
		if next > types.MaxBasisPoints {
			return errorsmod.Wrapf(ErrDebtRatioLimit, "vault debt ratio would be %d", next)
		}
		v.state.debtRatio = next
		sp.DebtRatio = debtRatio
		v.setParams(strategy, sp)
		return nil
	})
	if err != nil {
		return err
	}
	v.logger.Info().Str("strategy", string(strategy)).Uint64("debtRatio", debtRatio).Msg("Strategy debt ratio updated")
	return nil
}

// RevokeStrategy sets strategy's debt ratio to zero so its next harvest returns all debt.
// It is the strategy's own request, issued when it enters emergency exit.
func (v *Vault) RevokeStrategy(strategy chain.Address) error {
	err := v.chain.Atomic(func() error {
		sp, ok := v.state.params[strategy]
		if !ok {
			return errorsmod.Wrapf(ErrInvalidStrategy, "%s is not registered", strategy)
		}
		v.state.debtRatio -= sp.DebtRatio
		sp.DebtRatio = 0
		v.setParams(strategy, sp)
		return nil
	})
	if err != nil {
		return err
	}
	v.logger.Warn().Str("strategy", string(strategy)).Msg("Strategy revoked")
	return nil
}

// MigrateStrategy moves old's position and debt record to successor. The old record stays with
// zero debt and zero debt ratio. Governance only.
func (v *Vault) MigrateStrategy(caller, old chain.Address, successor Strategy) error {
	err := v.chain.Atomic(func() error {
		if err := v.requireRole(caller, "migrate strategy", v.state.governance); err != nil {
			return err
		}
		sp, ok := v.state.params[old]
		if !ok {
			return errorsmod.Wrapf(ErrInvalidStrategy, "%s is not registered", old)
		}
		if err := v.checkCandidate(successor); err != nil {
			return err
		}

		if err := v.state.strategies[old].Migrate(v.address, successor); err != nil {
			return fmt.Errorf("strategy %s failed to migrate: %w", old, err)
		}

		v.setParams(successor.Address(), StrategyParams{
			Activation: sp.LastReport,
			DebtRatio:  sp.DebtRatio,
			TotalDebt:  sp.TotalDebt,
			TotalGain:  math.ZeroInt(),
			TotalLoss:  math.ZeroInt(),
			LastReport: sp.LastReport,
		})
		v.state.strategies[successor.Address()] = successor

		sp.DebtRatio = 0
		sp.TotalDebt = math.ZeroInt()
		v.setParams(old, sp)

		for i, addr := range v.state.queue {
			if addr == old {
				v.state.queue[i] = successor.Address()
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	v.logger.Info().Str("from", string(old)).Str("to", string(successor.Address())).Msg("Strategy migrated")
	return nil
}

// SetEmergencyShutdown stops new credit and deposits. Guardian may only enable it.
func (v *Vault) SetEmergencyShutdown(caller chain.Address, active bool) error {
	err := v.chain.Atomic(func() error {
		if active {
			if err := v.requireRole(caller, "shut down vault", v.state.governance, v.state.guardian); err != nil {
				return err
			}
		} else if err := v.requireRole(caller, "restart vault", v.state.governance); err != nil {
			return err
		}
		v.state.emergencyShutdown = active
		return nil
	})
	if err != nil {
		return err
	}
	v.logger.Warn().Bool("active", active).Msg("Emergency shutdown updated")
	return nil
}

// SetDepositLimit caps total assets. Zero removes the cap.
func (v *Vault) SetDepositLimit(caller chain.Address, limit math.Int) error {
	if err := v.requireRole(caller, "set deposit limit", v.state.governance); err != nil {
		return err
	}
	if limit.IsNil() || limit.IsNegative() {
		return errorsmod.Wrapf(ErrInvalidAmount, "deposit limit %s", limit)
	}
	v.state.depositLimit = limit
	return nil
}

// Report settles a strategy's harvest: records gain or loss, takes debt payment, extends credit,
// then moves the net want between vault and strategy.
func (v *Vault) Report(strategy chain.Address, report types.Report) (types.ReportResult, error) {
	result := types.ReportResult{Credit: math.ZeroInt(), DebtOutstanding: math.ZeroInt()}
	err := v.chain.Atomic(func() error {
		if _, ok := v.state.params[strategy]; !ok {
			return errorsmod.Wrapf(ErrInvalidStrategy, "%s is not registered", strategy)
		}
		if report.Profit.IsNil() || report.Loss.IsNil() || report.DebtPayment.IsNil() ||
			report.Profit.IsNegative() || report.Loss.IsNegative() || report.DebtPayment.IsNegative() {
			return errorsmod.Wrap(ErrInvalidReport, "amounts must be non-negative")
		}
		balance := v.ledger.BalanceOf(strategy, v.want.Denom)
		if balance.LT(report.Profit.Add(report.DebtPayment)) {
			return errorsmod.Wrapf(ErrInvalidReport, "strategy holds %s, reporting profit %s and payment %s", balance, report.Profit, report.DebtPayment)
		}

		if report.Loss.IsPositive() {
			if err := v.reportLoss(strategy, report.Loss); err != nil {
				return err
			}
		}

		sp := v.state.params[strategy]
		sp.TotalGain = sp.TotalGain.Add(report.Profit)
		v.setParams(strategy, sp)

		debtPayment := utils.MinInt(report.DebtPayment, v.DebtOutstanding(strategy))
		if debtPayment.IsPositive() {
			sp = v.state.params[strategy]
			sp.TotalDebt = sp.TotalDebt.Sub(debtPayment)
			v.setParams(strategy, sp)
			v.state.totalDebt = v.state.totalDebt.Sub(debtPayment)
		}

		credit := v.CreditAvailable(strategy)
		if credit.IsPositive() {
			sp = v.state.params[strategy]
			sp.TotalDebt = sp.TotalDebt.Add(credit)
			v.setParams(strategy, sp)
			v.state.totalDebt = v.state.totalDebt.Add(credit)
		}

		available := report.Profit.Add(debtPayment)
		switch {
		case available.LT(credit):
			if err := v.ledger.Transfer(v.address, strategy, v.want.Coin(credit.Sub(available))); err != nil {
				return fmt.Errorf("failed to send credit: %w", err)
			}
		case available.GT(credit):
			if err := v.ledger.Transfer(strategy, v.address, v.want.Coin(available.Sub(credit))); err != nil {
				return fmt.Errorf("failed to collect report proceeds: %w", err)
			}
		}

		now := v.chain.Now()
		sp = v.state.params[strategy]
		sp.LastReport = now
		v.setParams(strategy, sp)
		v.state.lastReport = now

		result.Credit = credit
		if v.state.emergencyShutdown {
			result.DebtOutstanding = sp.TotalDebt
		} else {
			result.DebtOutstanding = v.DebtOutstanding(strategy)
		}
		return nil
	})
	if err != nil {
		return types.ReportResult{}, err
	}

	v.logger.Info().
		Str("strategy", string(strategy)).
		Str("profit", report.Profit.String()).
		Str("loss", report.Loss.String()).
		Str("debtPayment", report.DebtPayment.String()).
		Str("credit", result.Credit.String()).
		Str("debtOutstanding", result.DebtOutstanding.String()).
		Msg("Strategy report settled")
	return result, nil
}

// reportLoss writes loss off strategy's debt.
func (v *Vault) reportLoss(strategy chain.Address, loss math.Int) error {
	sp := v.state.params[strategy]
	if loss.GT(sp.TotalDebt) {
		return errorsmod.Wrapf(ErrInvalidReport, "loss %s exceeds debt %s", loss, sp.TotalDebt)
	}
	sp.TotalLoss = sp.TotalLoss.Add(loss)
	sp.TotalDebt = sp.TotalDebt.Sub(loss)
	v.setParams(strategy, sp)
	v.state.totalDebt = v.state.totalDebt.Sub(loss)
	return nil
}
