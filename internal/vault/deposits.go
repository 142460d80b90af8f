package vault

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/types"
	"github.com/elys-network/imbtc-strategy/internal/utils"
)

// Deposit takes amount of want from depositor and mints shares at the current price.
func (v *Vault) Deposit(depositor chain.Address, amount math.Int) (math.Int, error) {
	shares := math.ZeroInt()
	err := v.chain.Atomic(func() error {
		if v.state.emergencyShutdown {
			return errorsmod.Wrap(ErrShutdown, "deposits are disabled")
		}
		if amount.IsNil() || !amount.IsPositive() {
			return errorsmod.Wrapf(ErrInvalidAmount, "deposit amount %s", amount)
		}
		total := v.TotalAssets()
		if limit := v.state.depositLimit; limit.IsPositive() && total.Add(amount).GT(limit) {
			return errorsmod.Wrapf(ErrDepositLimit, "total %s plus %s exceeds %s", total, amount, limit)
		}

		shares = v.sharesForAmount(amount)
		if !shares.IsPositive() {
			return errorsmod.Wrapf(ErrInvalidAmount, "deposit of %s mints no shares", amount)
		}
		if err := v.ledger.Transfer(depositor, v.address, v.want.Coin(amount)); err != nil {
			return fmt.Errorf("failed to collect deposit: %w", err)
		}
		return v.ledger.Mint(depositor, v.share.Coin(shares))
	})
	if err != nil {
		return math.ZeroInt(), err
	}

	v.logger.Info().
		Str("depositor", string(depositor)).
		Str("amount", amount.String()).
		Str("shares", shares.String()).
		Msg("Deposit accepted")
	return shares, nil
}

// sharesForAmount converts want to shares at the current price, truncating.
func (v *Vault) sharesForAmount(amount math.Int) math.Int {
	supply := v.TotalSupply()
	total := v.TotalAssets()
	if supply.IsZero() || total.IsZero() {
		return amount
	}
	return amount.Mul(supply).Quo(total)
}

// shareValue converts shares to want at the current price, truncating.
func (v *Vault) shareValue(shares math.Int) math.Int {
	supply := v.TotalSupply()
	if supply.IsZero() {
		return shares
	}
	return shares.Mul(v.TotalAssets()).Quo(supply)
}

// Withdraw burns shares and pays their value in want, pulling from strategies in queue order when
// idle want is short. Losses realized on the way are borne by the withdrawer up to maxLossBps.
func (v *Vault) Withdraw(owner chain.Address, shares math.Int, maxLossBps uint64) (math.Int, error) {
	paid := math.ZeroInt()
	totalLoss := math.ZeroInt()
	err := v.chain.Atomic(func() error {
		if maxLossBps > types.MaxBasisPoints {
			return errorsmod.Wrapf(ErrInvalidAmount, "max loss %d exceeds %d bps", maxLossBps, types.MaxBasisPoints)
		}
		if shares.IsNil() || !shares.IsPositive() {
			return errorsmod.Wrapf(ErrInvalidAmount, "withdraw shares %s", shares)
		}
		if held := v.SharesOf(owner); held.LT(shares) {
			return errorsmod.Wrapf(ErrInsufficientShare, "%s holds %s, withdrawing %s", owner, held, shares)
		}

		value := v.shareValue(shares)
		if value.GT(v.IdleAssets()) {
			for _, addr := range v.state.queue {
				idle := v.IdleAssets()
				if value.LTE(idle) {
					break
				}
				sp := v.state.params[addr]
				amountNeeded := utils.MinInt(value.Sub(idle), sp.TotalDebt)
				if !amountNeeded.IsPositive() {
					continue
				}

				loss, err := v.state.strategies[addr].Withdraw(v.address, amountNeeded)
				if err != nil {
					return fmt.Errorf("strategy %s failed to withdraw: %w", addr, err)
				}
				withdrawn := utils.SubFloor(v.IdleAssets(), idle)

				if loss.IsPositive() {
					value = utils.SubFloor(value, loss)
					totalLoss = totalLoss.Add(loss)
					if err := v.reportLoss(addr, loss); err != nil {
						return err
					}
				}

				sp = v.state.params[addr]
				sp.TotalDebt = utils.SubFloor(sp.TotalDebt, withdrawn)
				v.setParams(addr, sp)
				v.state.totalDebt = utils.SubFloor(v.state.totalDebt, withdrawn)
			}

			if idle := v.IdleAssets(); value.GT(idle) {
				value = idle
				shares = v.sharesForAmount(value.Add(totalLoss))
			}
			if totalLoss.GT(utils.ApplyBps(value.Add(totalLoss), maxLossBps)) {
				return errorsmod.Wrapf(ErrMaxLoss, "loss %s on %s", totalLoss, value.Add(totalLoss))
			}
		}

		if err := v.ledger.Burn(owner, v.share.Coin(shares)); err != nil {
			return fmt.Errorf("failed to burn shares: %w", err)
		}
		if err := v.ledger.Transfer(v.address, owner, v.want.Coin(value)); err != nil {
			return fmt.Errorf("failed to pay withdrawal: %w", err)
		}
		paid = value
		return nil
	})
	if err != nil {
		return math.ZeroInt(), err
	}

	v.logger.Info().
		Str("owner", string(owner)).
		Str("shares", shares.String()).
		Str("paid", paid.String()).
		Str("loss", totalLoss.String()).
		Msg("Withdrawal paid")
	return paid, nil
}
