package strategy

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/types"
)

// Migrate hands the whole position to successor, which must serve the same vault. Rewards are
// claimed and the stake is withdrawn first; the successor restakes the derivative on its next tend.
// Afterwards this strategy holds nothing and stays inert.
func (s *Strategy) Migrate(caller chain.Address, successor types.StrategyHandle) error {
	err := s.env.Atomic(func() error {
		if err := s.require(caller, migrators, "migrate"); err != nil {
			return err
		}
		if err := s.validateSuccessor(successor); err != nil {
			return err
		}

		if _, err := s.staking.ClaimRewards(s.address); err != nil {
			return fmt.Errorf("failed to claim rewards before migration: %w", err)
		}
		if staked := s.StakedBalance(); staked.IsPositive() {
			if err := s.staking.Unstake(s.address, staked); err != nil {
				return fmt.Errorf("failed to unstake before migration: %w", err)
			}
		}

		for _, asset := range []types.Asset{s.derivative, s.stakingAsset, s.reward, s.want} {
			amount := s.balance(asset.Denom)
			if !amount.IsPositive() {
				continue
			}
			if err := s.ledger.Transfer(s.address, successor.Address(), asset.Coin(amount)); err != nil {
				return fmt.Errorf("failed to move %s to successor: %w", asset.Denom, err)
			}
		}

		s.state.migrated = true
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Str("caller", string(caller)).
		Str("successor", string(successor.Address())).
		Msg("Strategy migrated")
	return nil
}

func (s *Strategy) validateSuccessor(successor types.StrategyHandle) error {
	if successor == nil || successor.Address() == "" {
		return errorsmod.Wrap(ErrInvalidMigration, "successor is required")
	}
	if s.state.migrated {
		return errorsmod.Wrap(ErrInvalidMigration, "strategy already migrated")
	}
	if successor.Address() == s.address {
		return errorsmod.Wrap(ErrInvalidMigration, "cannot migrate to self")
	}
	if successor.VaultAddress() != s.vault.Address() {
		return errorsmod.Wrapf(ErrInvalidMigration, "successor serves vault %s, not %s", successor.VaultAddress(), s.vault.Address())
	}
	return nil
}
