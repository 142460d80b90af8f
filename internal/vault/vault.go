/*

This file contains a pooled single-asset vault: users deposit want for shares, and governance
allocates debt-ratio bounded slices of the deposits to strategies that report back periodically.

*/

package vault

import (
	"fmt"
	"time"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/logger"
	"github.com/elys-network/imbtc-strategy/internal/types"
	"github.com/elys-network/imbtc-strategy/internal/utils"
)

// StrategyParams is the vault's record of one strategy.
type StrategyParams struct {
	Activation time.Time `json:"activation"`
	DebtRatio  uint64    `json:"debt_ratio"`
	TotalDebt  math.Int  `json:"total_debt"`
	TotalGain  math.Int  `json:"total_gain"`
	TotalLoss  math.Int  `json:"total_loss"`
	LastReport time.Time `json:"last_report"`
}

// Config holds the parameters for creating a Vault.
type Config struct {
	Address chain.Address
	Chain   *chain.Chain
	Want    types.Asset
	Share   types.Asset

	Governance chain.Address
	Management chain.Address
	Guardian   chain.Address

	// DepositLimit caps total assets. Zero or nil means no limit.
	DepositLimit math.Int
}

type vaultState struct {
	governance        chain.Address
	management        chain.Address
	guardian          chain.Address
	emergencyShutdown bool
	depositLimit      math.Int
	debtRatio         uint64
	totalDebt         math.Int
	lastReport        time.Time
	params            map[chain.Address]StrategyParams
	strategies        map[chain.Address]Strategy
	queue             []chain.Address
}

// Vault is the reference pooled vault.
type Vault struct {
	logger  zerolog.Logger
	address chain.Address
	chain   *chain.Chain
	ledger  *chain.Ledger
	want    types.Asset
	share   types.Asset

	state vaultState
}

// New creates a vault. The caller registers it with the chain for rollback.
func New(cfg Config) (*Vault, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("vault configuration validation failed: %w", err)
	}

	limit := cfg.DepositLimit
	if limit.IsNil() {
		limit = math.ZeroInt()
	}

	v := &Vault{
		logger:  logger.GetForComponent("vault").With().Str("vault", string(cfg.Address)).Logger(),
		address: cfg.Address,
		chain:   cfg.Chain,
		ledger:  cfg.Chain.Ledger(),
		want:    cfg.Want,
		share:   cfg.Share,
		state: vaultState{
			governance:   cfg.Governance,
			management:   cfg.Management,
			guardian:     cfg.Guardian,
			depositLimit: limit,
			totalDebt:    math.ZeroInt(),
			lastReport:   cfg.Chain.Now(),
			params:       make(map[chain.Address]StrategyParams),
			strategies:   make(map[chain.Address]Strategy),
			queue:        make([]chain.Address, 0),
		},
	}

	v.logger.Info().
		Str("want", v.want.Denom).
		Str("share", v.share.Denom).
		Msg("Vault created")
	return v, nil
}

func validateConfig(cfg Config) error {
	if cfg.Address == "" {
		return fmt.Errorf("vault address cannot be empty")
	}
	if cfg.Chain == nil {
		return fmt.Errorf("chain cannot be nil")
	}
	if cfg.Want.Denom == "" || cfg.Share.Denom == "" || cfg.Want.Denom == cfg.Share.Denom {
		return fmt.Errorf("want and share denoms must be set and distinct")
	}
	if cfg.Governance == "" || cfg.Management == "" || cfg.Guardian == "" {
		return fmt.Errorf("governance, management and guardian are required")
	}
	if !cfg.DepositLimit.IsNil() && cfg.DepositLimit.IsNegative() {
		return fmt.Errorf("deposit limit cannot be negative")
	}
	return nil
}

// Snapshot implements chain.Stateful.
func (v *Vault) Snapshot() any {
	snap := v.state
	snap.params = make(map[chain.Address]StrategyParams, len(v.state.params))
	for addr, sp := range v.state.params {
		snap.params[addr] = sp
	}
	snap.strategies = make(map[chain.Address]Strategy, len(v.state.strategies))
	for addr, s := range v.state.strategies {
		snap.strategies[addr] = s
	}
	snap.queue = append([]chain.Address(nil), v.state.queue...)
	return snap
}

// Restore implements chain.Stateful.
func (v *Vault) Restore(snapshot any) {
	v.state = snapshot.(vaultState)
}

func (v *Vault) Address() chain.Address { return v.address }
func (v *Vault) Want() types.Asset { return v.want }
func (v *Vault) Share() types.Asset { return v.share }
func (v *Vault) ShareToken() string { return v.share.Denom }
func (v *Vault) Governance() chain.Address { return v.state.governance }
func (v *Vault) Management() chain.Address { return v.state.management }
func (v *Vault) Guardian() chain.Address { return v.state.guardian }
func (v *Vault) EmergencyShutdown() bool { return v.state.emergencyShutdown }
func (v *Vault) DebtRatio() uint64 { return v.state.debtRatio }
func (v *Vault) TotalDebt() math.Int { return v.state.totalDebt }

// IdleAssets is the want held by the vault itself.
func (v *Vault) IdleAssets() math.Int {
	return v.ledger.BalanceOf(v.address, v.want.Denom)
}

// TotalAssets is idle want plus everything lent to strategies.
func (v *Vault) TotalAssets() math.Int {
	return v.IdleAssets().Add(v.state.totalDebt)
}

// TotalSupply is the number of shares outstanding.
func (v *Vault) TotalSupply() math.Int {
	return v.ledger.Supply(v.share.Denom)
}

// SharesOf returns the shares held by owner.
func (v *Vault) SharesOf(owner chain.Address) math.Int {
	return v.ledger.BalanceOf(owner, v.share.Denom)
}

// PricePerShare is the want value of one share. Shares and want share decimals.
func (v *Vault) PricePerShare() math.LegacyDec {
	supply := v.TotalSupply()
	if supply.IsZero() {
		return math.LegacyOneDec()
	}
	return math.LegacyNewDecFromInt(v.TotalAssets()).QuoInt(supply)
}

// WithdrawalQueue returns the strategies withdrawals pull from, in order.
func (v *Vault) WithdrawalQueue() []chain.Address {
	return append([]chain.Address(nil), v.state.queue...)
}

// StrategyParams returns the vault's record for strategy.
func (v *Vault) StrategyParams(strategy chain.Address) (StrategyParams, bool) {
	sp, ok := v.state.params[strategy]
	return sp, ok
}

func (v *Vault) StrategyDebt(strategy chain.Address) math.Int {
	if sp, ok := v.state.params[strategy]; ok {
		return sp.TotalDebt
	}
	return math.ZeroInt()
}

func (v *Vault) StrategyDebtRatio(strategy chain.Address) uint64 {
	return v.state.params[strategy].DebtRatio
}

func (v *Vault) LastReport(strategy chain.Address) time.Time {
	return v.state.params[strategy].LastReport
}

// DebtOutstanding is how far strategy's debt exceeds its debt-ratio limit.
func (v *Vault) DebtOutstanding(strategy chain.Address) math.Int {
	sp, ok := v.state.params[strategy]
	if !ok {
		return math.ZeroInt()
	}
	if v.state.debtRatio == 0 || v.state.emergencyShutdown {
		return sp.TotalDebt
	}
	limit := utils.ApplyBps(v.TotalAssets(), sp.DebtRatio)
	return utils.SubFloor(sp.TotalDebt, limit)
}

// CreditAvailable is how much more want strategy may borrow right now.
func (v *Vault) CreditAvailable(strategy chain.Address) math.Int {
	sp, ok := v.state.params[strategy]
	if !ok || v.state.emergencyShutdown {
		return math.ZeroInt()
	}
	total := v.TotalAssets()
	vaultLimit := utils.ApplyBps(total, v.state.debtRatio)
	strategyLimit := utils.ApplyBps(total, sp.DebtRatio)
	if strategyLimit.LTE(sp.TotalDebt) || vaultLimit.LTE(v.state.totalDebt) {
		return math.ZeroInt()
	}
	available := strategyLimit.Sub(sp.TotalDebt)
	available = utils.MinInt(available, vaultLimit.Sub(v.state.totalDebt))
	return utils.MinInt(available, v.IdleAssets())
}

func (v *Vault) requireRole(caller chain.Address, action string, allowed ...chain.Address) error {
	if caller != "" {
		for _, addr := range allowed {
			if caller == addr {
				return nil
			}
		}
	}
	return errorsmod.Wrapf(ErrUnauthorized, "%s may not %s", caller, action)
}

func (v *Vault) setParams(strategy chain.Address, sp StrategyParams) {
	v.state.params[strategy] = sp
}
