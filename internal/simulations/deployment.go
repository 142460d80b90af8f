/*

This file wires a complete in-process deployment: ledger and clock, the basket minter, the savings
contract, the staking rewards vault, a reward/want market, the pooled vault and one strategy.
It backs the keeper daemon's simulation mode and the package tests.

*/

package simulations

import (
	"fmt"
	"time"

	"cosmossdk.io/math"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/config"
	"github.com/elys-network/imbtc-strategy/internal/strategy"
	"github.com/elys-network/imbtc-strategy/internal/types"
	"github.com/elys-network/imbtc-strategy/internal/vault"
)

// Well-known accounts of a deployment.
const (
	Governance         chain.Address = "governance"
	Management         chain.Address = "management"
	Guardian           chain.Address = "guardian"
	Strategist         chain.Address = "strategist"
	Keeper             chain.Address = "keeper"
	RewardsDistributor chain.Address = "rewards_distributor"
	Alice              chain.Address = "alice"
	Bob                chain.Address = "bob"

	VaultAddress   chain.Address = "vault_yvwbtc"
	MinterAddress  chain.Address = "mstable_mbtc"
	SavingsAddress chain.Address = "mstable_imbtc"
	StakingAddress chain.Address = "mstable_vimbtc"
	RouterAddress  chain.Address = "amm_mta_wbtc"
)

// DeploymentOptions tunes the simulated market.
type DeploymentOptions struct {
	Genesis        time.Time
	Params         types.StrategyParameters
	DebtRatio      uint64
	SavingsAPR     math.LegacyDec
	RewardDuration time.Duration
	PoolFeeBps     uint64
	MintFeeBps     uint64
	RedeemFeeBps   uint64

	// Whole-token amounts.
	UserFunds         int64
	MinterReserve     int64
	PoolWantReserve   int64
	PoolRewardReserve int64
	DistributorFunds  int64
}

// DefaultDeploymentOptions returns a deep reward market, a 5% savings rate and weekly reward periods.
func DefaultDeploymentOptions() DeploymentOptions {
	return DeploymentOptions{
		Genesis:           time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC),
		Params:            config.DefaultStrategyParameters,
		DebtRatio:         types.MaxBasisPoints,
		SavingsAPR:        math.LegacyNewDecWithPrec(5, 2),
		RewardDuration:    7 * 24 * time.Hour,
		PoolFeeBps:        30,
		MintFeeBps:        0,
		RedeemFeeBps:      5,
		UserFunds:         1_000,
		MinterReserve:     1_000,
		PoolWantReserve:   1_000,
		PoolRewardReserve: 100_000_000,
		DistributorFunds:  10_000_000,
	}
}

// Deployment is a fully wired simulated environment.
type Deployment struct {
	Chain    *chain.Chain
	Vault    *vault.Vault
	Strategy *strategy.Strategy
	Minter   *Minter
	Savings  *Savings
	Staking  *StakingRewards
	Router   *Pool

	opts          DeploymentOptions
	strategyCount int
}

// NewDeployment builds every venue, the vault and a first strategy with opts.DebtRatio.
func NewDeployment(opts DeploymentOptions) (*Deployment, error) {
	c := chain.New(opts.Genesis)
	ledger := c.Ledger()
	d := &Deployment{Chain: c, opts: opts}

	var err error
	d.Minter, err = NewMinter(MinterAddress, ledger, config.WantAsset, config.StakingAsset, opts.MintFeeBps, opts.RedeemFeeBps)
	if err != nil {
		return nil, err
	}
	d.Savings, err = NewSavings(SavingsAddress, c, config.StakingAsset, config.DerivativeAsset, opts.SavingsAPR)
	if err != nil {
		return nil, err
	}
	d.Staking, err = NewStakingRewards(StakingAddress, c, config.DerivativeAsset, config.PositionAsset, config.RewardAsset, RewardsDistributor, opts.RewardDuration)
	if err != nil {
		return nil, err
	}
	d.Router, err = NewPool(RouterAddress, ledger, config.RewardAsset, config.WantAsset, opts.PoolFeeBps)
	if err != nil {
		return nil, err
	}
	c.Register(d.Savings, d.Staking)

	d.Vault, err = vault.New(vault.Config{
		Address:    VaultAddress,
		Chain:      c,
		Want:       config.WantAsset,
		Share:      config.VaultShareAsset,
		Governance: Governance,
		Management: Management,
		Guardian:   Guardian,
	})
	if err != nil {
		return nil, err
	}
	c.Register(d.Vault)

	if err := d.fund(); err != nil {
		return nil, fmt.Errorf("failed to fund deployment: %w", err)
	}

	d.Strategy, err = d.NewStrategy()
	if err != nil {
		return nil, err
	}
	if err := d.Vault.AddStrategy(Governance, d.Strategy, opts.DebtRatio); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Deployment) fund() error {
	ledger := d.Chain.Ledger()
	mints := []struct {
		to     chain.Address
		asset  types.Asset
		amount int64
	}{
		{Alice, config.WantAsset, d.opts.UserFunds},
		{Bob, config.WantAsset, d.opts.UserFunds},
		{MinterAddress, config.WantAsset, d.opts.MinterReserve},
		{RouterAddress, config.WantAsset, d.opts.PoolWantReserve},
		{RouterAddress, config.RewardAsset, d.opts.PoolRewardReserve},
		{RewardsDistributor, config.RewardAsset, d.opts.DistributorFunds},
	}
	for _, m := range mints {
		if m.amount <= 0 {
			continue
		}
		if err := ledger.Mint(m.to, m.asset.Coin(Units(m.asset, m.amount))); err != nil {
			return err
		}
	}
	return nil
}

// NewStrategy deploys another strategy on the same vault and venues, registered for rollback but
// not added to the vault.
func (d *Deployment) NewStrategy() (*strategy.Strategy, error) {
	d.strategyCount++
	s, err := strategy.New(strategy.Config{
		Name:          fmt.Sprintf("StrategyMStableSavingsWBTC-%d", d.strategyCount),
		Address:       chain.Address(fmt.Sprintf("strategy_imbtc_%d", d.strategyCount)),
		Env:           d.Chain,
		Ledger:        d.Chain.Ledger(),
		Vault:         d.Vault,
		Minter:        d.Minter,
		Savings:       d.Savings,
		Staking:       d.Staking,
		Router:        d.Router,
		StakingAsset:  config.StakingAsset,
		Derivative:    config.DerivativeAsset,
		PositionToken: config.PositionAsset,
		Reward:        config.RewardAsset,
		Strategist:    Strategist,
		Keeper:        Keeper,
		Params:        d.opts.Params,
	})
	if err != nil {
		return nil, err
	}
	d.Chain.Register(s)
	return s, nil
}

// Units converts whole tokens to base units of asset.
func Units(asset types.Asset, whole int64) math.Int {
	return math.NewInt(whole).Mul(asset.One())
}

// Want converts whole want tokens to base units.
func (d *Deployment) Want(whole int64) math.Int {
	return Units(config.WantAsset, whole)
}

// Deposit puts amount of want from user into the vault.
func (d *Deployment) Deposit(user chain.Address, amount math.Int) (math.Int, error) {
	return d.Vault.Deposit(user, amount)
}

// Sleep advances block time.
func (d *Deployment) Sleep(duration time.Duration) {
	d.Chain.Clock().Advance(duration)
}

// NotifyRewards starts a reward period of whole reward tokens.
func (d *Deployment) NotifyRewards(whole int64) error {
	return d.Staking.NotifyRewardAmount(RewardsDistributor, Units(config.RewardAsset, whole))
}

// WantBalance returns the want held by addr.
func (d *Deployment) WantBalance(addr chain.Address) math.Int {
	return d.Chain.Ledger().BalanceOf(addr, config.WantAsset.Denom)
}

// Step advances block time and starts a new reward period of rewardWhole tokens once the
// current one has finished. The keeper daemon runs it before every simulated cycle.
func (d *Deployment) Step(duration time.Duration, rewardWhole int64) error {
	d.Sleep(duration)
	if rewardWhole <= 0 || d.Chain.Now().Before(d.Staking.PeriodFinish()) {
		return nil
	}
	return d.NotifyRewards(rewardWhole)
}
