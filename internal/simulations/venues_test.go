package simulations

import (
	"errors"
	"testing"
	"time"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/config"
	"github.com/elys-network/imbtc-strategy/internal/types"
)

var testGenesis = time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

func TestPoolSwap(t *testing.T) {
	c := chain.New(testGenesis)
	ledger := c.Ledger()
	tokenA := types.Asset{Symbol: "AAA", Denom: "aaa", Decimals: 0}
	tokenB := types.Asset{Symbol: "BBB", Denom: "bbb", Decimals: 0}

	pool, err := NewPool("pool", ledger, tokenA, tokenB, 30)
	require.NoError(t, err)

	_, err = pool.Quote(tokenA.Coin(math.NewInt(1)), tokenB.Denom)
	require.ErrorIs(t, err, ErrEmptyReserves)

	require.NoError(t, ledger.Mint("lp", tokenA.Coin(math.NewInt(1_000_000))))
	require.NoError(t, ledger.Mint("lp", tokenB.Coin(math.NewInt(1_000_000))))
	require.NoError(t, pool.AddLiquidity("lp", math.NewInt(1_000_000), math.NewInt(1_000_000)))

	price, err := pool.spotPrice(tokenA.Denom, tokenB.Denom)
	require.NoError(t, err)
	assert.True(t, price.Equal(math.LegacyOneDec()))

	in := tokenA.Coin(math.NewInt(1_000))
	quote, err := pool.Quote(in, tokenB.Denom)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), quote.Int64())

	estimate, err := pool.EstimateSwap(in, tokenB.Denom)
	require.NoError(t, err)
	assert.Equal(t, int64(996), estimate.TokenOutAmount.Int64())
	assert.Greater(t, estimate.Slippage, 0.0)

	require.NoError(t, ledger.Mint("trader", in))
	_, err = pool.Swap("trader", in, tokenB.Denom, math.NewInt(997))
	require.ErrorIs(t, err, types.ErrMinimumNotMet)

	out, err := pool.Swap("trader", in, tokenB.Denom, math.NewInt(990))
	require.NoError(t, err)
	assert.Equal(t, "996bbb", out.String())
	assert.True(t, ledger.BalanceOf("trader", tokenA.Denom).IsZero())
	reserveA, reserveB := pool.Reserves()
	assert.Equal(t, int64(1_001_000), reserveA.Int64())
	assert.Equal(t, int64(999_004), reserveB.Int64())

	_, err = pool.Quote(sdk.NewCoin("ccc", math.NewInt(1)), tokenB.Denom)
	require.ErrorIs(t, err, ErrUnknownDenom)
}

func TestMinterMintAndRedeem(t *testing.T) {
	c := chain.New(testGenesis)
	ledger := c.Ledger()
	minter, err := NewMinter("minter", ledger, config.WantAsset, config.StakingAsset, 0, 5)
	require.NoError(t, err)

	oneBTC := config.WantAsset.One()
	require.NoError(t, ledger.Mint("trader", config.WantAsset.Coin(oneBTC)))

	quote, err := minter.Quote(config.WantAsset.Coin(oneBTC), config.StakingAsset.Denom)
	require.NoError(t, err)
	assert.True(t, quote.Equal(config.StakingAsset.One()))

	minted, err := minter.Swap("trader", config.WantAsset.Coin(oneBTC), config.StakingAsset.Denom, quote)
	require.NoError(t, err)
	assert.True(t, minted.Amount.Equal(config.StakingAsset.One()))
	assert.True(t, ledger.BalanceOf("minter", config.WantAsset.Denom).Equal(oneBTC))

	_, err = minter.Swap("trader", minted, config.WantAsset.Denom, oneBTC)
	require.ErrorIs(t, err, types.ErrMinimumNotMet)

	redeemed, err := minter.Swap("trader", minted, config.WantAsset.Denom, math.ZeroInt())
	require.NoError(t, err)
	assert.Equal(t, int64(99_950_000), redeemed.Amount.Int64())
	assert.True(t, ledger.BalanceOf("trader", config.StakingAsset.Denom).IsZero())

	require.NoError(t, ledger.Mint("trader", config.StakingAsset.Coin(config.StakingAsset.One())))
	_, err = minter.Swap("trader", config.StakingAsset.Coin(config.StakingAsset.One()), config.WantAsset.Denom, math.ZeroInt())
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = minter.Quote(config.RewardAsset.Coin(math.OneInt()), config.WantAsset.Denom)
	require.ErrorIs(t, err, ErrUnknownDenom)
}

func TestSavingsAccruesInterest(t *testing.T) {
	c := chain.New(testGenesis)
	ledger := c.Ledger()
	savings, err := NewSavings("savings", c, config.StakingAsset, config.DerivativeAsset, math.LegacyNewDecWithPrec(1, 1))
	require.NoError(t, err)
	c.Register(savings)

	one := config.StakingAsset.One()
	require.NoError(t, ledger.Mint("saver", config.StakingAsset.Coin(one)))

	credits, err := savings.Deposit("saver", one)
	require.NoError(t, err)
	assert.True(t, credits.Equal(one.MulRaw(10)))

	c.Clock().Advance(365 * 24 * time.Hour)
	assert.True(t, savings.ExchangeRate().Equal(math.LegacyMustNewDecFromStr("0.11")))

	underlying, err := savings.Redeem("saver", credits)
	require.NoError(t, err)
	assert.True(t, underlying.Equal(one.MulRaw(11).QuoRaw(10)), "redeemed %s", underlying)
	assert.True(t, ledger.BalanceOf("saver", config.DerivativeAsset.Denom).IsZero())

	require.Error(t, savings.SetAPR(math.LegacyNewDec(-1)))
	require.NoError(t, savings.SetAPR(math.LegacyZeroDec()))
	c.Clock().Advance(24 * time.Hour)
	assert.True(t, savings.ExchangeRate().Equal(math.LegacyMustNewDecFromStr("0.11")))
}

func TestStakingRewardsDistribution(t *testing.T) {
	c := chain.New(testGenesis)
	ledger := c.Ledger()
	staking, err := NewStakingRewards("staking", c, config.DerivativeAsset, config.PositionAsset, config.RewardAsset, "distributor", 7*24*time.Hour)
	require.NoError(t, err)
	c.Register(staking)

	require.NoError(t, ledger.Mint("alice", config.DerivativeAsset.Coin(math.NewInt(100))))
	require.NoError(t, ledger.Mint("bob", config.DerivativeAsset.Coin(math.NewInt(300))))
	require.NoError(t, staking.Stake("alice", math.NewInt(100)))
	require.NoError(t, staking.Stake("bob", math.NewInt(300)))
	assert.Equal(t, int64(400), staking.TotalStaked().Int64())
	assert.Equal(t, int64(100), staking.StakedBalance("alice").Int64())

	perSecond := config.RewardAsset.One()
	amount := perSecond.MulRaw(7 * 24 * 60 * 60)
	require.NoError(t, ledger.Mint("distributor", config.RewardAsset.Coin(amount)))
	require.ErrorIs(t, staking.NotifyRewardAmount("alice", amount), ErrNotDistributor)
	require.NoError(t, staking.NotifyRewardAmount("distributor", amount))
	assert.True(t, staking.RewardRate().Equal(perSecond))
	assert.Equal(t, testGenesis.Add(7*24*time.Hour), staking.PeriodFinish())

	c.Clock().Advance(100 * time.Second)
	assert.True(t, staking.UnclaimedRewards("alice").Equal(perSecond.MulRaw(25)))
	assert.True(t, staking.UnclaimedRewards("bob").Equal(perSecond.MulRaw(75)))

	claimed, err := staking.ClaimRewards("alice")
	require.NoError(t, err)
	assert.True(t, claimed.Equal(perSecond.MulRaw(25)))
	assert.True(t, staking.UnclaimedRewards("alice").IsZero())
	assert.True(t, ledger.BalanceOf("alice", config.RewardAsset.Denom).Equal(claimed))

	require.NoError(t, staking.Unstake("bob", math.NewInt(300)))
	assert.Equal(t, int64(300), ledger.BalanceOf("bob", config.DerivativeAsset.Denom).Int64())
	assert.True(t, staking.UnclaimedRewards("bob").Equal(perSecond.MulRaw(75)))

	// Past the period end, accrual stops.
	c.Clock().Advance(30 * 24 * time.Hour)
	total := staking.UnclaimedRewards("alice").Add(claimed).Add(staking.UnclaimedRewards("bob"))
	assert.True(t, total.LTE(amount))
	assert.True(t, total.GT(amount.MulRaw(99).QuoRaw(100)))
}

func TestStakingStateRollsBack(t *testing.T) {
	c := chain.New(testGenesis)
	ledger := c.Ledger()
	staking, err := NewStakingRewards("staking", c, config.DerivativeAsset, config.PositionAsset, config.RewardAsset, "distributor", time.Hour)
	require.NoError(t, err)
	c.Register(staking)
	require.NoError(t, ledger.Mint("alice", config.DerivativeAsset.Coin(math.NewInt(100))))

	boom := errors.New("boom")
	err = c.Atomic(func() error {
		if err := staking.Stake("alice", math.NewInt(100)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, staking.StakedBalance("alice").IsZero())
	assert.Equal(t, int64(100), ledger.BalanceOf("alice", config.DerivativeAsset.Denom).Int64())
}

func TestNewDeployment(t *testing.T) {
	d, err := NewDeployment(DefaultDeploymentOptions())
	require.NoError(t, err)

	assert.Equal(t, []chain.Address{d.Strategy.Address()}, d.Vault.WithdrawalQueue())
	assert.Equal(t, types.MaxBasisPoints, d.Vault.StrategyDebtRatio(d.Strategy.Address()))
	assert.True(t, d.WantBalance(Alice).Equal(d.Want(1_000)))
	assert.True(t, d.WantBalance(Bob).Equal(d.Want(1_000)))
	assert.True(t, d.WantBalance(MinterAddress).Equal(d.Want(1_000)))

	price, err := d.Router.spotPrice(config.RewardAsset.Denom, config.WantAsset.Denom)
	require.NoError(t, err)
	assert.True(t, price.IsPositive())

	require.NoError(t, d.NotifyRewards(10_000))
	assert.True(t, d.Staking.PeriodFinish().After(d.Chain.Now()))

	next, err := d.NewStrategy()
	require.NoError(t, err)
	assert.NotEqual(t, d.Strategy.Address(), next.Address())
	assert.Equal(t, d.Vault.Address(), next.VaultAddress())

	start := d.Chain.Now()
	d.Sleep(time.Hour)
	assert.Equal(t, start.Add(time.Hour), d.Chain.Now())
}

func TestUnits(t *testing.T) {
	assert.Equal(t, "250000000", Units(config.WantAsset, 25).QuoRaw(10).String())
	assert.True(t, Units(config.RewardAsset, 1).Equal(math.NewIntWithDecimal(1, 18)))
}
