package keeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/imbtc-strategy/internal/simulations"
	"github.com/elys-network/imbtc-strategy/internal/strategy"
	"github.com/elys-network/imbtc-strategy/internal/types"
)

type fakeStore struct {
	cycle      int
	reports    []types.HarvestReport
	cycles     []int
	cycleErr   error
	saveErr    error
	saveCalled int
}

func (f *fakeStore) IncrementCycleNumber(ctx context.Context) (int, error) {
	if f.cycleErr != nil {
		return 0, f.cycleErr
	}
	f.cycle++
	return f.cycle, nil
}

func (f *fakeStore) SaveHarvestReport(ctx context.Context, cycleNumber int, report types.HarvestReport) error {
	f.saveCalled++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.reports = append(f.reports, report)
	f.cycles = append(f.cycles, cycleNumber)
	return nil
}

func newTestKeeper(t *testing.T, store Store) (*Keeper, *simulations.Deployment) {
	t.Helper()
	d, err := simulations.NewDeployment(simulations.DefaultDeploymentOptions())
	require.NoError(t, err)
	cfg := Config{
		Executor: d.Chain,
		Strategy: d.Strategy,
		Caller:   simulations.Keeper,
		CallCost: math.OneInt(),
	}
	if store != nil {
		cfg.Store = store
	}
	k, err := NewKeeper(cfg)
	require.NoError(t, err)
	return k, d
}

func TestNewKeeperValidatesConfig(t *testing.T) {
	d, err := simulations.NewDeployment(simulations.DefaultDeploymentOptions())
	require.NoError(t, err)

	valid := Config{Executor: d.Chain, Strategy: d.Strategy, Caller: simulations.Keeper}
	_, err = NewKeeper(valid)
	require.NoError(t, err)

	cases := map[string]func(*Config){
		"missing executor": func(c *Config) { c.Executor = nil },
		"missing strategy": func(c *Config) { c.Strategy = nil },
		"missing caller":   func(c *Config) { c.Caller = "" },
		"negative cost":    func(c *Config) { c.CallCost = math.NewInt(-1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			_, err := NewKeeper(cfg)
			assert.Error(t, err)
		})
	}
}

func TestRunCycleHarvestsAndStoresReport(t *testing.T) {
	store := &fakeStore{}
	k, d := newTestKeeper(t, store)

	_, err := d.Deposit(simulations.Alice, d.Want(10))
	require.NoError(t, err)

	result := k.RunCycle(context.Background())
	require.NoError(t, result.Err)
	assert.Equal(t, OutcomeHarvested, result.Outcome)
	assert.Equal(t, 1, result.CycleNumber)
	require.NotNil(t, result.Report)
	assert.True(t, result.Report.Credit.Equal(d.Want(10)))

	require.Len(t, store.reports, 1)
	assert.Equal(t, result.Report.ID, store.reports[0].ID)
	assert.Equal(t, []int{1}, store.cycles)
	assert.True(t, d.Strategy.StakedBalance().IsPositive())

	idle := k.RunCycle(context.Background())
	require.NoError(t, idle.Err)
	assert.Equal(t, OutcomeIdle, idle.Outcome)
	assert.Equal(t, 2, idle.CycleNumber)
	assert.Len(t, store.reports, 1)
}

func TestRunCycleTendsUnstakedDerivative(t *testing.T) {
	k, d := newTestKeeper(t, nil)

	_, err := d.Deposit(simulations.Alice, d.Want(10))
	require.NoError(t, err)
	require.Equal(t, OutcomeHarvested, k.RunCycle(context.Background()).Outcome)

	staked := d.Strategy.StakedBalance()
	require.NoError(t, d.Staking.Unstake(d.Strategy.Address(), staked))
	require.True(t, d.Strategy.TendTrigger(math.OneInt()))

	result := k.RunCycle(context.Background())
	require.NoError(t, result.Err)
	assert.Equal(t, OutcomeTended, result.Outcome)
	assert.True(t, result.Tended.Equal(staked))
	assert.True(t, d.Strategy.UnstakedBalance().IsZero())
	assert.True(t, d.Strategy.StakedBalance().Equal(staked))
}

func TestRunCycleFailedHarvestIsNotStored(t *testing.T) {
	store := &fakeStore{}
	k, d := newTestKeeper(t, store)

	_, err := d.Deposit(simulations.Alice, d.Want(10))
	require.NoError(t, err)
	require.Equal(t, OutcomeHarvested, k.RunCycle(context.Background()).Outcome)

	s := d.Strategy
	require.NoError(t, s.SetSlippageWantToStake(simulations.Governance, 0))
	require.NoError(t, d.Vault.UpdateStrategyDebtRatio(simulations.Governance, s.Address(), 5_000))
	d.Sleep(time.Hour)
	debt := d.Vault.StrategyDebt(s.Address())

	result := k.RunCycle(context.Background())
	assert.Equal(t, OutcomeFailed, result.Outcome)
	require.ErrorIs(t, result.Err, strategy.ErrSlippage)
	assert.Nil(t, result.Report)
	assert.Len(t, store.reports, 1)
	assert.True(t, d.Vault.StrategyDebt(s.Address()).Equal(debt))
}

func TestRunCycleBeforeHook(t *testing.T) {
	d, err := simulations.NewDeployment(simulations.DefaultDeploymentOptions())
	require.NoError(t, err)

	_, err = d.Deposit(simulations.Alice, d.Want(10))
	require.NoError(t, err)

	hookErr := errors.New("clock stuck")
	k, err := NewKeeper(Config{
		Executor:    d.Chain,
		Strategy:    d.Strategy,
		Caller:      simulations.Keeper,
		BeforeCycle: func() error { return hookErr },
	})
	require.NoError(t, err)

	result := k.RunCycle(context.Background())
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, hookErr)
	assert.True(t, d.Vault.StrategyDebt(d.Strategy.Address()).IsZero())
}

func TestBeforeCycleKeptWhenHarvestFails(t *testing.T) {
	opts := simulations.DefaultDeploymentOptions()
	d, err := simulations.NewDeployment(opts)
	require.NoError(t, err)
	s := d.Strategy

	_, err = d.Deposit(simulations.Alice, d.Want(10))
	require.NoError(t, err)
	_, err = s.Harvest(simulations.Keeper)
	require.NoError(t, err)

	require.NoError(t, s.SetSlippageWantToStake(simulations.Governance, 0))
	require.NoError(t, d.Vault.UpdateStrategyDebtRatio(simulations.Governance, s.Address(), 5_000))
	d.Sleep(opts.RewardDuration)
	require.False(t, d.Chain.Now().Before(d.Staking.PeriodFinish()))

	k, err := NewKeeper(Config{
		Executor:    d.Chain,
		Strategy:    s,
		Caller:      simulations.Keeper,
		BeforeCycle: func() error { return d.Step(time.Hour, 10_000) },
	})
	require.NoError(t, err)

	result := k.RunCycle(context.Background())
	assert.Equal(t, OutcomeFailed, result.Outcome)
	require.ErrorIs(t, result.Err, strategy.ErrSlippage)

	assert.True(t, d.Chain.Now().Before(d.Staking.PeriodFinish()))
	assert.True(t, d.Staking.RewardRate().IsPositive())
}

func TestSimulatedStepsAccrueProfit(t *testing.T) {
	store := &fakeStore{}
	d, err := simulations.NewDeployment(simulations.DefaultDeploymentOptions())
	require.NoError(t, err)
	_, err = d.Deposit(simulations.Alice, d.Want(10))
	require.NoError(t, err)

	k, err := NewKeeper(Config{
		Executor:    d.Chain,
		Strategy:    d.Strategy,
		Store:       store,
		Caller:      simulations.Keeper,
		BeforeCycle: func() error { return d.Step(24*time.Hour, 10_000) },
	})
	require.NoError(t, err)

	for i := 0; i < 40; i++ {
		require.NoError(t, k.RunCycle(context.Background()).Err)
	}

	require.GreaterOrEqual(t, len(store.reports), 2)
	profit := math.ZeroInt()
	for _, r := range store.reports {
		profit = profit.Add(r.Profit)
	}
	assert.True(t, profit.IsPositive(), "profit %s", profit)
	assert.True(t, d.Vault.PricePerShare().GT(math.LegacyOneDec()))
}

func TestCycleNumberFallsBackWhenStoreFails(t *testing.T) {
	store := &fakeStore{cycleErr: errors.New("connection refused"), saveErr: errors.New("connection refused")}
	k, d := newTestKeeper(t, store)

	_, err := d.Deposit(simulations.Alice, d.Want(10))
	require.NoError(t, err)

	first := k.RunCycle(context.Background())
	require.NoError(t, first.Err)
	assert.Equal(t, 1, first.CycleNumber)
	assert.Equal(t, OutcomeHarvested, first.Outcome)
	assert.Equal(t, 1, store.saveCalled)

	second := k.RunCycle(context.Background())
	assert.Equal(t, 2, second.CycleNumber)
}

func TestWholeTokens(t *testing.T) {
	want := types.Asset{Symbol: "WBTC", Denom: "wbtc", Decimals: 8}
	assert.InDelta(t, 1.5, wholeTokens(math.NewInt(150_000_000), want), 1e-9)
	assert.Zero(t, wholeTokens(math.Int{}, want))
}
