package vault

import (
	"errors"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/types"
)

var (
	testWant  = types.Asset{Symbol: "WBTC", Denom: "wbtc", Decimals: 8}
	testShare = types.Asset{Symbol: "yvWBTC", Denom: "yvwbtc", Decimals: 8}
)

const (
	gov      chain.Address = "gov"
	mgmt     chain.Address = "mgmt"
	guardian chain.Address = "guardian"
	alice    chain.Address = "alice"
)

// fakeStrategy holds want on the ledger and hands it back on request, minus a configurable loss.
type fakeStrategy struct {
	address chain.Address
	vault   chain.Address
	want    types.Asset
	ledger  *chain.Ledger
	loss    math.Int
}

func (f *fakeStrategy) Address() chain.Address { return f.address }
func (f *fakeStrategy) VaultAddress() chain.Address { return f.vault }
func (f *fakeStrategy) Want() types.Asset { return f.want }

func (f *fakeStrategy) EstimatedTotalAssets() math.Int {
	return f.ledger.BalanceOf(f.address, f.want.Denom)
}

func (f *fakeStrategy) Withdraw(caller chain.Address, amount math.Int) (math.Int, error) {
	if caller != f.vault {
		return math.ZeroInt(), errors.New("not vault")
	}
	loss := f.loss
	if loss.IsNil() {
		loss = math.ZeroInt()
	}
	if loss.IsPositive() {
		if err := f.ledger.Burn(f.address, f.want.Coin(loss)); err != nil {
			return math.ZeroInt(), err
		}
	}
	send := amount.Sub(loss)
	if err := f.ledger.Transfer(f.address, f.vault, f.want.Coin(send)); err != nil {
		return math.ZeroInt(), err
	}
	return loss, nil
}

func (f *fakeStrategy) Migrate(_ chain.Address, successor types.StrategyHandle) error {
	balance := f.EstimatedTotalAssets()
	return f.ledger.Transfer(f.address, successor.Address(), f.want.Coin(balance))
}

type fixture struct {
	chain *chain.Chain
	vault *Vault
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := chain.New(time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC))
	v, err := New(Config{
		Address:    "vault",
		Chain:      c,
		Want:       testWant,
		Share:      testShare,
		Governance: gov,
		Management: mgmt,
		Guardian:   guardian,
	})
	require.NoError(t, err)
	c.Register(v)
	require.NoError(t, c.Ledger().Mint(alice, testWant.Coin(math.NewInt(10_000))))
	return &fixture{chain: c, vault: v}
}

func (f *fixture) strategy(name chain.Address) *fakeStrategy {
	return &fakeStrategy{address: name, vault: f.vault.Address(), want: testWant, ledger: f.chain.Ledger(), loss: math.ZeroInt()}
}

func noReport() types.Report { return types.NewReport() }

func TestNewValidatesConfig(t *testing.T) {
	c := chain.New(time.Now())
	_, err := New(Config{Address: "vault", Chain: c, Want: testWant, Share: testWant, Governance: gov, Management: mgmt, Guardian: guardian})
	require.Error(t, err)

	_, err = New(Config{Address: "vault", Chain: c, Want: testWant, Share: testShare, Governance: gov, Management: mgmt})
	require.Error(t, err)

	_, err = New(Config{Address: "vault", Chain: c, Want: testWant, Share: testShare, Governance: gov, Management: mgmt, Guardian: guardian, DepositLimit: math.NewInt(-1)})
	require.Error(t, err)
}

func TestDepositMintsShares(t *testing.T) {
	f := newFixture(t)
	v := f.vault
	assert.True(t, v.PricePerShare().Equal(math.LegacyOneDec()))

	shares, err := v.Deposit(alice, math.NewInt(1_000))
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), shares.Int64())

	// A gain lands in the vault: later depositors get fewer shares.
	require.NoError(t, f.chain.Ledger().Mint(v.Address(), testWant.Coin(math.NewInt(1_000))))
	assert.True(t, v.PricePerShare().Equal(math.LegacyNewDec(2)))

	shares, err = v.Deposit(alice, math.NewInt(500))
	require.NoError(t, err)
	assert.Equal(t, int64(250), shares.Int64())
	assert.Equal(t, int64(1_250), v.TotalSupply().Int64())

	_, err = v.Deposit(alice, math.ZeroInt())
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = v.Deposit("bob", math.NewInt(1))
	require.Error(t, err)
	assert.Equal(t, int64(1_250), v.TotalSupply().Int64())
}

func TestDepositLimitAndShutdown(t *testing.T) {
	f := newFixture(t)
	v := f.vault

	require.ErrorIs(t, v.SetDepositLimit(alice, math.NewInt(100)), ErrUnauthorized)
	require.NoError(t, v.SetDepositLimit(gov, math.NewInt(1_000)))

	_, err := v.Deposit(alice, math.NewInt(1_001))
	require.ErrorIs(t, err, ErrDepositLimit)
	_, err = v.Deposit(alice, math.NewInt(1_000))
	require.NoError(t, err)

	require.ErrorIs(t, v.SetEmergencyShutdown(mgmt, true), ErrUnauthorized)
	require.NoError(t, v.SetEmergencyShutdown(guardian, true))
	assert.True(t, v.EmergencyShutdown())
	require.ErrorIs(t, v.SetEmergencyShutdown(guardian, false), ErrUnauthorized)

	require.NoError(t, v.SetDepositLimit(gov, math.ZeroInt()))
	_, err = v.Deposit(alice, math.NewInt(1))
	require.ErrorIs(t, err, ErrShutdown)

	require.NoError(t, v.SetEmergencyShutdown(gov, false))
	_, err = v.Deposit(alice, math.NewInt(1))
	require.NoError(t, err)
}

func TestAddStrategyValidation(t *testing.T) {
	f := newFixture(t)
	v := f.vault
	s := f.strategy("s1")

	require.ErrorIs(t, v.AddStrategy(mgmt, s, 1_000), ErrUnauthorized)
	require.ErrorIs(t, v.AddStrategy(gov, s, 10_001), ErrDebtRatioLimit)

	other := f.strategy("s2")
	other.want = testShare
	require.ErrorIs(t, v.AddStrategy(gov, other, 1_000), ErrInvalidStrategy)

	elsewhere := f.strategy("s3")
	elsewhere.vault = "another_vault"
	require.ErrorIs(t, v.AddStrategy(gov, elsewhere, 1_000), ErrInvalidStrategy)

	require.NoError(t, v.AddStrategy(gov, s, 6_000))
	require.ErrorIs(t, v.AddStrategy(gov, s, 1_000), ErrInvalidStrategy)
	require.ErrorIs(t, v.AddStrategy(gov, f.strategy("s4"), 5_000), ErrDebtRatioLimit)

	assert.Equal(t, uint64(6_000), v.DebtRatio())
	assert.Equal(t, []chain.Address{"s1"}, v.WithdrawalQueue())
	sp, ok := v.StrategyParams("s1")
	require.True(t, ok)
	assert.Equal(t, f.chain.Now(), sp.Activation)
	assert.True(t, sp.TotalDebt.IsZero())
}

func TestReportCreditsAndCollects(t *testing.T) {
	f := newFixture(t)
	v := f.vault
	s := f.strategy("s1")
	ledger := f.chain.Ledger()

	_, err := v.Deposit(alice, math.NewInt(1_000))
	require.NoError(t, err)
	require.NoError(t, v.AddStrategy(gov, s, 5_000))
	assert.Equal(t, int64(500), v.CreditAvailable("s1").Int64())

	result, err := v.Report("s1", noReport())
	require.NoError(t, err)
	assert.Equal(t, int64(500), result.Credit.Int64())
	assert.True(t, result.DebtOutstanding.IsZero())
	assert.Equal(t, int64(500), ledger.BalanceOf("s1", testWant.Denom).Int64())
	assert.Equal(t, int64(500), v.StrategyDebt("s1").Int64())
	assert.Equal(t, int64(1_000), v.TotalAssets().Int64())

	f.chain.Clock().Advance(time.Hour)
	require.NoError(t, ledger.Mint("s1", testWant.Coin(math.NewInt(50))))
	report := noReport()
	report.Profit = math.NewInt(50)
	result, err = v.Report("s1", report)
	require.NoError(t, err)
	assert.True(t, result.Credit.IsZero())
	assert.Equal(t, int64(550), v.IdleAssets().Int64())
	assert.True(t, v.PricePerShare().Equal(math.LegacyMustNewDecFromStr("1.05")))
	assert.Equal(t, f.chain.Now(), v.LastReport("s1"))

	sp, _ := v.StrategyParams("s1")
	assert.Equal(t, int64(50), sp.TotalGain.Int64())

	report = noReport()
	report.Loss = math.NewInt(100)
	_, err = v.Report("s1", report)
	require.NoError(t, err)
	sp, _ = v.StrategyParams("s1")
	assert.Equal(t, int64(100), sp.TotalLoss.Int64())
	assert.Equal(t, uint64(5_000), sp.DebtRatio)
}

func TestReportRejectsInvalidReports(t *testing.T) {
	f := newFixture(t)
	v := f.vault
	require.NoError(t, v.AddStrategy(gov, f.strategy("s1"), 5_000))

	_, err := v.Report("unknown", noReport())
	require.ErrorIs(t, err, ErrInvalidStrategy)

	report := noReport()
	report.Profit = math.NewInt(10)
	_, err = v.Report("s1", report)
	require.ErrorIs(t, err, ErrInvalidReport)

	report = noReport()
	report.Loss = math.NewInt(-1)
	_, err = v.Report("s1", report)
	require.ErrorIs(t, err, ErrInvalidReport)

	report = noReport()
	report.Loss = math.NewInt(1)
	_, err = v.Report("s1", report)
	require.ErrorIs(t, err, ErrInvalidReport)
}

func TestDebtOutstandingAfterRatioCut(t *testing.T) {
	f := newFixture(t)
	v := f.vault
	_, err := v.Deposit(alice, math.NewInt(1_000))
	require.NoError(t, err)
	require.NoError(t, v.AddStrategy(gov, f.strategy("s1"), 5_000))
	_, err = v.Report("s1", noReport())
	require.NoError(t, err)

	require.ErrorIs(t, v.UpdateStrategyDebtRatio(alice, "s1", 2_000), ErrUnauthorized)
	require.NoError(t, v.UpdateStrategyDebtRatio(mgmt, "s1", 2_000))
	assert.Equal(t, int64(300), v.DebtOutstanding("s1").Int64())
	assert.True(t, v.CreditAvailable("s1").IsZero())

	report := noReport()
	report.DebtPayment = math.NewInt(300)
	result, err := v.Report("s1", report)
	require.NoError(t, err)
	assert.True(t, result.DebtOutstanding.IsZero())
	assert.Equal(t, int64(200), v.StrategyDebt("s1").Int64())
	assert.Equal(t, int64(800), v.IdleAssets().Int64())
}

func TestRevokeStrategy(t *testing.T) {
	f := newFixture(t)
	v := f.vault
	_, err := v.Deposit(alice, math.NewInt(1_000))
	require.NoError(t, err)
	require.NoError(t, v.AddStrategy(gov, f.strategy("s1"), 4_000))
	_, err = v.Report("s1", noReport())
	require.NoError(t, err)

	require.NoError(t, v.RevokeStrategy("s1"))
	assert.Equal(t, uint64(0), v.StrategyDebtRatio("s1"))
	assert.Equal(t, uint64(0), v.DebtRatio())
	assert.Equal(t, int64(400), v.DebtOutstanding("s1").Int64())

	require.ErrorIs(t, v.RevokeStrategy("unknown"), ErrInvalidStrategy)
}

func TestEmergencyShutdownRecallsDebt(t *testing.T) {
	f := newFixture(t)
	v := f.vault
	_, err := v.Deposit(alice, math.NewInt(1_000))
	require.NoError(t, err)
	require.NoError(t, v.AddStrategy(gov, f.strategy("s1"), 5_000))
	_, err = v.Report("s1", noReport())
	require.NoError(t, err)

	require.NoError(t, v.SetEmergencyShutdown(guardian, true))
	assert.Equal(t, int64(500), v.DebtOutstanding("s1").Int64())
	assert.True(t, v.CreditAvailable("s1").IsZero())
	require.ErrorIs(t, v.AddStrategy(gov, f.strategy("s2"), 1_000), ErrShutdown)
}

func TestWithdrawPullsFromQueue(t *testing.T) {
	f := newFixture(t)
	v := f.vault
	s := f.strategy("s1")
	_, err := v.Deposit(alice, math.NewInt(1_000))
	require.NoError(t, err)
	require.NoError(t, v.AddStrategy(gov, s, 10_000))
	_, err = v.Report("s1", noReport())
	require.NoError(t, err)
	require.True(t, v.IdleAssets().IsZero())

	paid, err := v.Withdraw(alice, math.NewInt(500), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(500), paid.Int64())
	assert.Equal(t, int64(500), v.StrategyDebt("s1").Int64())
	assert.Equal(t, int64(500), v.SharesOf(alice).Int64())

	s.loss = math.NewInt(10)
	_, err = v.Withdraw(alice, math.NewInt(100), 0)
	require.ErrorIs(t, err, ErrMaxLoss)
	assert.Equal(t, int64(500), v.StrategyDebt("s1").Int64())
	assert.Equal(t, int64(500), v.SharesOf(alice).Int64())

	paid, err = v.Withdraw(alice, math.NewInt(100), 10_000)
	require.NoError(t, err)
	assert.Equal(t, int64(90), paid.Int64())
	assert.Equal(t, int64(400), v.StrategyDebt("s1").Int64())
	sp, _ := v.StrategyParams("s1")
	assert.Equal(t, int64(10), sp.TotalLoss.Int64())

	_, err = v.Withdraw(alice, math.NewInt(10_000), 10_000)
	require.ErrorIs(t, err, ErrInsufficientShare)
	_, err = v.Withdraw(alice, math.NewInt(1), 10_001)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMigrateStrategy(t *testing.T) {
	f := newFixture(t)
	v := f.vault
	old := f.strategy("s1")
	_, err := v.Deposit(alice, math.NewInt(1_000))
	require.NoError(t, err)
	require.NoError(t, v.AddStrategy(gov, old, 7_000))
	_, err = v.Report("s1", noReport())
	require.NoError(t, err)

	next := f.strategy("s2")
	require.ErrorIs(t, v.MigrateStrategy(mgmt, "s1", next), ErrUnauthorized)
	require.ErrorIs(t, v.MigrateStrategy(gov, "missing", next), ErrInvalidStrategy)
	require.ErrorIs(t, v.MigrateStrategy(gov, "s1", old), ErrInvalidStrategy)

	require.NoError(t, v.MigrateStrategy(gov, "s1", next))
	assert.Equal(t, []chain.Address{"s2"}, v.WithdrawalQueue())
	assert.Equal(t, int64(700), v.StrategyDebt("s2").Int64())
	assert.Equal(t, uint64(7_000), v.StrategyDebtRatio("s2"))
	assert.True(t, v.StrategyDebt("s1").IsZero())
	assert.Equal(t, uint64(0), v.StrategyDebtRatio("s1"))
	assert.Equal(t, uint64(7_000), v.DebtRatio())
	assert.Equal(t, int64(700), next.EstimatedTotalAssets().Int64())
	assert.True(t, old.EstimatedTotalAssets().IsZero())
}

func TestAtomicRollsBackVaultState(t *testing.T) {
	f := newFixture(t)
	v := f.vault
	boom := errors.New("boom")

	err := f.chain.Atomic(func() error {
		if err := v.AddStrategy(gov, f.strategy("s1"), 5_000); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, v.WithdrawalQueue())
	assert.Equal(t, uint64(0), v.DebtRatio())
	_, ok := v.StrategyParams("s1")
	assert.False(t, ok)
}
