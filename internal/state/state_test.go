package state

import (
	"context"
	"os"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/imbtc-strategy/internal/config"
	"github.com/elys-network/imbtc-strategy/internal/types"
)

// testDSNEnv names the database the integration tests run against. They are skipped when unset.
const testDSNEnv = "STRATEGY_TEST_DATABASE_DSN"

func TestDSN(t *testing.T) {
	cfg := DBConfig{Host: "localhost", Port: 5432, User: "keeper", Password: "secret", DBName: "strategy"}
	assert.Equal(t, "host=localhost port=5432 user=keeper password=secret dbname=strategy sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}

func TestParseAmount(t *testing.T) {
	v, err := parseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)
	assert.Equal(t, 256, v.BigInt().BitLen())

	_, err = parseAmount("1.5")
	assert.Error(t, err)

	assert.Equal(t, "0", amount(math.Int{}))
	assert.Equal(t, "42", amount(math.NewInt(42)))
}

func TestUninitializedDatabase(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, DB)

	assert.ErrorIs(t, EnsureSchema(ctx), ErrNotInitialized)
	_, err := IncrementCycleNumber(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, SaveHarvestReport(ctx, 1, types.HarvestReport{}), ErrNotInitialized)
	_, err = NewPostgresStore("strategy_imbtc_1")
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.Error(t, TestDBConnection())
}

func openTestDB(t *testing.T) context.Context {
	t.Helper()
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	ctx := context.Background()
	require.NoError(t, InitDBWithDSN(dsn))
	t.Cleanup(CloseDB)
	require.NoError(t, DropSchema(ctx))
	require.NoError(t, EnsureSchema(ctx))
	return ctx
}

func sampleReport(strategy string, at time.Time, profit int64) types.HarvestReport {
	r := types.NewHarvestReport(uuid.New().String(), strategy, at)
	r.Profit = math.NewInt(profit)
	r.DebtPayment = math.NewInt(7)
	r.RewardsClaimed = math.NewIntWithDecimal(3, 18)
	r.TotalAssetsAfter = math.NewInt(1_000_000_000 + profit)
	r.Actions = []string{"claim_rewards", "report", "invest"}
	return r
}

func TestHarvestReportsRoundTrip(t *testing.T) {
	ctx := openTestDB(t)
	const strategy = "strategy_imbtc_1"
	start := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	first := sampleReport(strategy, start, 100)
	second := sampleReport(strategy, start.Add(24*time.Hour), 250)
	second.RewardsDeferred = true
	other := sampleReport("strategy_imbtc_2", start, 999)

	require.NoError(t, SaveHarvestReport(ctx, 1, first))
	require.NoError(t, SaveHarvestReport(ctx, 2, second))
	require.NoError(t, SaveHarvestReport(ctx, 2, second))
	require.NoError(t, SaveHarvestReport(ctx, 3, other))

	recent, err := GetRecentReports(ctx, strategy, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second.ID, recent[0].ID)
	assert.Equal(t, 2, recent[0].CycleNumber)
	assert.True(t, recent[0].RewardsClaimed.Equal(second.RewardsClaimed))
	assert.Equal(t, second.Actions, recent[0].Actions)

	latest, err := GetLatestReport(ctx, strategy)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	byID, err := GetReportByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, byID.Profit.Equal(math.NewInt(100)))
	assert.True(t, byID.Timestamp.Equal(start))

	_, err = GetReportByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, ErrReportNotFound)

	summary, err := GetReportSummary(ctx, strategy)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalHarvests)
	assert.Equal(t, 1, summary.DeferredHarvests)
	assert.True(t, summary.TotalProfit.Equal(math.NewInt(350)))
	assert.True(t, summary.TotalDebtPayment.Equal(math.NewInt(14)))
	assert.True(t, summary.LatestTotalAssets.Equal(second.TotalAssetsAfter))
	require.NotNil(t, summary.LastHarvestAt)
	assert.True(t, summary.LastHarvestAt.Equal(second.Timestamp))

	empty, err := GetReportSummary(ctx, "strategy_unknown")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalHarvests)
	assert.True(t, empty.TotalProfit.IsZero())
	assert.Nil(t, empty.LastHarvestAt)
}

func TestCycleCounter(t *testing.T) {
	ctx := openTestDB(t)

	current, err := GetCurrentCycleNumber(ctx)
	require.NoError(t, err)
	assert.Zero(t, current)

	for want := 1; want <= 3; want++ {
		got, err := IncrementCycleNumber(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	require.NoError(t, ResetCycleNumber(ctx, 10))
	got, err := IncrementCycleNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, got)
	assert.Error(t, ResetCycleNumber(ctx, -1))
}

func TestStrategyParametersVersions(t *testing.T) {
	ctx := openTestDB(t)
	const name = "imbtc_strategy"

	_, err := LoadActiveStrategyParameters(ctx, name)
	assert.ErrorIs(t, err, ErrNoActiveParameters)

	params := config.DefaultStrategyParameters
	_, err = SaveStrategyParameters(ctx, params, name, 1, true)
	require.NoError(t, err)

	params.SlippageRewardToWant = 300
	params.MinReportDelay = 6 * time.Hour
	params.DebtThreshold = math.NewInt(50_000)
	_, err = SaveStrategyParameters(ctx, params, name, 2, true)
	require.NoError(t, err)

	active, err := LoadActiveStrategyParameters(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), active.SlippageRewardToWant)
	assert.Equal(t, 6*time.Hour, active.MinReportDelay)
	assert.Equal(t, params.MaxReportDelay, active.MaxReportDelay)
	assert.True(t, active.DebtThreshold.Equal(math.NewInt(50_000)))

	version, err := LatestParametersVersion(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	_, err = SaveStrategyParameters(ctx, params, name, 2, false)
	assert.Error(t, err)

	invalid := params
	invalid.SlippageWantToStake = types.MaxBasisPoints + 1
	_, err = SaveStrategyParameters(ctx, invalid, name, 3, true)
	assert.ErrorIs(t, err, types.ErrInvalidParameters)
}
