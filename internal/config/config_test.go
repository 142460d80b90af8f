package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigRequiresMode(t *testing.T) {
	t.Setenv("STRATEGY_MODE", "simulation")
	require.NoError(t, os.Unsetenv("STRATEGY_MODE"))

	err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRATEGY_MODE")
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	t.Setenv("STRATEGY_MODE", "simulation")
	t.Setenv("KEEPER_INTERVAL", "30s")
	t.Setenv("KEEPER_CALL_COST", "1500")
	t.Setenv("SIMULATION_STEP", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_PORT", "6543")

	require.NoError(t, LoadConfig())
	assert.Equal(t, "simulation", StrategyMode)
	assert.Equal(t, 30*time.Second, KeeperInterval)
	assert.Equal(t, uint64(1500), KeeperCallCost)
	assert.Equal(t, 6*time.Hour, SimulationStep)
	assert.Equal(t, 6543, DBPort)
	assert.Equal(t, "8080", WebPort)
	assert.False(t, PersistenceEnabled())
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	t.Setenv("STRATEGY_MODE", "simulation")
	t.Setenv("KEEPER_INTERVAL", "soon")
	require.Error(t, LoadConfig())

	t.Setenv("KEEPER_INTERVAL", "1m")
	t.Setenv("KEEPER_CALL_COST", "-5")
	require.Error(t, LoadConfig())
}

func TestDefaultStrategyParametersAreValid(t *testing.T) {
	require.NoError(t, DefaultStrategyParameters.Validate())
	assert.NotZero(t, DefaultStrategyParameters.SlippageRewardToWant)
	assert.NotZero(t, DefaultStrategyParameters.SlippageWantToStake)
}

func TestDefaultAssetsAreDistinct(t *testing.T) {
	assert.Len(t, DefaultAssets, 6)
	assert.Equal(t, uint32(8), DefaultAssets["wbtc"].Decimals)
	assert.Equal(t, uint32(18), DefaultAssets["imbtc"].Decimals)
}
