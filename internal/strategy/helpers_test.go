package strategy_test

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/imbtc-strategy/internal/chain"
	"github.com/elys-network/imbtc-strategy/internal/simulations"
)

// relativeToleranceBps bounds fee and rounding drift in the end-to-end scenarios.
const relativeToleranceBps = 50

func newDeployment(t *testing.T, opts ...func(*simulations.DeploymentOptions)) *simulations.Deployment {
	t.Helper()
	o := simulations.DefaultDeploymentOptions()
	for _, opt := range opts {
		opt(&o)
	}
	d, err := simulations.NewDeployment(o)
	require.NoError(t, err)
	return d
}

// depositAndHarvest deposits whole want tokens for user and lets the keeper invest them.
func depositAndHarvest(t *testing.T, d *simulations.Deployment, user chain.Address, whole int64) math.Int {
	t.Helper()
	amount := d.Want(whole)
	_, err := d.Deposit(user, amount)
	require.NoError(t, err)
	_, err = d.Strategy.Harvest(simulations.Keeper)
	require.NoError(t, err)
	return amount
}

func assertApprox(t *testing.T, expected, actual math.Int) {
	t.Helper()
	diff := expected.Sub(actual).Abs()
	bound := expected.Abs().MulRaw(relativeToleranceBps).QuoRaw(10_000)
	assert.Truef(t, diff.LTE(bound), "expected %s, got %s (diff %s exceeds %s)", expected, actual, diff, bound)
}
