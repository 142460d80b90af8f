package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeeperMetricsSingleton(t *testing.T) {
	m := Keeper()
	require.NotNil(t, m)
	assert.Same(t, m, Keeper())
}

func TestKeeperMetricsObserve(t *testing.T) {
	m := Keeper()

	before := testutil.ToFloat64(m.actions.WithLabelValues("harvest"))
	m.ObserveAction("harvest")
	assert.Equal(t, before+1, testutil.ToFloat64(m.actions.WithLabelValues("harvest")))

	m.ObserveFailure("tend", "")
	assert.GreaterOrEqual(t, testutil.ToFloat64(m.failures.WithLabelValues("tend", "unknown")), 1.0)

	deferred := testutil.ToFloat64(m.rewardsDeferred)
	m.ObserveHarvest(0.5, 0, true)
	assert.Equal(t, deferred+1, testutil.ToFloat64(m.rewardsDeferred))

	m.SetPosition(10.5, 10)
	assert.Equal(t, 10.5, testutil.ToFloat64(m.totalAssets))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.debt))
}

func TestNilKeeperMetricsIsSafe(t *testing.T) {
	var m *KeeperMetrics
	assert.NotPanics(t, func() {
		m.ObserveCycle("ok", 1)
		m.ObserveAction("harvest")
		m.ObserveFailure("harvest", "slippage")
		m.ObserveHarvest(1, 1, true)
		m.SetPosition(1, 1)
	})
}
