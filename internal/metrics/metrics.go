package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// KeeperMetrics tracks keeper cycles and the strategy's reported position.
type KeeperMetrics struct {
	cycles          *prometheus.CounterVec
	actions         *prometheus.CounterVec
	failures        *prometheus.CounterVec
	rewardsDeferred prometheus.Counter
	totalAssets     prometheus.Gauge
	debt            prometheus.Gauge
	profit          prometheus.Counter
	loss            prometheus.Counter
	cycleDuration   prometheus.Histogram
}

var (
	keeperOnce     sync.Once
	keeperRegistry *KeeperMetrics
)

// Keeper returns the process-wide keeper metrics, registering them on first use.
func Keeper() *KeeperMetrics {
	keeperOnce.Do(func() {
		keeperRegistry = &KeeperMetrics{
			cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "strategy_keeper_cycles_total",
				Help: "Keeper cycles by outcome.",
			}, []string{"outcome"}),
			actions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "strategy_keeper_actions_total",
				Help: "Strategy calls made by the keeper, by action.",
			}, []string{"action"}),
			failures: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "strategy_keeper_failures_total",
				Help: "Failed strategy calls by action and error kind.",
			}, []string{"action", "kind"}),
			rewardsDeferred: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "strategy_rewards_deferred_total",
				Help: "Harvests that left claimed rewards unsold.",
			}),
			totalAssets: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "strategy_estimated_total_assets",
				Help: "Estimated total assets of the strategy, in whole want tokens.",
			}),
			debt: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "strategy_vault_debt",
				Help: "Debt the vault has recorded for the strategy, in whole want tokens.",
			}),
			profit: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "strategy_reported_profit_total",
				Help: "Cumulative profit reported to the vault, in whole want tokens.",
			}),
			loss: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "strategy_reported_loss_total",
				Help: "Cumulative loss reported to the vault, in whole want tokens.",
			}),
			cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Name:    "strategy_keeper_cycle_seconds",
				Help:    "Wall time of one keeper cycle.",
				Buckets: prometheus.DefBuckets,
			}),
		}
		prometheus.MustRegister(
			keeperRegistry.cycles,
			keeperRegistry.actions,
			keeperRegistry.failures,
			keeperRegistry.rewardsDeferred,
			keeperRegistry.totalAssets,
			keeperRegistry.debt,
			keeperRegistry.profit,
			keeperRegistry.loss,
			keeperRegistry.cycleDuration,
		)
	})
	return keeperRegistry
}

func (m *KeeperMetrics) ObserveCycle(outcome string, seconds float64) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.cycles.WithLabelValues(outcome).Inc()
	m.cycleDuration.Observe(seconds)
}

func (m *KeeperMetrics) ObserveAction(action string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action).Inc()
}

func (m *KeeperMetrics) ObserveFailure(action, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.failures.WithLabelValues(action, kind).Inc()
}

// ObserveHarvest records a settled harvest. Amounts are in whole want tokens.
func (m *KeeperMetrics) ObserveHarvest(profit, loss float64, deferred bool) {
	if m == nil {
		return
	}
	if profit > 0 {
		m.profit.Add(profit)
	}
	if loss > 0 {
		m.loss.Add(loss)
	}
	if deferred {
		m.rewardsDeferred.Inc()
	}
}

func (m *KeeperMetrics) SetPosition(totalAssets, debt float64) {
	if m == nil {
		return
	}
	m.totalAssets.Set(totalAssets)
	m.debt.Set(debt)
}
