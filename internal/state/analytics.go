package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/imbtc-strategy/internal/types"
)

// GetReportSummary aggregates every stored harvest of strategy.
func GetReportSummary(ctx context.Context, strategy string) (types.ReportSummary, error) {
	if DB == nil {
		return types.ReportSummary{}, ErrNotInitialized
	}

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(profit), 0)::TEXT,
			COALESCE(SUM(loss), 0)::TEXT,
			COALESCE(SUM(debt_payment), 0)::TEXT,
			COUNT(*) FILTER (WHERE rewards_deferred),
			COUNT(*) FILTER (WHERE emergency_exit),
			MAX(harvested_at),
			COALESCE((
				SELECT total_assets_after FROM harvest_reports
				WHERE strategy = $1
				ORDER BY harvested_at DESC, created_at DESC
				LIMIT 1
			), 0)::TEXT
		FROM harvest_reports
		WHERE strategy = $1;`

	var (
		summary                        types.ReportSummary
		profit, loss, debtPayment, tvl string
		lastHarvest                    sql.NullTime
	)
	err := DB.QueryRowContext(ctx, query, strategy).Scan(
		&summary.TotalHarvests,
		&profit, &loss, &debtPayment,
		&summary.DeferredHarvests,
		&summary.EmergencyHarvests,
		&lastHarvest,
		&tvl,
	)
	if err != nil {
		return types.ReportSummary{}, fmt.Errorf("failed to summarize harvest reports for %s: %w", strategy, err)
	}

	if summary.TotalProfit, err = parseAmount(profit); err != nil {
		return types.ReportSummary{}, err
	}
	if summary.TotalLoss, err = parseAmount(loss); err != nil {
		return types.ReportSummary{}, err
	}
	if summary.TotalDebtPayment, err = parseAmount(debtPayment); err != nil {
		return types.ReportSummary{}, err
	}
	if summary.LatestTotalAssets, err = parseAmount(tvl); err != nil {
		return types.ReportSummary{}, err
	}
	if lastHarvest.Valid {
		at := lastHarvest.Time.UTC()
		summary.LastHarvestAt = &at
	}

	log.Debug().
		Str("strategy", strategy).
		Int("harvests", summary.TotalHarvests).
		Msg("Computed harvest report summary")
	return summary, nil
}
