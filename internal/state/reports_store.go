/*

This file stores one row per harvest. Token amounts are math.Int values written as NUMERIC(78, 0)
and read back through their decimal string form, so no precision is lost.

*/

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cosmossdk.io/math"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/imbtc-strategy/internal/types"
)

var ErrReportNotFound = errors.New("harvest report not found")

// StoredHarvestReport is a harvest report with the keeper cycle that produced it.
type StoredHarvestReport struct {
	CycleNumber int `json:"cycle_number"`
	types.HarvestReport
}

const reportColumns = `
	report_id, cycle_number, strategy, harvested_at, emergency_exit,
	profit, loss, debt_payment, debt_outstanding, credit,
	rewards_claimed, rewards_liquidated, rewards_deferred, rewards_proceeds,
	total_assets_before, total_assets_after, invested, divested,
	actions`

// SaveHarvestReport inserts report. Saving the same report twice is a no-op.
func SaveHarvestReport(ctx context.Context, cycleNumber int, report types.HarvestReport) error {
	if DB == nil {
		return ErrNotInitialized
	}

	stmt := `INSERT INTO harvest_reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (report_id) DO NOTHING;`

	actions := report.Actions
	if actions == nil {
		actions = []string{}
	}
	_, err := DB.ExecContext(ctx, stmt,
		report.ID, cycleNumber, report.Strategy, report.Timestamp, report.EmergencyExit,
		amount(report.Profit), amount(report.Loss), amount(report.DebtPayment), amount(report.DebtOutstanding), amount(report.Credit),
		amount(report.RewardsClaimed), amount(report.RewardsLiquidated), report.RewardsDeferred, amount(report.RewardsProceeds),
		amount(report.TotalAssetsBefore), amount(report.TotalAssetsAfter), amount(report.Invested), amount(report.Divested),
		pq.Array(actions),
	)
	if err != nil {
		return fmt.Errorf("failed to save harvest report %s: %w", report.ID, err)
	}

	log.Info().
		Str("reportId", report.ID).
		Int("cycleNumber", cycleNumber).
		Str("strategy", report.Strategy).
		Msg("Saved harvest report")
	return nil
}

// GetRecentReports returns up to limit reports of strategy, newest first.
func GetRecentReports(ctx context.Context, strategy string, limit int) ([]StoredHarvestReport, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	query := `SELECT ` + reportColumns + `
		FROM harvest_reports
		WHERE strategy = $1
		ORDER BY harvested_at DESC, created_at DESC
		LIMIT $2;`

	rows, err := DB.QueryContext(ctx, query, strategy, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent harvest reports: %w", err)
	}
	defer rows.Close()

	reports := make([]StoredHarvestReport, 0, limit)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate harvest reports: %w", err)
	}
	return reports, nil
}

// GetReportByID returns ErrReportNotFound when no report has id.
func GetReportByID(ctx context.Context, id string) (StoredHarvestReport, error) {
	if DB == nil {
		return StoredHarvestReport{}, ErrNotInitialized
	}
	query := `SELECT ` + reportColumns + ` FROM harvest_reports WHERE report_id = $1;`
	report, err := scanReport(DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return StoredHarvestReport{}, fmt.Errorf("%w: %s", ErrReportNotFound, id)
	}
	return report, err
}

// GetLatestReport returns the newest report of strategy, or ErrReportNotFound.
func GetLatestReport(ctx context.Context, strategy string) (StoredHarvestReport, error) {
	if DB == nil {
		return StoredHarvestReport{}, ErrNotInitialized
	}
	query := `SELECT ` + reportColumns + `
		FROM harvest_reports
		WHERE strategy = $1
		ORDER BY harvested_at DESC, created_at DESC
		LIMIT 1;`
	report, err := scanReport(DB.QueryRowContext(ctx, query, strategy))
	if errors.Is(err, sql.ErrNoRows) {
		return StoredHarvestReport{}, fmt.Errorf("%w: no reports for %s", ErrReportNotFound, strategy)
	}
	return report, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (StoredHarvestReport, error) {
	var (
		r       StoredHarvestReport
		amounts [12]string
		actions []string
	)
	err := row.Scan(
		&r.ID, &r.CycleNumber, &r.Strategy, &r.Timestamp, &r.EmergencyExit,
		&amounts[0], &amounts[1], &amounts[2], &amounts[3], &amounts[4],
		&amounts[5], &amounts[6], &r.RewardsDeferred, &amounts[7],
		&amounts[8], &amounts[9], &amounts[10], &amounts[11],
		pq.Array(&actions),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredHarvestReport{}, err
		}
		return StoredHarvestReport{}, fmt.Errorf("failed to scan harvest report: %w", err)
	}

	targets := []*math.Int{
		&r.Profit, &r.Loss, &r.DebtPayment, &r.DebtOutstanding, &r.Credit,
		&r.RewardsClaimed, &r.RewardsLiquidated, &r.RewardsProceeds,
		&r.TotalAssetsBefore, &r.TotalAssetsAfter, &r.Invested, &r.Divested,
	}
	for i, target := range targets {
		if *target, err = parseAmount(amounts[i]); err != nil {
			return StoredHarvestReport{}, fmt.Errorf("report %s: %w", r.ID, err)
		}
	}
	r.Timestamp = r.Timestamp.UTC()
	r.Actions = actions
	if r.Actions == nil {
		r.Actions = []string{}
	}
	return r, nil
}

// amount renders v for a NUMERIC column. A nil Int is stored as zero.
func amount(v math.Int) string {
	if v.IsNil() {
		return "0"
	}
	return v.String()
}

// parseAmount reads a NUMERIC(78, 0) column rendered as text.
func parseAmount(s string) (math.Int, error) {
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.Int{}, fmt.Errorf("invalid stored amount %q", s)
	}
	return v, nil
}
