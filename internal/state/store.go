package state

import (
	"context"
	"fmt"

	"github.com/elys-network/imbtc-strategy/internal/types"
)

// PostgresStore binds the package functions to one strategy for the keeper and the API.
type PostgresStore struct {
	strategy string
}

// NewPostgresStore requires an initialized pool and an applied schema.
func NewPostgresStore(strategy string) (*PostgresStore, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}
	if strategy == "" {
		return nil, fmt.Errorf("store strategy cannot be empty")
	}
	return &PostgresStore{strategy: strategy}, nil
}

func (s *PostgresStore) IncrementCycleNumber(ctx context.Context) (int, error) {
	return IncrementCycleNumber(ctx)
}

func (s *PostgresStore) SaveHarvestReport(ctx context.Context, cycleNumber int, report types.HarvestReport) error {
	return SaveHarvestReport(ctx, cycleNumber, report)
}

func (s *PostgresStore) RecentReports(ctx context.Context, limit int) ([]StoredHarvestReport, error) {
	return GetRecentReports(ctx, s.strategy, limit)
}

func (s *PostgresStore) LatestReport(ctx context.Context) (StoredHarvestReport, error) {
	return GetLatestReport(ctx, s.strategy)
}

func (s *PostgresStore) ReportByID(ctx context.Context, id string) (StoredHarvestReport, error) {
	return GetReportByID(ctx, id)
}

func (s *PostgresStore) Summary(ctx context.Context) (types.ReportSummary, error) {
	return GetReportSummary(ctx, s.strategy)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if DB == nil {
		return ErrNotInitialized
	}
	return DB.PingContext(ctx)
}
