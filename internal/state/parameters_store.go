// ./internal/state/parameters_store.go
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/elys-network/imbtc-strategy/internal/types"
)

var ErrNoActiveParameters = errors.New("no active strategy parameters")

// SaveStrategyParameters stores a new version of params under configName. With makeActive the
// previously active version is deactivated in the same transaction.
func SaveStrategyParameters(ctx context.Context, params types.StrategyParameters, configName string, version int, makeActive bool) (paramsID int64, err error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}
	if err := params.Validate(); err != nil {
		return 0, err
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	if makeActive {
		stmtDeactivate := `UPDATE strategy_parameters SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE;`
		if _, err = tx.ExecContext(ctx, stmtDeactivate, configName); err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active parameters for %s: %w", configName, err)
		}
	}

	stmt := `
		INSERT INTO strategy_parameters (
			config_name, version, is_active, activated_at,
			slippage_reward_to_want, slippage_want_to_stake, check_slippage_reward_to_want, liquidate_rewards,
			min_report_delay_seconds, max_report_delay_seconds, profit_factor, debt_threshold, want_buffer
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING params_id;`

	err = tx.QueryRowContext(ctx, stmt,
		configName, version, makeActive, time.Now().UTC(),
		params.SlippageRewardToWant, params.SlippageWantToStake, params.CheckSlippageRewardToWant, params.LiquidateRewards,
		int64(params.MinReportDelay/time.Second), int64(params.MaxReportDelay/time.Second), params.ProfitFactor,
		amount(params.DebtThreshold), amount(params.WantBuffer),
	).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert strategy parameters for %s v%d: %w", configName, version, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit strategy parameters: %w", err)
	}

	log.Info().
		Str("config", configName).
		Int("version", version).
		Int64("params_id", paramsID).
		Bool("active", makeActive).
		Msg("Saved strategy parameters")
	return paramsID, nil
}

// LoadActiveStrategyParameters returns the active version for configName, or ErrNoActiveParameters.
func LoadActiveStrategyParameters(ctx context.Context, configName string) (*types.StrategyParameters, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	query := `
		SELECT
			slippage_reward_to_want, slippage_want_to_stake, check_slippage_reward_to_want, liquidate_rewards,
			min_report_delay_seconds, max_report_delay_seconds, profit_factor,
			debt_threshold::TEXT, want_buffer::TEXT
		FROM strategy_parameters
		WHERE config_name = $1 AND is_active = TRUE
		ORDER BY activated_at DESC
		LIMIT 1;`

	var (
		p                     types.StrategyParameters
		minDelay, maxDelay    int64
		debtThreshold, buffer string
	)
	err := DB.QueryRowContext(ctx, query, configName).Scan(
		&p.SlippageRewardToWant, &p.SlippageWantToStake, &p.CheckSlippageRewardToWant, &p.LiquidateRewards,
		&minDelay, &maxDelay, &p.ProfitFactor,
		&debtThreshold, &buffer,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w for config '%s'", ErrNoActiveParameters, configName)
		}
		return nil, fmt.Errorf("failed to scan active strategy parameters for config '%s': %w", configName, err)
	}

	p.MinReportDelay = time.Duration(minDelay) * time.Second
	p.MaxReportDelay = time.Duration(maxDelay) * time.Second
	if p.DebtThreshold, err = parseAmount(debtThreshold); err != nil {
		return nil, err
	}
	if p.WantBuffer, err = parseAmount(buffer); err != nil {
		return nil, err
	}

	log.Info().Str("config", configName).Msg("Loaded active strategy parameters")
	return &p, nil
}

// LatestParametersVersion returns the highest stored version for configName, 0 when none.
func LatestParametersVersion(ctx context.Context, configName string) (int, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}
	var version int
	err := DB.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM strategy_parameters WHERE config_name = $1;`, configName,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read latest parameters version for %s: %w", configName, err)
	}
	return version, nil
}
