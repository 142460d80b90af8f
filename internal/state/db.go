// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

var ErrNotInitialized = errors.New("database not initialized")

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// DSN renders the config as a lib/pq connection string.
func (cfg DBConfig) DSN() string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	return InitDBWithDSN(cfg.DSN())
}

// InitDBWithDSN opens the pool from a connection string or URL and pings it.
func InitDBWithDSN(dsn string) error {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = conn
	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
		DB = nil
	}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS strategy_parameters (
		params_id SERIAL PRIMARY KEY,
		config_name TEXT NOT NULL,
		version INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,

		slippage_reward_to_want INTEGER NOT NULL,
		slippage_want_to_stake INTEGER NOT NULL,
		check_slippage_reward_to_want BOOLEAN NOT NULL,
		liquidate_rewards BOOLEAN NOT NULL,
		min_report_delay_seconds BIGINT NOT NULL,
		max_report_delay_seconds BIGINT NOT NULL,
		profit_factor BIGINT NOT NULL,
		debt_threshold NUMERIC(78, 0) NOT NULL,
		want_buffer NUMERIC(78, 0) NOT NULL,

		UNIQUE (config_name, version)
	);

	CREATE TABLE IF NOT EXISTS harvest_reports (
		report_id UUID PRIMARY KEY,
		cycle_number INTEGER NOT NULL,
		strategy TEXT NOT NULL,
		harvested_at TIMESTAMPTZ NOT NULL,
		emergency_exit BOOLEAN NOT NULL,

		profit NUMERIC(78, 0) NOT NULL,
		loss NUMERIC(78, 0) NOT NULL,
		debt_payment NUMERIC(78, 0) NOT NULL,
		debt_outstanding NUMERIC(78, 0) NOT NULL,
		credit NUMERIC(78, 0) NOT NULL,

		rewards_claimed NUMERIC(78, 0) NOT NULL,
		rewards_liquidated NUMERIC(78, 0) NOT NULL,
		rewards_deferred BOOLEAN NOT NULL,
		rewards_proceeds NUMERIC(78, 0) NOT NULL,

		total_assets_before NUMERIC(78, 0) NOT NULL,
		total_assets_after NUMERIC(78, 0) NOT NULL,
		invested NUMERIC(78, 0) NOT NULL,
		divested NUMERIC(78, 0) NOT NULL,

		actions TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_harvest_reports_strategy_time
		ON harvest_reports (strategy, harvested_at DESC);
`

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema(ctx context.Context) error {
	if DB == nil {
		return ErrNotInitialized
	}
	if _, err := DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if err := ensureCycleCounterTable(ctx); err != nil {
		return err
	}
	log.Info().Msg("Database schema ensured")
	return nil
}

// DropSchema removes every table this package owns. Used by reset-db.
func DropSchema(ctx context.Context) error {
	if DB == nil {
		return ErrNotInitialized
	}
	dropSQL := `
		DROP TABLE IF EXISTS harvest_reports CASCADE;
		DROP TABLE IF EXISTS strategy_parameters CASCADE;
		DROP TABLE IF EXISTS cycle_counter CASCADE;
	`
	if _, err := DB.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	log.Warn().Msg("Dropped all strategy tables")
	return nil
}

// TestDBConnection pings the pool with a short timeout. Used by health checks.
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
