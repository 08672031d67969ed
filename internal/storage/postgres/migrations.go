package postgres

import "context"

const migrationSQL = `
CREATE TABLE IF NOT EXISTS pools (
    pool_address TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    token0_symbol TEXT NOT NULL DEFAULT '',
    token1_symbol TEXT NOT NULL DEFAULT '',
    fee_tier TEXT NOT NULL DEFAULT '',
    pool_type TEXT NOT NULL DEFAULT '',
    target_token TEXT NOT NULL DEFAULT '',
    enabled BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pool_snapshots (
    id BIGSERIAL PRIMARY KEY,
    pool_address TEXT NOT NULL,
    pool_name TEXT NOT NULL DEFAULT '',
    token0_symbol TEXT NOT NULL DEFAULT '',
    token0_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
    token0_price_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
    token0_value_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
    token1_symbol TEXT NOT NULL DEFAULT '',
    token1_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
    token1_price_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
    token1_value_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
    tvl_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
    target_token TEXT NOT NULL DEFAULT '',
    target_token_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
    target_token_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    taken_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_pool_snapshots_pool_taken
    ON pool_snapshots (pool_address, taken_at);

CREATE TABLE IF NOT EXISTS alerts (
    id UUID PRIMARY KEY,
    pool_address TEXT NOT NULL,
    pool_name TEXT NOT NULL DEFAULT '',
    tvl_change_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
    target_change_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
    severity TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_alerts_pool_created
    ON alerts (pool_address, created_at);
`

// Migrate creates the schema when it does not exist yet. Safe to run
// on every start.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, migrationSQL)
	return err
}
