package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolWatch/internal/model"
)

// Store provides Postgres persistence for snapshots and alert history.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks the connection, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// UpsertPools inserts or updates the pool roster.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, name, token0_symbol, token1_symbol,
				fee_tier, pool_type, target_token, enabled, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				name = EXCLUDED.name,
				token0_symbol = EXCLUDED.token0_symbol,
				token1_symbol = EXCLUDED.token1_symbol,
				fee_tier = EXCLUDED.fee_tier,
				pool_type = EXCLUDED.pool_type,
				target_token = EXCLUDED.target_token,
				enabled = EXCLUDED.enabled,
				updated_at = now()
		`,
			pool.Address,
			pool.Name,
			pool.Token0.Symbol,
			pool.Token1.Symbol,
			pool.FeeTier,
			pool.PoolType,
			pool.TargetToken,
			pool.Enabled,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertSnapshots appends one row per snapshot.
func (s *Store) InsertSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO pool_snapshots (
				pool_address, pool_name,
				token0_symbol, token0_amount, token0_price_usd, token0_value_usd,
				token1_symbol, token1_amount, token1_price_usd, token1_value_usd,
				tvl_usd, target_token, target_token_amount, target_token_price,
				taken_at, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,now())
		`,
			snap.PoolAddress,
			snap.PoolName,
			snap.Token0.Symbol,
			snap.Token0.Amount,
			snap.Token0.PriceUSD,
			snap.Token0.ValueUSD,
			snap.Token1.Symbol,
			snap.Token1.Amount,
			snap.Token1.PriceUSD,
			snap.Token1.ValueUSD,
			snap.TotalTVLUSD,
			snap.TargetToken,
			snap.TargetTokenAmount,
			snap.TargetTokenPrice,
			snap.TakenAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertAlerts appends the audit rows for fired alerts.
func (s *Store) InsertAlerts(ctx context.Context, alerts []model.AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, alert := range alerts {
		batch.Queue(`
			INSERT INTO alerts (
				id, pool_address, pool_name,
				tvl_change_pct, target_change_pct, severity, message, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO NOTHING
		`,
			alert.ID,
			alert.PoolAddress,
			alert.PoolName,
			alert.TVLChangePct,
			alert.TargetChangePct,
			string(alert.Severity),
			alert.Message,
			alert.CreatedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range alerts {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
