package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"poolWatch/internal/metrics"
	"poolWatch/internal/model"
	"poolWatch/internal/price"
	"poolWatch/internal/storage"
	"poolWatch/internal/storage/postgres"
	"poolWatch/internal/tvl"
)

// Defaults for the poll loop.
const (
	DefaultInterval   = 30 * time.Second
	DefaultThreshold  = 5.0
	DefaultSweepEvery = 10
)

// PoolReader reads one pool's reserves from the chain.
type PoolReader interface {
	ReadPool(ctx context.Context, pool model.Pool) (model.PoolReserves, error)
}

// RunConfig holds runtime settings for the monitor loop. Threshold is
// the alert trigger in percent; SweepEvery is the cycle count between
// price cache sweeps.
type RunConfig struct {
	Interval   time.Duration
	Threshold  float64
	SweepEvery int
	Pools      []model.Pool
}

// Deps bundles everything the runner drives each cycle. Reader, Cache,
// Resolver, Calculator and Dispatcher are required; Sinks and DB are
// optional.
type Deps struct {
	Reader     PoolReader
	Cache      *price.Cache
	Resolver   tvl.Resolver
	Calculator *tvl.Calculator
	Dispatcher *Dispatcher
	Sinks      []storage.Storage
	DB         *postgres.Store
}

// Runner polls every enabled pool on a fixed interval, values the
// reserves, compares against the previous cycle and fires alerts on
// moves past the threshold.
type Runner struct {
	cfg     RunConfig
	deps    Deps
	pools   []model.Pool
	store   *SnapshotStore
	det     *Detector
	builder *Builder
	logger  *zap.Logger
	now     func() time.Time
	cycle   uint64
}

// NewRunner builds a Runner with its dependencies. Zero config values
// fall back to the package defaults; disabled pools are dropped here.
func NewRunner(cfg RunConfig, deps Deps, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = DefaultSweepEvery
	}
	pools := make([]model.Pool, 0, len(cfg.Pools))
	for _, pool := range cfg.Pools {
		if pool.Enabled {
			pools = append(pools, pool)
		}
	}
	return &Runner{
		cfg:     cfg,
		deps:    deps,
		pools:   pools,
		store:   NewSnapshotStore(),
		det:     NewDetector(cfg.Threshold),
		builder: NewBuilder(),
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes the poll loop until the context is canceled. The first
// cycle starts immediately. Shutdown drains in-flight alert sends
// before returning.
func (r *Runner) Run(ctx context.Context) error {
	if r.deps.Reader == nil {
		return fmt.Errorf("pool reader is nil")
	}
	if r.deps.Cache == nil {
		return fmt.Errorf("price cache is nil")
	}
	if r.deps.Resolver == nil {
		return fmt.Errorf("price resolver is nil")
	}
	if r.deps.Calculator == nil {
		return fmt.Errorf("calculator is nil")
	}
	if r.deps.Dispatcher == nil {
		return fmt.Errorf("dispatcher is nil")
	}
	if len(r.pools) == 0 {
		return fmt.Errorf("no enabled pools to monitor")
	}

	r.logger.Info("monitor started",
		zap.Duration("interval", r.cfg.Interval),
		zap.Float64("threshold_pct", r.cfg.Threshold),
		zap.Int("pools", len(r.pools)))

	r.runCycle(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("monitor stopping, draining alert sends")
			r.deps.Dispatcher.Wait()
			return nil
		case <-ticker.C:
			r.runCycle(ctx)
		}
	}
}

func (r *Runner) runCycle(ctx context.Context) {
	start := r.now()
	r.cycle++
	metrics.CyclesTotal.Inc()

	if r.cycle%uint64(r.cfg.SweepEvery) == 0 {
		if removed := r.deps.Cache.SweepExpired(); removed > 0 {
			r.logger.Debug("price cache swept", zap.Int("removed", removed))
		}
	}

	// One batched resolve primes the cache so per-pool valuation does
	// not fan out into repeated feed calls.
	r.deps.Resolver.ResolveMany(ctx, r.watchedSymbols())

	observed := make([]model.PoolSnapshot, 0, len(r.pools))
	for _, pool := range r.pools {
		if ctx.Err() != nil {
			return
		}
		snap, err := r.observePool(ctx, pool)
		if err != nil {
			metrics.PoolReadErrors.WithLabelValues(pool.Name).Inc()
			r.logger.Warn("pool observation failed",
				zap.String("pool", pool.Name),
				zap.String("address", pool.Address),
				zap.Error(err))
			continue
		}
		observed = append(observed, snap)
	}

	r.persist(ctx, observed)

	stats := r.deps.Cache.Stats()
	elapsed := r.now().Sub(start)
	metrics.CycleDuration.Observe(elapsed.Seconds())
	r.logger.Info("cycle complete",
		zap.Uint64("cycle", r.cycle),
		zap.Int("observed", len(observed)),
		zap.Int("pools", len(r.pools)),
		zap.Int("cached_prices", stats.Valid),
		zap.Duration("elapsed", elapsed))
}

// observePool reads, values and change-checks a single pool. The new
// snapshot becomes the baseline only when the whole observation
// succeeded.
func (r *Runner) observePool(ctx context.Context, pool model.Pool) (model.PoolSnapshot, error) {
	reserves, err := r.deps.Reader.ReadPool(ctx, pool)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("read pool: %w", err)
	}

	valuation, err := r.deps.Calculator.Compute(ctx,
		tvl.Leg{Symbol: reserves.Token0Symbol, Amount: reserves.Token0Amount},
		tvl.Leg{Symbol: reserves.Token1Symbol, Amount: reserves.Token1Amount},
	)
	if err != nil {
		return model.PoolSnapshot{}, fmt.Errorf("value pool: %w", err)
	}

	snap := buildSnapshot(pool, valuation, r.now())
	metrics.PoolTVL.WithLabelValues(pool.Name).Set(snap.TotalTVLUSD)

	if prev, ok := r.store.Previous(pool.Address); ok {
		if change, fired := r.det.Detect(prev, snap); fired {
			r.fireAlert(ctx, pool, change)
		}
	}
	r.store.Replace(snap)
	return snap, nil
}

func (r *Runner) fireAlert(ctx context.Context, pool model.Pool, change model.PoolChange) {
	message := r.builder.Build(change)
	severity := change.MaxSeverity()
	metrics.AlertsFired.WithLabelValues(string(severity)).Inc()
	r.logger.Info("alert fired",
		zap.String("pool", pool.Name),
		zap.String("severity", string(severity)),
		zap.Bool("tvl_delta_defined", change.TVLDelta.Defined),
		zap.Float64("tvl_delta_pct", change.TVLDelta.Pct))

	r.deps.Dispatcher.Dispatch(alertKey(pool.Address), message)

	if r.deps.DB != nil {
		record := model.NewAlertRecord(change, message)
		if err := r.deps.DB.InsertAlerts(ctx, []model.AlertRecord{record}); err != nil {
			r.logger.Warn("alert record insert failed", zap.Error(err))
		}
	}
}

func (r *Runner) persist(ctx context.Context, snapshots []model.PoolSnapshot) {
	if len(snapshots) == 0 {
		return
	}
	for _, sink := range r.deps.Sinks {
		if err := sink.PutSnapshotBatch(snapshots); err != nil {
			r.logger.Warn("snapshot sink write failed", zap.Error(err))
		}
	}
	if r.deps.DB != nil {
		if err := r.deps.DB.InsertSnapshots(ctx, snapshots); err != nil {
			r.logger.Warn("snapshot db insert failed", zap.Error(err))
		}
	}
}

// watchedSymbols collects the distinct canonical symbols across every
// enabled pool, in roster order.
func (r *Runner) watchedSymbols() []string {
	seen := make(map[string]struct{})
	symbols := make([]string, 0, len(r.pools)*2)
	for _, pool := range r.pools {
		for _, symbol := range pool.Symbols() {
			canonical := price.Normalize(symbol)
			if _, ok := seen[canonical]; ok {
				continue
			}
			seen[canonical] = struct{}{}
			symbols = append(symbols, canonical)
		}
	}
	return symbols
}

// buildSnapshot folds a valuation into the snapshot shape, picking the
// target leg the way Pool.TargetLeg does.
func buildSnapshot(pool model.Pool, valuation tvl.Result, takenAt time.Time) model.PoolSnapshot {
	snap := model.PoolSnapshot{
		PoolAddress: pool.Address,
		PoolName:    pool.Name,
		Token0:      valuation.Token0,
		Token1:      valuation.Token1,
		TotalTVLUSD: valuation.TotalUSD,
		TargetToken: price.Normalize(pool.TargetToken),
		TakenAt:     takenAt.UTC(),
	}
	target := valuation.Token0
	if strings.EqualFold(pool.TargetToken, valuation.Token1.Symbol) {
		target = valuation.Token1
	}
	snap.TargetTokenAmount = target.Amount
	snap.TargetTokenPrice = target.PriceUSD
	return snap
}

func alertKey(poolAddress string) string {
	return "alert:" + strings.ToLower(poolAddress)
}
