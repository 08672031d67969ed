package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolWatch/internal/chain"
	"poolWatch/internal/config"
	"poolWatch/internal/dedup"
	"poolWatch/internal/metrics"
	"poolWatch/internal/monitor"
	"poolWatch/internal/notify"
	"poolWatch/internal/price"
	"poolWatch/internal/storage"
	"poolWatch/internal/storage/postgres"
	"poolWatch/internal/tvl"
)

func main() {
	root := &cobra.Command{
		Use:          "monitor",
		Short:        "BSC LP pool TVL monitor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pool monitor",
		RunE:  runMonitor,
	}

	runCmd.Flags().String("rpc", "", "BSC RPC URL")
	runCmd.Flags().String("pools", "./pools.json", "pools file path")
	runCmd.Flags().Duration("interval", 30*time.Second, "polling interval")
	runCmd.Flags().Float64("threshold", 5.0, "alert threshold in percent")
	runCmd.Flags().Duration("price-cache-ttl", 5*time.Minute, "price cache TTL")
	runCmd.Flags().Int("sweep-every", 10, "sweep expired cache entries every N cycles")
	runCmd.Flags().String("data-dir", "./data", "snapshot export directory")
	runCmd.Flags().Bool("export-json", true, "append snapshots to daily JSONL files")
	runCmd.Flags().Bool("export-csv", true, "append snapshots to daily CSV files")
	runCmd.Flags().String("webhook-url", "", "alert webhook URL (alerts are logged when unset)")
	runCmd.Flags().String("proxy-url", "", "proxy URL for webhook delivery")
	runCmd.Flags().Bool("use-proxy", false, "route webhook delivery through the proxy")
	runCmd.Flags().Int("webhook-retries", 2, "webhook delivery retry attempts")
	runCmd.Flags().Duration("alert-cooldown", 10*time.Minute, "suppress repeat alerts per pool for this long")
	runCmd.Flags().String("redis-url", "", "redis URL for the alert cooldown guard")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN for snapshot and alert persistence")
	runCmd.Flags().String("metrics-listen", "", "ops server listen address, e.g. :9090 (empty disables)")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)
	root.AddCommand(newPoolsCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newFindCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	roster, err := config.LoadPools(cfg.PoolsFile)
	if err != nil {
		return err
	}
	if len(roster.Pools) == 0 {
		return fmt.Errorf("pools file %s is empty; add one with: monitor pools add", cfg.PoolsFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("query chain id: %w", err)
	}

	cache := price.NewCache(cfg.PriceCacheTTL)
	feeds := []price.Feed{
		price.NewDexScreenerFeed("", "bsc", roster.DirectQuotePairs()),
		price.NewCoinGeckoFeed("", roster.CoinGeckoIDs()),
	}
	resolver := price.NewResolver(cache, feeds, logger)
	calculator := tvl.NewCalculator(resolver)

	var notifier monitor.Notifier
	if cfg.WebhookURL != "" {
		notifier, err = notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:      cfg.WebhookURL,
			ProxyURL: cfg.ProxyURL,
			UseProxy: cfg.UseProxy,
			Retries:  cfg.WebhookRetries,
		})
		if err != nil {
			return fmt.Errorf("configure webhook: %w", err)
		}
	} else {
		logger.Warn("webhook url not configured, alerts will only be logged")
		notifier = notify.NewLogNotifier(logger)
	}

	var guard monitor.CooldownGuard
	if cfg.RedisURL != "" {
		redisGuard, err := dedup.New(cfg.RedisURL, cfg.AlertCooldown, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisGuard.Close()
		guard = redisGuard
	}

	dispatcher := monitor.NewDispatcher(notifier, guard, 0, logger)

	var sinks []storage.Storage
	if cfg.ExportJSON {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.DataDir))
	}
	if cfg.ExportCSV {
		sinks = append(sinks, storage.NewCsvStorage(cfg.DataDir))
	}

	var db *postgres.Store
	if cfg.PostgresDSN != "" {
		db, err = postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		if err := db.UpsertPools(ctx, roster.Pools); err != nil {
			return fmt.Errorf("sync pools to postgres: %w", err)
		}
	}

	if cfg.MetricsListen != "" {
		var ready metrics.ReadyFunc
		if db != nil {
			ready = db.Ping
		}
		ops := metrics.NewServer(cfg.MetricsListen, ready, logger)
		ops.Start()
		defer func() {
			if err := ops.Shutdown(context.Background()); err != nil {
				logger.Warn("ops server shutdown", zap.Error(err))
			}
		}()
	}

	runner := monitor.NewRunner(monitor.RunConfig{
		Interval:   cfg.Interval,
		Threshold:  cfg.Threshold,
		SweepEvery: cfg.SweepEvery,
		Pools:      roster.Pools,
	}, monitor.Deps{
		Reader:     chain.NewReader(chainClient, logger),
		Cache:      cache,
		Resolver:   resolver,
		Calculator: calculator,
		Dispatcher: dispatcher,
		Sinks:      sinks,
		DB:         db,
	}, logger)

	logger.Info("monitor start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("chain_id", chainID.String()),
		zap.String("pools_file", cfg.PoolsFile),
		zap.Int("pools", len(roster.Pools)),
		zap.Int("enabled", len(roster.Enabled())),
		zap.Duration("interval", cfg.Interval),
		zap.Float64("threshold", cfg.Threshold),
		zap.Duration("price_cache_ttl", cfg.PriceCacheTTL),
		zap.String("data_dir", cfg.DataDir),
		zap.Bool("webhook", cfg.WebhookURL != ""),
		zap.Bool("cooldown_guard", guard != nil),
		zap.String("pg_dsn", redactDSN(cfg.PostgresDSN)),
		zap.String("metrics_listen", cfg.MetricsListen),
	)

	return runner.Run(ctx)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
