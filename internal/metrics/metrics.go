package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll cycle metrics.

var (
	CyclesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "poolwatch",
		Subsystem: "poll",
		Name:      "cycles_total",
		Help:      "Total number of completed polling cycles.",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "poolwatch",
		Subsystem: "poll",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of one polling cycle in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	})

	PoolReadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolwatch",
		Subsystem: "poll",
		Name:      "pool_read_errors_total",
		Help:      "Pools skipped in a cycle because reserves or prices were unavailable.",
	}, []string{"pool"})

	PoolTVL = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "poolwatch",
		Subsystem: "poll",
		Name:      "pool_tvl_usd",
		Help:      "Last computed TVL per pool in USD.",
	}, []string{"pool"})
)

// Price resolution metrics.

var (
	PriceCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "poolwatch",
		Subsystem: "price",
		Name:      "cache_hits_total",
		Help:      "Price lookups answered from the cache.",
	})

	PriceCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "poolwatch",
		Subsystem: "price",
		Name:      "cache_misses_total",
		Help:      "Price lookups that had to go to a feed.",
	})

	PricesResolved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolwatch",
		Subsystem: "price",
		Name:      "resolved_total",
		Help:      "Prices resolved per feed.",
	}, []string{"feed"})

	FeedErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolwatch",
		Subsystem: "price",
		Name:      "feed_errors_total",
		Help:      "Feed fetch failures.",
	}, []string{"feed"})
)

// Alert metrics.

var (
	AlertsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poolwatch",
		Subsystem: "alerts",
		Name:      "fired_total",
		Help:      "Alerts fired by the change detector.",
	}, []string{"severity"})

	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "poolwatch",
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Alerts successfully delivered to the notifier.",
	})

	AlertsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "poolwatch",
		Subsystem: "alerts",
		Name:      "failed_total",
		Help:      "Alert deliveries that failed.",
	})

	AlertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "poolwatch",
		Subsystem: "alerts",
		Name:      "suppressed_total",
		Help:      "Alerts suppressed by the cooldown guard.",
	})
)
