package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"poolWatch/internal/metrics"
)

// DefaultDispatchTimeout bounds one delivery attempt, retries included.
const DefaultDispatchTimeout = 15 * time.Second

// Notifier delivers one rendered alert message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// CooldownGuard suppresses repeat alerts for a key inside a cooldown
// window. Implementations decide how to behave when their backing
// store is unreachable.
type CooldownGuard interface {
	Suppressed(ctx context.Context, key string) bool
	MarkSent(ctx context.Context, key string)
}

// Dispatcher sends alerts without blocking the poll cycle. Each
// dispatch runs in its own goroutine under its own deadline, so a slow
// or failing webhook delays nothing. Wait drains in-flight sends at
// shutdown.
type Dispatcher struct {
	notifier Notifier
	guard    CooldownGuard
	timeout  time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// NewDispatcher wires a notifier with an optional cooldown guard. A
// nil guard disables suppression.
func NewDispatcher(notifier Notifier, guard CooldownGuard, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		notifier: notifier,
		guard:    guard,
		timeout:  timeout,
		logger:   logger,
	}
}

// Dispatch queues one message for delivery and returns immediately.
// The send runs under its own context, so a cycle finishing does not
// cancel its own alerts; delivery failures are logged and counted,
// never propagated.
func (d *Dispatcher) Dispatch(key, message string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if d.guard != nil && d.guard.Suppressed(ctx, key) {
			metrics.AlertsSuppressed.Inc()
			d.logger.Debug("alert suppressed by cooldown", zap.String("key", key))
			return
		}

		if err := d.notifier.Notify(ctx, message); err != nil {
			metrics.AlertsFailed.Inc()
			d.logger.Warn("alert delivery failed", zap.String("key", key), zap.Error(err))
			return
		}
		metrics.AlertsSent.Inc()

		if d.guard != nil {
			d.guard.MarkSent(ctx, key)
		}
	}()
}

// Wait blocks until every queued send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
