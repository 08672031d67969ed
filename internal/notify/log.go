package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes alerts to the log instead of an external channel.
// It stands in when no webhook is configured, so alerts still land
// somewhere visible.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, message string) error {
	l.logger.Warn("alert", zap.String("message", message))
	return nil
}
