package watcher

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Run polls every interval until ctx is cancelled, then saves state one last time.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.log.Info("demo trading started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("demo trading stopping, saving state")
			// ctx is already cancelled; the final save must still run.
			return w.Save(context.WithoutCancel(ctx))
		case <-ticker.C:
			trade, err := w.Poll(ctx)
			if err != nil {
				w.log.Error("poll failed", zap.Error(err))
				continue
			}
			if trade != nil {
				w.log.Info("demo trade", zap.String("summary", FormatTrade(*trade)))
			}
		}
	}
}
