package workers

import (
	"context"
	"log/slog"
	"social-chat/observability"
	"time"
)

// HeartbeatWorker periodically logs a snapshot of the process and registry health.
type HeartbeatWorker struct {
	log        *slog.Logger
	monitoring *observability.MonitoringManager
	period     time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, monitoring *observability.MonitoringManager, period time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, monitoring: monitoring, period: period}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting heartbeat worker", "period", w.period)
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s := w.monitoring.Snapshot()
			w.log.Info("Heartbeat",
				"groups", s.Groups,
				"connections", s.Connections,
				"messages_stored", s.MessagesStored,
				"messages_dropped", s.MessagesDropped,
				"notices_published", s.NoticesPublished,
				"rss_bytes", s.RSSBytes,
				"cpu_percent", s.CPUPercent,
				"goroutines", s.Goroutines,
			)
		}
	}
}
