package workers

import (
	"context"
	"log/slog"
	"social-chat/contract"
	"time"
)

// saturationPercent is the fill ratio from which a session backlog is reported.
const saturationPercent = 80

type BacklogSource interface {
	Backlogs() []contract.Backlog
}

// ChannelCapacityWorker periodically samples the outbound queues of live sessions
// and warns about the ones close to full. A full queue makes the registry
// drop events for that session after the sink timeout.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	source         BacklogSource
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger, source BacklogSource, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{log: log, source: source, metricInterval: metricInterval}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping backlog sampling")
			return ctx.Err()
		case <-ticker.C:
			w.sample()
		}
	}
}

// sample returns the number of saturated sessions seen in one pass.
func (w *ChannelCapacityWorker) sample() int {
	backlogs := w.source.Backlogs()
	saturated, queued := 0, 0
	for _, b := range backlogs {
		queued += b.Length
		if Saturated(b) {
			saturated++
			w.log.Warn("Session backlog near capacity", "group", b.Group, "length", b.Length, "capacity", b.Capacity)
		}
	}
	w.log.Debug("Session backlogs sampled", "sessions", len(backlogs), "queued", queued, "saturated", saturated)
	return saturated
}

func Saturated(b contract.Backlog) bool {
	if b.Capacity <= 0 {
		return false
	}
	return b.Length*100 >= b.Capacity*saturationPercent
}
