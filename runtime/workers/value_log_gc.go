package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const gcDiscardRatio = 0.5

// ValueLogGCWorker reclaims badger value log space on a fixed period.
type ValueLogGCWorker struct {
	db     *badger.DB
	log    *slog.Logger
	period time.Duration
}

func NewValueLogGCWorker(db *badger.DB, log *slog.Logger, period time.Duration) *ValueLogGCWorker {
	return &ValueLogGCWorker{db: db, log: log, period: period}
}

func (w *ValueLogGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.collect(ctx); err != nil {
				return err
			}
		}
	}
}

// collect rewrites value log files until badger reports nothing left to reclaim.
func (w *ValueLogGCWorker) collect(ctx context.Context) error {
	rewritten := 0
	for ctx.Err() == nil {
		err := w.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return err
		}
		rewritten++
	}
	if rewritten > 0 {
		w.log.Info("Value log garbage collected", "files", rewritten)
	}
	return nil
}
