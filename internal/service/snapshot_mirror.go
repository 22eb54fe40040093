package service

import (
	"context"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/livestatus"
	"go.uber.org/zap"
)

// Publisher is the poller's change feed.
type Publisher interface {
	State() livestatus.State
	Subscribe() (<-chan livestatus.State, func())
}

// SnapshotStore persists published state (Redis in production).
type SnapshotStore interface {
	Save(ctx context.Context, st livestatus.State) error
}

// StartSnapshotMirror copies every published state into store until ctx is
// done or the publisher closes. Save failures are logged and never retried;
// the next change carries the full state anyway.
func StartSnapshotMirror(ctx context.Context, log *zap.Logger, pub Publisher, store SnapshotStore, timeout time.Duration) {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	log = log.Named("snapshot_mirror")

	updates, unsubscribe := pub.Subscribe()

	go func() {
		defer unsubscribe()

		failing := false
		save := func(st livestatus.State) {
			sctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			err := store.Save(sctx, st)
			switch {
			case err != nil && !failing:
				log.Warn("mirror save failed", zap.Error(err))
			case err != nil:
				log.Debug("mirror save failed", zap.Error(err))
			case failing:
				log.Info("mirror save recovered", zap.Uint64("version", st.Version))
			}
			failing = err != nil
		}

		save(pub.State())
		for {
			select {
			case <-ctx.Done():
				return
			case st, ok := <-updates:
				if !ok {
					return
				}
				save(st)
			}
		}
	}()
}
