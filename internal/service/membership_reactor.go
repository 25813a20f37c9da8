package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/devrev/compactcoord/internal/membership"
	"github.com/devrev/compactcoord/internal/metrics"
	"github.com/devrev/compactcoord/internal/model"
	"github.com/devrev/compactcoord/internal/store"
)

// MembershipReactor consumes membership deltas and mutates JobIndex and
// RunningTable on a single goroutine, so no additional locking is needed
// around the eviction sequence (spec.md 4.6, 9's "channel or observer"
// design note).
type MembershipReactor struct {
	index     *store.JobIndex
	running   *store.RunningTable
	poller    *QueuePoller
	lifecycle *LifecycleHandlers
	metrics   *metrics.Metrics
	log       *zap.Logger
}

// NewMembershipReactor constructs a MembershipReactor.
func NewMembershipReactor(index *store.JobIndex, running *store.RunningTable, poller *QueuePoller, lifecycle *LifecycleHandlers, m *metrics.Metrics, log *zap.Logger) *MembershipReactor {
	return &MembershipReactor{index: index, running: running, poller: poller, lifecycle: lifecycle, metrics: m, log: log}
}

// Run consumes deltas from watcher until ctx is done or the channel
// closes.
func (r *MembershipReactor) Run(ctx context.Context, watcher membership.Watcher) error {
	deltas, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case delta, ok := <-deltas:
			if !ok {
				return nil
			}
			r.apply(ctx, delta)
		case <-ctx.Done():
			return nil
		}
	}
}

func (r *MembershipReactor) apply(ctx context.Context, delta membership.Delta) {
	r.poller.ApplyDelta(delta)
	r.metrics.SetTabletServersActive(len(delta.Current))

	for _, tsi := range delta.Removed {
		removed := r.index.RemoveTserver(tsi)
		if len(removed) > 0 {
			r.log.Info("removed departed tablet server advertisements",
				zap.String("tserver", tsi.String()), zap.Int("count", len(removed)))
		}

		r.evictRunning(ctx, tsi)
	}

	for _, tsi := range delta.Added {
		r.log.Info("tablet server joined membership", zap.String("tserver", tsi.String()))
	}
}

// evictRunning computes victims = RunningTable.byTserver(tsi) and issues a
// best-effort cancelCompaction for each (spec.md 4.6 step 3). Cancellation
// is fired off on its own goroutine per victim so a compactor that is slow
// to answer cancel doesn't stall this reactor's single-threaded delta loop;
// CancelCompaction's own retry policy and logging handle eventual failure.
func (r *MembershipReactor) evictRunning(ctx context.Context, tsi model.TabletServerID) {
	ids := r.running.ByTserver(tsi)
	if len(ids) == 0 {
		return
	}
	r.log.Warn("tablet server departed with running compactions still assigned",
		zap.String("tserver", tsi.String()), zap.Strings("external_compaction_ids", ids))

	for _, id := range ids {
		id := id
		go func() {
			if err := r.lifecycle.CancelCompaction(ctx, id); err != nil {
				r.log.Warn("cancel after tserver departure failed",
					zap.String("external_compaction_id", id), zap.Error(err))
			}
		}()
	}
}
