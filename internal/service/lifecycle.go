package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/devrev/compactcoord/internal/coordinatorerrors"
	"github.com/devrev/compactcoord/internal/metrics"
	"github.com/devrev/compactcoord/internal/model"
	"github.com/devrev/compactcoord/internal/rpcretry"
	"github.com/devrev/compactcoord/internal/store"
	"github.com/devrev/compactcoord/pkg/compactorpb"
	"github.com/devrev/compactcoord/pkg/tserverpb"
)

// CompactorDialer resolves a compactor address to a client the lifecycle
// handlers can call Cancel on.
type CompactorDialer interface {
	Dial(address string) (compactorpb.CompactorClient, error)
}

// LifecycleHandlers backs the five RPC operations of spec.md 4.5: the
// status-update, completion and cancellation surface a compactor and
// tablet server drive a running compaction through.
type LifecycleHandlers struct {
	running     *store.RunningTable
	tserverDial TabletServerDialer
	compactDial CompactorDialer
	orphan      OrphanSink
	metrics     *metrics.Metrics
	log         *zap.Logger

	completionBudget int
	initialBackoff   time.Duration
	maxBackoff       time.Duration
}

// NewLifecycleHandlers constructs a LifecycleHandlers.
func NewLifecycleHandlers(
	running *store.RunningTable,
	tserverDial TabletServerDialer,
	compactDial CompactorDialer,
	orphan OrphanSink,
	m *metrics.Metrics,
	completionBudget int,
	initialBackoff, maxBackoff time.Duration,
	log *zap.Logger,
) *LifecycleHandlers {
	return &LifecycleHandlers{
		running:          running,
		tserverDial:      tserverDial,
		compactDial:      compactDial,
		orphan:           orphan,
		metrics:          m,
		completionBudget: completionBudget,
		initialBackoff:   initialBackoff,
		maxBackoff:       maxBackoff,
		log:              log,
	}
}

// UpdateCompactionStatus appends a status update to the running
// compaction's log, or returns ErrCodeUnknownCompactionID if it has already
// drained out of the running table.
func (h *LifecycleHandlers) UpdateCompactionStatus(ctx context.Context, id string, state model.CompactionState, message string, ts time.Time) error {
	rc, ok := h.running.Get(id)
	if !ok {
		return coordinatorerrors.UnknownCompactionID(id)
	}
	rc.AddUpdate(ts, state, message)
	return nil
}

// GetCompactionStatus returns the latest state and full status log for a
// running compaction. Callers treat ErrCodeUnknownCompactionID as an
// idempotent "nothing to report" rather than an error (spec.md 7).
func (h *LifecycleHandlers) GetCompactionStatus(ctx context.Context, id string) (model.CompactionState, []model.StatusUpdate, error) {
	rc, ok := h.running.Get(id)
	if !ok {
		return 0, nil, coordinatorerrors.UnknownCompactionID(id)
	}
	updates := rc.Updates()
	state := model.StateAssigned
	if len(updates) > 0 {
		state = updates[len(updates)-1].State
	}
	return state, updates, nil
}

// IsCompactionCompleted reports whether a compaction has finished, and its
// stats if so. A completed entry is atomically removed from the running
// table on this call (spec.md 4.5). An entry whose tablet-server commit
// succeeded was already removed by CompactionCompleted, so polling it
// returns ErrCodeUnknownCompactionID.
func (h *LifecycleHandlers) IsCompactionCompleted(ctx context.Context, id string) (bool, model.CompactionStats, error) {
	rc, ok := h.running.Get(id)
	if !ok {
		return false, model.CompactionStats{}, coordinatorerrors.UnknownCompactionID(id)
	}
	completed := rc.IsCompleted()
	stats := rc.Stats()
	if completed {
		h.running.RemoveIf(id, rc)
	}
	return completed, stats, nil
}

// CompactionCompleted records terminal success or failure for id, commits
// the outcome to the owning tablet server with up to N_complete_retries
// attempts, and hands the entry to OrphanSink if every attempt fails. The
// entry is removed from the running table only once the commit succeeds;
// on retry exhaustion it is left in place (marked completed) so a later
// IsCompactionCompleted poll can still recover its stats.
func (h *LifecycleHandlers) CompactionCompleted(ctx context.Context, id string, stats model.CompactionStats, failed bool, failureMessage string) error {
	rc, ok := h.running.Get(id)
	if !ok {
		return coordinatorerrors.UnknownCompactionID(id)
	}

	rc.SetStats(stats)
	rc.SetCompleted()

	result := "succeeded"
	if failed {
		result = "failed"
	}
	h.metrics.RecordCompletion(result)

	err := rpcretry.Do(ctx, h.initialBackoff, h.maxBackoff, h.completionBudget, func(ctx context.Context) error {
		h.metrics.RecordRetryAttempt("compaction_completed")
		return h.commitToTserver(ctx, rc, failed, stats)
	})
	if err != nil {
		h.orphan.Orphaned(ctx, id, rc.Job, stats, err)
		h.metrics.RecordOrphan()
		return nil
	}

	h.running.RemoveIf(id, rc)
	return nil
}

func (h *LifecycleHandlers) commitToTserver(ctx context.Context, rc *model.RunningCompaction, failed bool, stats model.CompactionStats) error {
	client, err := h.tserverDial.Dial(rc.Tserver)
	if err != nil {
		return coordinatorerrors.TransientRPC("dial tablet server for completion", err)
	}
	_, err = client.CompactionJobFinished(ctx, &tserverpb.CompactionJobFinishedRequest{
		ExternalCompactionID: rc.Job.ExternalCompactionID,
		Succeeded:            !failed,
		FileSize:             stats.FileSize,
		EntriesWritten:       stats.EntriesWritten,
	})
	if err != nil {
		return coordinatorerrors.TransientRPC("CompactionJobFinished", err)
	}
	return nil
}

// CancelCompaction asks the compactor running id to abandon its work. It
// retries with short backoff and no attempt-count limit beyond the max
// backoff-bounded time budget (spec.md 9), and swallows
// ErrCodeUnknownCompactionID at the boundary since cancellation of an already
// finished job is a no-op, not a failure (spec.md 7). If the entry is
// already completed and merely awaiting removal, the RPC is skipped
// entirely so a finished job's status history isn't overwritten with a
// spurious cancellation (spec.md 4.5).
func (h *LifecycleHandlers) CancelCompaction(ctx context.Context, id string) error {
	rc, ok := h.running.Get(id)
	if !ok || rc.IsCompleted() {
		return nil
	}

	err := rpcretry.Do(ctx, h.initialBackoff, h.maxBackoff, 0, func(ctx context.Context) error {
		h.metrics.RecordRetryAttempt("cancel_compaction")
		client, err := h.compactDial.Dial(rc.CompactorAddress)
		if err != nil {
			return coordinatorerrors.TransientRPC("dial compactor", err)
		}
		_, err = client.Cancel(ctx, &compactorpb.CancelRequest{ExternalCompactionID: id})
		if err != nil {
			return coordinatorerrors.TransientRPC("Cancel", err)
		}
		return nil
	})
	if err != nil {
		h.log.Warn("cancel compaction failed after retries",
			zap.String("external_compaction_id", id), zap.Error(err))
		return err
	}

	rc.AddUpdate(time.Now(), model.StateCancelled, "cancelled by coordinator")
	return nil
}
