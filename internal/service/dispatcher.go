package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/devrev/compactcoord/internal/coordinatorerrors"
	"github.com/devrev/compactcoord/internal/metrics"
	"github.com/devrev/compactcoord/internal/model"
	"github.com/devrev/compactcoord/internal/store"
	"github.com/devrev/compactcoord/pkg/tserverpb"
)

// Dispatcher implements GetCompactionJob (spec.md 4.4): pick the
// highest-priority advertisement for a queue, reserve it against the
// owning tablet server, and hand it to a compactor.
type Dispatcher struct {
	index   *store.JobIndex
	running *store.RunningTable
	dialer  TabletServerDialer
	metrics *metrics.Metrics
	log     *zap.Logger

	rpcTimeout time.Duration
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(
	index *store.JobIndex,
	running *store.RunningTable,
	dialer TabletServerDialer,
	m *metrics.Metrics,
	rpcTimeout time.Duration,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		index:      index,
		running:    running,
		dialer:     dialer,
		metrics:    m,
		rpcTimeout: rpcTimeout,
		log:        log,
	}
}

// GetCompactionJob picks the highest-priority advertisement in queue,
// reserves it with the owning tablet server, and records it in the
// running table. It returns model.Job{} (Empty() true) if the queue is
// drained (spec.md 4.4.2a).
//
// JobIndex's mutex is never held across the outbound ReserveCompactionJob
// RPC (spec.md 5): PickHighest fully releases the lock before the RPC
// runs. If the reservation is refused (the tablet server raced the
// advertisement away), the loop retries with the next-highest candidate
// rather than giving up, which is the fairness/termination argument
// spec.md 4.4 calls for: each iteration strictly shrinks the index, so
// the loop terminates.
func (d *Dispatcher) GetCompactionJob(ctx context.Context, queue model.QueueName, compactorAddress string) (model.Job, error) {
	start := time.Now()
	for {
		priority, tsi, ok := d.index.PickHighest(queue)
		if !ok {
			d.metrics.RecordDispatch(string(queue), "empty", time.Since(start).Seconds())
			return model.Job{}, nil
		}

		job, err := d.reserve(ctx, tsi, queue, priority, compactorAddress)
		if err != nil {
			d.log.Warn("reservation failed, trying next candidate",
				zap.String("queue", string(queue)),
				zap.String("tserver", tsi.String()),
				zap.Error(err))
			continue
		}
		if job.Empty() {
			// Tablet server no longer has this work; move on.
			continue
		}

		rc := model.NewRunningCompaction(job, compactorAddress, tsi)
		if err := d.running.Insert(job.ExternalCompactionID, rc); err != nil {
			d.log.Error("duplicate external compaction id from tablet server",
				zap.String("id", job.ExternalCompactionID), zap.Error(err))
			continue
		}

		d.metrics.RecordDispatch(string(queue), "assigned", time.Since(start).Seconds())
		return job, nil
	}
}

func (d *Dispatcher) reserve(ctx context.Context, tsi model.TabletServerID, queue model.QueueName, priority model.Priority, compactorAddress string) (model.Job, error) {
	rpcCtx, cancel := context.WithTimeout(ctx, d.rpcTimeout)
	defer cancel()

	client, err := d.dialer.Dial(tsi)
	if err != nil {
		return model.Job{}, coordinatorerrors.TransientRPC(fmt.Sprintf("dial %s", tsi), err)
	}

	resp, err := client.ReserveCompactionJob(rpcCtx, &tserverpb.ReserveCompactionJobRequest{
		Queue:            string(queue),
		Priority:         int64(priority),
		CompactorAddress: compactorAddress,
	})
	if err != nil {
		return model.Job{}, coordinatorerrors.TransientRPC("ReserveCompactionJob", err)
	}
	if resp.ExternalCompactionID == "" {
		return model.Job{}, nil
	}
	if err := model.ValidateExternalCompactionID(resp.ExternalCompactionID); err != nil {
		return model.Job{}, coordinatorerrors.TransientRPC("ReserveCompactionJob returned malformed id", err)
	}

	return model.Job{
		ExternalCompactionID: resp.ExternalCompactionID,
		TabletExtent: model.TabletExtent{
			TableID: resp.TabletExtent.TableID,
			EndRow:  resp.TabletExtent.EndRow,
			PrevRow: resp.TabletExtent.PrevRow,
		},
		Files:            resp.Files,
		Queue:            queue,
		Priority:         priority,
		CompactorAddress: compactorAddress,
	}, nil
}
