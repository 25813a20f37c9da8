package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/devrev/compactcoord/internal/membership"
	"github.com/devrev/compactcoord/internal/metrics"
	"github.com/devrev/compactcoord/internal/model"
	"github.com/devrev/compactcoord/internal/store"
	"github.com/devrev/compactcoord/pkg/tserverpb"
)

// TabletServerDialer resolves a TabletServerID to a client the poller can
// call GetCompactionQueueInfo on. Implementations own connection pooling;
// spec.md section 1 places that pooling out of this package's scope.
type TabletServerDialer interface {
	Dial(tsi model.TabletServerID) (tserverpb.TabletServerClient, error)
}

// QueuePoller periodically fans out GetCompactionQueueInfo to every known
// tablet server and folds the results into a JobIndex (spec.md 4.3).
type QueuePoller struct {
	index   *store.JobIndex
	dialer  TabletServerDialer
	metrics *metrics.Metrics
	log     *zap.Logger

	interval    time.Duration
	concurrency int64
	rpcTimeout  time.Duration

	tservers map[model.TabletServerID]struct{}

	ticker *time.Ticker
	stopCh chan struct{}
}

// NewQueuePoller constructs a QueuePoller. Start must be called to begin
// polling.
func NewQueuePoller(
	index *store.JobIndex,
	dialer TabletServerDialer,
	m *metrics.Metrics,
	interval time.Duration,
	concurrency int,
	rpcTimeout time.Duration,
	log *zap.Logger,
) *QueuePoller {
	return &QueuePoller{
		index:       index,
		dialer:      dialer,
		metrics:     m,
		log:         log,
		interval:    interval,
		concurrency: int64(concurrency),
		rpcTimeout:  rpcTimeout,
		tservers:    make(map[model.TabletServerID]struct{}),
		ticker:      time.NewTicker(interval),
		stopCh:      make(chan struct{}),
	}
}

// Start runs the poll loop in a goroutine.
func (p *QueuePoller) Start(ctx context.Context) {
	go p.run(ctx)
}

// Stop halts the poll loop.
func (p *QueuePoller) Stop() {
	close(p.stopCh)
	p.ticker.Stop()
}

// ApplyDelta updates the set of tablet servers this poller fans out to
// (fed by MembershipReactor).
func (p *QueuePoller) ApplyDelta(delta membership.Delta) {
	next := make(map[model.TabletServerID]struct{}, len(delta.Current))
	for _, tsi := range delta.Current {
		next[tsi] = struct{}{}
	}
	p.tservers = next
}

func (p *QueuePoller) run(ctx context.Context) {
	if err := p.pollOnce(ctx); err != nil {
		p.log.Error("initial poll cycle failed", zap.Error(err))
	}

	for {
		select {
		case <-p.ticker.C:
			if err := p.pollOnce(ctx); err != nil {
				p.log.Error("poll cycle failed", zap.Error(err))
			}
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// pollOnce fans out GetCompactionQueueInfo to every known tablet server
// with bounded concurrency (spec.md 4.3).
func (p *QueuePoller) pollOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		p.metrics.RecordPollCycle(time.Since(start).Seconds())
	}()

	sem := semaphore.NewWeighted(p.concurrency)
	for tsi := range p.tservers {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		go func(tsi model.TabletServerID) {
			defer sem.Release(1)
			p.pollOne(ctx, tsi)
		}(tsi)
	}

	// Wait for all in-flight polls to finish this cycle by acquiring the
	// full weight back.
	if err := sem.Acquire(ctx, p.concurrency); err != nil {
		return err
	}
	sem.Release(p.concurrency)
	return nil
}

func (p *QueuePoller) pollOne(ctx context.Context, tsi model.TabletServerID) {
	rpcCtx, cancel := context.WithTimeout(ctx, p.rpcTimeout)
	defer cancel()

	client, err := p.dialer.Dial(tsi)
	if err != nil {
		p.log.Warn("failed to dial tablet server", zap.String("tserver", tsi.String()), zap.Error(err))
		p.metrics.RecordPollRPCFailure(tsi.String())
		return
	}

	resp, err := client.GetCompactionQueueInfo(rpcCtx, &tserverpb.GetCompactionQueueInfoRequest{})
	if err != nil {
		p.log.Warn("GetCompactionQueueInfo failed", zap.String("tserver", tsi.String()), zap.Error(err))
		p.metrics.RecordPollRPCFailure(tsi.String())
		return
	}

	for _, q := range resp.Queues {
		p.index.Add(tsi, q.Queue, model.Priority(q.Priority))
	}
}
