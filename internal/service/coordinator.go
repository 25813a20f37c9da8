// Package service implements the coordinator's dispatch engine: JobIndex
// polling, job dispatch, RPC-backed lifecycle handling, and membership
// reaction, all owned by a single Coordinator instance rather than package
// globals (spec.md 9's redesign note).
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/devrev/compactcoord/internal/membership"
	"github.com/devrev/compactcoord/internal/metrics"
	"github.com/devrev/compactcoord/internal/store"
)

// Coordinator owns the dispatch engine's state and wires its components
// together. cmd/coordinator/main.go constructs exactly one Coordinator per
// process, guarded from running concurrently with another by the leader
// lock.
type Coordinator struct {
	Index      *store.JobIndex
	Running    *store.RunningTable
	Poller     *QueuePoller
	Dispatcher *Dispatcher
	Lifecycle  *LifecycleHandlers
	Reactor    *MembershipReactor
}

// Config bundles the tunables New needs, mirroring internal/config's Poll
// and Retry sections.
type Config struct {
	PollInterval     time.Duration
	PollConcurrency  int
	PollRPCTimeout   time.Duration
	CompletionBudget int
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
}

// New constructs a Coordinator with fresh JobIndex/RunningTable and all
// dependent services wired.
func New(cfg Config, tserverDial TabletServerDialer, compactDial CompactorDialer, orphan OrphanSink, m *metrics.Metrics, log *zap.Logger) *Coordinator {
	index := store.NewJobIndex()
	running := store.NewRunningTable()

	poller := NewQueuePoller(index, tserverDial, m, cfg.PollInterval, cfg.PollConcurrency, cfg.PollRPCTimeout, log)
	dispatcher := NewDispatcher(index, running, tserverDial, m, cfg.PollRPCTimeout, log)
	lifecycle := NewLifecycleHandlers(running, tserverDial, compactDial, orphan, m, cfg.CompletionBudget, cfg.InitialBackoff, cfg.MaxBackoff, log)
	reactor := NewMembershipReactor(index, running, poller, lifecycle, m, log)

	return &Coordinator{
		Index:      index,
		Running:    running,
		Poller:     poller,
		Dispatcher: dispatcher,
		Lifecycle:  lifecycle,
		Reactor:    reactor,
	}
}

// Start begins polling and then runs membership reaction on the calling
// goroutine. It returns an error if the membership watch fails to start,
// and nil once ctx is done or the delta channel closes; polling continues
// in the background until ctx is done or Stop is called.
func (c *Coordinator) Start(ctx context.Context, watcher membership.Watcher) error {
	c.Poller.Start(ctx)
	return c.Reactor.Run(ctx, watcher)
}

// Stop halts polling.
func (c *Coordinator) Stop() {
	c.Poller.Stop()
}
