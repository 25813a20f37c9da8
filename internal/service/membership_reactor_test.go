package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/devrev/compactcoord/internal/membership"
	"github.com/devrev/compactcoord/internal/metrics"
	"github.com/devrev/compactcoord/internal/model"
	"github.com/devrev/compactcoord/internal/store"
	"github.com/devrev/compactcoord/pkg/compactorpb"
)

// fakeWatcher is a directly-driven membership.Watcher for tests, avoiding
// a real ZooKeeper connection.
type fakeWatcher struct {
	ch chan membership.Delta
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{ch: make(chan membership.Delta, 4)}
}

func (w *fakeWatcher) Watch(ctx context.Context) (<-chan membership.Delta, error) {
	return w.ch, nil
}

func TestMembershipReactor_RemovesDepartedTserverFromIndex(t *testing.T) {
	index := store.NewJobIndex()
	running := store.NewRunningTable()
	dialer := new(MockTabletServerDialer)
	poller := NewQueuePoller(index, dialer, metrics.NewMetrics(), time.Hour, 4, time.Second, zap.NewNop())
	lifecycle, _, _, _ := newLifecycleFixture(new(MockOrphanSink), 3)
	r := NewMembershipReactor(index, running, poller, lifecycle, metrics.NewMetrics(), zap.NewNop())

	tsi := model.TabletServerID{Host: "ts1", Port: 9997}
	index.Add(tsi, "root", model.Priority(1))

	watcher := newFakeWatcher()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, watcher) }()

	watcher.ch <- membership.Delta{Removed: []model.TabletServerID{tsi}}
	time.Sleep(10 * time.Millisecond)

	_, _, ok := index.PickHighest(model.QueueName("root"))
	assert.False(t, ok)

	cancel()
	<-done
}

func TestMembershipReactor_StopsOnContextDone(t *testing.T) {
	index := store.NewJobIndex()
	running := store.NewRunningTable()
	dialer := new(MockTabletServerDialer)
	poller := NewQueuePoller(index, dialer, metrics.NewMetrics(), time.Hour, 4, time.Second, zap.NewNop())
	lifecycle, _, _, _ := newLifecycleFixture(new(MockOrphanSink), 3)
	r := NewMembershipReactor(index, running, poller, lifecycle, metrics.NewMetrics(), zap.NewNop())

	watcher := newFakeWatcher()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, watcher) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after ctx cancellation")
	}
}

func TestMembershipReactor_EvictRunningIssuesCancelForEachVictim(t *testing.T) {
	index := store.NewJobIndex()
	running := store.NewRunningTable()
	dialer := new(MockTabletServerDialer)
	poller := NewQueuePoller(index, dialer, metrics.NewMetrics(), time.Hour, 4, time.Second, zap.NewNop())

	tserverDial := new(MockTabletServerDialer)
	compactDial := new(MockCompactorDialer)
	lifecycle := NewLifecycleHandlers(running, tserverDial, compactDial, new(MockOrphanSink),
		metrics.NewMetrics(), 3, time.Millisecond, 5*time.Millisecond, zap.NewNop())
	r := NewMembershipReactor(index, running, poller, lifecycle, metrics.NewMetrics(), zap.NewNop())

	tsi := model.TabletServerID{Host: "ts1", Port: 9997}
	rc := model.NewRunningCompaction(model.Job{ExternalCompactionID: "id-1"}, "compactor:1", tsi)
	_ = running.Insert("id-1", rc)

	compactorClient := new(MockCompactorClient)
	compactDial.On("Dial", "compactor:1").Return(compactorClient, nil)
	compactorClient.On("Cancel", mock.Anything, &compactorpb.CancelRequest{ExternalCompactionID: "id-1"}).
		Return(&compactorpb.CancelResponse{}, nil)

	// evictRunning fires cancelCompaction on its own goroutine per victim
	// (spec.md 4.6 step 3); the entry itself is left for the normal
	// completion/removal paths to drain, so it should still be present
	// once the cancel RPC has landed.
	r.evictRunning(context.Background(), tsi)

	assert.Eventually(t, func() bool {
		return len(compactorClient.Calls) > 0
	}, time.Second, 5*time.Millisecond, "expected evictRunning to issue a Cancel RPC")

	_, ok := running.Get("id-1")
	assert.True(t, ok)
	compactorClient.AssertExpectations(t)
}
