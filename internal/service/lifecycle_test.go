package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/devrev/compactcoord/internal/coordinatorerrors"
	"github.com/devrev/compactcoord/internal/metrics"
	"github.com/devrev/compactcoord/internal/model"
	"github.com/devrev/compactcoord/internal/store"
	"github.com/devrev/compactcoord/pkg/compactorpb"
	"github.com/devrev/compactcoord/pkg/tserverpb"
)

// MockCompactorDialer is a mock implementation of CompactorDialer.
type MockCompactorDialer struct {
	mock.Mock
}

func (m *MockCompactorDialer) Dial(address string) (compactorpb.CompactorClient, error) {
	args := m.Called(address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(compactorpb.CompactorClient), args.Error(1)
}

// MockCompactorClient is a mock implementation of compactorpb.CompactorClient.
type MockCompactorClient struct {
	mock.Mock
}

func (m *MockCompactorClient) Cancel(ctx context.Context, req *compactorpb.CancelRequest, opts ...grpc.CallOption) (*compactorpb.CancelResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compactorpb.CancelResponse), args.Error(1)
}

// MockOrphanSink is a mock implementation of OrphanSink.
type MockOrphanSink struct {
	mock.Mock
}

func (m *MockOrphanSink) Orphaned(ctx context.Context, id string, job model.Job, stats model.CompactionStats, cause error) {
	m.Called(ctx, id, job, stats, cause)
}

func newLifecycleFixture(orphan OrphanSink, completionBudget int) (*LifecycleHandlers, *store.RunningTable, *MockTabletServerDialer, *MockCompactorDialer) {
	running := store.NewRunningTable()
	tserverDial := new(MockTabletServerDialer)
	compactDial := new(MockCompactorDialer)
	h := NewLifecycleHandlers(running, tserverDial, compactDial, orphan, metrics.NewMetrics(),
		completionBudget, time.Millisecond, 5*time.Millisecond, zap.NewNop())
	return h, running, tserverDial, compactDial
}

func insertRunning(running *store.RunningTable, id string, tsi model.TabletServerID, compactorAddr string) *model.RunningCompaction {
	rc := model.NewRunningCompaction(model.Job{ExternalCompactionID: id, Queue: "root"}, compactorAddr, tsi)
	_ = running.Insert(id, rc)
	return rc
}

func TestLifecycle_UpdateCompactionStatus_UnknownID(t *testing.T) {
	h, _, _, _ := newLifecycleFixture(new(MockOrphanSink), 3)

	err := h.UpdateCompactionStatus(context.Background(), uuid.New().String(), model.StateStarted, "", time.Now())

	assert.True(t, coordinatorerrors.IsUnknownCompactionID(err))
}

func TestLifecycle_UpdateCompactionStatus_AppendsUpdate(t *testing.T) {
	h, running, _, _ := newLifecycleFixture(new(MockOrphanSink), 3)
	id := uuid.New().String()
	insertRunning(running, id, model.TabletServerID{Host: "ts1", Port: 9997}, "compactor:1")

	err := h.UpdateCompactionStatus(context.Background(), id, model.StateStarted, "started", time.Now())
	assert.NoError(t, err)

	state, updates, err := h.GetCompactionStatus(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, model.StateStarted, state)
	assert.Len(t, updates, 1)
}

func TestLifecycle_CompactionCompleted_SucceedsFirstCommit(t *testing.T) {
	h, running, tserverDial, _ := newLifecycleFixture(new(MockOrphanSink), 3)
	id := uuid.New().String()
	tsi := model.TabletServerID{Host: "ts1", Port: 9997}
	insertRunning(running, id, tsi, "compactor:1")

	client := new(MockTabletServerClient)
	tserverDial.On("Dial", tsi).Return(client, nil)
	client.On("CompactionJobFinished", mock.Anything, mock.Anything).
		Return(&tserverpb.CompactionJobFinishedResponse{}, nil)

	stats := model.CompactionStats{FileSize: 100, EntriesWritten: 5}
	err := h.CompactionCompleted(context.Background(), id, stats, false, "")

	assert.NoError(t, err)
	_, ok := running.Get(id)
	assert.False(t, ok, "completed compaction must be removed from the running table")
}

func TestLifecycle_CompactionCompleted_UnknownID(t *testing.T) {
	h, _, _, _ := newLifecycleFixture(new(MockOrphanSink), 3)

	err := h.CompactionCompleted(context.Background(), uuid.New().String(), model.CompactionStats{}, false, "")

	assert.True(t, coordinatorerrors.IsUnknownCompactionID(err))
}

func TestLifecycle_CompactionCompleted_OrphansAfterRetryExhaustion(t *testing.T) {
	orphan := new(MockOrphanSink)
	h, running, tserverDial, _ := newLifecycleFixture(orphan, 2)
	id := uuid.New().String()
	tsi := model.TabletServerID{Host: "ts1", Port: 9997}
	insertRunning(running, id, tsi, "compactor:1")

	client := new(MockTabletServerClient)
	tserverDial.On("Dial", tsi).Return(client, nil)
	client.On("CompactionJobFinished", mock.Anything, mock.Anything).
		Return(nil, errors.New("tserver unreachable"))

	orphan.On("Orphaned", mock.Anything, id, mock.Anything, mock.Anything, mock.Anything).Return()

	err := h.CompactionCompleted(context.Background(), id, model.CompactionStats{}, false, "")

	assert.NoError(t, err, "CompactionCompleted itself does not surface commit failure to the caller")
	rc, ok := running.Get(id)
	assert.True(t, ok, "entry must remain in the running table after retry exhaustion so a later IsCompactionCompleted poll can still recover stats")
	assert.True(t, rc.IsCompleted())
	orphan.AssertExpectations(t)
}

func TestLifecycle_IsCompactionCompleted_UnknownID(t *testing.T) {
	h, _, _, _ := newLifecycleFixture(new(MockOrphanSink), 3)

	_, _, err := h.IsCompactionCompleted(context.Background(), uuid.New().String())

	assert.True(t, coordinatorerrors.IsUnknownCompactionID(err))
}

func TestLifecycle_IsCompactionCompleted_NotYetCompletedLeavesEntry(t *testing.T) {
	h, running, _, _ := newLifecycleFixture(new(MockOrphanSink), 3)
	id := uuid.New().String()
	insertRunning(running, id, model.TabletServerID{Host: "ts1", Port: 9997}, "compactor:1")

	completed, _, err := h.IsCompactionCompleted(context.Background(), id)

	assert.NoError(t, err)
	assert.False(t, completed)
	_, ok := running.Get(id)
	assert.True(t, ok)
}

func TestLifecycle_IsCompactionCompleted_RemovesEntryOnceCompleted(t *testing.T) {
	h, running, _, _ := newLifecycleFixture(new(MockOrphanSink), 3)
	id := uuid.New().String()
	tsi := model.TabletServerID{Host: "ts1", Port: 9997}
	rc := insertRunning(running, id, tsi, "compactor:1")

	// A successful CompactionCompleted commit removes the entry itself, so
	// the completed-but-present state is set up directly here.
	stats := model.CompactionStats{FileSize: 42, EntriesWritten: 7}
	rc.SetStats(stats)
	rc.SetCompleted()
	assert.True(t, rc.IsCompleted())

	completed, gotStats, err := h.IsCompactionCompleted(context.Background(), id)
	assert.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, stats, gotStats)

	_, ok := running.Get(id)
	assert.False(t, ok, "IsCompactionCompleted must atomically remove a completed entry")
}

func TestLifecycle_IsCompactionCompleted_RecoversStatsAfterRetryExhaustion(t *testing.T) {
	orphan := new(MockOrphanSink)
	h, running, tserverDial, _ := newLifecycleFixture(orphan, 2)
	id := uuid.New().String()
	tsi := model.TabletServerID{Host: "ts1", Port: 9997}
	insertRunning(running, id, tsi, "compactor:1")

	client := new(MockTabletServerClient)
	tserverDial.On("Dial", tsi).Return(client, nil)
	client.On("CompactionJobFinished", mock.Anything, mock.Anything).
		Return(nil, errors.New("tserver unreachable"))
	orphan.On("Orphaned", mock.Anything, id, mock.Anything, mock.Anything, mock.Anything).Return()

	stats := model.CompactionStats{FileSize: 9, EntriesWritten: 1}
	assert.NoError(t, h.CompactionCompleted(context.Background(), id, stats, false, ""))

	completed, gotStats, err := h.IsCompactionCompleted(context.Background(), id)
	assert.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, stats, gotStats)

	_, ok := running.Get(id)
	assert.False(t, ok, "the poll that finally observes completion still drains the entry")
}

func TestLifecycle_CancelCompaction_UnknownIDIsNoOp(t *testing.T) {
	h, _, _, _ := newLifecycleFixture(new(MockOrphanSink), 3)

	err := h.CancelCompaction(context.Background(), uuid.New().String())

	assert.NoError(t, err)
}

func TestLifecycle_CancelCompaction_AlreadyCompletedIsNoOp(t *testing.T) {
	// An entry left in the running table after retry exhaustion (spec.md
	// 8 scenario S6) is completed but still present awaiting a later
	// IsCompactionCompleted poll; cancelling it must not touch the
	// compactor or the entry's status history.
	orphan := new(MockOrphanSink)
	h, running, tserverDial, compactDial := newLifecycleFixture(orphan, 2)
	id := uuid.New().String()
	tsi := model.TabletServerID{Host: "ts1", Port: 9997}
	insertRunning(running, id, tsi, "compactor:1")

	client := new(MockTabletServerClient)
	tserverDial.On("Dial", tsi).Return(client, nil)
	client.On("CompactionJobFinished", mock.Anything, mock.Anything).
		Return(nil, errors.New("tserver unreachable"))
	orphan.On("Orphaned", mock.Anything, id, mock.Anything, mock.Anything, mock.Anything).Return()

	assert.NoError(t, h.CompactionCompleted(context.Background(), id, model.CompactionStats{}, false, ""))

	err := h.CancelCompaction(context.Background(), id)
	assert.NoError(t, err)

	compactDial.AssertNotCalled(t, "Dial", mock.Anything)
	_, updates, _ := h.GetCompactionStatus(context.Background(), id)
	assert.Empty(t, updates, "cancelling an already-completed entry must not append a status update")
}

func TestLifecycle_CancelCompaction_Success(t *testing.T) {
	h, running, _, compactDial := newLifecycleFixture(new(MockOrphanSink), 3)
	id := uuid.New().String()
	tsi := model.TabletServerID{Host: "ts1", Port: 9997}
	insertRunning(running, id, tsi, "compactor:1")

	client := new(MockCompactorClient)
	compactDial.On("Dial", "compactor:1").Return(client, nil)
	client.On("Cancel", mock.Anything, &compactorpb.CancelRequest{ExternalCompactionID: id}).
		Return(&compactorpb.CancelResponse{}, nil)

	err := h.CancelCompaction(context.Background(), id)
	assert.NoError(t, err)

	_, updates, _ := h.GetCompactionStatus(context.Background(), id)
	assert.Equal(t, model.StateCancelled, updates[len(updates)-1].State)
}
