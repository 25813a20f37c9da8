package model

import (
	"sync"
	"time"
)

// StatusUpdate is one entry in a RunningCompaction's status log, appended
// in arrival order (the timestamp field is informational, not the sort
// key).
type StatusUpdate struct {
	Timestamp time.Time
	State     CompactionState
	Message   string
}

// RunningCompaction tracks one in-flight external compaction from the
// moment Dispatcher reserves it until it drains out of the RunningTable.
// All mutation goes through its methods, which serialize access with a
// per-instance mutex (spec.md 4.2: "per-entry lock or equivalent").
type RunningCompaction struct {
	mu sync.Mutex

	Job              Job
	CompactorAddress string
	Tserver          TabletServerID

	updates   []StatusUpdate
	stats     CompactionStats
	completed bool
}

// NewRunningCompaction constructs a RunningCompaction in its initial
// RESERVED state (spec.md 3's state machine).
func NewRunningCompaction(job Job, compactorAddress string, tserver TabletServerID) *RunningCompaction {
	return &RunningCompaction{
		Job:              job,
		CompactorAddress: compactorAddress,
		Tserver:          tserver,
	}
}

// AddUpdate appends a status update in arrival order.
func (rc *RunningCompaction) AddUpdate(ts time.Time, state CompactionState, message string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.updates = append(rc.updates, StatusUpdate{Timestamp: ts, State: state, Message: message})
}

// Updates returns a snapshot copy of the status log.
func (rc *RunningCompaction) Updates() []StatusUpdate {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]StatusUpdate, len(rc.updates))
	copy(out, rc.updates)
	return out
}

// SetStats records the final counters reported on completion.
func (rc *RunningCompaction) SetStats(stats CompactionStats) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.stats = stats
}

// Stats returns a snapshot of the recorded stats.
func (rc *RunningCompaction) Stats() CompactionStats {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.stats
}

// SetCompleted marks the compaction COMPLETED.
func (rc *RunningCompaction) SetCompleted() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.completed = true
}

// IsCompleted reports whether compactionCompleted has been recorded.
func (rc *RunningCompaction) IsCompleted() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.completed
}
