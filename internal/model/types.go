// Package model holds the data types shared across the compaction
// coordinator: queue/priority keys, tablet server identity, job
// descriptors and compaction status.
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// QueueName is an interned queue identifier. Interning happens in
// store.JobIndex so that identical queue names compare by value cheaply;
// the type itself carries no interning behavior.
type QueueName string

// Priority orders work within a queue. Larger values are more urgent.
type Priority int64

// QueueAndPriority is a value-typed pair used as a map key in JobIndex's
// reverse index.
type QueueAndPriority struct {
	Queue    QueueName
	Priority Priority
}

// TabletServerID is the opaque identity of a live tablet server. Equality
// is by all three fields and is stable for the lifetime of one tablet
// server session.
type TabletServerID struct {
	Host    string
	Port    int
	Session string
}

func (t TabletServerID) String() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// TabletExtent identifies the tablet a job's files belong to.
type TabletExtent struct {
	TableID  string
	EndRow   string
	PrevRow  string
}

// Job is the opaque descriptor a tablet server returns when it reserves a
// compaction for a compactor. A zero-value Job (empty ExternalCompactionID)
// is the sentinel meaning "no work available" (spec.md 4.4.2a).
type Job struct {
	ExternalCompactionID string
	TabletExtent         TabletExtent
	Files                []string
	Queue                QueueName
	Priority             Priority
	CompactorAddress     string
}

// Empty reports whether this is the "no job" sentinel.
func (j Job) Empty() bool {
	return j.ExternalCompactionID == ""
}

// ValidateExternalCompactionID reports whether id parses as a UUID, the
// handle form a tablet server is expected to mint one of (the original's
// ExternalCompactionId.of canonicalizes and validates the same way).
func ValidateExternalCompactionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid external compaction id %q: %w", id, err)
	}
	return nil
}

// CompactionState is the lifecycle state a compactor reports for a running
// external compaction.
type CompactionState int

const (
	// StateAssigned is the state a job is in the instant Dispatcher
	// reserves it, before any status update has arrived from the compactor.
	StateAssigned CompactionState = iota
	StateStarted
	StateInProgress
	StateSucceeded
	StateFailed
	StateCancelled
)

func (s CompactionState) String() string {
	switch s {
	case StateAssigned:
		return "ASSIGNED"
	case StateStarted:
		return "STARTED"
	case StateInProgress:
		return "IN_PROGRESS"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateFailed:
		return "FAILED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// CompactionStats carries the final counters a compactor reports on
// completion.
type CompactionStats struct {
	FileSize       int64
	EntriesWritten int64
}

// IsZero reports whether these are the "not yet complete" empty stats
// sentinel returned by IsCompactionCompleted.
func (s CompactionStats) IsZero() bool {
	return s == CompactionStats{}
}
