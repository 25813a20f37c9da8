package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/devrev/compactcoord/internal/model"
)

// OrphanSink is called by LifecycleHandlers.CompactionCompleted when the
// tablet-server-side commit retries are exhausted (spec.md 9's "one
// possible way to handle tserver down": leave the entry inspectable but
// stop retrying). The default sink only logs, preserving the out-of-the-box
// behavior spec.md pins down; a deployment can supply a durable
// implementation without any coordinator code changes.
type OrphanSink interface {
	Orphaned(ctx context.Context, id string, job model.Job, stats model.CompactionStats, cause error)
}

// LoggingOrphanSink is the default no-op-but-logged OrphanSink.
type LoggingOrphanSink struct {
	log *zap.Logger
}

// NewLoggingOrphanSink constructs the default OrphanSink.
func NewLoggingOrphanSink(log *zap.Logger) *LoggingOrphanSink {
	return &LoggingOrphanSink{log: log}
}

// Orphaned logs the abandoned entry at warn level.
func (s *LoggingOrphanSink) Orphaned(ctx context.Context, id string, job model.Job, stats model.CompactionStats, cause error) {
	s.log.Warn("compaction orphaned after retry exhaustion",
		zap.String("external_compaction_id", id),
		zap.String("queue", string(job.Queue)),
		zap.Int64("file_size", stats.FileSize),
		zap.Int64("entries_written", stats.EntriesWritten),
		zap.Error(cause),
	)
}
