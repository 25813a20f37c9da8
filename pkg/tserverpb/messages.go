// Package tserverpb is the outbound client stub the coordinator uses to
// call tablet servers: advertise queue depth, reserve a job, report a
// finished job (spec.md section 5-6).
package tserverpb

// GetCompactionQueueInfoRequest asks a tablet server what work it has
// queued.
type GetCompactionQueueInfoRequest struct{}

// QueueInfo is one (queue, priority) pair a tablet server advertises.
type QueueInfo struct {
	Queue    string `json:"queue"`
	Priority int64  `json:"priority"`
}

// GetCompactionQueueInfoResponse lists everything a tablet server has
// pending.
type GetCompactionQueueInfoResponse struct {
	Queues []QueueInfo `json:"queues"`
}

// TabletExtent mirrors coordinatorpb.TabletExtent on this outbound leg.
type TabletExtent struct {
	TableID string `json:"table_id"`
	EndRow  string `json:"end_row"`
	PrevRow string `json:"prev_row"`
}

// ReserveCompactionJobRequest asks a tablet server to hand over a job at a
// specific queue/priority for a named compactor to run.
type ReserveCompactionJobRequest struct {
	Queue            string `json:"queue"`
	Priority         int64  `json:"priority"`
	CompactorAddress string `json:"compactor_address"`
}

// ReserveCompactionJobResponse carries the reserved job, or an empty
// ExternalCompactionID if the tablet server no longer has that work
// (raced away by another reservation or a tablet split).
type ReserveCompactionJobResponse struct {
	ExternalCompactionID string       `json:"external_compaction_id"`
	TabletExtent         TabletExtent `json:"tablet_extent"`
	Files                []string     `json:"files"`
}

// CompactionJobFinishedRequest tells a tablet server the outcome of a job
// it handed out, so it can commit or roll back the tablet's metadata.
type CompactionJobFinishedRequest struct {
	ExternalCompactionID string `json:"external_compaction_id"`
	Succeeded             bool   `json:"succeeded"`
	FileSize              int64  `json:"file_size"`
	EntriesWritten        int64  `json:"entries_written"`
}

// CompactionJobFinishedResponse is empty on success.
type CompactionJobFinishedResponse struct{}
