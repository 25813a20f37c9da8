// Package coordinatorpb defines the inbound RPC surface tablet servers and
// compactors call on the coordinator (spec.md section 6). Message types are
// plain Go structs marshaled by internal/rpccodec rather than generated
// from a .proto IDL; the ServiceDesc in service.go is the hand-written
// equivalent of what protoc-gen-go-grpc would otherwise emit.
package coordinatorpb

// TabletExtent identifies the tablet a job's files belong to, mirroring
// model.TabletExtent on the wire.
type TabletExtent struct {
	TableID string `json:"table_id"`
	EndRow  string `json:"end_row"`
	PrevRow string `json:"prev_row"`
}

// Job is the wire form of model.Job.
type Job struct {
	ExternalCompactionID string       `json:"external_compaction_id"`
	TabletExtent         TabletExtent `json:"tablet_extent"`
	Files                []string     `json:"files"`
	Queue                string       `json:"queue"`
	Priority             int64        `json:"priority"`
	CompactorAddress     string       `json:"compactor_address"`
}

// GetCompactionJobRequest is sent by a compactor asking for work.
type GetCompactionJobRequest struct {
	Queue            string `json:"queue"`
	CompactorAddress string `json:"compactor_address"`
}

// GetCompactionJobResponse carries the assigned job, or an empty Job if
// none was available (spec.md 4.4.2a).
type GetCompactionJobResponse struct {
	Job Job `json:"job"`
}

// UpdateCompactionStatusRequest reports a status transition for a running
// external compaction.
type UpdateCompactionStatusRequest struct {
	ExternalCompactionID string `json:"external_compaction_id"`
	State                string `json:"state"`
	Message              string `json:"message"`
	TimestampUnixNano    int64  `json:"timestamp_unix_nano"`
}

// UpdateCompactionStatusResponse is empty on success.
type UpdateCompactionStatusResponse struct{}

// CompactionStats is the wire form of model.CompactionStats.
type CompactionStats struct {
	FileSize       int64 `json:"file_size"`
	EntriesWritten int64 `json:"entries_written"`
}

// CompactionCompletedRequest reports terminal success or failure for a job.
type CompactionCompletedRequest struct {
	ExternalCompactionID string           `json:"external_compaction_id"`
	Stats                CompactionStats  `json:"stats"`
	Failed               bool             `json:"failed"`
	FailureMessage       string           `json:"failure_message"`
}

// CompactionCompletedResponse is empty on success.
type CompactionCompletedResponse struct{}

// IsCompactionCompletedRequest asks whether a job has finished.
type IsCompactionCompletedRequest struct {
	ExternalCompactionID string `json:"external_compaction_id"`
}

// IsCompactionCompletedResponse reports completion and, if complete, the
// final stats. Stats is the zero value when Completed is false.
type IsCompactionCompletedResponse struct {
	Completed bool             `json:"completed"`
	Stats     CompactionStats  `json:"stats"`
}

// CancelCompactionRequest asks the coordinator to cancel a running job.
type CancelCompactionRequest struct {
	ExternalCompactionID string `json:"external_compaction_id"`
}

// CancelCompactionResponse is empty on success.
type CancelCompactionResponse struct{}

// GetCompactionStatusRequest asks for the current state and status log of
// a running job.
type GetCompactionStatusRequest struct {
	ExternalCompactionID string `json:"external_compaction_id"`
}

// StatusUpdate is the wire form of model.StatusUpdate.
type StatusUpdate struct {
	TimestampUnixNano int64  `json:"timestamp_unix_nano"`
	State             string `json:"state"`
	Message           string `json:"message"`
}

// GetCompactionStatusResponse carries the current state and full status
// log for a running job.
type GetCompactionStatusResponse struct {
	State   string         `json:"state"`
	Updates []StatusUpdate `json:"updates"`
}
