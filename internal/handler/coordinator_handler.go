// Package handler adapts the wire types of pkg/coordinatorpb onto
// internal/service's Coordinator, grounded on the teacher's
// KeyValueHandler request/response translation pattern.
package handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/devrev/compactcoord/internal/coordinatorerrors"
	"github.com/devrev/compactcoord/internal/model"
	"github.com/devrev/compactcoord/internal/service"
	"github.com/devrev/compactcoord/pkg/coordinatorpb"
)

// CoordinatorHandler implements coordinatorpb.CoordinatorServer by
// delegating to a service.Coordinator.
type CoordinatorHandler struct {
	coordinatorpb.UnimplementedCoordinatorServer

	coord *service.Coordinator
	log   *zap.Logger
}

// NewCoordinatorHandler constructs a CoordinatorHandler.
func NewCoordinatorHandler(coord *service.Coordinator, log *zap.Logger) *CoordinatorHandler {
	return &CoordinatorHandler{coord: coord, log: log}
}

// GetCompactionJob backs the compactor-facing "give me work" RPC.
func (h *CoordinatorHandler) GetCompactionJob(ctx context.Context, req *coordinatorpb.GetCompactionJobRequest) (*coordinatorpb.GetCompactionJobResponse, error) {
	if req.Queue == "" {
		return nil, status.Error(codes.InvalidArgument, "queue is required")
	}
	if req.CompactorAddress == "" {
		return nil, status.Error(codes.InvalidArgument, "compactor_address is required")
	}

	queue := h.coord.Index.Intern(req.Queue)
	job, err := h.coord.Dispatcher.GetCompactionJob(ctx, queue, req.CompactorAddress)
	if err != nil {
		return nil, toGRPCError(err)
	}

	return &coordinatorpb.GetCompactionJobResponse{Job: toWireJob(job)}, nil
}

// UpdateCompactionStatus backs the compactor status-report RPC.
func (h *CoordinatorHandler) UpdateCompactionStatus(ctx context.Context, req *coordinatorpb.UpdateCompactionStatusRequest) (*coordinatorpb.UpdateCompactionStatusResponse, error) {
	state, err := parseState(req.State)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	ts := time.Unix(0, req.TimestampUnixNano)

	err = h.coord.Lifecycle.UpdateCompactionStatus(ctx, req.ExternalCompactionID, state, req.Message, ts)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return &coordinatorpb.UpdateCompactionStatusResponse{}, nil
}

// CompactionCompleted backs the compactor terminal-report RPC.
func (h *CoordinatorHandler) CompactionCompleted(ctx context.Context, req *coordinatorpb.CompactionCompletedRequest) (*coordinatorpb.CompactionCompletedResponse, error) {
	stats := model.CompactionStats{FileSize: req.Stats.FileSize, EntriesWritten: req.Stats.EntriesWritten}
	err := h.coord.Lifecycle.CompactionCompleted(ctx, req.ExternalCompactionID, stats, req.Failed, req.FailureMessage)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return &coordinatorpb.CompactionCompletedResponse{}, nil
}

// IsCompactionCompleted backs the tablet-server poll-for-completion RPC.
func (h *CoordinatorHandler) IsCompactionCompleted(ctx context.Context, req *coordinatorpb.IsCompactionCompletedRequest) (*coordinatorpb.IsCompactionCompletedResponse, error) {
	completed, stats, err := h.coord.Lifecycle.IsCompactionCompleted(ctx, req.ExternalCompactionID)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return &coordinatorpb.IsCompactionCompletedResponse{
		Completed: completed,
		Stats:     coordinatorpb.CompactionStats{FileSize: stats.FileSize, EntriesWritten: stats.EntriesWritten},
	}, nil
}

// CancelCompaction backs the operator/tablet-server cancel RPC.
// ErrCodeUnknownCompactionID is swallowed here: cancelling an already-finished
// job is a no-op (spec.md 7).
func (h *CoordinatorHandler) CancelCompaction(ctx context.Context, req *coordinatorpb.CancelCompactionRequest) (*coordinatorpb.CancelCompactionResponse, error) {
	if err := h.coord.Lifecycle.CancelCompaction(ctx, req.ExternalCompactionID); err != nil {
		if coordinatorerrors.IsUnknownCompactionID(err) {
			return &coordinatorpb.CancelCompactionResponse{}, nil
		}
		return nil, toGRPCError(err)
	}
	return &coordinatorpb.CancelCompactionResponse{}, nil
}

// GetCompactionStatus backs the status-inspection RPC.
// ErrCodeUnknownCompactionID is swallowed here too, per spec.md 7.
func (h *CoordinatorHandler) GetCompactionStatus(ctx context.Context, req *coordinatorpb.GetCompactionStatusRequest) (*coordinatorpb.GetCompactionStatusResponse, error) {
	state, updates, err := h.coord.Lifecycle.GetCompactionStatus(ctx, req.ExternalCompactionID)
	if err != nil {
		if coordinatorerrors.IsUnknownCompactionID(err) {
			return &coordinatorpb.GetCompactionStatusResponse{}, nil
		}
		return nil, toGRPCError(err)
	}

	wireUpdates := make([]coordinatorpb.StatusUpdate, len(updates))
	for i, u := range updates {
		wireUpdates[i] = coordinatorpb.StatusUpdate{
			TimestampUnixNano: u.Timestamp.UnixNano(),
			State:             u.State.String(),
			Message:           u.Message,
		}
	}
	return &coordinatorpb.GetCompactionStatusResponse{State: state.String(), Updates: wireUpdates}, nil
}

func toWireJob(job model.Job) coordinatorpb.Job {
	return coordinatorpb.Job{
		ExternalCompactionID: job.ExternalCompactionID,
		TabletExtent: coordinatorpb.TabletExtent{
			TableID: job.TabletExtent.TableID,
			EndRow:  job.TabletExtent.EndRow,
			PrevRow: job.TabletExtent.PrevRow,
		},
		Files:            job.Files,
		Queue:            string(job.Queue),
		Priority:         int64(job.Priority),
		CompactorAddress: job.CompactorAddress,
	}
}

func parseState(s string) (model.CompactionState, error) {
	switch s {
	case "ASSIGNED":
		return model.StateAssigned, nil
	case "STARTED":
		return model.StateStarted, nil
	case "IN_PROGRESS":
		return model.StateInProgress, nil
	case "SUCCEEDED":
		return model.StateSucceeded, nil
	case "FAILED":
		return model.StateFailed, nil
	case "CANCELLED":
		return model.StateCancelled, nil
	default:
		return 0, errors.New("unknown compaction state: " + s)
	}
}

func toGRPCError(err error) error {
	var ce *coordinatorerrors.CoordinatorError
	if errors.As(err, &ce) {
		return ce.ToGRPCStatus().Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
