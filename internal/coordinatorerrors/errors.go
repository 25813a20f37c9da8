// Package coordinatorerrors defines the coordinator's typed error kinds
// (spec.md section 7) and how they map onto gRPC status codes, grounded on
// storage-node's ErrorCode/StorageError pattern.
package coordinatorerrors

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorCode identifies one of the coordinator's error kinds.
type ErrorCode int

const (
	// ErrCodeUnknownCompactionID means the caller referenced an
	// ExternalCompactionID the coordinator has no RunningTable entry for.
	// GetCompactionStatus and CancelCompaction treat this as an idempotent
	// no-op; the other RPCs propagate it.
	ErrCodeUnknownCompactionID ErrorCode = iota + 1
	// ErrCodeTransientRPC means an outbound call to a tablet server or
	// compactor failed in a way the caller should retry.
	ErrCodeTransientRPC
	// ErrCodeStaleTserver means a reservation or completion referenced a
	// tablet server session that MembershipReactor has already evicted.
	ErrCodeStaleTserver
	// ErrCodeLockLost means the coordinator's cluster-wide leader lock was
	// lost. Callers of Acquire/Watch in internal/leaderlock treat this as
	// fatal (spec.md 7: "process exits").
	ErrCodeLockLost
)

// CoordinatorError is a structured error carrying an ErrorCode and,
// optionally, the ExternalCompactionID it concerns.
type CoordinatorError struct {
	Code                 ErrorCode
	Message              string
	ExternalCompactionID string
	Cause                error
}

func (e *CoordinatorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CoordinatorError) Unwrap() error {
	return e.Cause
}

// ToGRPCStatus maps a CoordinatorError onto a gRPC status.
func (e *CoordinatorError) ToGRPCStatus() *status.Status {
	return status.New(e.grpcCode(), e.Error())
}

func (e *CoordinatorError) grpcCode() codes.Code {
	switch e.Code {
	case ErrCodeUnknownCompactionID:
		return codes.NotFound
	case ErrCodeTransientRPC:
		return codes.Unavailable
	case ErrCodeStaleTserver:
		return codes.FailedPrecondition
	case ErrCodeLockLost:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// UnknownCompactionID builds an ErrCodeUnknownCompactionID error for id.
func UnknownCompactionID(id string) *CoordinatorError {
	return &CoordinatorError{
		Code:                 ErrCodeUnknownCompactionID,
		Message:              fmt.Sprintf("unknown external compaction id: %s", id),
		ExternalCompactionID: id,
	}
}

// TransientRPC wraps cause as a retryable RPC failure.
func TransientRPC(message string, cause error) *CoordinatorError {
	return &CoordinatorError{Code: ErrCodeTransientRPC, Message: message, Cause: cause}
}

// StaleTserver reports a reference to an evicted tablet server.
func StaleTserver(message string) *CoordinatorError {
	return &CoordinatorError{Code: ErrCodeStaleTserver, Message: message}
}

// LockLost reports loss of the cluster-wide leader lock.
func LockLost(cause error) *CoordinatorError {
	return &CoordinatorError{Code: ErrCodeLockLost, Message: "leader lock lost", Cause: cause}
}

// IsUnknownCompactionID reports whether err is (or wraps) an
// ErrCodeUnknownCompactionID error.
func IsUnknownCompactionID(err error) bool {
	var ce *CoordinatorError
	return errors.As(err, &ce) && ce.Code == ErrCodeUnknownCompactionID
}

// IsLockLost reports whether err is (or wraps) an ErrCodeLockLost error.
func IsLockLost(err error) bool {
	var ce *CoordinatorError
	return errors.As(err, &ce) && ce.Code == ErrCodeLockLost
}
