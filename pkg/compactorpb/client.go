// Package compactorpb is the outbound client stub the coordinator uses to
// tell a compactor to abandon a running job (spec.md CancelCompaction,
// section 4.5).
package compactorpb

import (
	"context"

	"google.golang.org/grpc"

	"github.com/devrev/compactcoord/internal/rpccodec"
)

// CancelRequest asks a compactor to stop work on a job it is running.
type CancelRequest struct {
	ExternalCompactionID string `json:"external_compaction_id"`
}

// CancelResponse is empty on success.
type CancelResponse struct{}

// CompactorClient is the RPC surface the coordinator calls on a compactor.
type CompactorClient interface {
	Cancel(ctx context.Context, in *CancelRequest, opts ...grpc.CallOption) (*CancelResponse, error)
}

type compactorClient struct {
	cc *grpc.ClientConn
}

// NewCompactorClient wraps a *grpc.ClientConn dialed to a compactor's RPC
// port.
func NewCompactorClient(cc *grpc.ClientConn) CompactorClient {
	return &compactorClient{cc: cc}
}

func (c *compactorClient) Cancel(ctx context.Context, in *CancelRequest, opts ...grpc.CallOption) (*CancelResponse, error) {
	out := new(CancelResponse)
	callOpts := append([]grpc.CallOption{grpc.ForceCodec(rpccodec.Codec{})}, opts...)
	if err := c.cc.Invoke(ctx, "/compactcoord.compactor.v1.Compactor/Cancel", in, out, callOpts...); err != nil {
		return nil, err
	}
	return out, nil
}
