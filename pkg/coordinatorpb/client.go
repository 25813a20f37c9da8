package coordinatorpb

import (
	"context"

	"google.golang.org/grpc"

	"github.com/devrev/compactcoord/internal/rpccodec"
)

// CoordinatorClient is the client-side stub compactors and tablet servers
// use to reach the coordinator's inbound surface.
type CoordinatorClient interface {
	GetCompactionJob(ctx context.Context, in *GetCompactionJobRequest, opts ...grpc.CallOption) (*GetCompactionJobResponse, error)
	UpdateCompactionStatus(ctx context.Context, in *UpdateCompactionStatusRequest, opts ...grpc.CallOption) (*UpdateCompactionStatusResponse, error)
	CompactionCompleted(ctx context.Context, in *CompactionCompletedRequest, opts ...grpc.CallOption) (*CompactionCompletedResponse, error)
	IsCompactionCompleted(ctx context.Context, in *IsCompactionCompletedRequest, opts ...grpc.CallOption) (*IsCompactionCompletedResponse, error)
	CancelCompaction(ctx context.Context, in *CancelCompactionRequest, opts ...grpc.CallOption) (*CancelCompactionResponse, error)
	GetCompactionStatus(ctx context.Context, in *GetCompactionStatusRequest, opts ...grpc.CallOption) (*GetCompactionStatusResponse, error)
}

type coordinatorClient struct {
	cc *grpc.ClientConn
}

// NewCoordinatorClient wraps a *grpc.ClientConn dialed with
// grpc.ForceCodec(rpccodec.Codec{}).
func NewCoordinatorClient(cc *grpc.ClientConn) CoordinatorClient {
	return &coordinatorClient{cc: cc}
}

func (c *coordinatorClient) callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(rpccodec.Codec{})}, opts...)
}

func (c *coordinatorClient) GetCompactionJob(ctx context.Context, in *GetCompactionJobRequest, opts ...grpc.CallOption) (*GetCompactionJobResponse, error) {
	out := new(GetCompactionJobResponse)
	if err := c.cc.Invoke(ctx, "/compactcoord.coordinator.v1.Coordinator/GetCompactionJob", in, out, c.callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) UpdateCompactionStatus(ctx context.Context, in *UpdateCompactionStatusRequest, opts ...grpc.CallOption) (*UpdateCompactionStatusResponse, error) {
	out := new(UpdateCompactionStatusResponse)
	if err := c.cc.Invoke(ctx, "/compactcoord.coordinator.v1.Coordinator/UpdateCompactionStatus", in, out, c.callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) CompactionCompleted(ctx context.Context, in *CompactionCompletedRequest, opts ...grpc.CallOption) (*CompactionCompletedResponse, error) {
	out := new(CompactionCompletedResponse)
	if err := c.cc.Invoke(ctx, "/compactcoord.coordinator.v1.Coordinator/CompactionCompleted", in, out, c.callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) IsCompactionCompleted(ctx context.Context, in *IsCompactionCompletedRequest, opts ...grpc.CallOption) (*IsCompactionCompletedResponse, error) {
	out := new(IsCompactionCompletedResponse)
	if err := c.cc.Invoke(ctx, "/compactcoord.coordinator.v1.Coordinator/IsCompactionCompleted", in, out, c.callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) CancelCompaction(ctx context.Context, in *CancelCompactionRequest, opts ...grpc.CallOption) (*CancelCompactionResponse, error) {
	out := new(CancelCompactionResponse)
	if err := c.cc.Invoke(ctx, "/compactcoord.coordinator.v1.Coordinator/CancelCompaction", in, out, c.callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) GetCompactionStatus(ctx context.Context, in *GetCompactionStatusRequest, opts ...grpc.CallOption) (*GetCompactionStatusResponse, error) {
	out := new(GetCompactionStatusResponse)
	if err := c.cc.Invoke(ctx, "/compactcoord.coordinator.v1.Coordinator/GetCompactionStatus", in, out, c.callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
