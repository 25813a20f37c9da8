package tserverpb

import (
	"context"

	"google.golang.org/grpc"

	"github.com/devrev/compactcoord/internal/rpccodec"
)

// TabletServerClient is the RPC surface the coordinator calls on a tablet
// server. Connections are managed by callers (rpcdial.Pool, handed to the
// QueuePoller and Dispatcher as their TabletServerDialer, caches one
// connection per tablet-server address); this type just wraps one
// already-dialed connection.
type TabletServerClient interface {
	GetCompactionQueueInfo(ctx context.Context, in *GetCompactionQueueInfoRequest, opts ...grpc.CallOption) (*GetCompactionQueueInfoResponse, error)
	ReserveCompactionJob(ctx context.Context, in *ReserveCompactionJobRequest, opts ...grpc.CallOption) (*ReserveCompactionJobResponse, error)
	CompactionJobFinished(ctx context.Context, in *CompactionJobFinishedRequest, opts ...grpc.CallOption) (*CompactionJobFinishedResponse, error)
}

type tabletServerClient struct {
	cc *grpc.ClientConn
}

// NewTabletServerClient wraps a *grpc.ClientConn dialed to a tablet
// server's RPC port.
func NewTabletServerClient(cc *grpc.ClientConn) TabletServerClient {
	return &tabletServerClient{cc: cc}
}

func (c *tabletServerClient) callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(rpccodec.Codec{})}, opts...)
}

func (c *tabletServerClient) GetCompactionQueueInfo(ctx context.Context, in *GetCompactionQueueInfoRequest, opts ...grpc.CallOption) (*GetCompactionQueueInfoResponse, error) {
	out := new(GetCompactionQueueInfoResponse)
	if err := c.cc.Invoke(ctx, "/compactcoord.tserver.v1.TabletServer/GetCompactionQueueInfo", in, out, c.callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tabletServerClient) ReserveCompactionJob(ctx context.Context, in *ReserveCompactionJobRequest, opts ...grpc.CallOption) (*ReserveCompactionJobResponse, error) {
	out := new(ReserveCompactionJobResponse)
	if err := c.cc.Invoke(ctx, "/compactcoord.tserver.v1.TabletServer/ReserveCompactionJob", in, out, c.callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *tabletServerClient) CompactionJobFinished(ctx context.Context, in *CompactionJobFinishedRequest, opts ...grpc.CallOption) (*CompactionJobFinishedResponse, error) {
	out := new(CompactionJobFinishedResponse)
	if err := c.cc.Invoke(ctx, "/compactcoord.tserver.v1.TabletServer/CompactionJobFinished", in, out, c.callOpts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}
