package coordinatorpb

import (
	"context"

	"google.golang.org/grpc"
)

// CoordinatorServer is the interface internal/handler implements to back
// the inbound RPC surface.
type CoordinatorServer interface {
	GetCompactionJob(context.Context, *GetCompactionJobRequest) (*GetCompactionJobResponse, error)
	UpdateCompactionStatus(context.Context, *UpdateCompactionStatusRequest) (*UpdateCompactionStatusResponse, error)
	CompactionCompleted(context.Context, *CompactionCompletedRequest) (*CompactionCompletedResponse, error)
	IsCompactionCompleted(context.Context, *IsCompactionCompletedRequest) (*IsCompactionCompletedResponse, error)
	CancelCompaction(context.Context, *CancelCompactionRequest) (*CancelCompactionResponse, error)
	GetCompactionStatus(context.Context, *GetCompactionStatusRequest) (*GetCompactionStatusResponse, error)
}

// UnimplementedCoordinatorServer can be embedded to satisfy CoordinatorServer
// while only overriding the methods a given handler actually needs, in
// case the surface grows before every handler is updated.
type UnimplementedCoordinatorServer struct{}

func (UnimplementedCoordinatorServer) GetCompactionJob(context.Context, *GetCompactionJobRequest) (*GetCompactionJobResponse, error) {
	return nil, errUnimplemented("GetCompactionJob")
}
func (UnimplementedCoordinatorServer) UpdateCompactionStatus(context.Context, *UpdateCompactionStatusRequest) (*UpdateCompactionStatusResponse, error) {
	return nil, errUnimplemented("UpdateCompactionStatus")
}
func (UnimplementedCoordinatorServer) CompactionCompleted(context.Context, *CompactionCompletedRequest) (*CompactionCompletedResponse, error) {
	return nil, errUnimplemented("CompactionCompleted")
}
func (UnimplementedCoordinatorServer) IsCompactionCompleted(context.Context, *IsCompactionCompletedRequest) (*IsCompactionCompletedResponse, error) {
	return nil, errUnimplemented("IsCompactionCompleted")
}
func (UnimplementedCoordinatorServer) CancelCompaction(context.Context, *CancelCompactionRequest) (*CancelCompactionResponse, error) {
	return nil, errUnimplemented("CancelCompaction")
}
func (UnimplementedCoordinatorServer) GetCompactionStatus(context.Context, *GetCompactionStatusRequest) (*GetCompactionStatusResponse, error) {
	return nil, errUnimplemented("GetCompactionStatus")
}

func errUnimplemented(method string) error {
	return &unimplementedError{method: method}
}

type unimplementedError struct{ method string }

func (e *unimplementedError) Error() string {
	return "coordinatorpb: method not implemented: " + e.method
}

// RegisterCoordinatorServer wires srv into gRPC's dispatch table.
func RegisterCoordinatorServer(s grpc.ServiceRegistrar, srv CoordinatorServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: "compactcoord.coordinator.v1.Coordinator",
	HandlerType: (*CoordinatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCompactionJob", Handler: handleGetCompactionJob},
		{MethodName: "UpdateCompactionStatus", Handler: handleUpdateCompactionStatus},
		{MethodName: "CompactionCompleted", Handler: handleCompactionCompleted},
		{MethodName: "IsCompactionCompleted", Handler: handleIsCompactionCompleted},
		{MethodName: "CancelCompaction", Handler: handleCancelCompaction},
		{MethodName: "GetCompactionStatus", Handler: handleGetCompactionStatus},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "coordinatorpb/service.go",
}

func handleGetCompactionJob(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetCompactionJobRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).GetCompactionJob(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/compactcoord.coordinator.v1.Coordinator/GetCompactionJob"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoordinatorServer).GetCompactionJob(ctx, req.(*GetCompactionJobRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handleUpdateCompactionStatus(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpdateCompactionStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).UpdateCompactionStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/compactcoord.coordinator.v1.Coordinator/UpdateCompactionStatus"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoordinatorServer).UpdateCompactionStatus(ctx, req.(*UpdateCompactionStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handleCompactionCompleted(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CompactionCompletedRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).CompactionCompleted(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/compactcoord.coordinator.v1.Coordinator/CompactionCompleted"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoordinatorServer).CompactionCompleted(ctx, req.(*CompactionCompletedRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handleIsCompactionCompleted(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(IsCompactionCompletedRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).IsCompactionCompleted(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/compactcoord.coordinator.v1.Coordinator/IsCompactionCompleted"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoordinatorServer).IsCompactionCompleted(ctx, req.(*IsCompactionCompletedRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handleCancelCompaction(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CancelCompactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).CancelCompaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/compactcoord.coordinator.v1.Coordinator/CancelCompaction"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoordinatorServer).CancelCompaction(ctx, req.(*CancelCompactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func handleGetCompactionStatus(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetCompactionStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).GetCompactionStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/compactcoord.coordinator.v1.Coordinator/GetCompactionStatus"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CoordinatorServer).GetCompactionStatus(ctx, req.(*GetCompactionStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}
