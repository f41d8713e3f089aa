package lbv1

import (
	"context"

	"google.golang.org/grpc"
)

// WorkerName is the fully-qualified gRPC service name each worker
// exposes for coordinator callbacks.
const WorkerName = "fogbalancer.v1.Worker"

const (
	Worker_ProcessAIRequest_FullMethodName    = "/fogbalancer.v1.Worker/ProcessAIRequest"
	Worker_GetProcessingStatus_FullMethodName = "/fogbalancer.v1.Worker/GetProcessingStatus"
)

// WorkerClient is the client API for the worker service.
type WorkerClient interface {
	ProcessAIRequest(ctx context.Context, in *AIRequest, opts ...grpc.CallOption) (*AIResponse, error)
	GetProcessingStatus(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error)
}

type workerClient struct {
	cc grpc.ClientConnInterface
}

func NewWorkerClient(cc grpc.ClientConnInterface) WorkerClient {
	return &workerClient{cc}
}

func (c *workerClient) ProcessAIRequest(ctx context.Context, in *AIRequest, opts ...grpc.CallOption) (*AIResponse, error) {
	out := new(AIResponse)
	if err := c.cc.Invoke(ctx, Worker_ProcessAIRequest_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *workerClient) GetProcessingStatus(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	out := new(StatusResponse)
	if err := c.cc.Invoke(ctx, Worker_GetProcessingStatus_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// WorkerServer is the server API for the worker service.
type WorkerServer interface {
	ProcessAIRequest(context.Context, *AIRequest) (*AIResponse, error)
	GetProcessingStatus(context.Context, *StatusRequest) (*StatusResponse, error)
}

func RegisterWorkerServer(s grpc.ServiceRegistrar, srv WorkerServer) {
	s.RegisterService(&Worker_ServiceDesc, srv)
}

func _Worker_ProcessAIRequest_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AIRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WorkerServer).ProcessAIRequest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Worker_ProcessAIRequest_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WorkerServer).ProcessAIRequest(ctx, req.(*AIRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Worker_GetProcessingStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WorkerServer).GetProcessingStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Worker_GetProcessingStatus_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WorkerServer).GetProcessingStatus(ctx, req.(*StatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// Worker_ServiceDesc is the grpc.ServiceDesc for the worker service.
// Register it via RegisterWorkerServer.
var Worker_ServiceDesc = grpc.ServiceDesc{
	ServiceName: WorkerName,
	HandlerType: (*WorkerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ProcessAIRequest", Handler: _Worker_ProcessAIRequest_Handler},
		{MethodName: "GetProcessingStatus", Handler: _Worker_GetProcessingStatus_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/wire/lbv1",
}
