package lbv1

import (
	"context"

	"google.golang.org/grpc"
)

// CoordinatorName is the fully-qualified gRPC service name of the
// coordinator surface.
const CoordinatorName = "fogbalancer.v1.Coordinator"

const (
	Coordinator_RegisterWorker_FullMethodName       = "/fogbalancer.v1.Coordinator/RegisterWorker"
	Coordinator_DeregisterWorker_FullMethodName     = "/fogbalancer.v1.Coordinator/DeregisterWorker"
	Coordinator_GetAvailableModels_FullMethodName   = "/fogbalancer.v1.Coordinator/GetAvailableModels"
	Coordinator_RebalanceAssignments_FullMethodName = "/fogbalancer.v1.Coordinator/RebalanceAssignments"
	Coordinator_ProcessRequest_FullMethodName       = "/fogbalancer.v1.Coordinator/ProcessRequest"
	Coordinator_HealthCheck_FullMethodName          = "/fogbalancer.v1.Coordinator/HealthCheck"
)

// CoordinatorClient is the client API for the coordinator service.
type CoordinatorClient interface {
	RegisterWorker(ctx context.Context, in *WorkerInfo, opts ...grpc.CallOption) (*Registration, error)
	DeregisterWorker(ctx context.Context, in *DeregisterRequest, opts ...grpc.CallOption) (*DeregisterResponse, error)
	GetAvailableModels(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ModelList, error)
	RebalanceAssignments(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*AssignmentList, error)
	ProcessRequest(ctx context.Context, in *AIRequest, opts ...grpc.CallOption) (*AIResponse, error)
	HealthCheck(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*HealthStatus, error)
}

type coordinatorClient struct {
	cc grpc.ClientConnInterface
}

func NewCoordinatorClient(cc grpc.ClientConnInterface) CoordinatorClient {
	return &coordinatorClient{cc}
}

func (c *coordinatorClient) RegisterWorker(ctx context.Context, in *WorkerInfo, opts ...grpc.CallOption) (*Registration, error) {
	out := new(Registration)
	if err := c.cc.Invoke(ctx, Coordinator_RegisterWorker_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) DeregisterWorker(ctx context.Context, in *DeregisterRequest, opts ...grpc.CallOption) (*DeregisterResponse, error) {
	out := new(DeregisterResponse)
	if err := c.cc.Invoke(ctx, Coordinator_DeregisterWorker_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) GetAvailableModels(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ModelList, error) {
	out := new(ModelList)
	if err := c.cc.Invoke(ctx, Coordinator_GetAvailableModels_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) RebalanceAssignments(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*AssignmentList, error) {
	out := new(AssignmentList)
	if err := c.cc.Invoke(ctx, Coordinator_RebalanceAssignments_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) ProcessRequest(ctx context.Context, in *AIRequest, opts ...grpc.CallOption) (*AIResponse, error) {
	out := new(AIResponse)
	if err := c.cc.Invoke(ctx, Coordinator_ProcessRequest_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coordinatorClient) HealthCheck(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*HealthStatus, error) {
	out := new(HealthStatus)
	if err := c.cc.Invoke(ctx, Coordinator_HealthCheck_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// CoordinatorServer is the server API for the coordinator service.
type CoordinatorServer interface {
	RegisterWorker(context.Context, *WorkerInfo) (*Registration, error)
	DeregisterWorker(context.Context, *DeregisterRequest) (*DeregisterResponse, error)
	GetAvailableModels(context.Context, *Empty) (*ModelList, error)
	RebalanceAssignments(context.Context, *Empty) (*AssignmentList, error)
	ProcessRequest(context.Context, *AIRequest) (*AIResponse, error)
	HealthCheck(context.Context, *Empty) (*HealthStatus, error)
}

func RegisterCoordinatorServer(s grpc.ServiceRegistrar, srv CoordinatorServer) {
	s.RegisterService(&Coordinator_ServiceDesc, srv)
}

func _Coordinator_RegisterWorker_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(WorkerInfo)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).RegisterWorker(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Coordinator_RegisterWorker_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CoordinatorServer).RegisterWorker(ctx, req.(*WorkerInfo))
	}
	return interceptor(ctx, in, info, handler)
}

func _Coordinator_DeregisterWorker_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DeregisterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).DeregisterWorker(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Coordinator_DeregisterWorker_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CoordinatorServer).DeregisterWorker(ctx, req.(*DeregisterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Coordinator_GetAvailableModels_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).GetAvailableModels(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Coordinator_GetAvailableModels_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CoordinatorServer).GetAvailableModels(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Coordinator_RebalanceAssignments_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).RebalanceAssignments(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Coordinator_RebalanceAssignments_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CoordinatorServer).RebalanceAssignments(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Coordinator_ProcessRequest_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AIRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).ProcessRequest(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Coordinator_ProcessRequest_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CoordinatorServer).ProcessRequest(ctx, req.(*AIRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Coordinator_HealthCheck_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CoordinatorServer).HealthCheck(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Coordinator_HealthCheck_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CoordinatorServer).HealthCheck(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Coordinator_ServiceDesc is the grpc.ServiceDesc for the coordinator
// service. Register it via RegisterCoordinatorServer.
var Coordinator_ServiceDesc = grpc.ServiceDesc{
	ServiceName: CoordinatorName,
	HandlerType: (*CoordinatorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RegisterWorker", Handler: _Coordinator_RegisterWorker_Handler},
		{MethodName: "DeregisterWorker", Handler: _Coordinator_DeregisterWorker_Handler},
		{MethodName: "GetAvailableModels", Handler: _Coordinator_GetAvailableModels_Handler},
		{MethodName: "RebalanceAssignments", Handler: _Coordinator_RebalanceAssignments_Handler},
		{MethodName: "ProcessRequest", Handler: _Coordinator_ProcessRequest_Handler},
		{MethodName: "HealthCheck", Handler: _Coordinator_HealthCheck_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pkg/wire/lbv1",
}
