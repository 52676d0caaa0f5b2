package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service and method names of poivisits.v1.VisitService
const (
	VisitServiceName = "poivisits.v1.VisitService"

	VisitService_SubmitRun_FullMethodName = "/poivisits.v1.VisitService/SubmitRun"
	VisitService_GetRun_FullMethodName    = "/poivisits.v1.VisitService/GetRun"
	VisitService_ListRuns_FullMethodName  = "/poivisits.v1.VisitService/ListRuns"
)

// VisitServiceServer is the server API for VisitService. Requests and
// responses are google.protobuf.Struct messages.
type VisitServiceServer interface {
	SubmitRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRuns(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedVisitServiceServer can be embedded to have forward compatible implementations
type UnimplementedVisitServiceServer struct{}

func (UnimplementedVisitServiceServer) SubmitRun(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SubmitRun not implemented")
}

func (UnimplementedVisitServiceServer) GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetRun not implemented")
}

func (UnimplementedVisitServiceServer) ListRuns(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListRuns not implemented")
}

// RegisterVisitServiceServer registers srv with s
func RegisterVisitServiceServer(s grpc.ServiceRegistrar, srv VisitServiceServer) {
	s.RegisterService(&VisitService_ServiceDesc, srv)
}

func _VisitService_SubmitRun_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VisitServiceServer).SubmitRun(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: VisitService_SubmitRun_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VisitServiceServer).SubmitRun(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _VisitService_GetRun_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VisitServiceServer).GetRun(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: VisitService_GetRun_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VisitServiceServer).GetRun(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _VisitService_ListRuns_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(VisitServiceServer).ListRuns(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: VisitService_ListRuns_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(VisitServiceServer).ListRuns(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// VisitService_ServiceDesc is the grpc.ServiceDesc for VisitService
var VisitService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: VisitServiceName,
	HandlerType: (*VisitServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SubmitRun",
			Handler:    _VisitService_SubmitRun_Handler,
		},
		{
			MethodName: "GetRun",
			Handler:    _VisitService_GetRun_Handler,
		},
		{
			MethodName: "ListRuns",
			Handler:    _VisitService_ListRuns_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: VisitServiceFile,
}

// VisitServiceClient is the client API for VisitService
type VisitServiceClient interface {
	SubmitRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListRuns(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type visitServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewVisitServiceClient creates a VisitService client over cc
func NewVisitServiceClient(cc grpc.ClientConnInterface) VisitServiceClient {
	return &visitServiceClient{cc}
}

func (c *visitServiceClient) SubmitRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, VisitService_SubmitRun_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *visitServiceClient) GetRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, VisitService_GetRun_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *visitServiceClient) ListRuns(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, VisitService_ListRuns_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
