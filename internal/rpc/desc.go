// Package rpc exposes the monitor over gRPC: a small control service
// built on protobuf well-known types plus the standard health service.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is both the control service and the health check name.
const ServiceName = "screenwatch.v1.Monitor"

// Full method names.
const (
	MethodStatus = "/" + ServiceName + "/Status"
	MethodSelect = "/" + ServiceName + "/Select"
	MethodStart  = "/" + ServiceName + "/Start"
	MethodStop   = "/" + ServiceName + "/Stop"
)

// MonitorServer is the control service contract. Payloads are Structs so
// no generated code is needed on either side.
type MonitorServer interface {
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Select(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Start(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stop(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// MonitorServiceDesc describes the control service to grpc.Server.
var MonitorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MonitorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Status", Handler: unary(MethodStatus, newEmpty, MonitorServer.Status)},
		{MethodName: "Select", Handler: unary(MethodSelect, newStruct, MonitorServer.Select)},
		{MethodName: "Start", Handler: unary(MethodStart, newStruct, MonitorServer.Start)},
		{MethodName: "Stop", Handler: unary(MethodStop, newEmpty, MonitorServer.Stop)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "screenwatch/v1/monitor.proto",
}

func newEmpty() *emptypb.Empty   { return new(emptypb.Empty) }
func newStruct() *structpb.Struct { return new(structpb.Struct) }

// unary adapts a MonitorServer method to grpc's handler shape, running
// the server's interceptor chain when one is installed.
func unary[Req proto.Message](
	fullMethod string,
	newReq func() Req,
	call func(MonitorServer, context.Context, Req) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MonitorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MonitorServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
