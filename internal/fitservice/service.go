// Package fitservice carries the channel service over gRPC. Messages are
// protobuf well-known types, so no generated stubs are needed on either
// side.
package fitservice

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// #region names
const (
	ServiceName = "fitness.v1.DataChannelService"

	subscribeMethod = "/" + ServiceName + "/Subscribe"
	queryMethod     = "/" + ServiceName + "/QueryDailyTotal"

	// Request and response field names for QueryDailyTotal.
	fieldChannel = "channel"
	fieldSince   = "since"
)
// #endregion names

// #region client-interface
// DataChannelClient is the client API for the data channel service.
type DataChannelClient interface {
	Subscribe(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	QueryDailyTotal(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type dataChannelClient struct {
	cc grpc.ClientConnInterface
}

// NewDataChannelClient wraps a connection.
func NewDataChannelClient(cc grpc.ClientConnInterface) DataChannelClient {
	return &dataChannelClient{cc: cc}
}

func (c *dataChannelClient) Subscribe(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, subscribeMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dataChannelClient) QueryDailyTotal(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, queryMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
// #endregion client-interface

// #region server-interface
// DataChannelServer is the server API for the data channel service.
type DataChannelServer interface {
	Subscribe(ctx context.Context, in *wrapperspb.StringValue) (*emptypb.Empty, error)
	QueryDailyTotal(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// RegisterDataChannelServer attaches srv to a gRPC server.
func RegisterDataChannelServer(s grpc.ServiceRegistrar, srv DataChannelServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DataChannelServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Subscribe", Handler: subscribeHandler},
		{MethodName: "QueryDailyTotal", Handler: queryHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fitness/v1/data_channel.proto",
}

func subscribeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataChannelServer).Subscribe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: subscribeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DataChannelServer).Subscribe(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func queryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DataChannelServer).QueryDailyTotal(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: queryMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DataChannelServer).QueryDailyTotal(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
// #endregion server-interface
