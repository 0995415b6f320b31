package trollbox

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	ServiceName               = "trollbox.TrollBox"
	SendMessageFullMethodName = "/trollbox.TrollBox/SendMessage"
	MessagesFullMethodName    = "/trollbox.TrollBox/Messages"
)

type TrollBoxServer interface {
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	Messages(*StreamMessagesRequest, grpc.ServerStreamingServer[Message]) error
	mustEmbedUnimplementedTrollBoxServer()
}

// UnimplementedTrollBoxServer must be embedded by implementations.
type UnimplementedTrollBoxServer struct{}

func (UnimplementedTrollBoxServer) SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendMessage not implemented")
}

func (UnimplementedTrollBoxServer) Messages(*StreamMessagesRequest, grpc.ServerStreamingServer[Message]) error {
	return status.Error(codes.Unimplemented, "method Messages not implemented")
}

func (UnimplementedTrollBoxServer) mustEmbedUnimplementedTrollBoxServer() {}

func RegisterTrollBoxServer(s grpc.ServiceRegistrar, srv TrollBoxServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TrollBoxServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendMessage",
			Handler:    sendMessageHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Messages",
			Handler:       messagesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "trollbox",
}

func sendMessageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SendMessageRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TrollBoxServer).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: SendMessageFullMethodName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TrollBoxServer).SendMessage(ctx, req.(*SendMessageRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func messagesHandler(srv any, stream grpc.ServerStream) error {
	in := new(StreamMessagesRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(TrollBoxServer).Messages(in, &grpc.GenericServerStream[StreamMessagesRequest, Message]{ServerStream: stream})
}

type TrollBoxClient interface {
	SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error)
	Messages(ctx context.Context, in *StreamMessagesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Message], error)
}

type trollBoxClient struct {
	cc grpc.ClientConnInterface
}

// NewTrollBoxClient returns a client that always speaks the json codec.
func NewTrollBoxClient(cc grpc.ClientConnInterface) TrollBoxClient {
	return &trollBoxClient{cc: cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}

func (c *trollBoxClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	out := new(SendMessageResponse)
	if err := c.cc.Invoke(ctx, SendMessageFullMethodName, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *trollBoxClient) Messages(ctx context.Context, in *StreamMessagesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Message], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MessagesFullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[StreamMessagesRequest, Message]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
