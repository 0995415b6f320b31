package server

import (
	"context"
	"log/slog"

	"trollbox/domain"
	"trollbox/errors"
	pb "trollbox/proto/trollbox"
	"trollbox/services"

	"google.golang.org/grpc"
	"google.golang.org/grpc/peer"
)

type TrollBoxServer struct {
	pb.UnimplementedTrollBoxServer
	relay services.IRelayService
	log   *slog.Logger
}

func NewTrollBoxServer(log *slog.Logger, relay services.IRelayService) *TrollBoxServer {
	return &TrollBoxServer{relay: relay, log: log}
}

// SendMessage validates and forwards a message to the hub.
// Rejections are part of the response, not grpc errors: an empty error list
// means the message was accepted. The sender gets its own message back through
// the Messages stream like every other subscriber.
func (s *TrollBoxServer) SendMessage(ctx context.Context, req *pb.SendMessageRequest) (*pb.SendMessageResponse, error) {
	_, err := s.relay.SendMessage(ctx, req.Alias, req.Message)
	return &pb.SendMessageResponse{Errors: pb.FromDomainError(err)}, nil
}

// Messages streams the history replay followed by live messages.
// It blocks until the client disconnects or a write to the stream fails.
func (s *TrollBoxServer) Messages(_ *pb.StreamMessagesRequest, stream grpc.ServerStreamingServer[pb.Message]) error {
	ctx := stream.Context()
	remote := "unknown"
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		remote = p.Addr.String()
	}
	s.log.Info("Subscriber connected", "peer", remote)

	err := s.relay.Subscribe(ctx, NewStreamSink(stream))
	if err != nil {
		s.log.Error("Failed to push message to stream", "peer", remote, "error", err)
		return errors.MapToGRPCError(err)
	}
	s.log.Info("Subscriber disconnected", "peer", remote)
	return nil
}

// StreamSink writes domain messages to a server stream.
type StreamSink struct {
	stream grpc.ServerStreamingServer[pb.Message]
}

func NewStreamSink(stream grpc.ServerStreamingServer[pb.Message]) *StreamSink {
	return &StreamSink{stream: stream}
}

func (s *StreamSink) Consume(_ context.Context, m domain.Message) error {
	return s.stream.Send(pb.FromDomainMessage(m))
}
