// Package e2e runs the relay in process behind a bufconn listener and drives it
// through the typed client.
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"trollbox/client"
	"trollbox/infrastructure/grpc/server"
	pb "trollbox/proto/trollbox"
	"trollbox/runtime"
	"trollbox/services"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1024 * 1024

type BaseGrpcSuite struct {
	suite.Suite
	Config   Config
	Hub      *runtime.BroadcastHub
	History  *runtime.HistoryBuffer
	listener *bufconn.Listener
	server   *grpc.Server
	cancel   context.CancelFunc
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseGrpcSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// SetupTest starts a fresh relay so every scenario begins with an empty history
func (s *BaseGrpcSuite) SetupTest() {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	s.History = runtime.NewHistoryBuffer(runtime.DefaultHistoryCapacity)
	s.Hub = runtime.NewBroadcastHub(log, s.History, runtime.DefaultChannelSize, runtime.DefaultChannelSize)
	relay := services.NewRelayService(
		s.Hub,
		runtime.NewIngressPort(log, s.Hub),
		runtime.NewSubscriptionPort(log, s.History, s.Hub, s.Config.SubscriberBufferSize),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() { _ = s.Hub.Run(ctx) }()

	s.listener = bufconn.Listen(bufSize)
	s.server = grpc.NewServer()
	pb.RegisterTrollBoxServer(s.server, server.NewTrollBoxServer(log, relay))
	go func() { _ = s.server.Serve(s.listener) }()
}

func (s *BaseGrpcSuite) TearDownTest() {
	s.server.Stop()
	s.cancel()
	<-s.Hub.Done()
}

// GrpcConn initializes a gRPC connection with logging, colors, and JSON debugging
func (s *BaseGrpcSuite) GrpcConn(t *testing.T, name string) *grpc.ClientConn {
	// 1. Print a colorized header for the connection step in logs
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	// 2. Create the client with a Unary Interceptor for logging
	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return s.listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))

			// Log full JSON request/response bodies if E2E_DEBUG_JSON is enabled
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, indent(req))
				if err != nil {
					fmt.Fprintln(&logBuilder, "ERROR:", err)
				} else {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, indent(reply))
				}
			}
			t.Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to the in-process relay")
	return conn
}

// WithClient provides a typed client posting as alias within a contextual test step
func (s *BaseGrpcSuite) WithClient(name, alias string, fn func(ctx context.Context, c *client.Client)) {
	conn := s.GrpcConn(s.T(), name)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fn(ctx, client.New(conn, alias))
}

func indent(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", v)
	}
	return string(b)
}
