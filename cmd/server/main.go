package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trollbox/domain"
	"trollbox/infrastructure/grpc/server"
	pb "trollbox/proto/trollbox"
	"trollbox/repositories"
	"trollbox/runtime"
	"trollbox/runtime/workers"
	"trollbox/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the relay, serves gRPC and blocks until a signal arrives or a component fails.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Broadcast core
	history := runtime.NewHistoryBuffer(config.HistoryCapacity)
	hub := runtime.NewBroadcastHub(log, history, config.IngestionBufferSize, config.ControlBufferSize)
	ingress := runtime.NewIngressPort(log, hub)
	subscriptions := runtime.NewSubscriptionPort(log, history, hub, config.SubscriberBufferSize)
	relay := services.NewRelayService(hub, ingress, subscriptions)

	// 4. Supervised workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewStatsWorker(log, hub, hub.Channels(), config.StatsInterval))

	if config.ArchiveEnabled {
		db, err := openArchive(config.ArchiveFilepath)
		if err != nil {
			return fmt.Errorf("archive opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing archive...")
			_ = db.Close()
		}()

		tap := make(chan domain.Message, config.ArchiveBufferSize)
		hub.WithArchive(tap)
		sup.Add(workers.NewArchiveWorker(log, repositories.NewMessageRepository(db, log), tap))
	}

	// 5. gRPC Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	s := grpc.NewServer()
	pb.RegisterTrollBoxServer(s, server.NewTrollBoxServer(log, relay))

	g, gCtx := errgroup.WithContext(ctx)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()

	g.Go(func() error {
		if err := hub.Run(hubCtx); err != nil {
			return fmt.Errorf("broadcast hub error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sup.Run(gCtx)
		return nil
	})
	g.Go(func() error {
		log.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			log.Info("Shutting down gracefully...")
		case <-hub.Done():
			if ctx.Err() == nil {
				log.Error("Broadcast hub stopped unexpectedly")
				s.Stop()
				return fmt.Errorf("broadcast hub stopped")
			}
		}
		// Live streams only end once the server closes them, so the hub stops last.
		shutdown(log, s)
		stopHub()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("Program stopped cleanly")
	return nil
}

// shutdown stops the gRPC server, forcing it when live streams don't drain in time.
func shutdown(log *slog.Logger, s *grpc.Server) {
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		log.Warn("Graceful stop timed out, closing remaining streams")
		s.Stop()
	}
}

// openArchive opens the transcript store, in memory when no path is configured.
func openArchive(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.WARNING)
	}
	return badger.Open(opts)
}
