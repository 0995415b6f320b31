package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"trollbox/domain"
	"trollbox/errors"
	"trollbox/runtime"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type chanSink chan domain.Message

func (c chanSink) Consume(_ context.Context, m domain.Message) error {
	c <- m
	return nil
}

func TestRelayService_Send_Then_Subscribe(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	history := runtime.NewHistoryBuffer(runtime.DefaultHistoryCapacity)
	hub := runtime.NewBroadcastHub(log, history, 8, 8)
	relay := NewRelayService(hub,
		runtime.NewIngressPort(log, hub),
		runtime.NewSubscriptionPort(log, history, hub, 8))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Run(ctx) }()

	// Given an accepted and a rejected message
	sent, err := relay.SendMessage(ctx, "alice", "hello")
	req.NoError(err)
	_, err = relay.SendMessage(ctx, "alice", "")
	req.ErrorIs(err, errors.ErrMissingMessage)
	req.Eventually(func() bool { return history.Len() == 1 }, time.Second, time.Millisecond)
	req.Equal(uint64(1), relay.Stats().Accepted)

	// When a subscriber joins
	sink := make(chanSink, 4)
	go func() { _ = relay.Subscribe(ctx, sink) }()

	// Then it gets the accepted message from history
	select {
	case m := <-sink:
		req.Equal(sent, m)
	case <-time.After(time.Second):
		req.Fail("replay not received")
	}
}
