package runtime

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"trollbox/domain"
	"trollbox/errors"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const waitFor = time.Second

func startHub(t *testing.T, hub *BroadcastHub) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
}

func newTestHub(t *testing.T) (*BroadcastHub, *HistoryBuffer) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	history := NewHistoryBuffer(DefaultHistoryCapacity)
	hub := NewBroadcastHub(log, history, DefaultChannelSize, DefaultChannelSize)
	return hub, history
}

func receive(t *testing.T, ch <-chan domain.Message, n int) []domain.Message {
	t.Helper()
	var res []domain.Message
	for len(res) < n {
		select {
		case m := <-ch:
			res = append(res, m)
		case <-time.After(waitFor):
			require.FailNow(t, "timed out waiting for messages", "got %d of %d", len(res), n)
		}
	}
	return res
}

func TestBroadcastHub_Fanout_Same_Order_To_All_Subscribers(t *testing.T) {
	req := require.New(t)
	hub, history := newTestHub(t)
	startHub(t, hub)
	ctx := context.Background()

	// Given two active subscribers
	s1 := make(chan domain.Message, DefaultChannelSize)
	s2 := make(chan domain.Message, DefaultChannelSize)
	req.True(hub.Register(uuid.New(), s1))
	req.True(hub.Register(uuid.New(), s2))
	req.Eventually(func() bool { return hub.Stats().Subscribers == 2 }, waitFor, time.Millisecond)

	// When two messages are accepted
	m1, m2 := newMessage("alice", "hi"), newMessage("bob", "yo")
	req.NoError(hub.Publish(ctx, m1))
	req.NoError(hub.Publish(ctx, m2))

	// Then both subscribers see m1 before m2
	req.Equal([]domain.Message{m1, m2}, receive(t, s1, 2))
	req.Equal([]domain.Message{m1, m2}, receive(t, s2, 2))

	// And both are in history
	req.Eventually(func() bool { return history.Len() == 2 }, waitFor, time.Millisecond)
	req.Equal([]domain.Message{m1, m2}, history.Snapshot())

	stats := hub.Stats()
	req.Equal(uint64(2), stats.Accepted)
	req.Equal(uint64(4), stats.Delivered)
	req.Zero(stats.Dropped)
}

func TestBroadcastHub_Unsubscribe_Stops_Delivery(t *testing.T) {
	req := require.New(t)
	hub, history := newTestHub(t)
	startHub(t, hub)
	ctx := context.Background()

	id1, id2 := uuid.New(), uuid.New()
	s1 := make(chan domain.Message, DefaultChannelSize)
	s2 := make(chan domain.Message, DefaultChannelSize)
	hub.Register(id1, s1)
	hub.Register(id2, s2)
	req.Eventually(func() bool { return hub.Stats().Subscribers == 2 }, waitFor, time.Millisecond)

	// When the first subscriber leaves
	req.True(hub.Unregister(id1))
	req.Eventually(func() bool { return hub.Stats().Subscribers == 1 }, waitFor, time.Millisecond)

	m := newMessage("alice", "still there?")
	req.NoError(hub.Publish(ctx, m))

	// Then only the second one gets the message
	req.Equal([]domain.Message{m}, receive(t, s2, 1))
	req.Eventually(func() bool { return history.Len() == 1 }, waitFor, time.Millisecond)
	req.Empty(s1)
}

func TestBroadcastHub_Unregister_Unknown_ID_Is_Noop(t *testing.T) {
	req := require.New(t)
	hub, _ := newTestHub(t)
	startHub(t, hub)

	s1 := make(chan domain.Message, 1)
	hub.Register(uuid.New(), s1)
	req.Eventually(func() bool { return hub.Stats().Subscribers == 1 }, waitFor, time.Millisecond)

	req.True(hub.Unregister(uuid.New()))

	// The hub still serves the remaining subscriber
	m := newMessage("bob", "hi")
	req.NoError(hub.Publish(context.Background(), m))
	req.Equal([]domain.Message{m}, receive(t, s1, 1))
	req.Equal(1, hub.Stats().Subscribers)
}

func TestBroadcastHub_Drops_For_Saturated_Subscriber(t *testing.T) {
	req := require.New(t)
	hub, history := newTestHub(t)
	startHub(t, hub)
	ctx := context.Background()

	// Given a subscriber whose channel is already full
	slow := make(chan domain.Message, 1)
	old := newMessage("alice", "unread")
	slow <- old
	fast := make(chan domain.Message, DefaultChannelSize)
	hub.Register(uuid.New(), slow)
	hub.Register(uuid.New(), fast)
	req.Eventually(func() bool { return hub.Stats().Subscribers == 2 }, waitFor, time.Millisecond)

	// When messages keep coming
	m1, m2 := newMessage("bob", "one"), newMessage("bob", "two")
	req.NoError(hub.Publish(ctx, m1))
	req.NoError(hub.Publish(ctx, m2))

	// Then the fast subscriber is not held back
	req.Equal([]domain.Message{m1, m2}, receive(t, fast, 2))
	req.Eventually(func() bool { return history.Len() == 2 }, waitFor, time.Millisecond)

	// And the slow one only keeps what it had
	req.Equal(uint64(2), hub.Stats().Dropped)
	req.Len(slow, 1)
	req.Equal(old, <-slow)
}

func TestBroadcastHub_Subscribe_Serviced_Before_Pending_Message(t *testing.T) {
	req := require.New(t)
	hub, _ := newTestHub(t)
	ctx := context.Background()

	// Given a message and a subscription both waiting before the loop starts
	m := newMessage("alice", "hi")
	req.NoError(hub.Publish(ctx, m))
	s1 := make(chan domain.Message, 1)
	req.True(hub.Register(uuid.New(), s1))

	// When the hub starts
	startHub(t, hub)

	// Then the registration wins and the message is delivered
	req.Equal([]domain.Message{m}, receive(t, s1, 1))
}

func TestBroadcastHub_Control_Events_Keep_Their_Order(t *testing.T) {
	req := require.New(t)
	hub, history := newTestHub(t)
	ctx := context.Background()

	// Given a subscription that joined and left while a message was pending
	id := uuid.New()
	s1 := make(chan domain.Message, 1)
	req.True(hub.Register(id, s1))
	req.NoError(hub.Publish(ctx, newMessage("alice", "hi")))
	req.True(hub.Unregister(id))

	// When the hub starts
	startHub(t, hub)

	// Then both control events ran before the message, in order
	req.Eventually(func() bool { return history.Len() == 1 }, waitFor, time.Millisecond)
	req.Empty(s1)
	req.Equal(0, hub.Stats().Subscribers)
}

func TestBroadcastHub_Publish_Blocks_When_Queue_Full(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	hub := NewBroadcastHub(log, NewHistoryBuffer(DefaultHistoryCapacity), 1, 1)

	// Given a hub that doesn't consume yet and a queue of one
	req.NoError(hub.Publish(context.Background(), newMessage("a", "1")))

	// When a second message is published
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := hub.Publish(ctx, newMessage("a", "2"))

	// Then the producer waited instead of dropping
	req.ErrorIs(err, context.DeadlineExceeded)
}

func TestBroadcastHub_Unavailable_After_Stop(t *testing.T) {
	req := require.New(t)
	hub, _ := newTestHub(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()

	cancel()
	<-hub.Done()

	req.ErrorIs(hub.Publish(context.Background(), newMessage("a", "b")), errors.ErrHubUnavailable)
	req.False(hub.Register(uuid.New(), make(chan domain.Message, 1)))
	req.False(hub.Unregister(uuid.New()))
}

func TestBroadcastHub_Archive_Tap(t *testing.T) {
	req := require.New(t)
	hub, history := newTestHub(t)
	archive := make(chan domain.Message, 1)
	hub.WithArchive(archive)
	startHub(t, hub)
	ctx := context.Background()

	m1, m2, m3 := newMessage("a", "1"), newMessage("a", "2"), newMessage("a", "3")
	req.NoError(hub.Publish(ctx, m1))
	req.NoError(hub.Publish(ctx, m2))
	req.NoError(hub.Publish(ctx, m3))

	// The tap is best-effort: a full archive channel doesn't hold the hub
	req.Eventually(func() bool { return history.Len() == 3 }, waitFor, time.Millisecond)
	req.Len(archive, 1)
	req.Equal(m1, <-archive)
}

func TestBroadcastHub_Channels(t *testing.T) {
	req := require.New(t)
	hub, _ := newTestHub(t)

	channels := hub.Channels()

	req.Len(channels, 2)
	req.Equal("hub.messages", channels[0].Name)
}
