package runtime

import (
	"context"
	"log/slog"
	"sync/atomic"

	"trollbox/contract"
	"trollbox/domain"
	"trollbox/domain/event"
	"trollbox/errors"

	"github.com/google/uuid"
)

type SubscriptionState int32

const (
	Created SubscriptionState = iota
	Replayed
	Registered
	Active
	Closed
)

func (s SubscriptionState) String() string {
	switch s {
	case Created:
		return "created"
	case Replayed:
		return "replayed"
	case Registered:
		return "registered"
	case Active:
		return "active"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// SubscriptionPort turns a consumer connection into a hub subscriber:
// history replay first, then live messages until the consumer goes away.
type SubscriptionPort struct {
	log        *slog.Logger
	history    contract.HistoryReader
	registrar  contract.Registrar
	bufferSize int
}

func NewSubscriptionPort(log *slog.Logger, history contract.HistoryReader,
	registrar contract.Registrar, bufferSize int) *SubscriptionPort {
	if bufferSize <= 0 {
		bufferSize = DefaultChannelSize
	}
	return &SubscriptionPort{log: log, history: history, registrar: registrar, bufferSize: bufferSize}
}

// Subscription is one consumer's view of the hub. The outbound channel is written
// by the replay and by the hub, and read only by Forward. It is never closed.
type Subscription struct {
	ID        event.SubscriptionID
	outbound  chan domain.Message
	registrar contract.Registrar
	log       *slog.Logger
	state     atomic.Int32
}

// Serve opens a subscription and forwards it to sink until sink fails or ctx ends.
func (p *SubscriptionPort) Serve(ctx context.Context, sink contract.MessageSink) error {
	return p.Open().Forward(ctx, sink)
}

// Open allocates the subscription, replays the history snapshot into it and asks
// the hub to register it. Neither step blocks: replay entries that don't fit are
// dropped and a full subscribe queue leaves the subscription replay-only.
func (p *SubscriptionPort) Open() *Subscription {
	sub := &Subscription{
		ID:        uuid.New(),
		outbound:  make(chan domain.Message, p.bufferSize),
		registrar: p.registrar,
		log:       p.log,
	}
	sub.state.Store(int32(Created))

	snapshot := p.history.Snapshot()
	replayed := 0
replay:
	for _, m := range snapshot {
		select {
		case sub.outbound <- m:
			replayed++
		default:
			p.log.Warn("Subscriber channel full during replay, history truncated",
				"subscription_id", sub.ID, "replayed", replayed, "dropped", len(snapshot)-replayed)
			break replay
		}
	}
	sub.state.Store(int32(Replayed))

	if !p.registrar.Register(sub.ID, sub.outbound) {
		p.log.Warn("Subscribe request not queued, subscriber will only get history", "subscription_id", sub.ID)
	}
	sub.state.Store(int32(Registered))

	p.log.Debug("Subscription opened", "subscription_id", sub.ID, "replayed", replayed)
	return sub
}

// Forward writes every message of the subscription to sink, in receive order.
// A sink error ends the subscription and is returned; a done ctx ends it quietly.
// Either way the hub is asked to forget the subscription.
func (s *Subscription) Forward(ctx context.Context, sink contract.MessageSink) error {
	if !s.state.CompareAndSwap(int32(Registered), int32(Active)) {
		return errors.ErrSubscriptionClosed
	}
	defer s.close()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Subscriber disconnected", "subscription_id", s.ID)
			return nil
		case m := <-s.outbound:
			if err := sink.Consume(ctx, m); err != nil {
				s.log.Warn("Subscriber transport failed", "subscription_id", s.ID, "error", err)
				return err
			}
		}
	}
}

func (s *Subscription) close() {
	s.state.Store(int32(Closed))
	if !s.registrar.Unregister(s.ID) {
		s.log.Warn("Unsubscribe request not queued", "subscription_id", s.ID)
	}
}

func (s *Subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// Pending is the number of messages waiting to be forwarded.
func (s *Subscription) Pending() int {
	return len(s.outbound)
}
