// Package runtime holds the broadcast core: the hub event loop, the shared history
// buffer and the two ports producers and subscribers go through.
package runtime

import (
	"context"
	"log/slog"
	"sync/atomic"

	"trollbox/domain"
	"trollbox/domain/event"
	"trollbox/errors"
	"trollbox/runtime/workers"
)

const DefaultChannelSize = 128

// BroadcastHub is the single owner of the subscriber set.
// Only the goroutine running Run reads or writes subscriptions; everybody else
// talks to it through the input channels.
//
// Subscribe and unsubscribe requests are always serviced before a message that is
// ready at the same time. This narrows, but does not close, the window in which a
// joining subscriber misses a message that is neither in its replay nor fanned out to it.
type BroadcastHub struct {
	log      *slog.Logger
	history  *HistoryBuffer
	messages chan domain.Message
	// Subscribe and unsubscribe share one queue so that a subscription's
	// unsubscribe can never overtake its own subscribe.
	control chan event.Event
	archive chan<- domain.Message
	done    chan struct{}

	// Loop-owned state
	subscriptions map[event.SubscriptionID]chan<- domain.Message
	held          *domain.Message

	subscribers atomic.Int64
	accepted    atomic.Uint64
	delivered   atomic.Uint64
	dropped     atomic.Uint64
}

func NewBroadcastHub(log *slog.Logger, history *HistoryBuffer, ingestionBufferSize, controlBufferSize int) *BroadcastHub {
	if ingestionBufferSize <= 0 {
		ingestionBufferSize = DefaultChannelSize
	}
	if controlBufferSize <= 0 {
		controlBufferSize = DefaultChannelSize
	}
	return &BroadcastHub{
		log:           log,
		history:       history,
		messages:      make(chan domain.Message, ingestionBufferSize),
		control:       make(chan event.Event, controlBufferSize),
		done:          make(chan struct{}),
		subscriptions: make(map[event.SubscriptionID]chan<- domain.Message),
	}
}

// WithArchive sets a tap receiving a copy of every accepted message after it is
// stored in history. The tap is fed without blocking. Must be called before Run.
func (h *BroadcastHub) WithArchive(archive chan<- domain.Message) *BroadcastHub {
	h.archive = archive
	return h
}

// Run consumes events until ctx is cancelled. It is not meant to be restarted:
// the subscriber set dies with it and Publish reports the hub as unavailable.
func (h *BroadcastHub) Run(ctx context.Context) error {
	defer close(h.done)
	h.log.Info("Broadcast hub started")
	for {
		evt, err := h.next(ctx)
		if err != nil {
			h.log.Info("Broadcast hub stopped", "subscribers", len(h.subscriptions))
			return nil
		}
		h.handle(evt)
	}
}

// next merges the sources into one stream of events.
func (h *BroadcastHub) next(ctx context.Context) (event.Event, error) {
	if evt, ok := h.pendingControl(); ok {
		return evt, nil
	}
	if h.held != nil {
		m := *h.held
		h.held = nil
		return event.MessageEvent{Message: m}, nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case c := <-h.control:
		return c, nil
	case m := <-h.messages:
		// A registration that arrived while we were waiting goes first
		if evt, ok := h.pendingControl(); ok {
			h.held = &m
			return evt, nil
		}
		return event.MessageEvent{Message: m}, nil
	}
}

func (h *BroadcastHub) pendingControl() (event.Event, bool) {
	select {
	case c := <-h.control:
		return c, true
	default:
		return nil, false
	}
}

func (h *BroadcastHub) handle(evt event.Event) {
	switch e := evt.(type) {
	case event.MessageEvent:
		h.broadcast(e.Message)
	case event.SubscribeEvent:
		h.subscriptions[e.ID] = e.Outbound
		h.subscribers.Store(int64(len(h.subscriptions)))
		h.log.Debug("Subscriber registered", "subscription_id", e.ID, "subscribers", len(h.subscriptions))
	case event.UnsubscribeEvent:
		if _, ok := h.subscriptions[e.ID]; !ok {
			return
		}
		delete(h.subscriptions, e.ID)
		h.subscribers.Store(int64(len(h.subscriptions)))
		h.log.Debug("Subscriber removed", "subscription_id", e.ID, "subscribers", len(h.subscriptions))
	}
}

// broadcast fans m out without ever waiting on a subscriber, then records it.
func (h *BroadcastHub) broadcast(m domain.Message) {
	h.accepted.Add(1)
	for id, outbound := range h.subscriptions {
		select {
		case outbound <- m:
			h.delivered.Add(1)
		default:
			h.dropped.Add(1)
			h.log.Warn("Subscriber channel full, message dropped",
				"subscription_id", id, "message_id", m.ID)
		}
	}
	h.history.Push(m)

	if h.archive != nil {
		select {
		case h.archive <- m:
		default:
			h.log.Debug("Archive channel full, message not archived", "message_id", m.ID)
		}
	}
}

// Publish hands m to the hub, waiting while the ingestion queue is full.
func (h *BroadcastHub) Publish(ctx context.Context, m domain.Message) error {
	select {
	case <-h.done:
		return errors.ErrHubUnavailable
	default:
	}
	select {
	case h.messages <- m:
		return nil
	case <-h.done:
		return errors.ErrHubUnavailable
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Register asks the hub to add a subscriber. It never blocks and reports
// whether the request was queued.
func (h *BroadcastHub) Register(id event.SubscriptionID, outbound chan<- domain.Message) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.control <- event.SubscribeEvent{ID: id, Outbound: outbound}:
		return true
	default:
		return false
	}
}

// Unregister asks the hub to drop a subscriber. Unknown ids are ignored by the hub.
func (h *BroadcastHub) Unregister(id event.SubscriptionID) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.control <- event.UnsubscribeEvent{ID: id}:
		return true
	default:
		return false
	}
}

func (h *BroadcastHub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done is closed when Run returns.
func (h *BroadcastHub) Done() <-chan struct{} {
	return h.done
}

func (h *BroadcastHub) Stats() domain.HubStats {
	return domain.HubStats{
		Subscribers: int(h.subscribers.Load()),
		Accepted:    h.accepted.Load(),
		Delivered:   h.delivered.Load(),
		Dropped:     h.dropped.Load(),
	}
}

// Channels exposes the input queues for fill-level reporting.
func (h *BroadcastHub) Channels() []workers.NamedChannel {
	return []workers.NamedChannel{
		{Name: "hub.messages", Channel: h.messages},
		{Name: "hub.control", Channel: h.control},
	}
}
