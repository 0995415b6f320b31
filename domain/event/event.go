package event

import (
	"trollbox/domain"

	"github.com/google/uuid"
)

// SubscriptionID correlates a hub entry with one forwarding loop.
type SubscriptionID = uuid.UUID

// Event is the input alphabet of the broadcast hub.
// The set of variants is closed: MessageEvent, SubscribeEvent and UnsubscribeEvent.
type Event interface {
	isEvent()
}

type MessageEvent struct {
	Message domain.Message
}

type SubscribeEvent struct {
	ID       SubscriptionID
	Outbound chan<- domain.Message
}

type UnsubscribeEvent struct {
	ID SubscriptionID
}

func (MessageEvent) isEvent()     {}
func (SubscribeEvent) isEvent()   {}
func (UnsubscribeEvent) isEvent() {}
