//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"trollbox/domain"
	"trollbox/domain/event"
)

// Worker doesn't protect itself
// Supervision decides what happens when Run fails
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need
// for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// MessageSink is the consumer side of a subscription (a gRPC stream, a test recorder).
// An error from Consume ends the subscription.
type MessageSink interface {
	Consume(ctx context.Context, m domain.Message) error
}

// Publisher accepts validated messages, blocking while the hub queue is full.
type Publisher interface {
	Publish(ctx context.Context, m domain.Message) error
}

// Registrar dispatches subscribe/unsubscribe requests to the hub without blocking.
type Registrar interface {
	Register(id event.SubscriptionID, outbound chan<- domain.Message) bool
	Unregister(id event.SubscriptionID) bool
}

// HistoryReader exposes a point-in-time copy of the recent messages, oldest first.
type HistoryReader interface {
	Snapshot() []domain.Message
}

// MessageStore is the transcript archive.
type MessageStore interface {
	StoreMessage(m domain.Message) error
	GetMessages(limit int, cursor *string) ([]domain.Message, *string, error)
}
