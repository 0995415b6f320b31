package workers

import (
	"context"
	"log/slog"

	"trollbox/contract"
	"trollbox/domain"
)

// ArchiveWorker writes the messages tapped from the hub into the transcript store.
// The archive is never read back for replay.
type ArchiveWorker struct {
	log      *slog.Logger
	store    contract.MessageStore
	messages <-chan domain.Message
}

func NewArchiveWorker(log *slog.Logger, store contract.MessageStore, messages <-chan domain.Message) *ArchiveWorker {
	return &ArchiveWorker{log: log, store: store, messages: messages}
}

func (w *ArchiveWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping archive")
			return nil
		case m, ok := <-w.messages:
			if !ok {
				return nil
			}
			if err := w.store.StoreMessage(m); err != nil {
				w.log.Error("Failed to archive message", "message_id", m.ID, "error", err)
			}
		}
	}
}
