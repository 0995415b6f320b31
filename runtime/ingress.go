package runtime

import (
	"context"
	goerrors "errors"
	"log/slog"
	"time"

	"trollbox/contract"
	"trollbox/domain"
	"trollbox/errors"
)

// IngressPort validates producer input and forwards accepted messages to the hub.
type IngressPort struct {
	log       *slog.Logger
	publisher contract.Publisher
	now       func() time.Time
}

func NewIngressPort(log *slog.Logger, publisher contract.Publisher) *IngressPort {
	return &IngressPort{
		log:       log,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Submit returns the accepted message, a validation error, or errors.ErrInternal
// when the hub could not take it. Nothing reaches the hub unless validation passed.
// The call blocks while the hub's ingestion queue is full.
func (p *IngressPort) Submit(ctx context.Context, alias, text string) (domain.Message, error) {
	message, err := domain.NewMessage(alias, text, p.now())
	if err != nil {
		p.log.Debug("Message rejected", "alias", alias, "reason", err)
		return domain.Message{}, err
	}
	if err := p.publisher.Publish(ctx, message); err != nil {
		if goerrors.Is(err, errors.ErrHubUnavailable) {
			p.log.Error("Failed to forward message to hub", "message_id", message.ID, "error", err)
		} else {
			p.log.Warn("Message forwarding interrupted", "message_id", message.ID, "error", err)
		}
		return domain.Message{}, errors.ErrInternal
	}
	p.log.Debug("Message accepted", "message_id", message.ID, "alias", message.Alias)
	return message, nil
}
