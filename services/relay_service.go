package services

import (
	"context"

	"trollbox/contract"
	"trollbox/domain"
	"trollbox/runtime"
)

type IRelayService interface {
	SendMessage(ctx context.Context, alias, text string) (domain.Message, error)
	Subscribe(ctx context.Context, sink contract.MessageSink) error
	Stats() domain.HubStats
}

type RelayService struct {
	hub           *runtime.BroadcastHub
	ingress       *runtime.IngressPort
	subscriptions *runtime.SubscriptionPort
}

func NewRelayService(hub *runtime.BroadcastHub, ingress *runtime.IngressPort,
	subscriptions *runtime.SubscriptionPort) *RelayService {
	return &RelayService{hub: hub, ingress: ingress, subscriptions: subscriptions}
}

func (s *RelayService) SendMessage(ctx context.Context, alias, text string) (domain.Message, error) {
	return s.ingress.Submit(ctx, alias, text)
}

// Subscribe blocks until the sink fails or ctx is done.
func (s *RelayService) Subscribe(ctx context.Context, sink contract.MessageSink) error {
	return s.subscriptions.Serve(ctx, sink)
}

func (s *RelayService) Stats() domain.HubStats {
	return s.hub.Stats()
}
