package e2e

import (
	"context"
	"strings"
	"testing"
	"time"

	"trollbox/client"
	"trollbox/domain"
	"trollbox/errors"

	"github.com/stretchr/testify/suite"
)

type RelaySuite struct {
	BaseGrpcSuite
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

// tail streams into a channel until ctx is cancelled
func (s *RelaySuite) tail(ctx context.Context, c *client.Client) <-chan domain.Message {
	out := make(chan domain.Message, 256)
	go func() {
		_ = c.Stream(ctx, func(m domain.Message) error {
			out <- m
			return nil
		})
	}()
	return out
}

func (s *RelaySuite) receive(ch <-chan domain.Message, n int) []string {
	texts := make([]string, 0, n)
	for range n {
		select {
		case m := <-ch:
			texts = append(texts, m.Text)
		case <-time.After(2 * time.Second):
			s.FailNow("timed out waiting for messages", "got %v", texts)
		}
	}
	return texts
}

func (s *RelaySuite) waitSubscribers(n int) {
	s.Require().Eventually(func() bool {
		return s.Hub.Stats().Subscribers == n
	}, 2*time.Second, 5*time.Millisecond)
}

func (s *RelaySuite) TestSendMessage_Rejections() {
	s.WithClient("Rejected sends", "alice", func(ctx context.Context, c *client.Client) {
		// When the text is empty
		err := c.Send(ctx, "")
		// Then the only rule reported is the missing message
		s.Require().ErrorIs(err, errors.ErrMissingMessage)
		s.Require().NotErrorIs(err, errors.ErrMissingAlias)

		// When the text is one character over the limit
		err = c.Send(ctx, strings.Repeat("x", domain.MaxTextLength+1))
		s.Require().ErrorIs(err, errors.ErrMessageTooLong)
	})

	s.WithClient("Anonymous sender", "", func(ctx context.Context, c *client.Client) {
		s.Require().ErrorIs(c.Send(ctx, "hi"), errors.ErrMissingAlias)
	})

	s.WithClient("Oversized alias", strings.Repeat("a", domain.MaxAliasLength+1), func(ctx context.Context, c *client.Client) {
		s.Require().ErrorIs(c.Send(ctx, "hi"), errors.ErrAliasTooLong)
	})

	// Then nothing was broadcast
	s.Require().Zero(s.Hub.Stats().Accepted)
	s.Require().Zero(s.History.Len())
}

func (s *RelaySuite) TestMessages_Replay_Then_Live() {
	s.WithClient("Alice posts", "alice", func(ctx context.Context, c *client.Client) {
		for _, text := range []string{"a", "b", "c"} {
			s.Require().NoError(c.Send(ctx, text))
		}
	})
	s.Require().Eventually(func() bool { return s.History.Len() == 3 }, 2*time.Second, 5*time.Millisecond)

	s.WithClient("Bob tails", "bob", func(ctx context.Context, c *client.Client) {
		streamCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		messages := s.tail(streamCtx, c)

		// Then the replay comes first, oldest first
		s.Require().Equal([]string{"a", "b", "c"}, s.receive(messages, 3))
		s.waitSubscribers(1)

		// When bob posts while connected he gets his own message back
		s.Require().NoError(c.Send(ctx, "d"))
		s.Require().Equal([]string{"d"}, s.receive(messages, 1))
	})

	// Then the disconnect is noticed by the hub
	s.waitSubscribers(0)
}

func (s *RelaySuite) TestMessages_Same_Order_For_Every_Subscriber() {
	s.WithClient("Two readers", "carol", func(ctx context.Context, c *client.Client) {
		streamCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		first := s.tail(streamCtx, c)
		second := s.tail(streamCtx, c)
		s.waitSubscribers(2)

		texts := []string{"one", "two", "three", "four", "five"}
		for _, text := range texts {
			s.Require().NoError(c.Send(ctx, text))
		}

		s.Require().Equal(texts, s.receive(first, len(texts)))
		s.Require().Equal(texts, s.receive(second, len(texts)))
	})
}
