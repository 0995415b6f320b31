package trollbox

import (
	goerrors "errors"
	"fmt"

	"trollbox/domain"
	"trollbox/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

func FromDomainMessage(m domain.Message) *Message {
	return &Message{
		Id:        m.ID.String(),
		Alias:     m.Alias,
		Text:      m.Text,
		Timestamp: NewTimestamp(m.SentAt),
	}
}

func ToDomainMessage(m *Message) (domain.Message, error) {
	id, err := uuid.Parse(m.Id)
	if err != nil {
		return domain.Message{}, fmt.Errorf("bad message id %q: %w", m.Id, err)
	}
	if !m.Timestamp.IsValid() {
		return domain.Message{}, fmt.Errorf("message %s: missing timestamp", m.Id)
	}
	return domain.Message{
		ID:     id,
		Alias:  m.Alias,
		Text:   m.Text,
		SentAt: m.Timestamp.AsTime(),
	}, nil
}

// FromDomainError turns the outcome of a submission into the response error list.
// Anything that is not a validation error becomes KindUnknown.
func FromDomainError(err error) []*SendMessageError {
	if err == nil {
		return []*SendMessageError{}
	}
	switch {
	case goerrors.Is(err, errors.ErrMissingMessage):
		return []*SendMessageError{{Kind: KindMissingMessage}}
	case goerrors.Is(err, errors.ErrMessageTooLong):
		return []*SendMessageError{{Kind: KindMessageTooLong}}
	case goerrors.Is(err, errors.ErrMissingAlias):
		return []*SendMessageError{{Kind: KindMissingAlias}}
	case goerrors.Is(err, errors.ErrAliasTooLong):
		return []*SendMessageError{{Kind: KindAliasTooLong}}
	default:
		return []*SendMessageError{{Kind: KindUnknown, Message: err.Error()}}
	}
}

// UnknownError is the client-side view of a KindUnknown error.
type UnknownError struct {
	Detail string
}

func (e UnknownError) Error() string {
	return e.Detail
}

// ToDomainErrors is the inverse of FromDomainError, used by clients.
func ToDomainErrors(errs []*SendMessageError) []error {
	return lo.FilterMap(errs, func(e *SendMessageError, _ int) (error, bool) {
		if e == nil {
			return nil, false
		}
		switch e.Kind {
		case KindMissingMessage:
			return errors.ErrMissingMessage, true
		case KindMessageTooLong:
			return errors.ErrMessageTooLong, true
		case KindMissingAlias:
			return errors.ErrMissingAlias, true
		case KindAliasTooLong:
			return errors.ErrAliasTooLong, true
		default:
			if e.Message == "" {
				return UnknownError{Detail: "failed"}, true
			}
			return UnknownError{Detail: e.Message}, true
		}
	})
}
