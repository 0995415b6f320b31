// Package domain contains the core concepts of the relay.
// Messages are immutable and validated once, when they are created.
package domain

import (
	goerrors "errors"
	"time"

	"trollbox/errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	MaxTextLength  = 256
	MaxAliasLength = 32
)

var validate = validator.New()

// Message represents an accepted chat line.
type Message struct {
	ID     uuid.UUID
	Alias  string
	Text   string
	SentAt time.Time
}

// messageInput declares the rules in the order they are checked: text first, then alias.
// Lengths are counted in characters, not bytes.
type messageInput struct {
	Text  string `validate:"required,max=256"`
	Alias string `validate:"required,max=32"`
}

// NewMessage validates alias and text and stamps a fresh message.
// Only the first broken rule is reported.
func NewMessage(alias, text string, at time.Time) (Message, error) {
	if err := validateInput(messageInput{Text: text, Alias: alias}); err != nil {
		return Message{}, err
	}
	return Message{
		ID:     uuid.New(),
		Alias:  alias,
		Text:   text,
		SentAt: at,
	}, nil
}

func validateInput(in messageInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrors validator.ValidationErrors
	if !goerrors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err
	}
	first := fieldErrors[0]
	switch first.Field() {
	case "Text":
		if first.Tag() == "required" {
			return errors.ErrMissingMessage
		}
		return errors.ErrMessageTooLong
	case "Alias":
		if first.Tag() == "required" {
			return errors.ErrMissingAlias
		}
		return errors.ErrAliasTooLong
	}
	return err
}
