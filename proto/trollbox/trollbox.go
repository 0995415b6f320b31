// Package trollbox declares the TrollBox wire contract: the request and response
// messages, a JSON codec and the grpc service description.
package trollbox

import (
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"
)

type ErrorKind string

const (
	KindMissingAlias   ErrorKind = "MISSING_ALIAS"
	KindAliasTooLong   ErrorKind = "ALIAS_TOO_LONG"
	KindMissingMessage ErrorKind = "MISSING_MESSAGE"
	KindMessageTooLong ErrorKind = "MESSAGE_TOO_LONG"
	KindUnknown        ErrorKind = "UNKNOWN"
)

type SendMessageRequest struct {
	Alias   string `json:"alias"`
	Message string `json:"message"`
}

// SendMessageResponse carries no error when the message was accepted.
type SendMessageResponse struct {
	Errors []*SendMessageError `json:"errors"`
}

// SendMessageError is one rejected rule. Message is only set for KindUnknown.
type SendMessageError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message,omitempty"`
}

type StreamMessagesRequest struct{}

type Message struct {
	Id        string     `json:"id"`
	Alias     string     `json:"alias"`
	Text      string     `json:"text"`
	Timestamp *Timestamp `json:"timestamp"`
}

// Timestamp has the protobuf Timestamp layout: seconds and nanoseconds since epoch.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int32 `json:"nanos"`
}

func NewTimestamp(t time.Time) *Timestamp {
	ts := timestamppb.New(t)
	return &Timestamp{Seconds: ts.GetSeconds(), Nanos: ts.GetNanos()}
}

func (ts *Timestamp) AsTime() time.Time {
	if ts == nil {
		return time.Unix(0, 0).UTC()
	}
	return (&timestamppb.Timestamp{Seconds: ts.Seconds, Nanos: ts.Nanos}).AsTime()
}

func (ts *Timestamp) IsValid() bool {
	return ts != nil && (&timestamppb.Timestamp{Seconds: ts.Seconds, Nanos: ts.Nanos}).IsValid()
}
