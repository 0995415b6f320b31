package errors

import (
	"context"
	goerrors "errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Validation errors, returned by domain.NewMessage. They never change hub state.
var (
	ErrMissingMessage = fmt.Errorf("missing message")
	ErrMessageTooLong = fmt.Errorf("message too long")
	ErrMissingAlias   = fmt.Errorf("missing alias")
	ErrAliasTooLong   = fmt.Errorf("alias too long")
)

var (
	// ErrInternal is what producers see when an accepted message could not reach the hub.
	ErrInternal = fmt.Errorf("internal error")
	// ErrHubUnavailable means the broadcast loop has exited.
	ErrHubUnavailable = fmt.Errorf("broadcast hub unavailable")
	// ErrSubscriptionClosed is returned when a subscription is forwarded twice.
	ErrSubscriptionClosed = fmt.Errorf("subscription already forwarded")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrInvalidCursor      = fmt.Errorf("invalid archive cursor")
)

// IsValidation reports whether err is one of the message validation errors.
func IsValidation(err error) bool {
	return goerrors.Is(err, ErrMissingMessage) ||
		goerrors.Is(err, ErrMessageTooLong) ||
		goerrors.Is(err, ErrMissingAlias) ||
		goerrors.Is(err, ErrAliasTooLong)
}

// MapToGRPCError translates errors that escape a handler into a grpc status.
// Validation errors travel in the response body and only land here by mistake.
func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case IsValidation(err), goerrors.Is(err, ErrInvalidCursor):
		return status.Error(codes.InvalidArgument, err.Error())
	case goerrors.Is(err, ErrHubUnavailable), goerrors.Is(err, ErrInternal):
		return status.Error(codes.Unavailable, err.Error())
	case goerrors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case goerrors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
