// Package chat abstracts the host chat framework the reminder service
// delivers into.
package chat

import (
	"context"
	"errors"
	"fmt"
)

// Transport is the delivery surface the host chat framework exposes.
type Transport interface {
	// SendToChannel posts text to a channel.
	SendToChannel(ctx context.Context, channelID int64, text string) error
	// SendDirect sends text as a direct message to a user.
	SendDirect(ctx context.Context, userID int64, text string) error
	// ResolveChannel finds a channel by name within the user's guild and
	// returns its id.
	ResolveChannel(ctx context.Context, userID int64, name string) (int64, error)
}

// DeliveryError is a classified transport failure. Permanent failures will
// not succeed on retry (unknown user, posting forbidden); everything else is
// worth retrying on the next tick.
type DeliveryError struct {
	Permanent bool
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// Transient creates a retryable delivery error.
func Transient(format string, args ...any) *DeliveryError {
	return &DeliveryError{Message: fmt.Sprintf(format, args...)}
}

// Permanent creates a non-retryable delivery error.
func Permanent(format string, args ...any) *DeliveryError {
	return &DeliveryError{Permanent: true, Message: fmt.Sprintf(format, args...)}
}

// IsPermanent reports whether err is a delivery error that retrying cannot
// fix. Unclassified errors count as transient.
func IsPermanent(err error) bool {
	var deliveryErr *DeliveryError
	return errors.As(err, &deliveryErr) && deliveryErr.Permanent
}
