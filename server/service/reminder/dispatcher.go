package reminder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hearthbot/remindd/internal/profile"
	"github.com/hearthbot/remindd/server/chat"
	"github.com/hearthbot/remindd/store"
)

// Outcome classifies one delivery attempt.
type Outcome int

const (
	// Delivered means the reminder reached some target.
	Delivered Outcome = iota
	// TransientFailure means delivery should be retried on the next tick.
	TransientFailure
	// PermanentlyUndeliverable means every target refused and retrying is
	// pointless.
	PermanentlyUndeliverable
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case TransientFailure:
		return "transient_failure"
	default:
		return "permanently_undeliverable"
	}
}

// Dispatcher delivers one due reminder, walking origin channel, direct
// message, then the configured fallback channels, stopping on first success.
type Dispatcher struct {
	transport chat.Transport
	fallbacks []string
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher over the given transport.
func NewDispatcher(transport chat.Transport, profile *profile.Profile) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		fallbacks: profile.FallbackChannels,
		logger:    slog.Default(),
	}
}

// Dispatch attempts delivery of one reminder. A transient failure on any
// target aborts the walk so the whole attempt can be retried; a permanent
// failure moves on to the next target.
func (d *Dispatcher) Dispatch(ctx context.Context, r *store.Reminder) (Outcome, error) {
	channelText := fmt.Sprintf("<@%d> Reminder: %s", r.OwnerID, r.Body)
	directText := fmt.Sprintf("Reminder: %s", r.Body)

	if r.OriginChannelID != nil {
		err := d.transport.SendToChannel(ctx, *r.OriginChannelID, channelText)
		if err == nil {
			return Delivered, nil
		}
		if !chat.IsPermanent(err) {
			return TransientFailure, err
		}
		d.logger.Debug("origin channel unavailable, falling back",
			"reminder", r.UID,
			"channel", *r.OriginChannelID,
			"error", err,
		)
	}

	err := d.transport.SendDirect(ctx, r.OwnerID, directText)
	if err == nil {
		return Delivered, nil
	}
	if !chat.IsPermanent(err) {
		return TransientFailure, err
	}

	for _, name := range d.fallbacks {
		channelID, err := d.transport.ResolveChannel(ctx, r.OwnerID, name)
		if err != nil {
			if !chat.IsPermanent(err) {
				return TransientFailure, err
			}
			continue
		}
		err = d.transport.SendToChannel(ctx, channelID, channelText)
		if err == nil {
			return Delivered, nil
		}
		if !chat.IsPermanent(err) {
			return TransientFailure, err
		}
	}

	return PermanentlyUndeliverable, fmt.Errorf("every delivery target refused reminder %s for owner %d", r.UID, r.OwnerID)
}
