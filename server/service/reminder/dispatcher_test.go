package reminder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthbot/remindd/internal/profile"
	"github.com/hearthbot/remindd/server/chat"
	"github.com/hearthbot/remindd/store"
)

func newTestProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p := &profile.Profile{Mode: "dev", Driver: "memory"}
	require.NoError(t, p.Validate())
	return p
}

func reminderAt(channelID int64) *store.Reminder {
	r := &store.Reminder{
		ID:      1,
		UID:     "r-1",
		OwnerID: 42,
		Body:    "water the plants",
		Status:  store.StatusActive,
	}
	if channelID != 0 {
		r.OriginChannelID = &channelID
	}
	return r
}

func TestDispatchToOriginChannel(t *testing.T) {
	transport := chat.NewMockTransport()
	dispatcher := NewDispatcher(transport, newTestProfile(t))

	outcome, err := dispatcher.Dispatch(context.Background(), reminderAt(1001))
	require.NoError(t, err)
	assert.Equal(t, Delivered, outcome)

	sent := transport.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(1001), sent[0].ChannelID)
	assert.Equal(t, "<@42> Reminder: water the plants", sent[0].Text)
}

func TestDispatchFallsBackToDirectMessage(t *testing.T) {
	transport := chat.NewMockTransport()
	transport.FailChannel(1001, chat.Permanent("channel deleted"))
	dispatcher := NewDispatcher(transport, newTestProfile(t))

	outcome, err := dispatcher.Dispatch(context.Background(), reminderAt(1001))
	require.NoError(t, err)
	assert.Equal(t, Delivered, outcome)

	sent := transport.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(42), sent[0].UserID)
	assert.Equal(t, "Reminder: water the plants", sent[0].Text)
}

func TestDispatchWithoutOriginGoesDirect(t *testing.T) {
	transport := chat.NewMockTransport()
	dispatcher := NewDispatcher(transport, newTestProfile(t))

	outcome, err := dispatcher.Dispatch(context.Background(), reminderAt(0))
	require.NoError(t, err)
	assert.Equal(t, Delivered, outcome)
	require.Len(t, transport.Sent(), 1)
	assert.Equal(t, int64(42), transport.Sent()[0].UserID)
}

func TestDispatchWalksFallbackChannels(t *testing.T) {
	// Origin gone, DMs disabled, bot-spam exists in the guild.
	transport := chat.NewMockTransport()
	transport.FailChannel(1001, chat.Permanent("channel deleted"))
	transport.FailDirect(42, chat.Permanent("DMs disabled"))
	transport.AddChannel("bot-spam", 2001)
	dispatcher := NewDispatcher(transport, newTestProfile(t))

	outcome, err := dispatcher.Dispatch(context.Background(), reminderAt(1001))
	require.NoError(t, err)
	assert.Equal(t, Delivered, outcome)

	sent := transport.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(2001), sent[0].ChannelID)
}

func TestDispatchTransientAbortsWalk(t *testing.T) {
	transport := chat.NewMockTransport()
	transport.FailChannel(1001, chat.Transient("rate limited"))
	dispatcher := NewDispatcher(transport, newTestProfile(t))

	outcome, err := dispatcher.Dispatch(context.Background(), reminderAt(1001))
	require.Error(t, err)
	assert.Equal(t, TransientFailure, outcome)
	assert.Empty(t, transport.Sent())
}

func TestDispatchPermanentlyUndeliverable(t *testing.T) {
	transport := chat.NewMockTransport()
	transport.FailChannel(1001, chat.Permanent("channel deleted"))
	transport.FailDirect(42, chat.Permanent("unknown user"))
	dispatcher := NewDispatcher(transport, newTestProfile(t))

	outcome, err := dispatcher.Dispatch(context.Background(), reminderAt(1001))
	require.Error(t, err)
	assert.Equal(t, PermanentlyUndeliverable, outcome)
	assert.Empty(t, transport.Sent())
}
