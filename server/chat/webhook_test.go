package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSendToChannel(t *testing.T) {
	var gotPath, gotSecret string
	var gotPayload messagePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSecret = r.Header.Get("X-Bridge-Secret")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	transport := NewWebhookTransport(WebhookConfig{BaseURL: server.URL, Secret: "hunter2"})
	err := transport.SendToChannel(context.Background(), 1001, "Reminder: stand up")
	require.NoError(t, err)
	assert.Equal(t, "/channels/1001/messages", gotPath)
	assert.Equal(t, "hunter2", gotSecret)
	assert.Equal(t, "Reminder: stand up", gotPayload.Content)
}

func TestWebhookResolveChannel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/42/channels", r.URL.Path)
		assert.Equal(t, "bot-spam", r.URL.Query().Get("name"))
		json.NewEncoder(w).Encode(channelLookupResult{ChannelID: 555})
	}))
	defer server.Close()

	transport := NewWebhookTransport(WebhookConfig{BaseURL: server.URL})
	id, err := transport.ResolveChannel(context.Background(), 42, "bot-spam")
	require.NoError(t, err)
	assert.Equal(t, int64(555), id)
}

func TestWebhookStatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
	}{
		{http.StatusForbidden, true},
		{http.StatusNotFound, true},
		{http.StatusGone, true},
		{http.StatusBadRequest, true},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
		{http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		status := tt.status
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		}))
		transport := NewWebhookTransport(WebhookConfig{BaseURL: server.URL})
		err := transport.SendDirect(context.Background(), 42, "hello")
		require.Error(t, err)
		assert.Equal(t, tt.permanent, IsPermanent(err), "status %d", status)
		server.Close()
	}
}

func TestWebhookNetworkErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // refuse connections

	transport := NewWebhookTransport(WebhookConfig{BaseURL: server.URL})
	err := transport.SendDirect(context.Background(), 42, "hello")
	require.Error(t, err)
	assert.False(t, IsPermanent(err))
}
