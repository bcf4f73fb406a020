package chat

import (
	"context"
	"sync"
)

// SentMessage records one delivery made through the mock transport.
type SentMessage struct {
	// ChannelID is set for channel posts, zero for direct messages.
	ChannelID int64
	// UserID is set for direct messages, zero for channel posts.
	UserID int64
	Text   string
}

// MockTransport is an in-memory Transport for tests. Channels must be
// registered before they resolve; failures are injected per target.
type MockTransport struct {
	mu sync.Mutex

	channelsByName map[string]int64
	channelErrs    map[int64]error
	directErrs     map[int64]error
	sent           []SentMessage
}

// NewMockTransport creates an empty mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		channelsByName: map[string]int64{},
		channelErrs:    map[int64]error{},
		directErrs:     map[int64]error{},
	}
}

// AddChannel registers a resolvable channel.
func (m *MockTransport) AddChannel(name string, id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channelsByName[name] = id
}

// FailChannel makes posts to the channel return err; nil clears the failure.
func (m *MockTransport) FailChannel(id int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.channelErrs, id)
		return
	}
	m.channelErrs[id] = err
}

// FailDirect makes direct messages to the user return err; nil clears the
// failure.
func (m *MockTransport) FailDirect(userID int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.directErrs, userID)
		return
	}
	m.directErrs[userID] = err
}

// Sent returns a copy of every recorded delivery.
func (m *MockTransport) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// SendToChannel implements Transport.
func (m *MockTransport) SendToChannel(_ context.Context, channelID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.channelErrs[channelID]; ok {
		return err
	}
	m.sent = append(m.sent, SentMessage{ChannelID: channelID, Text: text})
	return nil
}

// SendDirect implements Transport.
func (m *MockTransport) SendDirect(_ context.Context, userID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.directErrs[userID]; ok {
		return err
	}
	m.sent = append(m.sent, SentMessage{UserID: userID, Text: text})
	return nil
}

// ResolveChannel implements Transport. Unregistered names resolve to a
// permanent failure, matching a channel the guild does not have.
func (m *MockTransport) ResolveChannel(_ context.Context, _ int64, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.channelsByName[name]; ok {
		return id, nil
	}
	return 0, Permanent("no channel named %q", name)
}
