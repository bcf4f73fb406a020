package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// WebhookConfig holds the chat-host bridge configuration.
type WebhookConfig struct {
	// BaseURL is the root of the host bridge API.
	BaseURL string
	// Secret is sent with every request.
	Secret string
	// Timeout bounds each bridge call.
	Timeout time.Duration
}

// WebhookTransport delivers through an HTTP bridge into the host chat
// framework.
type WebhookTransport struct {
	config     WebhookConfig
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookTransport creates a transport for the given bridge.
func NewWebhookTransport(config WebhookConfig) *WebhookTransport {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &WebhookTransport{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: slog.Default(),
	}
}

type messagePayload struct {
	Content string `json:"content"`
}

type channelLookupResult struct {
	ChannelID int64 `json:"channel_id"`
}

// SendToChannel posts text to a channel through the bridge.
func (t *WebhookTransport) SendToChannel(ctx context.Context, channelID int64, text string) error {
	url := fmt.Sprintf("%s/channels/%d/messages", t.config.BaseURL, channelID)
	return t.post(ctx, url, &messagePayload{Content: text}, nil)
}

// SendDirect sends a direct message through the bridge.
func (t *WebhookTransport) SendDirect(ctx context.Context, userID int64, text string) error {
	url := fmt.Sprintf("%s/users/%d/messages", t.config.BaseURL, userID)
	return t.post(ctx, url, &messagePayload{Content: text}, nil)
}

// ResolveChannel finds a named channel within the user's guild.
func (t *WebhookTransport) ResolveChannel(ctx context.Context, userID int64, name string) (int64, error) {
	url := fmt.Sprintf("%s/users/%d/channels?name=%s", t.config.BaseURL, userID, name)
	result := &channelLookupResult{}
	if err := t.get(ctx, url, result); err != nil {
		return 0, err
	}
	return result.ChannelID, nil
}

func (t *WebhookTransport) post(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return Permanent("failed to marshal bridge payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Permanent("failed to create bridge request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return t.do(req, out)
}

func (t *WebhookTransport) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Permanent("failed to create bridge request: %v", err)
	}
	return t.do(req, out)
}

func (t *WebhookTransport) do(req *http.Request, out any) error {
	if t.config.Secret != "" {
		req.Header.Set("X-Bridge-Secret", t.config.Secret)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Message: "bridge request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		t.logger.Warn("bridge returned error",
			"url", req.URL.Path,
			"status", resp.StatusCode,
			"response", string(respBody),
		)
		return classifyStatus(resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return Transient("failed to decode bridge response: %v", err)
		}
	}
	return nil
}

// classifyStatus maps a bridge status code onto the delivery taxonomy.
// Forbidden, missing and gone targets will not recover; rate limiting and
// server trouble will.
func classifyStatus(status int) *DeliveryError {
	switch {
	case status == http.StatusForbidden, status == http.StatusNotFound, status == http.StatusGone:
		return Permanent("bridge returned status %d", status)
	case status == http.StatusTooManyRequests, status >= 500:
		return Transient("bridge returned status %d", status)
	default:
		return Permanent("bridge returned status %d", status)
	}
}
